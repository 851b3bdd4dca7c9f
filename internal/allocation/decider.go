// Package allocation decides whether an order line is split when the fulfilling
// location cannot cover the ordered quantity.
package allocation

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Outcome enumerates allocation decisions.
type Outcome string

const (
	// OutcomeFulfilled means stock covers the line; nothing changes.
	OutcomeFulfilled Outcome = "FULFILLED"
	// OutcomeShortage means no stock at all; the line stays whole and is flagged.
	OutcomeShortage Outcome = "SHORTAGE"
	// OutcomeSplit means the line is cut to the available quantity and the rest
	// moves to a flagged shortage line.
	OutcomeSplit Outcome = "SPLIT"
)

// ErrInvalidQuantity is returned when the ordered quantity is not positive.
var ErrInvalidQuantity = errors.New("allocation: ordered quantity must be greater than zero")

// OrderLine is one customer order line awaiting fulfillment.
type OrderLine struct {
	ItemID     string
	Quantity   decimal.Decimal
	IsAssembly bool
	Units      Optional[string]
	PriceLevel Optional[string]
	Rate       Optional[decimal.Decimal]
}

// Line is an order line after a decision has been applied. Shortage marks the
// line for manufacture.
type Line struct {
	OrderLine
	Shortage bool
}

// Decision is the result of Decide.
type Decision struct {
	Outcome           Outcome
	FulfilledQuantity decimal.Decimal
	ShortageQuantity  decimal.Decimal
}

// Decide applies the split policy for a single line. The first matching rule wins:
// enough stock, no stock, partial stock.
func Decide(ordered, available decimal.Decimal) (Decision, error) {
	if !ordered.IsPositive() {
		return Decision{}, ErrInvalidQuantity
	}
	switch {
	case available.GreaterThanOrEqual(ordered):
		return Decision{Outcome: OutcomeFulfilled, FulfilledQuantity: ordered, ShortageQuantity: decimal.Zero}, nil
	case !available.IsPositive():
		return Decision{Outcome: OutcomeShortage, FulfilledQuantity: decimal.Zero, ShortageQuantity: ordered}, nil
	default:
		return Decision{
			Outcome:           OutcomeSplit,
			FulfilledQuantity: available,
			ShortageQuantity:  ordered.Sub(available),
		}, nil
	}
}

// Split reports whether the decision produces a second line.
func (d Decision) Split() bool {
	return d.Outcome == OutcomeSplit
}

// Apply returns the lines that replace src. A split yields the fulfilled line
// followed by the shortage line; the shortage line copies only the attributes
// present on src.
func (d Decision) Apply(src OrderLine) []Line {
	switch d.Outcome {
	case OutcomeFulfilled:
		return []Line{{OrderLine: src}}
	case OutcomeShortage:
		return []Line{{OrderLine: src, Shortage: true}}
	}
	fulfilled := src
	fulfilled.Quantity = d.FulfilledQuantity

	shortage := OrderLine{
		ItemID:     src.ItemID,
		Quantity:   d.ShortageQuantity,
		IsAssembly: src.IsAssembly,
	}
	if v, ok := src.Units.Get(); ok {
		shortage.Units = Some(v)
	}
	if v, ok := src.PriceLevel.Get(); ok {
		shortage.PriceLevel = Some(v)
	}
	if v, ok := src.Rate.Get(); ok {
		shortage.Rate = Some(v)
	}
	return []Line{{OrderLine: fulfilled}, {OrderLine: shortage, Shortage: true}}
}

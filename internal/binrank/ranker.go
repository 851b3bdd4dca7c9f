// Package binrank picks the storage bin a work order should pick from.
package binrank

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// NoSequence is the pick sequence of a bin without a resolvable sequence. It
// sorts after every real sequence.
var NoSequence = math.Inf(1)

// Bin is one storage location holding stock of an item.
type Bin struct {
	BinID        string
	Label        string
	OnHand       decimal.Decimal
	Available    decimal.Decimal
	PickSequence float64
}

// RankQuantity is the larger of on-hand and available quantity.
func (b Bin) RankQuantity() decimal.Decimal {
	return decimal.Max(b.OnHand, b.Available)
}

// HasSequence reports whether the bin carries a real pick sequence.
func (b Bin) HasSequence() bool {
	return !math.IsInf(b.PickSequence, 1)
}

// ParseSequence converts a raw sequence column into a pick sequence. Empty,
// non-numeric and NaN values map to NoSequence.
func ParseSequence(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NoSequence
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) {
		return NoSequence
	}
	return v
}

// Rank returns the best bin: lowest pick sequence, then highest rank quantity,
// then lowest label. Among bins equal on all three the first one wins. The
// boolean is false when candidates is empty.
func Rank(candidates []Bin) (Bin, bool) {
	if len(candidates) == 0 {
		return Bin{}, false
	}
	best := normalize(candidates[0])
	for _, c := range candidates[1:] {
		c = normalize(c)
		if Less(c, best) {
			best = c
		}
	}
	return best, true
}

// Less reports whether a ranks strictly before b.
func Less(a, b Bin) bool {
	if a.PickSequence != b.PickSequence {
		return a.PickSequence < b.PickSequence
	}
	if c := a.RankQuantity().Cmp(b.RankQuantity()); c != 0 {
		return c > 0
	}
	return a.Label < b.Label
}

func normalize(b Bin) Bin {
	if math.IsNaN(b.PickSequence) {
		b.PickSequence = NoSequence
	}
	return b
}

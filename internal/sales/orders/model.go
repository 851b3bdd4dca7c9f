package orders

import (
	"github.com/shopspring/decimal"

	"github.com/nabeeghrb/netsuite-rb/internal/allocation"
)

// EventType is the record lifecycle event the platform fired the hook for.
type EventType string

const (
	EventCreate EventType = "create"
	EventEdit   EventType = "edit"
	EventDelete EventType = "delete"
	EventXEdit  EventType = "xedit"
	EventCopy   EventType = "copy"
)

// IsCreateOrEdit reports whether the event writes a full record.
func (e EventType) IsCreateOrEdit() bool {
	return e == EventCreate || e == EventEdit
}

// SalesOrder is the snapshot of a sales order sent with a hook.
type SalesOrder struct {
	ID            string
	TranID        string
	Event         EventType
	CustomerID    string
	ShipMethodID  string
	ShipAddressID string
	PONumber      string
	Lines         []allocation.OrderLine
}

// SplitResult describes the line list after shortage splitting.
type SplitResult struct {
	Applied    bool
	SkipReason string
	Lines      []allocation.Line
	Decisions  []LineDecision
}

// Splits counts the lines that were split.
func (r SplitResult) Splits() int {
	n := 0
	for _, d := range r.Decisions {
		if d.Decision.Split() {
			n++
		}
	}
	return n
}

// LineDecision records the allocation decision for one source line.
type LineDecision struct {
	Index     int
	ItemID    string
	Available decimal.Decimal
	Decision  allocation.Decision
}

// DeliveryFlags are the delivery handling options kept on a customer address.
type DeliveryFlags struct {
	Liftgate            bool `json:"liftgate"`
	Residential         bool `json:"residential"`
	InsideDelivery      bool `json:"inside_delivery"`
	LimitedAccess       bool `json:"limited_access"`
	AppointmentDelivery bool `json:"appointment_delivery"`
}

// PORecord is an existing sales order carrying a customer PO number.
type PORecord struct {
	ID       string
	TranID   string
	PONumber string
}

// Alert is a user-facing dialog returned to the platform.
type Alert struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// POCheck is the outcome of the duplicate PO validation.
type POCheck struct {
	Duplicate bool
	Existing  PORecord
	Alert     Alert
}

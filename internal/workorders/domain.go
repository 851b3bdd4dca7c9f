// Package workorders assigns the pick bin of a work order's inventory
// component after the work order is saved.
package workorders

import (
	"github.com/nabeeghrb/netsuite-rb/internal/binrank"
	"github.com/nabeeghrb/netsuite-rb/internal/inventory"
)

// Component is one line of a work order bill of materials.
type Component struct {
	ItemID   string
	ItemType string
}

// IsInventory reports whether the component is a stocked inventory item.
func (c Component) IsInventory() bool {
	return inventory.ItemType(c.ItemType).IsInventory()
}

// WorkOrder is the after-submit snapshot of a work order.
type WorkOrder struct {
	ID         string
	Components []Component
}

// InventoryComponent returns the item of the first inventory component.
func (w WorkOrder) InventoryComponent() (string, bool) {
	for _, c := range w.Components {
		if c.ItemID != "" && c.IsInventory() {
			return c.ItemID, true
		}
	}
	return "", false
}

// Eligible reports whether the hook event triggers a bin assignment.
func Eligible(event string) bool {
	return event == "create" || event == "edit"
}

// AssignRequest is one bin assignment job.
type AssignRequest struct {
	InvocationID string
	WorkOrder    WorkOrder
}

// Result reasons.
const (
	ReasonAssigned    = "assigned"
	ReasonNoComponent = "no inventory component"
	ReasonNoBin       = "no picking bin with stock"
	ReasonDuplicate   = "already processed"
)

// Result describes what AssignBin did.
type Result struct {
	Assigned bool
	Reason   string
	ItemID   string
	Bin      binrank.Bin
}

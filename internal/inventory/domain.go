package inventory

import (
	"errors"
	"strings"
)

// ItemType is the platform's item type text (for example "Assembly" or
// "InvtPart").
type ItemType string

// IsAssembly reports whether the item is built from components.
func (t ItemType) IsAssembly() bool {
	return strings.Contains(strings.ToLower(string(t)), "assembly")
}

// IsInventory reports whether the item is a stocked inventory part.
func (t ItemType) IsInventory() bool {
	lower := strings.ToLower(string(t))
	return strings.Contains(lower, "invt") || strings.Contains(lower, "inventory") || strings.Contains(lower, "invpart")
}

// ErrItemNotFound indicates the item is missing from the replica.
var ErrItemNotFound = errors.New("inventory: item not found")

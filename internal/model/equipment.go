package model

import (
	"math"
	"time"

	"github.com/aarondl/null/v8"
)

// MaxQuantity is the largest stock or request quantity the INT columns hold.
const MaxQuantity = math.MaxInt32

// Equipment mirrors a row of the `equipment` table.  Quantity is the stock
// currently available for approval; approving a request deducts from it and
// rejecting a previously approved request restores it.  A row with a valid
// DeletedAt is soft-deleted and takes no part in reservations.
type Equipment struct {
	ID          uint64      `json:"id"`
	Name        string      `json:"name"`
	Description null.String `json:"description"`
	Quantity    int         `json:"quantity"`
	CreatedAt   time.Time   `json:"created_at"`
	DeletedAt   null.Time   `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the item has been soft-deleted.
func (e Equipment) IsDeleted() bool { return e.DeletedAt.Valid }

// EquipmentFields carries the admin-editable columns of an item.
type EquipmentFields struct {
	Name        string
	Description null.String
	Quantity    int
}

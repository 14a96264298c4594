package model

import (
	"time"

	"github.com/aarondl/null/v8"
)

// RequestStatus is the review state of a reservation request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "Pending"
	StatusApproved RequestStatus = "Approved"
	StatusRejected RequestStatus = "Rejected"
)

// Valid reports whether s is one of the known statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Request mirrors a row of the `requests` table.  A request is created
// Pending and reviewed once by an administrator.  DeletedAt marks a
// cancelled request; cancellation never touches inventory.
type Request struct {
	ID          uint64        `json:"id"`
	UserID      uint64        `json:"user_id"`
	EquipmentID uint64        `json:"equipment_id"`
	Quantity    int           `json:"quantity"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	DeletedAt   null.Time     `json:"deleted_at,omitempty"`
}

// IsCancelled reports whether the request has been soft-deleted.
func (r Request) IsCancelled() bool { return r.DeletedAt.Valid }

// RequestView is a request joined with the names shown in listings.
type RequestView struct {
	Request
	UserName      string `json:"user_name"`
	EquipmentName string `json:"equipment_name"`
}

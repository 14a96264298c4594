// Package queue carries request lifecycle events over RabbitMQ: a publisher
// used by the reservation engine after commit and an audit consumer.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a committed change in a request's lifecycle.
type EventType string

const (
	EventRequestCreated   EventType = "request.created"
	EventRequestApproved  EventType = "request.approved"
	EventRequestRejected  EventType = "request.rejected"
	EventQuantityChanged  EventType = "request.quantity_changed"
	EventRequestCancelled EventType = "request.cancelled"
	EventEquipmentDeleted EventType = "equipment.deleted"
)

// RequestEvent is published once per committed engine mutation.  It
// carries enough for consumers to audit or notify without querying the
// primary database.
type RequestEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	ActorID     uint64    `json:"actor_id"`
	RequestID   uint64    `json:"request_id,omitempty"`
	EquipmentID uint64    `json:"equipment_id"`
	UserID      uint64    `json:"user_id,omitempty"`
	Quantity    int       `json:"quantity,omitempty"`
	Status      string    `json:"status,omitempty"`
	Cancelled   int64     `json:"cancelled,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewRequestEvent stamps a fresh event id and the current UTC time.
func NewRequestEvent(t EventType, actorID uint64) RequestEvent {
	return RequestEvent{
		ID:         uuid.NewString(),
		Type:       t,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	}
}

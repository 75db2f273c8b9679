package events

import (
	"time"

	"github.com/spec-kit/item-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventItemCreated EventType = "item_created"
	EventItemUpdated EventType = "item_updated"
	EventItemDeleted EventType = "item_deleted"
)

// Event represents a domain event emitted after a committed mutation.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ItemID    int64       `json:"item_id"`
	Actor     domain.Tier `json:"actor_tier"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// ItemChangedPayload lists the unique keys of the item after the change.
type ItemChangedPayload struct {
	Email     string `json:"email"`
	SpecialID int64  `json:"special_id"`
}

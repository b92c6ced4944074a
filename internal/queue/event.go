// Package queue defines message payloads exchanged over the message broker
// and the consumer that reacts to them.
package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// CatalogQueueName is the durable queue carrying catalog change events.
const CatalogQueueName = "catalog.changed"

// Catalog change actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// CatalogChangedEvent is published after every successful admin write to a
// resource collection.  Consumers use it to drop cached public responses
// without querying the store.
type CatalogChangedEvent struct {
	Resource   string    `json:"resource"` // products, slides, blogs or features
	Action     string    `json:"action"`
	ID         uint64    `json:"id"`
	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewCatalogChanged stamps an event with the current UTC time.
func NewCatalogChanged(resource, action string, id uint64, actor string) CatalogChangedEvent {
	return CatalogChangedEvent{
		Resource:   resource,
		Action:     action,
		ID:         id,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
	}
}

// DecodeCatalogChanged parses a message body and rejects events missing
// their resource or action.
func DecodeCatalogChanged(body []byte) (CatalogChangedEvent, error) {
	var ev CatalogChangedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Resource == "" || ev.Action == "" {
		return ev, fmt.Errorf("incomplete event: resource=%q action=%q", ev.Resource, ev.Action)
	}
	return ev, nil
}

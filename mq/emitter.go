package mq

import (
	"context"
	"encoding/json"
	"log"

	"kirana/rdx"
)

// Event is a domain notification published to the events channel. Consumers
// (search indexer, analytics) subscribe out of process.
type Event struct {
	Name     string `json:"name"`
	EntityID string `json:"entity_id"`
	Extra    string `json:"extra,omitempty"`
}

const channel = "storefront-events"

// Emit publishes an event to Redis pub/sub. Failures are logged, never
// surfaced: events are advisory.
func Emit(ctx context.Context, name, entityID string) {
	data, err := json.Marshal(Event{Name: name, EntityID: entityID})
	if err != nil {
		log.Printf("[Emit] failed to marshal event: %v", err)
		return
	}
	if err := rdx.Conn.Publish(ctx, channel, data).Err(); err != nil {
		log.Printf("[Emit] failed to publish %s: %v", name, err)
	}
}

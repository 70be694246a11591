// Package orderbus delivers executed-order events to downstream subscribers.
// Delivery is best-effort; publication never blocks or fails the trading
// operation that produced the event.
package orderbus

import (
	"github.com/thecao365/orko/internal/schema"
)

// Event describes an order placed or cancelled through the gateway.
type Event struct {
	Exchange string        `json:"exchange"`
	Pair     schema.Pair   `json:"pair"`
	Order    *schema.Order `json:"order"`
}

// SubscriptionID uniquely identifies a bus subscription.
type SubscriptionID string

// Bus fans order events out to interested subscribers.
type Bus interface {
	Publish(evt Event)
	Subscribe(buffer int) (SubscriptionID, <-chan Event)
	Unsubscribe(id SubscriptionID)
	Close()
}

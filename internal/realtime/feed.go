package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event types delivered by the change feed
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// ChangeEvent is a row-level change notification from the remote store.
// New and Old carry the raw row payloads; consumers re-fetch the full
// current state rather than applying these as deltas, so at-least-once
// and out-of-order delivery are both tolerated.
type ChangeEvent struct {
	Table string          `json:"table"`
	Type  string          `json:"type"`
	New   json.RawMessage `json:"new,omitempty"`
	Old   json.RawMessage `json:"old,omitempty"`
}

// Feed is a subscription to the store's change notifications. Events
// from all subscriptions are multiplexed onto a single channel so one
// consumer loop can drain them without interleaved callbacks.
type Feed interface {
	Subscribe(table, filter string) error
	Unsubscribe(table, filter string) error
	Events() <-chan ChangeEvent
	Close() error
}

type FeedType string

const (
	WebSocketFeed FeedType = "websocket"
	NATSFeed      FeedType = "nats"
)

// NewFeed creates a change-feed connection for the given transport.
func NewFeed(feedType FeedType, url string) (Feed, error) {
	switch feedType {
	case WebSocketFeed:
		return NewWebSocketFeed(url)
	case NATSFeed:
		return NewNATSFeed(url)
	default:
		return nil, fmt.Errorf("unsupported feed type: %s", feedType)
	}
}

// matchesFilter checks a "column=eq.value" filter against an event's
// row payloads. An empty filter matches everything; a malformed filter
// matches nothing. Used by transports without server-side filtering.
func matchesFilter(event ChangeEvent, filter string) bool {
	if filter == "" {
		return true
	}

	parts := strings.SplitN(filter, "=eq.", 2)
	if len(parts) != 2 {
		return false
	}
	column, want := parts[0], parts[1]

	for _, payload := range [][]byte{event.New, event.Old} {
		if len(payload) == 0 {
			continue
		}

		var row map[string]interface{}
		if err := json.Unmarshal(payload, &row); err != nil {
			continue
		}

		if got, ok := row[column]; ok && fmt.Sprintf("%v", got) == want {
			return true
		}
	}

	return false
}

// subscriptionKey identifies a table/filter subscription.
func subscriptionKey(table, filter string) string {
	return table + ":" + filter
}

package realtime

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
)

// changeSubjectPrefix is the subject namespace the store's change
// publisher uses, one subject per table.
const changeSubjectPrefix = "store.changes."

// NATSFeedConn delivers change events over a NATS broker. The broker
// fans out per-table subjects; row filters are applied client-side
// since subjects carry no row scoping.
type NATSFeedConn struct {
	conn   *nats.Conn
	events chan ChangeEvent
	mu     sync.Mutex
	subs   map[string]*nats.Subscription
	closed bool
}

func NewNATSFeed(url string) (*NATSFeedConn, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return &NATSFeedConn{
		conn:   conn,
		events: make(chan ChangeEvent, eventBufferSize),
		subs:   make(map[string]*nats.Subscription),
	}, nil
}

func (f *NATSFeedConn) Subscribe(table, filter string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := subscriptionKey(table, filter)
	if _, ok := f.subs[key]; ok {
		return nil
	}

	sub, err := f.conn.Subscribe(changeSubjectPrefix+table, func(msg *nats.Msg) {
		event, err := decodeNATSEvent(table, msg.Data)
		if err != nil {
			log.Error("failed to decode change event on %s: %v", msg.Subject, err)
			return
		}

		if !matchesFilter(event, filter) {
			return
		}

		select {
		case f.events <- event:
		default:
			log.Warn("event buffer full, dropping %s on %s", event.Type, event.Table)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", table, err)
	}

	f.subs[key] = sub
	return nil
}

func (f *NATSFeedConn) Unsubscribe(table, filter string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := subscriptionKey(table, filter)
	sub, ok := f.subs[key]
	if !ok {
		return nil
	}
	delete(f.subs, key)

	return sub.Unsubscribe()
}

func (f *NATSFeedConn) Events() <-chan ChangeEvent {
	return f.events
}

func (f *NATSFeedConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	for _, sub := range f.subs {
		sub.Unsubscribe()
	}
	f.conn.Close()
	close(f.events)
	return nil
}

func decodeNATSEvent(table string, data []byte) (ChangeEvent, error) {
	var event ChangeEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return ChangeEvent{}, err
	}
	if event.Table == "" {
		event.Table = table
	}
	return event, nil
}

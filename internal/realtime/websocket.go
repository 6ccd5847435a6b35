package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ammar1510/voicelink/internal/logger"
)

var log = logger.New("realtime")

const (
	heartbeatInterval = 30 * time.Second
	writeTimeout      = 10 * time.Second
	eventBufferSize   = 256
)

// wsFrame is the channel-protocol envelope used by the store's realtime
// endpoint: every message is {topic, event, payload, ref}.
type wsFrame struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref,omitempty"`
}

// wsChangePayload is the postgres_changes payload inside a frame.
type wsChangePayload struct {
	Type      string          `json:"eventType"`
	Table     string          `json:"table"`
	Record    json.RawMessage `json:"new"`
	OldRecord json.RawMessage `json:"old"`
}

// WebSocketFeedConn subscribes to the store's realtime websocket
// endpoint, one channel topic per table/filter pair.
type WebSocketFeedConn struct {
	conn    *websocket.Conn
	events  chan ChangeEvent
	done    chan struct{}
	writeMu sync.Mutex
	mu      sync.Mutex
	topics  map[string]string
	refSeq  int
	closed  bool
}

func NewWebSocketFeed(url string) (*WebSocketFeedConn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to realtime endpoint: %w", err)
	}

	f := &WebSocketFeedConn{
		conn:   conn,
		events: make(chan ChangeEvent, eventBufferSize),
		done:   make(chan struct{}),
		topics: make(map[string]string),
	}

	go f.readPump()
	go f.heartbeat()

	return f, nil
}

// Subscribe joins the channel topic for a table and row filter.
func (f *WebSocketFeedConn) Subscribe(table, filter string) error {
	topic := topicFor(table, filter)

	f.mu.Lock()
	if _, ok := f.topics[subscriptionKey(table, filter)]; ok {
		f.mu.Unlock()
		return nil
	}
	f.topics[subscriptionKey(table, filter)] = topic
	f.refSeq++
	ref := fmt.Sprintf("%d", f.refSeq)
	f.mu.Unlock()

	join := wsFrame{Topic: topic, Event: "phx_join", Ref: ref}
	return f.write(join)
}

// Unsubscribe leaves the channel topic for a table and row filter.
func (f *WebSocketFeedConn) Unsubscribe(table, filter string) error {
	f.mu.Lock()
	topic, ok := f.topics[subscriptionKey(table, filter)]
	if !ok {
		f.mu.Unlock()
		return nil
	}
	delete(f.topics, subscriptionKey(table, filter))
	f.refSeq++
	ref := fmt.Sprintf("%d", f.refSeq)
	f.mu.Unlock()

	leave := wsFrame{Topic: topic, Event: "phx_leave", Ref: ref}
	return f.write(leave)
}

func (f *WebSocketFeedConn) Events() <-chan ChangeEvent {
	return f.events
}

func (f *WebSocketFeedConn) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.mu.Unlock()

	close(f.done)
	return f.conn.Close()
}

func (f *WebSocketFeedConn) write(frame wsFrame) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	f.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return f.conn.WriteJSON(frame)
}

// readPump decodes incoming frames and forwards change events. A full
// event buffer drops the event with a warning; consumers re-fetch full
// state on every event, so the next event for the row heals the gap.
func (f *WebSocketFeedConn) readPump() {
	defer close(f.events)

	for {
		var frame wsFrame
		if err := f.conn.ReadJSON(&frame); err != nil {
			select {
			case <-f.done:
			default:
				log.Error("realtime connection lost: %v", err)
			}
			return
		}

		if frame.Event != "postgres_changes" {
			continue
		}

		var payload wsChangePayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			log.Error("failed to decode change payload: %v", err)
			continue
		}

		event := ChangeEvent{
			Table: payload.Table,
			Type:  payload.Type,
			New:   payload.Record,
			Old:   payload.OldRecord,
		}

		select {
		case f.events <- event:
		default:
			log.Warn("event buffer full, dropping %s on %s", event.Type, event.Table)
		}
	}
}

func (f *WebSocketFeedConn) heartbeat() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			hb := wsFrame{Topic: "phoenix", Event: "heartbeat", Payload: json.RawMessage("{}")}
			if err := f.write(hb); err != nil {
				log.Warn("heartbeat failed: %v", err)
				return
			}
		case <-f.done:
			return
		}
	}
}

func topicFor(table, filter string) string {
	if filter == "" {
		return "realtime:public:" + table
	}
	return "realtime:public:" + table + ":" + filter
}

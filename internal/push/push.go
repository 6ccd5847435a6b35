package push

import (
	"sync"
)

// Notification types carried in the payload's data block
const (
	TypeNewMessage     = "new_message"
	TypeFriendRequest  = "friend_request"
	TypeFriendAccepted = "friend_accepted"
)

// NotificationData rides inside the push payload and tells the
// receiving client where to navigate when the notification is opened.
type NotificationData struct {
	ConversationID   string `json:"conversationId,omitempty"`
	MessageURL       string `json:"messageUrl,omitempty"`
	NotificationType string `json:"notificationType"`
}

// Notification is an outbound push addressed by external user IDs, so
// the provider resolves device tokens and we never handle them here.
type Notification struct {
	Title           string
	Message         string
	ExternalUserIDs []string
	Data            NotificationData
}

// Sender delivers notifications through a push provider.
type Sender interface {
	Send(n Notification) error
}

// Dispatcher routes inbound notification events to registered handlers.
// Foreground events arrive while the client is active; click events mean
// the user opened the notification and expects navigation.
type Dispatcher struct {
	mu           sync.RWMutex
	onForeground func(NotificationData)
	onClick      func(NotificationData)
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) OnForeground(fn func(NotificationData)) {
	d.mu.Lock()
	d.onForeground = fn
	d.mu.Unlock()
}

func (d *Dispatcher) OnClick(fn func(NotificationData)) {
	d.mu.Lock()
	d.onClick = fn
	d.mu.Unlock()
}

func (d *Dispatcher) DispatchForeground(data NotificationData) {
	d.mu.RLock()
	fn := d.onForeground
	d.mu.RUnlock()
	if fn != nil {
		fn(data)
	}
}

func (d *Dispatcher) DispatchClick(data NotificationData) {
	d.mu.RLock()
	fn := d.onClick
	d.mu.RUnlock()
	if fn != nil {
		fn(data)
	}
}

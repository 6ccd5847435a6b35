package models

import (
	"time"
)

// Message represents a single voice message. Immutable after creation
// except for the IsRead transition, which only ever flips false to true
// and only on the recipient's side.
type Message struct {
	MessageID string    `json:"messageId"`
	Timestamp time.Time `json:"timestamp"`
	SenderUID string    `json:"uid"`
	AudioURL  string    `json:"audioUrl"`
	IsRead    bool      `json:"isRead"`
}

// SendMessageRequest is the structure for message creation requests.
// Audio carries the recorded clip; the handler uploads it to blob
// storage before the message row is inserted.
type SendMessageRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	Audio          []byte `json:"audio" binding:"required"`
}

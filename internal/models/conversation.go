package models

import (
	"time"
)

// LastReadEntry records when a participant last read a conversation.
// The store persists the lastRead collection as a whole, one entry per
// participant, so updates must read-modify-write both entries.
type LastReadEntry struct {
	UID       string    `json:"uid"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the durable thread of messages between exactly two
// users. Messages are kept in insertion order (send order), which is not
// necessarily timestamp order; chronological ordering is derived at
// display time.
type Conversation struct {
	ConversationID string          `json:"conversationId"`
	UIDs           []string        `json:"uids"`
	Messages       []Message       `json:"messages"`
	LastRead       []LastReadEntry `json:"lastRead"`
}

// OtherParticipant returns the UID of the participant that is not the
// given user, or "" when the user is not a participant.
func (c *Conversation) OtherParticipant(uid string) string {
	for _, id := range c.UIDs {
		if id != uid {
			return id
		}
	}
	return ""
}

// HasParticipants reports whether the conversation is between exactly
// the two given users, in either order.
func (c *Conversation) HasParticipants(uidA, uidB string) bool {
	if len(c.UIDs) != 2 {
		return false
	}
	return (c.UIDs[0] == uidA && c.UIDs[1] == uidB) ||
		(c.UIDs[0] == uidB && c.UIDs[1] == uidA)
}

// LastReadFor returns the user's last-read timestamp, or the zero time
// when no entry exists.
func (c *Conversation) LastReadFor(uid string) time.Time {
	for _, entry := range c.LastRead {
		if entry.UID == uid {
			return entry.Timestamp
		}
	}
	return time.Time{}
}

// LastMessageTime returns the timestamp of the newest message, or the
// zero time for an empty conversation. Used for list ordering.
func (c *Conversation) LastMessageTime() time.Time {
	var last time.Time
	for _, m := range c.Messages {
		if m.Timestamp.After(last) {
			last = m.Timestamp
		}
	}
	return last
}

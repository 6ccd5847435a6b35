package chat

import (
	"time"

	"github.com/ammar1510/voicelink/internal/models"
	"github.com/ammar1510/voicelink/internal/store"
)

// ReadTracker persists per-message and per-conversation read state.
type ReadTracker struct {
	store store.StoreInterface
}

func NewReadTracker(s store.StoreInterface) *ReadTracker {
	return &ReadTracker{store: s}
}

// MarkRead flips a message to read when the reader is its recipient.
// The transition is one way and idempotent: outgoing messages and
// already-read messages are no-ops, and the local copy is only updated
// after the store accepts the write.
func (t *ReadTracker) MarkRead(message *models.Message, readerUID string) error {
	if message.SenderUID == readerUID || message.IsRead {
		return nil
	}
	if err := t.store.MarkMessageRead(message.MessageID); err != nil {
		return err
	}
	message.IsRead = true
	return nil
}

// UpdateLastRead advances one participant's last-read timestamp. The
// store holds the lastRead collection as a single value, so this is a
// read-modify-write that carries the other participant's entry through
// unchanged.
func (t *ReadTracker) UpdateLastRead(conversationID, uid string, at time.Time) error {
	conv, err := t.store.GetConversation(conversationID)
	if err != nil {
		return err
	}

	updated := make([]models.LastReadEntry, 0, len(conv.LastRead)+1)
	found := false
	for _, entry := range conv.LastRead {
		if entry.UID == uid {
			entry.Timestamp = at
			found = true
		}
		updated = append(updated, entry)
	}
	if !found {
		updated = append(updated, models.LastReadEntry{UID: uid, Timestamp: at})
	}

	return t.store.SetConversationLastRead(conversationID, updated)
}

// markPlayed persists the read-state effects of starting playback: the
// message flips to read and the listener's last-read advances to the
// message's timestamp.
func (t *ReadTracker) markPlayed(conversationID, messageID string, ts time.Time, readerUID string) error {
	msg, err := t.store.GetMessage(messageID)
	if err != nil {
		return err
	}
	if err := t.MarkRead(msg, readerUID); err != nil {
		return err
	}
	return t.UpdateLastRead(conversationID, readerUID, ts)
}

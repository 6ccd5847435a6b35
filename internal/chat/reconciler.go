package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ammar1510/voicelink/internal/logger"
	"github.com/ammar1510/voicelink/internal/models"
	"github.com/ammar1510/voicelink/internal/realtime"
	"github.com/ammar1510/voicelink/internal/store"
)

var log = logger.New("chat")

// Reconciler keeps the local conversation cache consistent with the
// remote store. The store is the source of truth: remote changes are
// answered by re-fetching the full conversation, never by applying the
// event payload as a delta, so duplicated and reordered events are
// harmless.
type Reconciler struct {
	store store.StoreInterface

	mu            sync.RWMutex
	conversations map[string]*models.Conversation
	listeners     []func(*models.Conversation)
}

func NewReconciler(s store.StoreInterface) *Reconciler {
	return &Reconciler{
		store:         s,
		conversations: make(map[string]*models.Conversation),
	}
}

// OnConversationChanged registers a callback fired after a remote change
// has been folded into the cache.
func (r *Reconciler) OnConversationChanged(fn func(*models.Conversation)) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// Conversation returns the cached conversation, if present.
func (r *Reconciler) Conversation(id string) (*models.Conversation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.conversations[id]
	return conv, ok
}

// Conversations returns the cached conversations, most recently active
// first. Empty conversations sort last.
func (r *Reconciler) Conversations() []*models.Conversation {
	r.mu.RLock()
	out := make([]*models.Conversation, 0, len(r.conversations))
	for _, conv := range r.conversations {
		out = append(out, conv)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessageTime().After(out[j].LastMessageTime())
	})
	return out
}

// LoadConversations hydrates the cache from a profile's membership list.
// An ID the store no longer knows is skipped with a warning rather than
// failing the load; membership lists can lag behind deletions.
func (r *Reconciler) LoadConversations(profile *models.Profile) error {
	for _, id := range profile.Conversations {
		conv, err := r.store.GetConversation(id)
		if err != nil {
			if errors.Is(err, store.ErrConversationNotFound) {
				log.Warn("skipping conversation %s: not in store", id)
				continue
			}
			return err
		}
		r.put(conv)
	}
	return nil
}

// FindOrCreateConversation returns the existing conversation for the
// pair, or creates one with both last-read entries set to now and
// reports it as new. The check-then-create has no uniqueness guarantee
// behind it; two clients creating for the same pair at once can produce
// a duplicate thread, which is tolerated.
func (r *Reconciler) FindOrCreateConversation(selfUID, otherUID string) (*models.Conversation, bool, error) {
	conv, err := r.store.FindConversationByParticipants(selfUID, otherUID)
	if err == nil {
		r.put(conv)
		return conv, false, nil
	}
	if !errors.Is(err, store.ErrConversationNotFound) {
		return nil, false, err
	}

	now := time.Now().UTC()
	conv = &models.Conversation{
		ConversationID: uuid.New().String(),
		UIDs:           []string{selfUID, otherUID},
		Messages:       []models.Message{},
		LastRead: []models.LastReadEntry{
			{UID: selfUID, Timestamp: now},
			{UID: otherUID, Timestamp: now},
		},
	}
	if err := r.store.InsertConversation(conv); err != nil {
		return nil, false, err
	}
	r.put(conv)
	r.RepairMembership(conv)
	return conv, true, nil
}

// RepairMembership makes sure both participants' profiles list the
// conversation. Each side is best effort: a failed update leaves that
// list stale until the next repair pass, it never fails the caller.
func (r *Reconciler) RepairMembership(conv *models.Conversation) {
	for _, uid := range conv.UIDs {
		profile, err := r.store.GetProfileByUID(uid)
		if err != nil {
			log.Warn("membership repair: failed to load profile %s: %v", uid, err)
			continue
		}
		if profile.HasConversation(conv.ConversationID) {
			continue
		}
		updated := append(profile.Conversations, conv.ConversationID)
		if err := r.store.SetProfileConversations(uid, updated); err != nil {
			log.Warn("membership repair: failed to update profile %s: %v", uid, err)
		}
	}
}

// ApplyRemoteChange folds one change event into the cache by re-fetching
// the conversation's current state from the store. Deletes evict the
// cached copy.
func (r *Reconciler) ApplyRemoteChange(event realtime.ChangeEvent) {
	var row struct {
		ConversationID string `json:"conversation_id"`
	}
	payload := event.New
	if len(payload) == 0 {
		payload = event.Old
	}
	if err := json.Unmarshal(payload, &row); err != nil || row.ConversationID == "" {
		log.Warn("ignoring change event without a conversation id")
		return
	}

	if event.Type == realtime.EventDelete {
		r.mu.Lock()
		delete(r.conversations, row.ConversationID)
		r.mu.Unlock()
		return
	}

	conv, err := r.store.GetConversation(row.ConversationID)
	if err != nil {
		log.Warn("failed to re-fetch conversation %s: %v", row.ConversationID, err)
		return
	}
	r.put(conv)
	r.notify(conv)
}

// Run drains the change feed until the context is cancelled or the feed
// closes. One consumer goroutine serializes all cache updates.
func (r *Reconciler) Run(ctx context.Context, feed realtime.Feed) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-feed.Events():
			if !ok {
				return
			}
			if event.Table == "conversations" {
				r.ApplyRemoteChange(event)
			}
		}
	}
}

func (r *Reconciler) put(conv *models.Conversation) {
	r.mu.Lock()
	r.conversations[conv.ConversationID] = conv
	r.mu.Unlock()
}

func (r *Reconciler) notify(conv *models.Conversation) {
	r.mu.RLock()
	listeners := make([]func(*models.Conversation), len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.RUnlock()

	for _, fn := range listeners {
		fn(conv)
	}
}

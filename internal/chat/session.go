package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ammar1510/voicelink/internal/audio"
	"github.com/ammar1510/voicelink/internal/models"
	"github.com/ammar1510/voicelink/internal/push"
	"github.com/ammar1510/voicelink/internal/realtime"
	"github.com/ammar1510/voicelink/internal/store"
)

const audioBucket = "voice-messages"

// AudioSettings are the user's playback preferences.
type AudioSettings struct {
	AutoplayEnabled bool    `json:"autoplayEnabled"`
	PlaybackSpeed   float64 `json:"playbackSpeed"`
}

// SessionConfig carries the backends a session runs against.
type SessionConfig struct {
	Store  store.StoreInterface
	Blob   store.BlobStore
	Feed   realtime.Feed
	Push   push.Sender
	Player audio.Player
}

// Session is one signed-in user's live state: their profile, the
// conversation cache, the friendship service and the autoplay chain,
// kept consistent with the store over the change feed.
type Session struct {
	Reconciler *Reconciler
	Friends    *FriendService
	Reader     *ReadTracker
	Sequencer  *Sequencer
	Push       *push.Dispatcher

	store store.StoreInterface
	blob  store.BlobStore
	feed  realtime.Feed
	push  push.Sender

	mu       sync.RWMutex
	profile  *models.Profile
	settings AudioSettings
	tokens   []string
	cancel   context.CancelFunc
}

func NewSession(cfg SessionConfig) *Session {
	s := &Session{
		store:      cfg.Store,
		blob:       cfg.Blob,
		feed:       cfg.Feed,
		push:       cfg.Push,
		Reconciler: NewReconciler(cfg.Store),
		Friends:    NewFriendService(cfg.Store),
		Reader:     NewReadTracker(cfg.Store),
		Push:       push.NewDispatcher(),
		settings:   AudioSettings{AutoplayEnabled: true, PlaybackSpeed: 1.0},
	}
	s.Sequencer = NewSequencer(cfg.Player, s.Reader, "")
	return s
}

// Initialize signs the user in: loads their profile and conversations,
// registers push tokens, and starts the change-feed consumer. Remote
// updates to the open conversation are handed to the sequencer when
// autoplay is on.
func (s *Session) Initialize(uid string, pushTokens []string) error {
	profile, err := s.store.GetProfileByUID(uid)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	s.mu.Lock()
	s.profile = profile
	s.tokens = pushTokens
	s.mu.Unlock()

	s.Sequencer = NewSequencer(s.Sequencer.player, s.Reader, uid)

	if err := s.Reconciler.LoadConversations(profile); err != nil {
		return fmt.Errorf("failed to load conversations: %w", err)
	}

	if len(pushTokens) > 0 {
		if err := s.store.UpsertPushToken(uid, pushTokens); err != nil {
			log.Warn("failed to register push tokens: %v", err)
		}
	}

	s.Reconciler.OnConversationChanged(func(conv *models.Conversation) {
		if s.AutoplayEnabled() {
			s.Sequencer.OnNewMessage(conv)
		}
	})

	s.Push.OnClick(func(data push.NotificationData) {
		if data.ConversationID == "" {
			return
		}
		if err := s.OpenConversation(data.ConversationID); err != nil {
			log.Warn("failed to open conversation from notification: %v", err)
		}
	})

	if s.feed != nil {
		if err := s.feed.Subscribe("conversations", ""); err != nil {
			return fmt.Errorf("failed to subscribe to change feed: %w", err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		s.mu.Lock()
		s.cancel = cancel
		s.mu.Unlock()
		go s.Reconciler.Run(ctx, s.feed)
	}

	log.Info("session initialized for %s", uid)
	return nil
}

// Teardown signs the user out: stops playback, halts the feed consumer
// and removes the device's push tokens so a signed-out device stops
// receiving notifications.
func (s *Session) Teardown() error {
	s.Sequencer.Stop()

	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	profile := s.profile
	s.profile = nil
	hadTokens := len(s.tokens) > 0
	s.tokens = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if s.feed != nil {
		s.feed.Unsubscribe("conversations", "")
	}
	if profile != nil && hadTokens {
		if err := s.store.DeletePushToken(profile.UID); err != nil {
			log.Warn("failed to remove push tokens: %v", err)
		}
	}
	return nil
}

// Profile returns the signed-in user's profile, or nil before Initialize.
func (s *Session) Profile() *models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Settings returns the current playback preferences.
func (s *Session) Settings() AudioSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings replaces the playback preferences. Turning autoplay off
// abandons any active chain.
func (s *Session) UpdateSettings(settings AudioSettings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	if !settings.AutoplayEnabled {
		s.Sequencer.Stop()
	}
}

func (s *Session) AutoplayEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.AutoplayEnabled
}

// StartConversation finds or creates the thread with another user and
// reports whether it was newly created.
func (s *Session) StartConversation(otherUID string) (*models.Conversation, bool, error) {
	profile := s.Profile()
	if profile == nil {
		return nil, false, fmt.Errorf("session not initialized")
	}
	return s.Reconciler.FindOrCreateConversation(profile.UID, otherUID)
}

// OpenConversation points the sequencer at a conversation, fetching it
// if the cache does not have it yet. With autoplay on, any unread
// incoming messages start playing immediately. Notification clicks land
// here.
func (s *Session) OpenConversation(conversationID string) error {
	conv, ok := s.Reconciler.Conversation(conversationID)
	if !ok {
		fetched, err := s.store.GetConversation(conversationID)
		if err != nil {
			return err
		}
		conv = fetched
		s.Reconciler.put(conv)
	}

	s.Sequencer.SetConversation(conv)
	if s.AutoplayEnabled() {
		s.Sequencer.Begin()
	}
	return nil
}

// SendMessage runs the outgoing pipeline: upload the clip, insert the
// message row, append its ID to the conversation, then repair both
// membership lists and notify the recipient. The steps after the append
// are best effort; the message already exists by then.
func (s *Session) SendMessage(conversationID string, clip []byte) (*models.Message, error) {
	profile := s.Profile()
	if profile == nil {
		return nil, fmt.Errorf("session not initialized")
	}

	conv, ok := s.Reconciler.Conversation(conversationID)
	if !ok {
		var err error
		conv, err = s.store.GetConversation(conversationID)
		if err != nil {
			return nil, err
		}
	}

	recipient := conv.OtherParticipant(profile.UID)
	blocked, err := s.Friends.IsBlockedBy(profile.UID, recipient)
	if err != nil {
		log.Warn("block check failed for %s: %v", recipient, err)
	}
	if blocked {
		return nil, &ConflictError{Message: "You cannot send messages to this user"}
	}

	messageID := uuid.New().String()
	url, err := s.blob.Upload(audioBucket, messageID+".m4a", clip, "audio/mp4")
	if err != nil {
		return nil, fmt.Errorf("failed to upload clip: %w", err)
	}

	msg := &models.Message{
		MessageID: messageID,
		Timestamp: time.Now().UTC(),
		SenderUID: profile.UID,
		AudioURL:  url,
	}
	if err := s.store.InsertMessage(msg); err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	if err := s.store.AppendConversationMessage(conversationID, messageID); err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	s.Reconciler.RepairMembership(conv)
	s.notifyRecipient(conv, msg, profile, recipient)
	return msg, nil
}

// MarkMessagePlayed records a manual playback: the message flips to
// read and the listener's last-read advances to its timestamp. Playing
// your own message changes nothing.
func (s *Session) MarkMessagePlayed(conversationID, messageID string) error {
	profile := s.Profile()
	if profile == nil {
		return fmt.Errorf("session not initialized")
	}
	msg, err := s.store.GetMessage(messageID)
	if err != nil {
		return err
	}
	if msg.SenderUID == profile.UID {
		return nil
	}
	if err := s.Reader.MarkRead(msg, profile.UID); err != nil {
		return err
	}
	return s.Reader.UpdateLastRead(conversationID, profile.UID, msg.Timestamp)
}

// SendFriendRequest creates the request and notifies the addressee.
// The push is a best-effort tail, like the message pipeline's.
func (s *Session) SendFriendRequest(userCode string) (*models.Friendship, error) {
	profile := s.Profile()
	if profile == nil {
		return nil, fmt.Errorf("session not initialized")
	}
	friendship, err := s.Friends.SendRequest(profile.UID, userCode)
	if err != nil {
		return nil, err
	}
	s.sendPush(profile.Name, "sent you a friend request", friendship.AddresseeID, push.TypeFriendRequest)
	return friendship, nil
}

// AcceptFriendRequest approves an incoming request and notifies the
// requester.
func (s *Session) AcceptFriendRequest(id string) error {
	profile := s.Profile()
	if profile == nil {
		return fmt.Errorf("session not initialized")
	}
	if err := s.Friends.Accept(id, profile.UID); err != nil {
		return err
	}
	friendship, err := s.store.GetFriendship(id)
	if err != nil {
		log.Warn("failed to load accepted friendship %s: %v", id, err)
		return nil
	}
	s.sendPush(profile.Name, "accepted your friend request", friendship.RequesterID, push.TypeFriendAccepted)
	return nil
}

func (s *Session) sendPush(title, message, recipient, notificationType string) {
	if s.push == nil || recipient == "" {
		return
	}
	n := push.Notification{
		Title:           title,
		Message:         message,
		ExternalUserIDs: []string{recipient},
		Data:            push.NotificationData{NotificationType: notificationType},
	}
	if err := s.push.Send(n); err != nil {
		log.Warn("push notification failed: %v", err)
	}
}

func (s *Session) notifyRecipient(conv *models.Conversation, msg *models.Message, sender *models.Profile, recipient string) {
	if s.push == nil || recipient == "" {
		return
	}
	n := push.Notification{
		Title:           sender.Name,
		Message:         "sent you a voice message",
		ExternalUserIDs: []string{recipient},
		Data: push.NotificationData{
			ConversationID:   conv.ConversationID,
			MessageURL:       msg.AudioURL,
			NotificationType: push.TypeNewMessage,
		},
	}
	if err := s.push.Send(n); err != nil {
		log.Warn("push notification failed: %v", err)
	}
}

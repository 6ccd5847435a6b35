package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ammar1510/voicelink/internal/models"
	"github.com/ammar1510/voicelink/internal/push"
	"github.com/ammar1510/voicelink/internal/store"
)

// fakeBlob records the last upload and serves a deterministic URL.
type fakeBlob struct {
	bucket      string
	name        string
	data        []byte
	contentType string
}

func (b *fakeBlob) Upload(bucket, name string, data []byte, contentType string) (string, error) {
	b.bucket, b.name, b.data, b.contentType = bucket, name, data, contentType
	return "https://cdn/" + name, nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []push.Notification
}

func (s *fakeSender) Send(n push.Notification) error {
	s.mu.Lock()
	s.sent = append(s.sent, n)
	s.mu.Unlock()
	return nil
}

func (s *fakeSender) notifications() []push.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]push.Notification{}, s.sent...)
}

func newTestSession(t *testing.T, mockStore *MockStore, blob *fakeBlob, sender *fakeSender) *Session {
	t.Helper()
	session := NewSession(SessionConfig{
		Store:  mockStore,
		Blob:   blob,
		Push:   sender,
		Player: newFakePlayer(),
	})
	assert.NoError(t, session.Initialize("bob", nil))
	return session
}

func TestSendMessage_RunsFullPipeline(t *testing.T) {
	mockStore := new(MockStore)
	blob := &fakeBlob{}
	sender := &fakeSender{}

	conv := &models.Conversation{ConversationID: "c1", UIDs: []string{"bob", "alice"}}
	mockStore.On("GetProfileByUID", "bob").Return(&models.Profile{UID: "bob", Name: "Bob", Conversations: []string{"c1"}}, nil)
	mockStore.On("GetConversation", "c1").Return(conv, nil)
	mockStore.On("GetFriendshipBetween", "bob", "alice").Return(nil, store.ErrFriendshipNotFound)
	mockStore.On("InsertMessage", mock.AnythingOfType("*models.Message")).Return(nil)
	mockStore.On("AppendConversationMessage", "c1", mock.Anything).Return(nil)
	mockStore.On("GetProfileByUID", "alice").Return(&models.Profile{UID: "alice", Conversations: []string{"c1"}}, nil)

	session := newTestSession(t, mockStore, blob, sender)

	msg, err := session.SendMessage("c1", []byte("clip-bytes"))

	assert.NoError(t, err)
	assert.Equal(t, "bob", msg.SenderUID)
	assert.Equal(t, "https://cdn/"+msg.MessageID+".m4a", msg.AudioURL)

	// The clip lands in the audio bucket under the message ID.
	assert.Equal(t, "voice-messages", blob.bucket)
	assert.Equal(t, msg.MessageID+".m4a", blob.name)
	assert.Equal(t, []byte("clip-bytes"), blob.data)
	assert.Equal(t, "audio/mp4", blob.contentType)

	// The recipient is notified with navigation data.
	sent := sender.notifications()
	assert.Len(t, sent, 1)
	assert.Equal(t, []string{"alice"}, sent[0].ExternalUserIDs)
	assert.Equal(t, "c1", sent[0].Data.ConversationID)
	assert.Equal(t, push.TypeNewMessage, sent[0].Data.NotificationType)
	mockStore.AssertExpectations(t)
}

func TestSendMessage_RefusedWhenRecipientBlockedSender(t *testing.T) {
	mockStore := new(MockStore)
	blob := &fakeBlob{}
	sender := &fakeSender{}

	conv := &models.Conversation{ConversationID: "c1", UIDs: []string{"bob", "alice"}}
	mockStore.On("GetProfileByUID", "bob").Return(&models.Profile{UID: "bob", Conversations: []string{"c1"}}, nil)
	mockStore.On("GetConversation", "c1").Return(conv, nil)
	mockStore.On("GetFriendshipBetween", "bob", "alice").Return(&models.Friendship{
		RequesterID: "bob",
		AddresseeID: "alice",
		Status:      models.FriendshipBlocked,
	}, nil)

	session := newTestSession(t, mockStore, blob, sender)

	_, err := session.SendMessage("c1", []byte("clip-bytes"))

	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, "You cannot send messages to this user", conflict.Message)
	assert.Empty(t, blob.name)
	assert.Empty(t, sender.notifications())
	mockStore.AssertNotCalled(t, "InsertMessage", mock.Anything)
}

func TestOpenConversation_FetchesAndStartsPlayback(t *testing.T) {
	mockStore := new(MockStore)
	mockStore.On("GetProfileByUID", "bob").Return(&models.Profile{UID: "bob"}, nil)

	base := time.Now().Add(-time.Hour)
	conv := autoplayConversation("bob", incoming("m1", base, false))
	conv.ConversationID = "c9"
	mockStore.On("GetConversation", "c9").Return(conv, nil)
	stubReadState(mockStore, conv)

	session := newTestSession(t, mockStore, &fakeBlob{}, &fakeSender{})
	player := session.Sequencer.player.(*fakePlayer)

	assert.NoError(t, session.OpenConversation("c9"))

	player.expectPlay(t, "https://cdn/m1")

	// The fetched conversation joins the cache.
	cached, ok := session.Reconciler.Conversation("c9")
	assert.True(t, ok)
	assert.Equal(t, conv, cached)
}

func TestNotificationClickOpensConversation(t *testing.T) {
	mockStore := new(MockStore)
	mockStore.On("GetProfileByUID", "bob").Return(&models.Profile{UID: "bob"}, nil)

	base := time.Now().Add(-time.Hour)
	conv := autoplayConversation("bob", incoming("m1", base, false))
	conv.ConversationID = "c9"
	mockStore.On("GetConversation", "c9").Return(conv, nil)
	stubReadState(mockStore, conv)

	session := newTestSession(t, mockStore, &fakeBlob{}, &fakeSender{})
	player := session.Sequencer.player.(*fakePlayer)

	session.Push.DispatchClick(push.NotificationData{
		ConversationID:   "c9",
		NotificationType: push.TypeNewMessage,
	})

	player.expectPlay(t, "https://cdn/m1")
}

func TestSendFriendRequest_NotifiesAddressee(t *testing.T) {
	mockStore := new(MockStore)
	sender := &fakeSender{}

	mockStore.On("GetProfileByUID", "bob").Return(&models.Profile{UID: "bob", Name: "Bob"}, nil)
	mockStore.On("GetProfileByUserCode", "ALICE1").Return(&models.Profile{UID: "alice"}, nil)
	mockStore.On("GetFriendshipBetween", "bob", "alice").Return(nil, store.ErrFriendshipNotFound)
	mockStore.On("InsertFriendship", mock.AnythingOfType("*models.Friendship")).Return(nil)

	session := newTestSession(t, mockStore, &fakeBlob{}, sender)

	friendship, err := session.SendFriendRequest("ALICE1")

	assert.NoError(t, err)
	assert.Equal(t, "alice", friendship.AddresseeID)

	sent := sender.notifications()
	assert.Len(t, sent, 1)
	assert.Equal(t, []string{"alice"}, sent[0].ExternalUserIDs)
	assert.Equal(t, push.TypeFriendRequest, sent[0].Data.NotificationType)
}

func TestAcceptFriendRequest_NotifiesRequester(t *testing.T) {
	mockStore := new(MockStore)
	sender := &fakeSender{}

	pending := &models.Friendship{ID: "f1", RequesterID: "alice", AddresseeID: "bob", Status: models.FriendshipPending}
	mockStore.On("GetProfileByUID", "bob").Return(&models.Profile{UID: "bob", Name: "Bob"}, nil)
	mockStore.On("GetFriendship", "f1").Return(pending, nil)
	mockStore.On("UpdateFriendship", mock.AnythingOfType("*models.Friendship")).Return(nil)

	session := newTestSession(t, mockStore, &fakeBlob{}, sender)

	assert.NoError(t, session.AcceptFriendRequest("f1"))

	sent := sender.notifications()
	assert.Len(t, sent, 1)
	assert.Equal(t, []string{"alice"}, sent[0].ExternalUserIDs)
	assert.Equal(t, push.TypeFriendAccepted, sent[0].Data.NotificationType)
}

func TestUpdateSettings_DisablingAutoplayStopsChain(t *testing.T) {
	mockStore := new(MockStore)
	mockStore.On("GetProfileByUID", "bob").Return(&models.Profile{UID: "bob"}, nil)

	session := newTestSession(t, mockStore, &fakeBlob{}, &fakeSender{})
	player := session.Sequencer.player.(*fakePlayer)

	session.UpdateSettings(AudioSettings{AutoplayEnabled: false, PlaybackSpeed: 1.0})

	assert.False(t, session.AutoplayEnabled())
	assert.Equal(t, StateIdle, session.Sequencer.State())

	player.mu.Lock()
	stops := player.stops
	player.mu.Unlock()
	assert.Greater(t, stops, 0)
}

func TestTeardown_RemovesPushTokens(t *testing.T) {
	mockStore := new(MockStore)
	mockStore.On("GetProfileByUID", "bob").Return(&models.Profile{UID: "bob"}, nil)
	mockStore.On("UpsertPushToken", "bob", []string{"tok1"}).Return(nil)
	mockStore.On("DeletePushToken", "bob").Return(nil)

	session := NewSession(SessionConfig{Store: mockStore, Player: newFakePlayer()})
	assert.NoError(t, session.Initialize("bob", []string{"tok1"}))
	assert.NoError(t, session.Teardown())

	assert.Nil(t, session.Profile())
	mockStore.AssertExpectations(t)
}

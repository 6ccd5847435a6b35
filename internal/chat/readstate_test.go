package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ammar1510/voicelink/internal/models"
)

func TestMarkRead_RecipientMarksUnread(t *testing.T) {
	mockStore := new(MockStore)
	tracker := NewReadTracker(mockStore)

	msg := &models.Message{MessageID: "m1", SenderUID: "alice", IsRead: false}
	mockStore.On("MarkMessageRead", "m1").Return(nil)

	err := tracker.MarkRead(msg, "bob")

	assert.NoError(t, err)
	assert.True(t, msg.IsRead)
	mockStore.AssertExpectations(t)
}

func TestMarkRead_SenderIsNoOp(t *testing.T) {
	mockStore := new(MockStore)
	tracker := NewReadTracker(mockStore)

	msg := &models.Message{MessageID: "m1", SenderUID: "alice", IsRead: false}

	err := tracker.MarkRead(msg, "alice")

	assert.NoError(t, err)
	assert.False(t, msg.IsRead)
	mockStore.AssertNotCalled(t, "MarkMessageRead", "m1")
}

func TestMarkRead_AlreadyReadIsNoOp(t *testing.T) {
	mockStore := new(MockStore)
	tracker := NewReadTracker(mockStore)

	msg := &models.Message{MessageID: "m1", SenderUID: "alice", IsRead: true}

	err := tracker.MarkRead(msg, "bob")

	assert.NoError(t, err)
	mockStore.AssertNotCalled(t, "MarkMessageRead", "m1")
}

func TestMarkRead_StoreFailureLeavesLocalUnread(t *testing.T) {
	mockStore := new(MockStore)
	tracker := NewReadTracker(mockStore)

	msg := &models.Message{MessageID: "m1", SenderUID: "alice", IsRead: false}
	mockStore.On("MarkMessageRead", "m1").Return(assert.AnError)

	err := tracker.MarkRead(msg, "bob")

	assert.Error(t, err)
	assert.False(t, msg.IsRead)
}

func TestUpdateLastRead_PreservesOtherEntry(t *testing.T) {
	mockStore := new(MockStore)
	tracker := NewReadTracker(mockStore)

	aliceTime := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	bobTime := time.Date(2025, 3, 2, 11, 0, 0, 0, time.UTC)
	newTime := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	mockStore.On("GetConversation", "c1").Return(&models.Conversation{
		ConversationID: "c1",
		UIDs:           []string{"alice", "bob"},
		LastRead: []models.LastReadEntry{
			{UID: "alice", Timestamp: aliceTime},
			{UID: "bob", Timestamp: bobTime},
		},
	}, nil)
	mockStore.On("SetConversationLastRead", "c1", []models.LastReadEntry{
		{UID: "alice", Timestamp: newTime},
		{UID: "bob", Timestamp: bobTime},
	}).Return(nil)

	err := tracker.UpdateLastRead("c1", "alice", newTime)

	assert.NoError(t, err)
	mockStore.AssertExpectations(t)
}

func TestUpdateLastRead_AddsMissingEntry(t *testing.T) {
	mockStore := new(MockStore)
	tracker := NewReadTracker(mockStore)

	bobTime := time.Date(2025, 3, 2, 11, 0, 0, 0, time.UTC)
	newTime := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	mockStore.On("GetConversation", "c1").Return(&models.Conversation{
		ConversationID: "c1",
		UIDs:           []string{"alice", "bob"},
		LastRead:       []models.LastReadEntry{{UID: "bob", Timestamp: bobTime}},
	}, nil)
	mockStore.On("SetConversationLastRead", "c1", []models.LastReadEntry{
		{UID: "bob", Timestamp: bobTime},
		{UID: "alice", Timestamp: newTime},
	}).Return(nil)

	err := tracker.UpdateLastRead("c1", "alice", newTime)

	assert.NoError(t, err)
	mockStore.AssertExpectations(t)
}

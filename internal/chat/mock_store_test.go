package chat

import (
	"github.com/stretchr/testify/mock"

	"github.com/ammar1510/voicelink/internal/models"
)

// MockStore is a mock implementation of store.StoreInterface for testing
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetProfileByUID(uid string) (*models.Profile, error) {
	args := m.Called(uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockStore) GetProfileByUserCode(userCode string) (*models.Profile, error) {
	args := m.Called(userCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockStore) GetProfileByEmail(email string) (*models.Profile, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockStore) SaveProfile(profile *models.Profile) error {
	args := m.Called(profile)
	return args.Error(0)
}

func (m *MockStore) SetProfileConversations(uid string, conversationIDs []string) error {
	args := m.Called(uid, conversationIDs)
	return args.Error(0)
}

func (m *MockStore) GetConversation(conversationID string) (*models.Conversation, error) {
	args := m.Called(conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *MockStore) FindConversationByParticipants(uidA, uidB string) (*models.Conversation, error) {
	args := m.Called(uidA, uidB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *MockStore) InsertConversation(conversation *models.Conversation) error {
	args := m.Called(conversation)
	return args.Error(0)
}

func (m *MockStore) AppendConversationMessage(conversationID, messageID string) error {
	args := m.Called(conversationID, messageID)
	return args.Error(0)
}

func (m *MockStore) SetConversationLastRead(conversationID string, lastRead []models.LastReadEntry) error {
	args := m.Called(conversationID, lastRead)
	return args.Error(0)
}

func (m *MockStore) InsertMessage(message *models.Message) error {
	args := m.Called(message)
	return args.Error(0)
}

func (m *MockStore) GetMessage(messageID string) (*models.Message, error) {
	args := m.Called(messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStore) MarkMessageRead(messageID string) error {
	args := m.Called(messageID)
	return args.Error(0)
}

func (m *MockStore) GetFriendship(id string) (*models.Friendship, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Friendship), args.Error(1)
}

func (m *MockStore) GetFriendshipBetween(uidA, uidB string) (*models.Friendship, error) {
	args := m.Called(uidA, uidB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Friendship), args.Error(1)
}

func (m *MockStore) InsertFriendship(friendship *models.Friendship) error {
	args := m.Called(friendship)
	return args.Error(0)
}

func (m *MockStore) UpdateFriendship(friendship *models.Friendship) error {
	args := m.Called(friendship)
	return args.Error(0)
}

func (m *MockStore) UpsertBlock(blockedUID, blockerUID string) error {
	args := m.Called(blockedUID, blockerUID)
	return args.Error(0)
}

func (m *MockStore) DeleteFriendship(id, requesterID string) error {
	args := m.Called(id, requesterID)
	return args.Error(0)
}

func (m *MockStore) ListIncomingRequests(uid string) ([]*models.Friendship, error) {
	args := m.Called(uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Friendship), args.Error(1)
}

func (m *MockStore) ListOutgoingRequests(uid string) ([]*models.Friendship, error) {
	args := m.Called(uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Friendship), args.Error(1)
}

func (m *MockStore) ListAccepted(uid string) ([]*models.Friendship, error) {
	args := m.Called(uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Friendship), args.Error(1)
}

func (m *MockStore) UpsertPushToken(uid string, tokens []string) error {
	args := m.Called(uid, tokens)
	return args.Error(0)
}

func (m *MockStore) DeletePushToken(uid string) error {
	args := m.Called(uid)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

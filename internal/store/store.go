package store

import (
	"fmt"

	"github.com/ammar1510/voicelink/internal/models"
)

// StoreInterface is the access contract for the remote relational store.
// All entities are owned by the store; the client holds transient cached
// copies and every mutation round-trips here before it counts as durable.
type StoreInterface interface {
	// Profile methods
	GetProfileByUID(uid string) (*models.Profile, error)
	GetProfileByUserCode(userCode string) (*models.Profile, error)
	GetProfileByEmail(email string) (*models.Profile, error)
	SaveProfile(profile *models.Profile) error
	SetProfileConversations(uid string, conversationIDs []string) error

	// Conversation methods
	GetConversation(conversationID string) (*models.Conversation, error)
	FindConversationByParticipants(uidA, uidB string) (*models.Conversation, error)
	InsertConversation(conversation *models.Conversation) error
	AppendConversationMessage(conversationID, messageID string) error
	SetConversationLastRead(conversationID string, lastRead []models.LastReadEntry) error

	// Message methods
	InsertMessage(message *models.Message) error
	GetMessage(messageID string) (*models.Message, error)
	MarkMessageRead(messageID string) error

	// Friendship methods
	GetFriendship(id string) (*models.Friendship, error)
	GetFriendshipBetween(uidA, uidB string) (*models.Friendship, error)
	InsertFriendship(friendship *models.Friendship) error
	UpdateFriendship(friendship *models.Friendship) error
	UpsertBlock(blockedUID, blockerUID string) error
	DeleteFriendship(id, requesterID string) error
	ListIncomingRequests(uid string) ([]*models.Friendship, error)
	ListOutgoingRequests(uid string) ([]*models.Friendship, error)
	ListAccepted(uid string) ([]*models.Friendship, error)

	// Push token methods
	UpsertPushToken(uid string, tokens []string) error
	DeletePushToken(uid string) error

	Close() error
}

// BlobStore is object storage for audio clips and profile pictures.
// Upload returns a publicly resolvable URL for the stored object.
type BlobStore interface {
	Upload(bucket, name string, data []byte, contentType string) (string, error)
}

type StoreType string

const (
	PostgreSQL StoreType = "postgres"
)

// NewStore creates a store connection for the given backend type.
func NewStore(storeType StoreType, connStr string) (StoreInterface, error) {
	switch storeType {
	case PostgreSQL:
		return NewPostgresStore(connStr)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}

package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ammar1510/voicelink/internal/models"
)

var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrFriendshipNotFound   = errors.New("friendship not found")
	ErrFriendshipExists     = errors.New("friendship already exists")
)

// uniqueViolation is the Postgres error code for duplicate keys.
const uniqueViolation = "23505"

type PostgresStore struct {
	*sql.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PostgresStore{db}, nil
}

func (s *PostgresStore) GetProfileByUID(uid string) (*models.Profile, error) {
	return s.getProfile("uid = $1", uid)
}

func (s *PostgresStore) GetProfileByUserCode(userCode string) (*models.Profile, error) {
	return s.getProfile("LOWER(TRIM(user_code)) = LOWER(TRIM($1))", userCode)
}

func (s *PostgresStore) GetProfileByEmail(email string) (*models.Profile, error) {
	return s.getProfile("email = $1", email)
}

func (s *PostgresStore) getProfile(where string, arg interface{}) (*models.Profile, error) {
	profile := &models.Profile{}
	var conversations pq.StringArray

	err := s.QueryRow(`
		SELECT uid, name, COALESCE(profile_picture, ''), email,
		       COALESCE(user_code, ''), conversations
		FROM profiles WHERE `+where, arg).Scan(
		&profile.UID, &profile.Name, &profile.ProfilePicture,
		&profile.Email, &profile.UserCode, &conversations)

	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	profile.Conversations = []string(conversations)
	return profile, nil
}

func (s *PostgresStore) SaveProfile(profile *models.Profile) error {
	_, err := s.Exec(`
		INSERT INTO profiles (uid, name, profile_picture, email, user_code, conversations)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (uid) DO UPDATE
		SET name = $2, profile_picture = $3, email = $4, user_code = $5`,
		profile.UID, profile.Name, profile.ProfilePicture, profile.Email,
		profile.UserCode, pq.Array(profile.Conversations))
	return err
}

func (s *PostgresStore) SetProfileConversations(uid string, conversationIDs []string) error {
	result, err := s.Exec("UPDATE profiles SET conversations = $1 WHERE uid = $2",
		pq.Array(conversationIDs), uid)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrProfileNotFound
	}

	return nil
}

func (s *PostgresStore) GetConversation(conversationID string) (*models.Conversation, error) {
	conversation := &models.Conversation{}
	var uids pq.StringArray
	var messageIDs pq.StringArray
	var lastReadJSON []byte

	err := s.QueryRow(`
		SELECT conversation_id, uids, messages, last_read
		FROM conversations WHERE conversation_id = $1`,
		conversationID).Scan(
		&conversation.ConversationID, &uids, &messageIDs, &lastReadJSON)

	if err == sql.ErrNoRows {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}

	conversation.UIDs = []string(uids)

	if err := json.Unmarshal(lastReadJSON, &conversation.LastRead); err != nil {
		return nil, fmt.Errorf("failed to decode last_read: %w", err)
	}

	messages, err := s.getMessagesInOrder([]string(messageIDs))
	if err != nil {
		return nil, err
	}
	conversation.Messages = messages

	return conversation, nil
}

// getMessagesInOrder fetches the given messages and returns them in the
// order of the id list. The conversation's id list is the send order,
// which the set-based query does not preserve.
func (s *PostgresStore) getMessagesInOrder(messageIDs []string) ([]models.Message, error) {
	if len(messageIDs) == 0 {
		return []models.Message{}, nil
	}

	rows, err := s.Query(`
		SELECT message_id, timestamp, uid, audio_url, is_read
		FROM messages WHERE message_id = ANY($1)`,
		pq.Array(messageIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]models.Message, len(messageIDs))
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.MessageID, &msg.Timestamp, &msg.SenderUID,
			&msg.AudioURL, &msg.IsRead); err != nil {
			return nil, err
		}
		byID[msg.MessageID] = msg
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0, len(byID))
	for _, id := range messageIDs {
		if msg, ok := byID[id]; ok {
			messages = append(messages, msg)
		}
	}

	return messages, nil
}

func (s *PostgresStore) FindConversationByParticipants(uidA, uidB string) (*models.Conversation, error) {
	var conversationID string

	err := s.QueryRow(`
		SELECT conversation_id FROM conversations
		WHERE uids @> ARRAY[$1, $2]::text[] AND array_length(uids, 1) = 2
		LIMIT 1`,
		uidA, uidB).Scan(&conversationID)

	if err == sql.ErrNoRows {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}

	return s.GetConversation(conversationID)
}

func (s *PostgresStore) InsertConversation(conversation *models.Conversation) error {
	lastReadJSON, err := json.Marshal(conversation.LastRead)
	if err != nil {
		return fmt.Errorf("failed to encode last_read: %w", err)
	}

	messageIDs := make([]string, 0, len(conversation.Messages))
	for _, m := range conversation.Messages {
		messageIDs = append(messageIDs, m.MessageID)
	}

	_, err = s.Exec(`
		INSERT INTO conversations (conversation_id, uids, messages, last_read)
		VALUES ($1, $2, $3, $4)`,
		conversation.ConversationID, pq.Array(conversation.UIDs),
		pq.Array(messageIDs), lastReadJSON)
	return err
}

func (s *PostgresStore) AppendConversationMessage(conversationID, messageID string) error {
	result, err := s.Exec(`
		UPDATE conversations SET messages = array_append(messages, $1)
		WHERE conversation_id = $2`,
		messageID, conversationID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrConversationNotFound
	}

	return nil
}

func (s *PostgresStore) SetConversationLastRead(conversationID string, lastRead []models.LastReadEntry) error {
	lastReadJSON, err := json.Marshal(lastRead)
	if err != nil {
		return fmt.Errorf("failed to encode last_read: %w", err)
	}

	result, err := s.Exec(`
		UPDATE conversations SET last_read = $1 WHERE conversation_id = $2`,
		lastReadJSON, conversationID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrConversationNotFound
	}

	return nil
}

func (s *PostgresStore) InsertMessage(message *models.Message) error {
	_, err := s.Exec(`
		INSERT INTO messages (message_id, timestamp, uid, audio_url, is_read)
		VALUES ($1, $2, $3, $4, $5)`,
		message.MessageID, message.Timestamp, message.SenderUID,
		message.AudioURL, message.IsRead)
	return err
}

func (s *PostgresStore) GetMessage(messageID string) (*models.Message, error) {
	var msg models.Message

	err := s.QueryRow(`
		SELECT message_id, timestamp, uid, audio_url, is_read
		FROM messages WHERE message_id = $1`,
		messageID).Scan(&msg.MessageID, &msg.Timestamp, &msg.SenderUID,
		&msg.AudioURL, &msg.IsRead)

	if err == sql.ErrNoRows {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}

	return &msg, nil
}

// MarkMessageRead flips is_read to true. The transition is one-way and
// idempotent: marking an already-read message is a no-op, not an error.
func (s *PostgresStore) MarkMessageRead(messageID string) error {
	var exists bool
	err := s.QueryRow("SELECT EXISTS(SELECT 1 FROM messages WHERE message_id = $1)",
		messageID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrMessageNotFound
	}

	_, err = s.Exec(
		"UPDATE messages SET is_read = true WHERE message_id = $1 AND is_read = false",
		messageID)
	return err
}

func (s *PostgresStore) GetFriendship(id string) (*models.Friendship, error) {
	return s.getFriendship("id = $1", id)
}

func (s *PostgresStore) GetFriendshipBetween(uidA, uidB string) (*models.Friendship, error) {
	return s.getFriendship(`
		(requester_id = $1 AND addressee_id = $2) OR
		(requester_id = $2 AND addressee_id = $1)`, uidA, uidB)
}

func (s *PostgresStore) getFriendship(where string, args ...interface{}) (*models.Friendship, error) {
	var f models.Friendship

	err := s.QueryRow(`
		SELECT id, requester_id, addressee_id, status, created_at, updated_at
		FROM friendships WHERE `+where+` LIMIT 1`, args...).Scan(
		&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status,
		&f.CreatedAt, &f.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrFriendshipNotFound
	}
	if err != nil {
		return nil, err
	}

	return &f, nil
}

func (s *PostgresStore) InsertFriendship(friendship *models.Friendship) error {
	_, err := s.Exec(`
		INSERT INTO friendships (id, requester_id, addressee_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		friendship.ID, friendship.RequesterID, friendship.AddresseeID,
		friendship.Status, friendship.CreatedAt, friendship.UpdatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrFriendshipExists
	}

	return err
}

// UpdateFriendship rewrites the mutable columns of an existing row.
// created_at is deliberately left untouched so resubmissions remain
// detectable.
func (s *PostgresStore) UpdateFriendship(friendship *models.Friendship) error {
	result, err := s.Exec(`
		UPDATE friendships
		SET requester_id = $1, addressee_id = $2, status = $3, updated_at = $4
		WHERE id = $5`,
		friendship.RequesterID, friendship.AddresseeID, friendship.Status,
		friendship.UpdatedAt, friendship.ID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrFriendshipNotFound
	}

	return nil
}

// UpsertBlock records that blockerUID blocked blockedUID. The blocking
// user is always stored as addressee, whatever the original row's
// orientation was.
func (s *PostgresStore) UpsertBlock(blockedUID, blockerUID string) error {
	_, err := s.Exec(`
		INSERT INTO friendships (id, requester_id, addressee_id, status, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, 'blocked', NOW(), NOW())
		ON CONFLICT (requester_id, addressee_id) DO UPDATE
		SET status = 'blocked', updated_at = NOW()`,
		blockedUID, blockerUID)
	return err
}

// DeleteFriendship removes a pending request. Only the requester may
// cancel their own outgoing request, enforced by the requester filter.
func (s *PostgresStore) DeleteFriendship(id, requesterID string) error {
	result, err := s.Exec(
		"DELETE FROM friendships WHERE id = $1 AND requester_id = $2",
		id, requesterID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrFriendshipNotFound
	}

	return nil
}

func (s *PostgresStore) ListIncomingRequests(uid string) ([]*models.Friendship, error) {
	return s.listFriendships(
		"addressee_id = $1 AND status = 'pending' ORDER BY created_at DESC", uid)
}

func (s *PostgresStore) ListOutgoingRequests(uid string) ([]*models.Friendship, error) {
	return s.listFriendships(
		"requester_id = $1 AND status = 'pending' ORDER BY created_at DESC", uid)
}

func (s *PostgresStore) ListAccepted(uid string) ([]*models.Friendship, error) {
	return s.listFriendships(
		"(requester_id = $1 OR addressee_id = $1) AND status = 'accepted'", uid)
}

func (s *PostgresStore) listFriendships(where string, args ...interface{}) ([]*models.Friendship, error) {
	rows, err := s.Query(`
		SELECT id, requester_id, addressee_id, status, created_at, updated_at
		FROM friendships WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query friendships: %w", err)
	}
	defer rows.Close()

	var friendships []*models.Friendship
	for rows.Next() {
		var f models.Friendship
		if err := rows.Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status,
			&f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan friendship row: %w", err)
		}
		friendships = append(friendships, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friendship rows: %w", err)
	}

	return friendships, nil
}

func (s *PostgresStore) UpsertPushToken(uid string, tokens []string) error {
	_, err := s.Exec(`
		INSERT INTO push_tokens (uid, tokens, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (uid) DO UPDATE SET tokens = $2, updated_at = $3`,
		uid, pq.Array(tokens), time.Now().UTC())
	return err
}

func (s *PostgresStore) DeletePushToken(uid string) error {
	_, err := s.Exec("DELETE FROM push_tokens WHERE uid = $1", uid)
	return err
}

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}

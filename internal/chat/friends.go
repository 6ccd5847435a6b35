package chat

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ammar1510/voicelink/internal/models"
	"github.com/ammar1510/voicelink/internal/store"
)

// ConflictError reports a friendship operation that collides with the
// pair's existing relationship state. The message is user visible.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// FriendView is a friendship row resolved against the counterpart's
// profile, which is what list endpoints return.
type FriendView struct {
	ID          string                  `json:"id"`
	Profile     models.ProfileResponse  `json:"profile"`
	Status      models.FriendshipStatus `json:"status"`
	Resubmitted bool                    `json:"resubmitted"`
}

// FriendService drives the friendship lifecycle against the store.
type FriendService struct {
	store store.StoreInterface
}

func NewFriendService(s store.StoreInterface) *FriendService {
	return &FriendService{store: s}
}

// SendRequest creates a pending request to the user identified by their
// user code. A previously rejected pair reuses the same row with the
// direction reoriented to the new sender, so created_at survives and
// resubmission stays detectable. Any other existing relationship is a
// conflict.
func (s *FriendService) SendRequest(requesterUID, userCode string) (*models.Friendship, error) {
	addressee, err := s.store.GetProfileByUserCode(userCode)
	if err != nil {
		return nil, err
	}
	if addressee.UID == requesterUID {
		return nil, &ConflictError{Message: "You cannot add yourself as a friend"}
	}

	existing, err := s.store.GetFriendshipBetween(requesterUID, addressee.UID)
	if err != nil && !errors.Is(err, store.ErrFriendshipNotFound) {
		return nil, err
	}
	if existing != nil {
		switch existing.Status {
		case models.FriendshipPending:
			return nil, &ConflictError{Message: "Friend request already sent or received"}
		case models.FriendshipAccepted:
			return nil, &ConflictError{Message: "You are already friends"}
		case models.FriendshipBlocked:
			return nil, &ConflictError{Message: "Friend request already exists"}
		case models.FriendshipRejected:
			existing.RequesterID = requesterUID
			existing.AddresseeID = addressee.UID
			existing.Status = models.FriendshipPending
			existing.UpdatedAt = time.Now().UTC()
			if err := s.store.UpdateFriendship(existing); err != nil {
				return nil, err
			}
			return existing, nil
		}
	}

	now := time.Now().UTC()
	friendship := &models.Friendship{
		ID:          uuid.New().String(),
		RequesterID: requesterUID,
		AddresseeID: addressee.UID,
		Status:      models.FriendshipPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.InsertFriendship(friendship); err != nil {
		if errors.Is(err, store.ErrFriendshipExists) {
			// Lost a race with a concurrent request for the same pair.
			return nil, &ConflictError{Message: "Friend request already exists"}
		}
		return nil, err
	}
	return friendship, nil
}

// Accept moves a pending request to accepted. Addressee only.
func (s *FriendService) Accept(id, callerUID string) error {
	return s.respond(id, callerUID, models.FriendshipAccepted)
}

// Reject moves a pending request to rejected. Addressee only. The row
// stays behind so a later request from either side can reuse it.
func (s *FriendService) Reject(id, callerUID string) error {
	return s.respond(id, callerUID, models.FriendshipRejected)
}

func (s *FriendService) respond(id, callerUID string, status models.FriendshipStatus) error {
	friendship, err := s.store.GetFriendship(id)
	if err != nil {
		return err
	}
	if friendship.AddresseeID != callerUID {
		return &ConflictError{Message: "Only the addressee can respond to a friend request"}
	}
	if friendship.Status != models.FriendshipPending {
		return &ConflictError{Message: "Friend request is no longer pending"}
	}

	friendship.Status = status
	friendship.UpdatedAt = time.Now().UTC()
	return s.store.UpdateFriendship(friendship)
}

// Block records that the caller blocked the other user. The row is
// oriented with the blocked user as requester and the blocker as
// addressee regardless of any prior direction, so one lookup answers
// "has this user blocked me".
func (s *FriendService) Block(callerUID, otherUID string) error {
	if callerUID == otherUID {
		return &ConflictError{Message: "You cannot block yourself"}
	}
	return s.store.UpsertBlock(otherUID, callerUID)
}

// Cancel withdraws an outgoing request by deleting its row. Only the
// requester can cancel; for anyone else the row is not found.
func (s *FriendService) Cancel(id, callerUID string) error {
	return s.store.DeleteFriendship(id, callerUID)
}

// IsBlockedBy reports whether other has blocked uid.
func (s *FriendService) IsBlockedBy(uid, otherUID string) (bool, error) {
	friendship, err := s.store.GetFriendshipBetween(uid, otherUID)
	if errors.Is(err, store.ErrFriendshipNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return friendship.Status == models.FriendshipBlocked &&
		friendship.RequesterID == uid &&
		friendship.AddresseeID == otherUID, nil
}

// ListIncoming returns pending requests addressed to the user.
func (s *FriendService) ListIncoming(uid string) ([]FriendView, error) {
	rows, err := s.store.ListIncomingRequests(uid)
	if err != nil {
		return nil, err
	}
	return s.resolve(rows, uid)
}

// ListOutgoing returns pending requests the user has sent.
func (s *FriendService) ListOutgoing(uid string) ([]FriendView, error) {
	rows, err := s.store.ListOutgoingRequests(uid)
	if err != nil {
		return nil, err
	}
	return s.resolve(rows, uid)
}

// ListFriends returns the user's accepted friendships.
func (s *FriendService) ListFriends(uid string) ([]FriendView, error) {
	rows, err := s.store.ListAccepted(uid)
	if err != nil {
		return nil, err
	}
	return s.resolve(rows, uid)
}

func (s *FriendService) resolve(rows []*models.Friendship, uid string) ([]FriendView, error) {
	views := make([]FriendView, 0, len(rows))
	for _, row := range rows {
		profile, err := s.store.GetProfileByUID(row.OtherParty(uid))
		if err != nil {
			if errors.Is(err, store.ErrProfileNotFound) {
				log.Warn("skipping friendship %s: counterpart profile missing", row.ID)
				continue
			}
			return nil, err
		}
		views = append(views, FriendView{
			ID:          row.ID,
			Profile:     profile.ToResponse(),
			Status:      row.Status,
			Resubmitted: row.WasResubmitted(),
		})
	}
	return views, nil
}

package models

import (
	"time"
)

// FriendshipStatus represents the state of a friendship row
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipRejected FriendshipStatus = "rejected"
	FriendshipBlocked  FriendshipStatus = "blocked"
)

// Friendship is the single relationship record per user pair capturing
// the request/accept/block lifecycle. A cancelled request is a deleted
// row, not a stored state. For a blocked row the blocking user is always
// the addressee, regardless of who originally sent the request.
type Friendship struct {
	ID          string           `json:"id"`
	RequesterID string           `json:"requester_id"`
	AddresseeID string           `json:"addressee_id"`
	Status      FriendshipStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// resubmitTolerance separates genuine resubmissions from the clock skew
// between created_at and updated_at on a freshly inserted row.
const resubmitTolerance = time.Second

// WasResubmitted reports whether this request was rejected and sent
// again, derived by comparing updated_at to created_at.
func (f *Friendship) WasResubmitted() bool {
	return f.UpdatedAt.After(f.CreatedAt.Add(resubmitTolerance))
}

// OtherParty returns the counterpart of the given user on this row.
func (f *Friendship) OtherParty(uid string) string {
	if f.RequesterID == uid {
		return f.AddresseeID
	}
	return f.RequesterID
}

// SendFriendRequestInput is the structure for friend request creation
type SendFriendRequestInput struct {
	UserCode string `json:"user_code" binding:"required"`
}

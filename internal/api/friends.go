package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ammar1510/voicelink/internal/chat"
	"github.com/ammar1510/voicelink/internal/models"
)

// FriendHandler serves the friendship lifecycle endpoints.
type FriendHandler struct {
	session *chat.Session
}

func NewFriendHandler(session *chat.Session) *FriendHandler {
	return &FriendHandler{session: session}
}

func (h *FriendHandler) uid(c *gin.Context) (string, bool) {
	profile := h.session.Profile()
	if profile == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session not initialized"})
		return "", false
	}
	return profile.UID, true
}

// SendRequest creates a pending friend request by user code
func (h *FriendHandler) SendRequest(c *gin.Context) {
	if _, ok := h.uid(c); !ok {
		return
	}

	var req models.SendFriendRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_code is required"})
		return
	}

	friendship, err := h.session.SendFriendRequest(req.UserCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, friendship)
}

// Accept approves an incoming friend request
func (h *FriendHandler) Accept(c *gin.Context) {
	if _, ok := h.uid(c); !ok {
		return
	}
	if err := h.session.AcceptFriendRequest(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// Reject declines an incoming friend request
func (h *FriendHandler) Reject(c *gin.Context) {
	uid, ok := h.uid(c)
	if !ok {
		return
	}
	if err := h.session.Friends.Reject(c.Param("id"), uid); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

// Cancel withdraws an outgoing friend request
func (h *FriendHandler) Cancel(c *gin.Context) {
	uid, ok := h.uid(c)
	if !ok {
		return
	}
	if err := h.session.Friends.Cancel(c.Param("id"), uid); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// BlockRequest is the structure for block requests
type BlockRequest struct {
	UID string `json:"uid" binding:"required"`
}

// Block records that the caller blocked another user
func (h *FriendHandler) Block(c *gin.Context) {
	uid, ok := h.uid(c)
	if !ok {
		return
	}

	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uid is required"})
		return
	}

	if err := h.session.Friends.Block(uid, req.UID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "blocked"})
}

// ListFriends returns accepted friendships
func (h *FriendHandler) ListFriends(c *gin.Context) {
	uid, ok := h.uid(c)
	if !ok {
		return
	}
	views, err := h.session.Friends.ListFriends(uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// ListIncoming returns pending requests addressed to the caller
func (h *FriendHandler) ListIncoming(c *gin.Context) {
	uid, ok := h.uid(c)
	if !ok {
		return
	}
	views, err := h.session.Friends.ListIncoming(uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// ListOutgoing returns pending requests the caller has sent
func (h *FriendHandler) ListOutgoing(c *gin.Context) {
	uid, ok := h.uid(c)
	if !ok {
		return
	}
	views, err := h.session.Friends.ListOutgoing(uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

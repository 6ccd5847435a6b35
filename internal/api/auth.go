package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ammar1510/voicelink/internal/auth"
	"github.com/ammar1510/voicelink/internal/chat"
)

// AuthHandler exchanges the daemon's access key for a session token.
// The daemon serves a single signed-in user, so there is no user lookup
// on login, only the key check.
type AuthHandler struct {
	session       *chat.Session
	accessKeyHash string
}

func NewAuthHandler(session *chat.Session, accessKeyHash string) *AuthHandler {
	return &AuthHandler{session: session, accessKeyHash: accessKeyHash}
}

// LoginRequest is the structure for login requests
type LoginRequest struct {
	AccessKey string `json:"access_key" binding:"required"`
}

// Login verifies the access key and issues a session token
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "access_key is required"})
		return
	}

	if !auth.CheckAccessKey(req.AccessKey, h.accessKeyHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid access key"})
		return
	}

	profile := h.session.Profile()
	if profile == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session not initialized"})
		return
	}

	token, expiresAt, err := auth.GenerateToken(profile.UID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"profile":    profile.ToResponse(),
	})
}

// Me returns the signed-in user's profile
func (h *AuthHandler) Me(c *gin.Context) {
	profile := h.session.Profile()
	if profile == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session not initialized"})
		return
	}
	c.JSON(http.StatusOK, profile.ToResponse())
}

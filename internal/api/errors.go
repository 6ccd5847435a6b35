package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ammar1510/voicelink/internal/chat"
	"github.com/ammar1510/voicelink/internal/logger"
	"github.com/ammar1510/voicelink/internal/store"
)

var log = logger.New("api")

// respondError maps domain errors onto HTTP statuses. Conflicts carry
// their user-visible message through; unknown errors stay opaque.
func respondError(c *gin.Context, err error) {
	var conflict *chat.ConflictError
	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Message})
	case errors.Is(err, store.ErrProfileNotFound),
		errors.Is(err, store.ErrConversationNotFound),
		errors.Is(err, store.ErrMessageNotFound),
		errors.Is(err, store.ErrFriendshipNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Error("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

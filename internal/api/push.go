package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ammar1510/voicelink/internal/push"
)

// PushHandler receives inbound notification events from the platform
// shell and routes them through the dispatcher.
type PushHandler struct {
	dispatcher *push.Dispatcher
}

func NewPushHandler(dispatcher *push.Dispatcher) *PushHandler {
	return &PushHandler{dispatcher: dispatcher}
}

// PushEventRequest is the structure for inbound notification events
type PushEventRequest struct {
	Event string                `json:"event" binding:"required"`
	Data  push.NotificationData `json:"data"`
}

// Event dispatches a foreground or click notification event
func (h *PushHandler) Event(c *gin.Context) {
	var req PushEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event is required"})
		return
	}

	switch req.Event {
	case "foreground":
		h.dispatcher.DispatchForeground(req.Data)
	case "click":
		h.dispatcher.DispatchClick(req.Data)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event type"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "dispatched"})
}

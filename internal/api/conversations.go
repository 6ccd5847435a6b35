package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ammar1510/voicelink/internal/chat"
	"github.com/ammar1510/voicelink/internal/models"
)

// ConversationHandler serves the conversation, message and playback
// endpoints off the live session.
type ConversationHandler struct {
	session *chat.Session
}

func NewConversationHandler(session *chat.Session) *ConversationHandler {
	return &ConversationHandler{session: session}
}

type conversationSummary struct {
	ConversationID  string    `json:"conversationId"`
	OtherUID        string    `json:"otherUid"`
	MessageCount    int       `json:"messageCount"`
	LastMessageTime time.Time `json:"lastMessageTime"`
}

// List returns the cached conversations, most recently active first
func (h *ConversationHandler) List(c *gin.Context) {
	profile := h.session.Profile()
	if profile == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session not initialized"})
		return
	}

	conversations := h.session.Reconciler.Conversations()
	summaries := make([]conversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		summaries = append(summaries, conversationSummary{
			ConversationID:  conv.ConversationID,
			OtherUID:        conv.OtherParticipant(profile.UID),
			MessageCount:    len(conv.Messages),
			LastMessageTime: conv.LastMessageTime(),
		})
	}
	c.JSON(http.StatusOK, summaries)
}

// StartConversationRequest is the structure for conversation creation
type StartConversationRequest struct {
	OtherUID string `json:"other_uid" binding:"required"`
}

// Start finds or creates the thread with another user
func (h *ConversationHandler) Start(c *gin.Context) {
	var req StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "other_uid is required"})
		return
	}

	conv, isNew, err := h.session.StartConversation(req.OtherUID)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	c.JSON(status, conv)
}

// Open points the sequencer at a conversation and starts autoplay over
// its unread messages
func (h *ConversationHandler) Open(c *gin.Context) {
	if err := h.session.OpenConversation(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Messages returns a conversation's messages grouped into day sections
func (h *ConversationHandler) Messages(c *gin.Context) {
	conversationID := c.Param("id")

	conv, ok := h.session.Reconciler.Conversation(conversationID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}

	groups := chat.GroupForDisplay(conv.Messages, time.Now())
	c.JSON(http.StatusOK, gin.H{
		"conversationId": conv.ConversationID,
		"groups":         groups,
	})
}

// Send runs the outgoing message pipeline
func (h *ConversationHandler) Send(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation_id and audio are required"})
		return
	}

	msg, err := h.session.SendMessage(req.ConversationID, req.Audio)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// MarkPlayed records a manual playback of a message
func (h *ConversationHandler) MarkPlayed(c *gin.Context) {
	conversationID := c.Param("id")
	messageID := c.Param("messageId")

	if err := h.session.MarkMessagePlayed(conversationID, messageID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// UpdateLastRead advances the caller's last-read marker to now
func (h *ConversationHandler) UpdateLastRead(c *gin.Context) {
	profile := h.session.Profile()
	if profile == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session not initialized"})
		return
	}

	conversationID := c.Param("id")
	if err := h.session.Reader.UpdateLastRead(conversationID, profile.UID, time.Now().UTC()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// StopAutoplay abandons any active autoplay chain
func (h *ConversationHandler) StopAutoplay(c *gin.Context) {
	h.session.Sequencer.Stop()
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

// GetSettings returns the playback preferences
func (h *ConversationHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Settings())
}

// UpdateSettings replaces the playback preferences
func (h *ConversationHandler) UpdateSettings(c *gin.Context) {
	var settings chat.AudioSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload"})
		return
	}
	h.session.UpdateSettings(settings)
	c.JSON(http.StatusOK, settings)
}

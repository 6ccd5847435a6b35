package api

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups the route handlers for registration.
type Handlers struct {
	Auth          *AuthHandler
	Conversations *ConversationHandler
	Friends       *FriendHandler
	Push          *PushHandler
}

// RegisterRoutes attaches all endpoints to the router. Everything past
// login requires a valid session token.
func RegisterRoutes(router *gin.Engine, h *Handlers) {
	router.POST("/auth/login", h.Auth.Login)

	authorized := router.Group("/")
	authorized.Use(AuthMiddleware())
	{
		authorized.GET("/me", h.Auth.Me)

		authorized.GET("/conversations", h.Conversations.List)
		authorized.POST("/conversations", h.Conversations.Start)
		authorized.POST("/conversations/:id/open", h.Conversations.Open)
		authorized.GET("/conversations/:id/messages", h.Conversations.Messages)
		authorized.POST("/conversations/:id/messages/:messageId/played", h.Conversations.MarkPlayed)
		authorized.POST("/conversations/:id/read", h.Conversations.UpdateLastRead)
		authorized.POST("/messages", h.Conversations.Send)

		authorized.POST("/autoplay/stop", h.Conversations.StopAutoplay)
		authorized.GET("/settings", h.Conversations.GetSettings)
		authorized.PUT("/settings", h.Conversations.UpdateSettings)

		authorized.GET("/friends", h.Friends.ListFriends)
		authorized.GET("/friends/requests/incoming", h.Friends.ListIncoming)
		authorized.GET("/friends/requests/outgoing", h.Friends.ListOutgoing)
		authorized.POST("/friends/requests", h.Friends.SendRequest)
		authorized.POST("/friends/requests/:id/accept", h.Friends.Accept)
		authorized.POST("/friends/requests/:id/reject", h.Friends.Reject)
		authorized.DELETE("/friends/requests/:id", h.Friends.Cancel)
		authorized.POST("/friends/block", h.Friends.Block)

		authorized.POST("/push/events", h.Push.Event)
	}
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"duochat/middleware"
)

type Router struct {
	Friends     *FriendHandler
	Messages    *MessageHandler
	WebSocket   gin.HandlerFunc
	JWTSecret   string
	RateLimiter *middleware.RateLimiter
	RatePerMin  int
}

func (rt *Router) Register(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	auth := middleware.AuthMiddleware(rt.JWTSecret)
	limit := middleware.RateLimit(rt.RateLimiter, rt.RatePerMin)

	friends := r.Group("/api/friends")
	friends.Use(auth)
	{
		friends.GET("", rt.Friends.GetFriends)
		friends.GET("/requests/incoming", rt.Friends.GetIncomingRequests)
		friends.GET("/requests/outgoing", rt.Friends.GetOutgoingRequests)
		friends.POST("/request/:user_id", limit, rt.Friends.SendFriendRequest)
		friends.POST("/accept/:user_id", rt.Friends.AcceptFriendRequest)
		friends.POST("/decline/:user_id", rt.Friends.DeclineFriendRequest)
		friends.POST("/cancel/:user_id", rt.Friends.CancelFriendRequest)
		friends.DELETE("/:user_id", rt.Friends.DeleteFriend)
	}

	chat := r.Group("/api/chat")
	chat.Use(auth)
	{
		chat.POST("/send", limit, rt.Messages.SendMessage)
		chat.GET("/history/:user_id", rt.Messages.GetHistory)
	}

	if rt.WebSocket != nil {
		r.GET("/ws", rt.WebSocket)
	}
}

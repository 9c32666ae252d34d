package handlers

import (
	"github.com/gin-gonic/gin"

	"duochat/services"
	"duochat/utils"
)

type FriendHandler struct {
	friends *services.FriendService
}

func NewFriendHandler(friends *services.FriendService) *FriendHandler {
	return &FriendHandler{friends: friends}
}

func (h *FriendHandler) GetFriends(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}

	friends, err := h.friends.ListAccepted(c.Request.Context(), me)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, friends)
}

func (h *FriendHandler) GetIncomingRequests(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}

	requests, err := h.friends.ListIncoming(c.Request.Context(), me)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, requests)
}

func (h *FriendHandler) GetOutgoingRequests(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}

	requests, err := h.friends.ListOutgoing(c.Request.Context(), me)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, requests)
}

func (h *FriendHandler) SendFriendRequest(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}

	outcome, err := h.friends.SendRequest(c.Request.Context(), me, c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, gin.H{"result": outcome})
}

func (h *FriendHandler) AcceptFriendRequest(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}

	if err := h.friends.Accept(c.Request.Context(), me, c.Param("user_id")); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, gin.H{"result": "accepted"})
}

func (h *FriendHandler) DeclineFriendRequest(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}

	if err := h.friends.Decline(c.Request.Context(), me, c.Param("user_id")); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, gin.H{"result": "declined"})
}

func (h *FriendHandler) CancelFriendRequest(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}

	if err := h.friends.Cancel(c.Request.Context(), me, c.Param("user_id")); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, gin.H{"result": "cancelled"})
}

func (h *FriendHandler) DeleteFriend(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}

	if err := h.friends.Unfriend(c.Request.Context(), me, c.Param("user_id")); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, gin.H{"result": "unfriended"})
}

package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"duochat/models"
	"duochat/services"
	"duochat/utils"
)

type SendMessageRequest struct {
	RecipientID string `json:"recipient_id" binding:"required"`
	Text        string `json:"text"`
}

type SentMessageResponse struct {
	ID string `json:"id"`
	models.MessageResponse
}

type MessageHandler struct {
	messages *services.MessageService
}

func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	msg, err := h.messages.SendMessage(c.Request.Context(), me, req.RecipientID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, SentMessageResponse{ID: msg.ID, MessageResponse: *msg.ToResponse()})
}

func (h *MessageHandler) GetHistory(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}

	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	take, _ := strconv.Atoi(c.DefaultQuery("take", "50"))

	msgs, err := h.messages.GetHistory(c.Request.Context(), me, c.Param("user_id"), skip, take)
	if err != nil {
		respondError(c, err)
		return
	}

	history := make([]models.MessageResponse, 0, len(msgs))
	for i := range msgs {
		history = append(history, *msgs[i].ToResponse())
	}
	utils.Success(c, history)
}

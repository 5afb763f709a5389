package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"axel-advisor/internal/app"
	"axel-advisor/internal/transport/http/middleware"
	"axel-advisor/internal/transport/http/response"
)

type ChatHandler struct {
	chat       *app.ChatService
	onboarding *app.OnboardingService
}

type SendMessageRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	Message        string `json:"message" binding:"required"`
	// TurnID makes retried requests idempotent for usage metering.
	TurnID string `json:"turn_id"`
}

type StartConversationRequest struct {
	SectionID string `json:"section_id" binding:"required"`
}

func NewChatHandler(chat *app.ChatService, onboarding *app.OnboardingService) *ChatHandler {
	return &ChatHandler{chat: chat, onboarding: onboarding}
}

// ListSections returns the personas of the caller's organization.
func (h *ChatHandler) ListSections(c *gin.Context) {
	userID := middleware.UserID(c)
	org, err := h.onboarding.OrganizationForOwner(userID)
	if err != nil {
		if errors.Is(err, app.ErrOrganizationNotFound) {
			response.OK(c, []interface{}{})
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "resolve organization failed")
		return
	}

	sections, err := h.chat.ListSections(org.ID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list sections failed")
		return
	}
	response.OK(c, sections)
}

// StartConversation returns the section's conversation, creating it on
// first use.
func (h *ChatHandler) StartConversation(c *gin.Context) {
	var req StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	conv, err := h.chat.StartConversation(req.SectionID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrSectionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "start conversation failed")
		}
		return
	}
	response.OK(c, gin.H{"conversation_id": conv.ID})
}

// SendMessage runs one chat turn.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.chat.SendMessage(c.Request.Context(), app.SendMessageInput{
		ConversationID: req.ConversationID,
		Content:        req.Message,
		TurnID:         req.TurnID,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrUsageLimitExceeded):
			response.Error(c, http.StatusForbidden, response.CodeCreditLimit, "credit limit reached, please upgrade your plan")
		case errors.Is(err, app.ErrConversationNotFound),
			errors.Is(err, app.ErrSectionNotFound),
			errors.Is(err, app.ErrOrganizationNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "send message failed")
		}
		return
	}

	response.OK(c, result)
}

// GetHistory reads a conversation back in timestamp order.
func (h *ChatHandler) GetHistory(c *gin.Context) {
	conversationID := c.Param("conversation_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	messages, err := h.chat.GetHistory(c.Request.Context(), conversationID, limit)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrConversationNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get history failed")
		}
		return
	}
	response.OK(c, messages)
}

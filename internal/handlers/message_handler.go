package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/repositories"
	"github.com/anonto42/writers-guild/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// MessageHandler handles direct messages and conversations
type MessageHandler struct {
	messenger              *services.Messenger
	conversationRepository repositories.ConversationRepository
	userRepository         repositories.UserRepository
}

func NewMessageHandler(messenger *services.Messenger, convRepo repositories.ConversationRepository, userRepo repositories.UserRepository) *MessageHandler {
	return &MessageHandler{
		messenger:              messenger,
		conversationRepository: convRepo,
		userRepository:         userRepo,
	}
}

func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.POST("/messages", h.SendMessage)
	g.GET("/conversations", h.GetConversations)
	g.GET("/conversations/:id/messages", h.GetMessages)
	g.PUT("/conversations/:id/read", h.MarkRead)
}

// ConversationSummary is a conversation as listed for one participant.
type ConversationSummary struct {
	models.Conversation
	Participant models.UserCompact `json:"participant"`
	UnreadCount int64              `json:"unread_count"`
}

// SendMessage stores a message, creating the conversation on first contact,
// and pushes it to the recipient's open channels.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req models.SendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	message, err := h.messenger.Send(getUserIDFromContext(c), &req)
	switch {
	case errors.Is(err, services.ErrSelfMessage):
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot message yourself")
	case errors.Is(err, services.ErrRecipientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Recipient not found")
	case err != nil:
		return internalError(err)
	}
	return success(c, http.StatusCreated, echo.Map{"message": message})
}

// GetConversations lists the caller's conversations, most recent first.
func (h *MessageHandler) GetConversations(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	convs, err := h.conversationRepository.GetConversationsForUser(currentUserID)
	if err != nil {
		return internalError(err)
	}

	otherIDs := make([]uint, len(convs))
	for i := range convs {
		otherIDs[i] = convs[i].OtherParticipant(currentUserID)
	}
	users, err := h.userRepository.GetUsersByIDs(otherIDs)
	if err != nil {
		return internalError(err)
	}
	userMap := make(map[uint]models.UserCompact, len(users))
	for i := range users {
		userMap[users[i].ID] = users[i].ToCompact()
	}

	summaries := make([]ConversationSummary, len(convs))
	for i := range convs {
		unread, err := h.conversationRepository.CountUnread(&convs[i], currentUserID)
		if err != nil {
			return internalError(err)
		}
		summaries[i] = ConversationSummary{
			Conversation: convs[i],
			Participant:  userMap[otherIDs[i]],
			UnreadCount:  unread,
		}
	}
	return success(c, http.StatusOK, echo.Map{"conversations": summaries})
}

// GetMessages returns a page of a conversation's messages, newest first.
func (h *MessageHandler) GetMessages(c echo.Context) error {
	conv, err := h.participantConversation(c)
	if err != nil {
		return err
	}
	page, limit := getPagination(c, 30)

	messages, total, err := h.conversationRepository.GetMessages(conv.ID, page, limit)
	if err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"messages": messages},
		"meta":    paginationMeta(page, limit, total),
	})
}

// MarkRead records that the caller has read the conversation up to now.
func (h *MessageHandler) MarkRead(c echo.Context) error {
	conv, err := h.participantConversation(c)
	if err != nil {
		return err
	}
	if err := h.conversationRepository.MarkRead(conv, getUserIDFromContext(c), time.Now()); err != nil {
		return internalError(err)
	}
	return success(c, http.StatusOK, echo.Map{"success": true})
}

// participantConversation loads the conversation in the path. Conversations
// the caller is not part of are reported as missing.
func (h *MessageHandler) participantConversation(c echo.Context) (*models.Conversation, error) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	conv, err := h.conversationRepository.GetConversationByID(id)
	if err != nil {
		if isNotFound(err) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
		}
		return nil, internalError(err)
	}
	if !conv.HasParticipant(getUserIDFromContext(c)) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
	}
	return conv, nil
}

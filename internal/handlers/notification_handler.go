package handlers

import (
	"net/http"
	"time"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/grouped", h.GetGroupedNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
}

// EnrichedNotification includes actor info
type EnrichedNotification struct {
	models.Notification
	Actor models.UserCompact `json:"actor"`
}

func (h *NotificationHandler) enrichNotifications(groups ...[]models.Notification) ([][]EnrichedNotification, error) {
	actorSet := make(map[uint]struct{})
	var actorIDs []uint
	for _, group := range groups {
		for _, n := range group {
			if _, ok := actorSet[n.ActorID]; !ok {
				actorSet[n.ActorID] = struct{}{}
				actorIDs = append(actorIDs, n.ActorID)
			}
		}
	}

	actors, err := h.userRepository.GetUsersByIDs(actorIDs)
	if err != nil {
		return nil, err
	}
	actorMap := make(map[uint]models.UserCompact, len(actors))
	for i := range actors {
		actorMap[actors[i].ID] = actors[i].ToCompact()
	}

	out := make([][]EnrichedNotification, len(groups))
	for g, group := range groups {
		out[g] = make([]EnrichedNotification, len(group))
		for i, n := range group {
			out[g][i] = EnrichedNotification{Notification: n, Actor: actorMap[n.ActorID]}
		}
	}
	return out, nil
}

// GetNotifications returns paginated notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	page, limit := getPagination(c, 20)

	notifications, total, err := h.notificationRepository.GetByRecipientID(currentUserID, page, limit)
	if err != nil {
		return internalError(err)
	}
	enriched, err := h.enrichNotifications(notifications)
	if err != nil {
		return internalError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": enriched[0],
		},
		"meta": paginationMeta(page, limit, total),
	})
}

// GetGroupedNotifications returns notifications grouped by time period
func (h *NotificationHandler) GetGroupedNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	today, yesterday, thisWeek, older, err := h.notificationRepository.GetGrouped(currentUserID, time.Now())
	if err != nil {
		return internalError(err)
	}
	groups, err := h.enrichNotifications(today, yesterday, thisWeek, older)
	if err != nil {
		return internalError(err)
	}

	unreadCount, err := h.notificationRepository.GetUnreadCount(currentUserID)
	if err != nil {
		return internalError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": echo.Map{
				"today":     groups[0],
				"yesterday": groups[1],
				"thisWeek":  groups[2],
				"older":     groups[3],
			},
			"unreadCount": unreadCount,
		},
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	count, err := h.notificationRepository.GetUnreadCount(getUserIDFromContext(c))
	if err != nil {
		return internalError(err)
	}
	return success(c, http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks one of the caller's notifications as read. Someone
// else's notification is reported as missing.
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	notifID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.notificationRepository.MarkAsRead(notifID, getUserIDFromContext(c)); err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
		}
		return internalError(err)
	}
	return success(c, http.StatusOK, echo.Map{"success": true})
}

// MarkAllAsRead marks all notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	if err := h.notificationRepository.MarkAllAsRead(getUserIDFromContext(c)); err != nil {
		return internalError(err)
	}
	return success(c, http.StatusOK, echo.Map{"success": true})
}

package handlers

import (
	"net/http"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/repositories"
	"github.com/anonto42/writers-guild/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	followRepository repositories.FollowRepository
	userRepository   repositories.UserRepository
	notifier         *services.Notifier
	log              *logrus.Entry
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository, notifier *services.Notifier, log *logrus.Entry) *FollowHandler {
	return &FollowHandler{
		followRepository: followRepo,
		userRepository:   userRepo,
		notifier:         notifier,
		log:              log,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
}

// FollowUser follows a user
func (h *FollowHandler) FollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if currentUserID == targetID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	}

	if _, err := h.userRepository.GetUserByID(targetID); err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return internalError(err)
	}

	isFollowing, err := h.followRepository.IsFollowing(currentUserID, targetID)
	if err != nil {
		return internalError(err)
	}
	if isFollowing {
		return echo.NewHTTPError(http.StatusConflict, "Already following this user")
	}

	follow := &models.Follow{FollowerID: currentUserID, FollowingID: targetID}
	if err := h.followRepository.CreateFollow(follow); err != nil {
		if isDuplicate(err) {
			return echo.NewHTTPError(http.StatusConflict, "Already following this user")
		}
		return internalError(err)
	}

	h.adjustCounters(currentUserID, targetID, 1)

	if actor, err := h.userRepository.GetUserByID(currentUserID); err == nil {
		h.notifier.Notify(&models.Notification{
			Type:        models.NotificationFollow,
			ActorID:     currentUserID,
			RecipientID: targetID,
			Message:     actor.Name() + " started following you",
		})
	}

	return success(c, http.StatusOK, echo.Map{"following": true})
}

// UnfollowUser removes only the caller's follow of the target. A follow in
// the other direction is untouched.
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.followRepository.DeleteFollow(currentUserID, targetID); err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Not following this user")
		}
		return internalError(err)
	}

	h.adjustCounters(currentUserID, targetID, -1)

	return success(c, http.StatusOK, echo.Map{"following": false})
}

func (h *FollowHandler) GetFollowers(c echo.Context) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	users, err := h.followRepository.GetFollowers(userID)
	if err != nil {
		return internalError(err)
	}
	return success(c, http.StatusOK, echo.Map{"users": compactUsers(users)})
}

func (h *FollowHandler) GetFollowing(c echo.Context) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	users, err := h.followRepository.GetFollowing(userID)
	if err != nil {
		return internalError(err)
	}
	return success(c, http.StatusOK, echo.Map{"users": compactUsers(users)})
}

func (h *FollowHandler) adjustCounters(followerID, followingID uint, delta int) {
	if err := h.userRepository.AdjustCounter(followerID, repositories.UserFollowingCount, delta); err != nil {
		h.log.WithError(err).WithField("user_id", followerID).Warn("failed to update following count")
	}
	if err := h.userRepository.AdjustCounter(followingID, repositories.UserFollowersCount, delta); err != nil {
		h.log.WithError(err).WithField("user_id", followingID).Warn("failed to update followers count")
	}
}

func compactUsers(users []models.User) []models.UserCompact {
	out := make([]models.UserCompact, len(users))
	for i := range users {
		out[i] = users[i].ToCompact()
	}
	return out
}

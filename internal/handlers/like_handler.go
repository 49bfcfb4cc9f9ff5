package handlers

import (
	"net/http"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/repositories"
	"github.com/anonto42/writers-guild/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	likeRepository repositories.LikeRepository
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
	notifier       *services.Notifier
	log            *logrus.Entry
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(likeRepo repositories.LikeRepository, postRepo repositories.PostRepository, userRepo repositories.UserRepository, notifier *services.Notifier, log *logrus.Entry) *LikeHandler {
	return &LikeHandler{
		likeRepository: likeRepo,
		postRepository: postRepo,
		userRepository: userRepo,
		notifier:       notifier,
		log:            log,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/likes", h.LikePost)
	g.DELETE("/posts/:post_id/likes", h.UnlikePost)
	g.GET("/posts/:post_id/likes/count", h.GetLikesCountForPost)
	g.GET("/posts/:post_id/likes/status", h.GetUserLikeStatusForPost)
}

// LikePost likes a post. A second like by the same user is rejected and the
// counter moves only once.
func (h *LikeHandler) LikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("post_id")
	ctx := c.Request().Context()

	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return internalError(err)
	}

	hasLiked, err := h.likeRepository.HasUserLikedPost(postID, currentUserID)
	if err != nil {
		return internalError(err)
	}
	if hasLiked {
		return echo.NewHTTPError(http.StatusConflict, "Post already liked")
	}

	like := &models.Like{PostID: postID, UserID: currentUserID}
	if err := h.likeRepository.CreateLike(like); err != nil {
		if isDuplicate(err) {
			return echo.NewHTTPError(http.StatusConflict, "Post already liked")
		}
		return internalError(err)
	}

	if err := h.postRepository.AdjustCounter(ctx, postID, models.CounterLikes, 1); err != nil {
		h.log.WithError(err).WithField("post_id", postID).Warn("failed to update likes count")
	}

	if post.AuthorID != currentUserID {
		if actor, err := h.userRepository.GetUserByID(currentUserID); err == nil {
			h.notifier.Notify(postNotification(models.NotificationLike, actor, post.AuthorID, post, "liked your post"))
		}
	}

	return success(c, http.StatusCreated, echo.Map{"like": like})
}

// UnlikePost handles unliking a post
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("post_id")
	ctx := c.Request().Context()

	if _, err := h.postRepository.GetPostByID(ctx, postID); err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return internalError(err)
	}

	if err := h.likeRepository.DeleteLike(postID, currentUserID); err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Like not found")
		}
		return internalError(err)
	}

	if err := h.postRepository.AdjustCounter(ctx, postID, models.CounterLikes, -1); err != nil {
		h.log.WithError(err).WithField("post_id", postID).Warn("failed to update likes count")
	}

	return c.NoContent(http.StatusNoContent)
}

// GetLikesCountForPost retrieves the total number of likes for a specific post
func (h *LikeHandler) GetLikesCountForPost(c echo.Context) error {
	postID := c.Param("post_id")

	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return internalError(err)
	}

	count, err := h.likeRepository.GetLikesCountByPostID(postID)
	if err != nil {
		return internalError(err)
	}
	return success(c, http.StatusOK, echo.Map{"post_id": postID, "likes_count": count})
}

// GetUserLikeStatusForPost checks if the authenticated user has liked a specific post
func (h *LikeHandler) GetUserLikeStatusForPost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("post_id")

	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return internalError(err)
	}

	hasLiked, err := h.likeRepository.HasUserLikedPost(postID, currentUserID)
	if err != nil {
		return internalError(err)
	}
	return success(c, http.StatusOK, echo.Map{"post_id": postID, "has_liked": hasLiked})
}

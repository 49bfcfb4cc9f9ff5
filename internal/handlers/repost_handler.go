package handlers

import (
	"net/http"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/repositories"
	"github.com/anonto42/writers-guild/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RepostHandler handles reposts
type RepostHandler struct {
	repostRepository repositories.RepostRepository
	postRepository   repositories.PostRepository
	userRepository   repositories.UserRepository
	notifier         *services.Notifier
	log              *logrus.Entry
}

func NewRepostHandler(repostRepo repositories.RepostRepository, postRepo repositories.PostRepository, userRepo repositories.UserRepository, notifier *services.Notifier, log *logrus.Entry) *RepostHandler {
	return &RepostHandler{
		repostRepository: repostRepo,
		postRepository:   postRepo,
		userRepository:   userRepo,
		notifier:         notifier,
		log:              log,
	}
}

func (h *RepostHandler) RegisterRepostRoutes(g *echo.Group) {
	g.POST("/posts/:id/repost", h.Repost)
	g.DELETE("/posts/:id/repost", h.Undo)
}

// Repost shares a post with an optional quote. Reposting your own post is
// allowed but notifies nobody.
func (h *RepostHandler) Repost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("id")
	ctx := c.Request().Context()

	var req models.CreateRepostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return internalError(err)
	}

	reposted, err := h.repostRepository.HasUserReposted(postID, currentUserID)
	if err != nil {
		return internalError(err)
	}
	if reposted {
		return echo.NewHTTPError(http.StatusConflict, "Post already reposted")
	}

	repost := &models.Repost{PostID: postID, UserID: currentUserID, Quote: req.Quote}
	if err := h.repostRepository.CreateRepost(repost); err != nil {
		if isDuplicate(err) {
			return echo.NewHTTPError(http.StatusConflict, "Post already reposted")
		}
		return internalError(err)
	}
	if err := h.postRepository.AdjustCounter(ctx, postID, models.CounterReposts, 1); err != nil {
		h.log.WithError(err).WithField("post_id", postID).Warn("failed to update reposts count")
	}

	if post.AuthorID != currentUserID {
		if actor, err := h.userRepository.GetUserByID(currentUserID); err == nil {
			h.notifier.Notify(postNotification(models.NotificationRepost, actor, post.AuthorID, post, "reposted your post"))
		}
	}

	return success(c, http.StatusCreated, echo.Map{"repost": repost})
}

func (h *RepostHandler) Undo(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("id")

	if err := h.repostRepository.DeleteRepost(postID, currentUserID); err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Repost not found")
		}
		return internalError(err)
	}
	if err := h.postRepository.AdjustCounter(c.Request().Context(), postID, models.CounterReposts, -1); err != nil {
		h.log.WithError(err).WithField("post_id", postID).Warn("failed to update reposts count")
	}

	return c.NoContent(http.StatusNoContent)
}

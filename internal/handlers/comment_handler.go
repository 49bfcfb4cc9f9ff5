package handlers

import (
	"net/http"
	"time"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/repositories"
	"github.com/anonto42/writers-guild/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
	userRepository    repositories.UserRepository
	notifier          *services.Notifier
	log               *logrus.Entry
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository, userRepo repositories.UserRepository, notifier *services.Notifier, log *logrus.Entry) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
		userRepository:    userRepo,
		notifier:          notifier,
		log:               log,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/comments", h.CreateComment)
	g.GET("/posts/:post_id/comments", h.GetCommentsByPostID)
	g.PUT("/comments/:id", h.UpdateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// EnrichedComment includes author info
type EnrichedComment struct {
	models.Comment
	Author models.UserCompact `json:"author"`
}

// CreateComment creates a comment, then notifies the post author and every
// user mentioned in it.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("post_id")
	ctx := c.Request().Context()

	var req models.CreateCommentRequest
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

	actor, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		return internalError(err)
	}

	comment := &models.Comment{PostID: postID, UserID: currentUserID, Content: req.Content}
	if err := h.commentRepository.CreateComment(comment); err != nil {
		return internalError(err)
	}

	if err := h.postRepository.AdjustCounter(ctx, postID, models.CounterComments, 1); err != nil {
		h.log.WithError(err).WithField("post_id", postID).Warn("failed to update post comments count")
	}
	if err := h.userRepository.AdjustCounter(currentUserID, repositories.UserCommentsCount, 1); err != nil {
		h.log.WithError(err).WithField("user_id", currentUserID).Warn("failed to update user comments count")
	} else if err := h.userRepository.RefreshVerification(currentUserID); err != nil {
		h.log.WithError(err).WithField("user_id", currentUserID).Warn("failed to refresh verification")
	}

	h.notifyComment(actor, post, comment)

	return success(c, http.StatusCreated, echo.Map{
		"comment": EnrichedComment{Comment: *comment, Author: actor.ToCompact()},
	})
}

// notifyComment sends the author a comment notification and each mentioned
// user a mention notification. The author is notified once even when also
// mentioned.
func (h *CommentHandler) notifyComment(actor *models.User, post *models.Post, comment *models.Comment) {
	excerpt := services.Excerpt(comment.Content, 100)

	n := postNotification(models.NotificationComment, actor, post.AuthorID, post, "commented on your post")
	n.Payload["comment_id"] = comment.ID
	n.Payload["excerpt"] = excerpt
	h.notifier.Notify(n)

	usernames := services.ExtractMentions(comment.Content)
	if len(usernames) == 0 {
		return
	}
	mentioned, err := h.userRepository.GetUsersByUsernames(usernames)
	if err != nil {
		h.log.WithError(err).Warn("failed to resolve mentions")
		return
	}

	recipients := make([]uint, 0, len(mentioned))
	for _, u := range mentioned {
		if u.ID != post.AuthorID {
			recipients = append(recipients, u.ID)
		}
	}
	h.notifier.NotifyAll(recipients, func(recipientID uint) *models.Notification {
		m := postNotification(models.NotificationMention, actor, recipientID, post, "mentioned you in a comment")
		m.Payload["comment_id"] = comment.ID
		m.Payload["excerpt"] = excerpt
		return m
	})
}

// GetCommentsByPostID returns a page of comments, oldest first.
func (h *CommentHandler) GetCommentsByPostID(c echo.Context) error {
	postID := c.Param("post_id")
	page, limit := getPagination(c, 20)

	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return internalError(err)
	}

	comments, total, err := h.commentRepository.GetCommentsByPostID(postID, page, limit)
	if err != nil {
		return internalError(err)
	}

	ids := make([]uint, 0, len(comments))
	for _, cm := range comments {
		ids = append(ids, cm.UserID)
	}
	authors, err := h.userRepository.GetUsersByIDs(ids)
	if err != nil {
		return internalError(err)
	}
	authorMap := make(map[uint]models.UserCompact, len(authors))
	for i := range authors {
		authorMap[authors[i].ID] = authors[i].ToCompact()
	}

	enriched := make([]EnrichedComment, len(comments))
	for i, cm := range comments {
		enriched[i] = EnrichedComment{Comment: cm, Author: authorMap[cm.UserID]}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"comments": enriched},
		"meta":    paginationMeta(page, limit, total),
	})
}

// UpdateComment edits a comment. Only its author may edit.
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.commentRepository.GetCommentByID(id)
	if err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
		}
		return internalError(err)
	}
	if comment.UserID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to update this comment")
	}

	comment.Content = req.Content
	comment.UpdatedAt = time.Now()
	if err := h.commentRepository.UpdateComment(comment); err != nil {
		return internalError(err)
	}
	return success(c, http.StatusOK, echo.Map{"comment": comment})
}

// DeleteComment removes a comment. The comment author and the post author
// may delete it.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	ctx := c.Request().Context()
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	comment, err := h.commentRepository.GetCommentByID(id)
	if err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
		}
		return internalError(err)
	}

	if comment.UserID != currentUserID {
		post, err := h.postRepository.GetPostByID(ctx, comment.PostID)
		if err != nil || post.AuthorID != currentUserID {
			return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this comment")
		}
	}

	if err := h.commentRepository.DeleteComment(id); err != nil {
		return internalError(err)
	}

	if err := h.postRepository.AdjustCounter(ctx, comment.PostID, models.CounterComments, -1); err != nil {
		h.log.WithError(err).WithField("post_id", comment.PostID).Warn("failed to update post comments count")
	}
	if err := h.userRepository.AdjustCounter(comment.UserID, repositories.UserCommentsCount, -1); err != nil {
		h.log.WithError(err).WithField("user_id", comment.UserID).Warn("failed to update user comments count")
	}

	return c.NoContent(http.StatusNoContent)
}

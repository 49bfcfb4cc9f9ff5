package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
	enricher       *PostEnricher
	log            *logrus.Entry
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository, enricher *PostEnricher, log *logrus.Entry) *PostHandler {
	return &PostHandler{
		postRepository: postRepo,
		userRepository: userRepo,
		enricher:       enricher,
		log:            log,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/search", h.SearchPosts)
	g.GET("/posts/:id", h.GetPost)
	g.GET("/posts", h.GetPosts)
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
}

// CreatePost creates a new post and counts it toward author verification.
func (h *PostHandler) CreatePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	now := time.Now()
	post := &models.Post{
		AuthorID:        currentUserID,
		Title:           req.Title,
		Content:         req.Content,
		Kind:            req.Kind,
		Tags:            req.Tags,
		CollaboratorIDs: []uint{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return internalError(err)
	}

	if err := h.userRepository.AdjustCounter(currentUserID, repositories.UserPostsCount, 1); err != nil {
		h.log.WithError(err).WithField("user_id", currentUserID).Warn("failed to update posts count")
	} else if err := h.userRepository.RefreshVerification(currentUserID); err != nil {
		h.log.WithError(err).WithField("user_id", currentUserID).Warn("failed to refresh verification")
	}

	return success(c, http.StatusCreated, echo.Map{"post": post})
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return internalError(err)
	}

	enriched, err := h.enricher.Enrich(getUserIDFromContext(c), []models.Post{*post})
	if err != nil {
		return internalError(err)
	}
	return success(c, http.StatusOK, echo.Map{"post": enriched[0]})
}

// GetPosts lists the newest posts, optionally only those of ?author_id.
func (h *PostHandler) GetPosts(c echo.Context) error {
	page, limit := getPagination(c, 10)
	skip := int64((page - 1) * limit)
	ctx := c.Request().Context()

	var posts []models.Post
	var err error
	if raw := c.QueryParam("author_id"); raw != "" {
		authorID, parseErr := strconv.ParseUint(raw, 10, 32)
		if parseErr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid author_id")
		}
		posts, err = h.postRepository.GetPostsByAuthor(ctx, uint(authorID), skip, int64(limit))
	} else {
		posts, err = h.postRepository.GetAllPosts(ctx, skip, int64(limit))
	}
	if err != nil {
		return internalError(err)
	}

	enriched, err := h.enricher.Enrich(getUserIDFromContext(c), posts)
	if err != nil {
		return internalError(err)
	}
	return success(c, http.StatusOK, echo.Map{"posts": enriched})
}

// SearchPosts matches ?q against titles, content and tags.
func (h *PostHandler) SearchPosts(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query 'q' is required")
	}
	page, limit := getPagination(c, 10)

	posts, err := h.postRepository.SearchPosts(c.Request().Context(), query, int64((page-1)*limit), int64(limit))
	if err != nil {
		return internalError(err)
	}
	enriched, err := h.enricher.Enrich(getUserIDFromContext(c), posts)
	if err != nil {
		return internalError(err)
	}
	return success(c, http.StatusOK, echo.Map{"posts": enriched})
}

// UpdatePost lets the author or an accepted collaborator edit a post.
func (h *PostHandler) UpdatePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("id")

	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	existingPost, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return internalError(err)
	}
	if !existingPost.CanEdit(currentUserID) {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to update this post")
	}

	if req.Title != "" {
		existingPost.Title = req.Title
	}
	if req.Content != "" {
		existingPost.Content = req.Content
	}
	if req.Kind != "" {
		existingPost.Kind = req.Kind
	}
	if req.Tags != nil {
		existingPost.Tags = req.Tags
	}
	existingPost.UpdatedAt = time.Now()

	if err := h.postRepository.UpdatePost(c.Request().Context(), postID, existingPost); err != nil {
		return internalError(err)
	}
	return success(c, http.StatusOK, echo.Map{"post": existingPost})
}

// DeletePost deletes a post. Only the author may delete.
func (h *PostHandler) DeletePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("id")

	existingPost, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return internalError(err)
	}
	if existingPost.AuthorID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this post")
	}

	if err := h.postRepository.DeletePost(c.Request().Context(), postID); err != nil {
		return internalError(err)
	}
	if err := h.userRepository.AdjustCounter(currentUserID, repositories.UserPostsCount, -1); err != nil {
		h.log.WithError(err).WithField("user_id", currentUserID).Warn("failed to update posts count")
	}

	return c.NoContent(http.StatusNoContent)
}

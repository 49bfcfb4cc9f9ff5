package handlers

import (
	"net/http"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// SavedPostHandler handles saved post HTTP requests
type SavedPostHandler struct {
	savedPostRepository repositories.SavedPostRepository
	postRepository      repositories.PostRepository
	enricher            *PostEnricher
	log                 *logrus.Entry
}

// NewSavedPostHandler creates a new SavedPostHandler
func NewSavedPostHandler(savedPostRepo repositories.SavedPostRepository, postRepo repositories.PostRepository, enricher *PostEnricher, log *logrus.Entry) *SavedPostHandler {
	return &SavedPostHandler{
		savedPostRepository: savedPostRepo,
		postRepository:      postRepo,
		enricher:            enricher,
		log:                 log,
	}
}

// RegisterSavedPostRoutes registers saved post routes
func (h *SavedPostHandler) RegisterSavedPostRoutes(g *echo.Group) {
	g.POST("/posts/:id/save", h.SavePost)
	g.DELETE("/posts/:id/save", h.UnsavePost)
	g.GET("/bookmarks", h.GetBookmarks)
}

// SavePost saves/bookmarks a post. Bookmarks notify nobody.
func (h *SavedPostHandler) SavePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("id")
	ctx := c.Request().Context()

	if _, err := h.postRepository.GetPostByID(ctx, postID); err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return internalError(err)
	}

	saved, err := h.savedPostRepository.IsPostSaved(currentUserID, postID)
	if err != nil {
		return internalError(err)
	}
	if saved {
		return echo.NewHTTPError(http.StatusConflict, "Post already saved")
	}

	if err := h.savedPostRepository.SavePost(&models.SavedPost{UserID: currentUserID, PostID: postID}); err != nil {
		if isDuplicate(err) {
			return echo.NewHTTPError(http.StatusConflict, "Post already saved")
		}
		return internalError(err)
	}
	if err := h.postRepository.AdjustCounter(ctx, postID, models.CounterBookmarks, 1); err != nil {
		h.log.WithError(err).WithField("post_id", postID).Warn("failed to update bookmarks count")
	}

	return success(c, http.StatusOK, echo.Map{"saved": true})
}

// UnsavePost removes a bookmark
func (h *SavedPostHandler) UnsavePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("id")

	if err := h.savedPostRepository.UnsavePost(currentUserID, postID); err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not saved")
		}
		return internalError(err)
	}
	if err := h.postRepository.AdjustCounter(c.Request().Context(), postID, models.CounterBookmarks, -1); err != nil {
		h.log.WithError(err).WithField("post_id", postID).Warn("failed to update bookmarks count")
	}

	return success(c, http.StatusOK, echo.Map{"saved": false})
}

// GetBookmarks lists the caller's saved posts, most recently saved first.
// Bookmarks of deleted posts are skipped.
func (h *SavedPostHandler) GetBookmarks(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	page, limit := getPagination(c, 10)

	saved, total, err := h.savedPostRepository.GetSavedPostsByUser(currentUserID, page, limit)
	if err != nil {
		return internalError(err)
	}

	ids := make([]string, len(saved))
	for i, s := range saved {
		ids[i] = s.PostID
	}
	posts, err := h.postRepository.GetPostsByIDs(c.Request().Context(), ids)
	if err != nil {
		return internalError(err)
	}

	byID := make(map[string]models.Post, len(posts))
	for _, p := range posts {
		byID[p.ID.Hex()] = p
	}
	ordered := make([]models.Post, 0, len(posts))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}

	enriched, err := h.enricher.Enrich(currentUserID, ordered)
	if err != nil {
		return internalError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"posts": enriched},
		"meta":    paginationMeta(page, limit, total),
	})
}

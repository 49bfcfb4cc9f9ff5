package handlers

import (
	"net/http"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// EnrichedPost is a post with author info and user-specific flags
type EnrichedPost struct {
	models.Post
	Author     models.UserCompact `json:"author"`
	IsLiked    bool               `json:"is_liked"`
	IsSaved    bool               `json:"is_saved"`
	IsReposted bool               `json:"is_reposted"`
}

// PostEnricher joins posts with their authors and the viewer's engagement in
// one query per table rather than one per post.
type PostEnricher struct {
	userRepository      repositories.UserRepository
	likeRepository      repositories.LikeRepository
	savedPostRepository repositories.SavedPostRepository
	repostRepository    repositories.RepostRepository
}

func NewPostEnricher(
	userRepo repositories.UserRepository,
	likeRepo repositories.LikeRepository,
	savedPostRepo repositories.SavedPostRepository,
	repostRepo repositories.RepostRepository,
) *PostEnricher {
	return &PostEnricher{
		userRepository:      userRepo,
		likeRepository:      likeRepo,
		savedPostRepository: savedPostRepo,
		repostRepository:    repostRepo,
	}
}

func (e *PostEnricher) Enrich(viewerID uint, posts []models.Post) ([]EnrichedPost, error) {
	enriched := make([]EnrichedPost, len(posts))
	if len(posts) == 0 {
		return enriched, nil
	}

	postIDs := make([]string, len(posts))
	authorSet := make(map[uint]struct{})
	authorIDs := make([]uint, 0, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID.Hex()
		if _, ok := authorSet[p.AuthorID]; !ok {
			authorSet[p.AuthorID] = struct{}{}
			authorIDs = append(authorIDs, p.AuthorID)
		}
	}

	authors, err := e.userRepository.GetUsersByIDs(authorIDs)
	if err != nil {
		return nil, err
	}
	authorMap := make(map[uint]models.UserCompact, len(authors))
	for i := range authors {
		authorMap[authors[i].ID] = authors[i].ToCompact()
	}

	likedMap := map[string]bool{}
	savedMap := map[string]bool{}
	repostedMap := map[string]bool{}
	if viewerID > 0 {
		if likedMap, err = e.likeRepository.GetLikedPostIDs(viewerID, postIDs); err != nil {
			return nil, err
		}
		if savedMap, err = e.savedPostRepository.GetSavedPostIDs(viewerID, postIDs); err != nil {
			return nil, err
		}
		if repostedMap, err = e.repostRepository.GetRepostedPostIDs(viewerID, postIDs); err != nil {
			return nil, err
		}
	}

	for i, p := range posts {
		pid := postIDs[i]
		enriched[i] = EnrichedPost{
			Post:       p,
			Author:     authorMap[p.AuthorID],
			IsLiked:    likedMap[pid],
			IsSaved:    savedMap[pid],
			IsReposted: repostedMap[pid],
		}
	}
	return enriched, nil
}

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	postRepository   repositories.PostRepository
	followRepository repositories.FollowRepository
	enricher         *PostEnricher
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(postRepo repositories.PostRepository, followRepo repositories.FollowRepository, enricher *PostEnricher) *FeedHandler {
	return &FeedHandler{
		postRepository:   postRepo,
		followRepository: followRepo,
		enricher:         enricher,
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns the newest posts by the user and everyone they follow.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	page, limit := getPagination(c, 10)

	authorIDs, err := h.followRepository.GetFollowingIDs(currentUserID)
	if err != nil {
		return internalError(err)
	}
	authorIDs = append(authorIDs, currentUserID)

	skip := int64((page - 1) * limit)
	posts, total, err := h.postRepository.GetPostsByAuthors(c.Request().Context(), authorIDs, skip, int64(limit))
	if err != nil {
		return internalError(err)
	}

	enrichedPosts, err := h.enricher.Enrich(currentUserID, posts)
	if err != nil {
		return internalError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"posts": enrichedPosts,
		},
		"meta": paginationMeta(page, limit, total),
	})
}

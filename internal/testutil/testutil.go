// Package testutil provides in-memory stores for package tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/repositories"
	"github.com/anonto42/writers-guild/backend/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB opens a migrated in-memory SQLite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := config.OpenGorm(sqlite.Open(dsn))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

// CreateUser inserts a user with the given username and a derived email.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:    username,
		Email:       strings.ToLower(username) + "@example.com",
		DisplayName: username,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// PostStore is an in-memory PostRepository.
type PostStore struct {
	mu    sync.Mutex
	posts map[string]*models.Post
}

var _ repositories.PostRepository = (*PostStore)(nil)

func NewPostStore() *PostStore {
	return &PostStore{posts: make(map[string]*models.Post)}
}

func (s *PostStore) CreatePost(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post.ID = primitive.NewObjectID()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	post.UpdatedAt = post.CreatedAt
	if post.CollaboratorIDs == nil {
		post.CollaboratorIDs = []uint{}
	}
	cp := *post
	s.posts[post.ID.Hex()] = &cp
	return nil
}

func (s *PostStore) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	cp := *p
	cp.CollaboratorIDs = append([]uint{}, p.CollaboratorIDs...)
	return &cp, nil
}

func (s *PostStore) GetPostsByIDs(_ context.Context, ids []string) ([]models.Post, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return s.filter(func(p *models.Post) bool { return want[p.ID.Hex()] }, 0, int64(len(ids))), nil
}

func (s *PostStore) GetPostsByAuthor(_ context.Context, authorID uint, skip, limit int64) ([]models.Post, error) {
	return s.filter(func(p *models.Post) bool { return p.AuthorID == authorID }, skip, limit), nil
}

func (s *PostStore) GetPostsByAuthors(_ context.Context, authorIDs []uint, skip, limit int64) ([]models.Post, int64, error) {
	want := make(map[uint]bool, len(authorIDs))
	for _, id := range authorIDs {
		want[id] = true
	}
	match := func(p *models.Post) bool { return want[p.AuthorID] }
	all := s.filter(match, 0, 0)
	return s.filter(match, skip, limit), int64(len(all)), nil
}

func (s *PostStore) GetAllPosts(_ context.Context, skip, limit int64) ([]models.Post, error) {
	return s.filter(func(*models.Post) bool { return true }, skip, limit), nil
}

func (s *PostStore) SearchPosts(_ context.Context, query string, skip, limit int64) ([]models.Post, error) {
	q := strings.ToLower(query)
	return s.filter(func(p *models.Post) bool {
		if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Content), q) {
			return true
		}
		for _, tag := range p.Tags {
			if strings.Contains(strings.ToLower(tag), q) {
				return true
			}
		}
		return false
	}, skip, limit), nil
}

func (s *PostStore) UpdatePost(_ context.Context, id string, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return repositories.ErrPostNotFound
	}
	p.Title, p.Content, p.Kind, p.Tags = post.Title, post.Content, post.Kind, post.Tags
	p.UpdatedAt = time.Now()
	return nil
}

func (s *PostStore) DeletePost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return repositories.ErrPostNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *PostStore) AdjustCounter(_ context.Context, postID, counter string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return repositories.ErrPostNotFound
	}
	var field *int
	switch counter {
	case models.CounterLikes:
		field = &p.LikesCount
	case models.CounterComments:
		field = &p.CommentsCount
	case models.CounterReposts:
		field = &p.RepostsCount
	case models.CounterBookmarks:
		field = &p.BookmarksCount
	default:
		return fmt.Errorf("unknown post counter %q", counter)
	}
	if *field+delta >= 0 {
		*field += delta
	}
	return nil
}

func (s *PostStore) AddCollaborator(_ context.Context, postID string, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return repositories.ErrPostNotFound
	}
	if !p.HasCollaborator(userID) {
		p.CollaboratorIDs = append(p.CollaboratorIDs, userID)
	}
	return nil
}

// filter returns matching posts newest first. A zero limit means no limit.
func (s *PostStore) filter(match func(*models.Post) bool, skip, limit int64) []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Post{}
	for _, p := range s.posts {
		if match(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.Hex() > out[j].ID.Hex()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if skip >= int64(len(out)) {
		return []models.Post{}
	}
	out = out[skip:]
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out
}

package repositories

import (
	"github.com/anonto42/writers-guild/backend/internal/models"
	"gorm.io/gorm"
)

// SavedPostRepository defines the interface for bookmark operations
type SavedPostRepository interface {
	SavePost(savedPost *models.SavedPost) error
	UnsavePost(userID uint, postID string) error
	IsPostSaved(userID uint, postID string) (bool, error)
	GetSavedPostsByUser(userID uint, page, limit int) ([]models.SavedPost, int64, error)
	GetSavedPostIDs(userID uint, postIDs []string) (map[string]bool, error)
}

// PostgresSavedPostRepository implements SavedPostRepository
type PostgresSavedPostRepository struct {
	db *gorm.DB
}

func NewPostgresSavedPostRepository(db *gorm.DB) *PostgresSavedPostRepository {
	return &PostgresSavedPostRepository{db: db}
}

func (r *PostgresSavedPostRepository) SavePost(savedPost *models.SavedPost) error {
	return r.db.Create(savedPost).Error
}

func (r *PostgresSavedPostRepository) UnsavePost(userID uint, postID string) error {
	return affectedOne(r.db.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.SavedPost{}))
}

func (r *PostgresSavedPostRepository) IsPostSaved(userID uint, postID string) (bool, error) {
	return exists(r.db.Model(&models.SavedPost{}).Where("user_id = ? AND post_id = ?", userID, postID))
}

// GetSavedPostsByUser pages the user's bookmarks, most recently saved first.
// The caller resolves the posts themselves from the document store.
func (r *PostgresSavedPostRepository) GetSavedPostsByUser(userID uint, page, limit int) ([]models.SavedPost, int64, error) {
	scope := r.db.Model(&models.SavedPost{}).Where("user_id = ?", userID).Session(&gorm.Session{})

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var saved []models.SavedPost
	err := scope.Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&saved).Error
	return saved, total, err
}

func (r *PostgresSavedPostRepository) GetSavedPostIDs(userID uint, postIDs []string) (map[string]bool, error) {
	return postIDSet(r.db.Model(&models.SavedPost{}), userID, postIDs)
}

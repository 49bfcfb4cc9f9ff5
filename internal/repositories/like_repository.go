package repositories

import (
	"github.com/anonto42/writers-guild/backend/internal/models"
	"gorm.io/gorm"
)

// LikeRepository stores one row per (post, user). A second like violates the
// unique index and surfaces as gorm.ErrDuplicatedKey.
type LikeRepository interface {
	CreateLike(like *models.Like) error
	DeleteLike(postID string, userID uint) error
	GetLikesCountByPostID(postID string) (int64, error)
	HasUserLikedPost(postID string, userID uint) (bool, error)
	GetLikedPostIDs(userID uint, postIDs []string) (map[string]bool, error)
}

type PostgresLikeRepository struct {
	db *gorm.DB
}

func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

func (r *PostgresLikeRepository) CreateLike(like *models.Like) error {
	return r.db.Create(like).Error
}

func (r *PostgresLikeRepository) DeleteLike(postID string, userID uint) error {
	return affectedOne(r.byPostAndUser(postID, userID).Delete(&models.Like{}))
}

func (r *PostgresLikeRepository) GetLikesCountByPostID(postID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}

func (r *PostgresLikeRepository) HasUserLikedPost(postID string, userID uint) (bool, error) {
	return exists(r.byPostAndUser(postID, userID).Model(&models.Like{}))
}

func (r *PostgresLikeRepository) GetLikedPostIDs(userID uint, postIDs []string) (map[string]bool, error) {
	return postIDSet(r.db.Model(&models.Like{}), userID, postIDs)
}

func (r *PostgresLikeRepository) byPostAndUser(postID string, userID uint) *gorm.DB {
	return r.db.Where("post_id = ? AND user_id = ?", postID, userID)
}

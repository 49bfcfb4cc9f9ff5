package repositories

import (
	"github.com/anonto42/writers-guild/backend/internal/models"
	"gorm.io/gorm"
)

type RepostRepository interface {
	CreateRepost(repost *models.Repost) error
	DeleteRepost(postID string, userID uint) error
	HasUserReposted(postID string, userID uint) (bool, error)
	GetRepostedPostIDs(userID uint, postIDs []string) (map[string]bool, error)
}

type PostgresRepostRepository struct {
	db *gorm.DB
}

func NewPostgresRepostRepository(db *gorm.DB) *PostgresRepostRepository {
	return &PostgresRepostRepository{db: db}
}

func (r *PostgresRepostRepository) CreateRepost(repost *models.Repost) error {
	return r.db.Create(repost).Error
}

func (r *PostgresRepostRepository) DeleteRepost(postID string, userID uint) error {
	return affectedOne(r.db.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Repost{}))
}

func (r *PostgresRepostRepository) HasUserReposted(postID string, userID uint) (bool, error) {
	return exists(r.db.Model(&models.Repost{}).Where("post_id = ? AND user_id = ?", postID, userID))
}

func (r *PostgresRepostRepository) GetRepostedPostIDs(userID uint, postIDs []string) (map[string]bool, error) {
	return postIDSet(r.db.Model(&models.Repost{}), userID, postIDs)
}

package repositories

import (
	"github.com/anonto42/writers-guild/backend/internal/models"
	"gorm.io/gorm"
)

// FollowRepository stores directed follow edges. A mutual follow is two
// independent rows, so removing one never touches the other.
type FollowRepository interface {
	CreateFollow(follow *models.Follow) error
	DeleteFollow(followerID, followingID uint) error
	IsFollowing(followerID, followingID uint) (bool, error)
	GetFollowers(userID uint) ([]models.User, error)
	GetFollowing(userID uint) ([]models.User, error)
	GetFollowingIDs(userID uint) ([]uint, error)
}

type PostgresFollowRepository struct {
	db *gorm.DB
}

func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

func (r *PostgresFollowRepository) CreateFollow(follow *models.Follow) error {
	return r.db.Create(follow).Error
}

func (r *PostgresFollowRepository) DeleteFollow(followerID, followingID uint) error {
	return affectedOne(r.edge(followerID, followingID).Delete(&models.Follow{}))
}

func (r *PostgresFollowRepository) IsFollowing(followerID, followingID uint) (bool, error) {
	return exists(r.edge(followerID, followingID).Model(&models.Follow{}))
}

// GetFollowers lists the users following userID, most recent first.
func (r *PostgresFollowRepository) GetFollowers(userID uint) ([]models.User, error) {
	return r.neighbours("follower_id", "following_id", userID)
}

// GetFollowing lists the users userID follows, most recent first.
func (r *PostgresFollowRepository) GetFollowing(userID uint) ([]models.User, error) {
	return r.neighbours("following_id", "follower_id", userID)
}

func (r *PostgresFollowRepository) GetFollowingIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Follow{}).Where("follower_id = ?", userID).Pluck("following_id", &ids).Error
	return ids, err
}

func (r *PostgresFollowRepository) edge(followerID, followingID uint) *gorm.DB {
	return r.db.Where("follower_id = ? AND following_id = ?", followerID, followingID)
}

// neighbours joins users on the edge column other, filtered by self = userID.
func (r *PostgresFollowRepository) neighbours(other, self string, userID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.Model(&models.User{}).
		Joins("JOIN follows ON follows."+other+" = users.id").
		Where("follows."+self+" = ?", userID).
		Order("follows.created_at DESC").
		Find(&users).Error
	return users, err
}

package repositories

import (
	"fmt"
	"strings"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"gorm.io/gorm"
)

// User counter columns accepted by AdjustCounter.
const (
	UserPostsCount     = "posts_count"
	UserCommentsCount  = "comments_count"
	UserFollowersCount = "followers_count"
	UserFollowingCount = "following_count"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(user *models.User) error
	GetUserByID(id uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByFirebaseUID(firebaseUID string) (*models.User, error)
	GetUsersByIDs(ids []uint) ([]models.User, error)
	GetUsersByUsernames(usernames []string) ([]models.User, error)
	GetAdmins() ([]models.User, error)
	UpdateUser(user *models.User) error
	SearchUsers(query string, limit int) ([]models.User, error)
	AdjustCounter(id uint, column string, delta int) error
	RefreshVerification(id uint) error
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) CreateUser(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *PostgresUserRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByFirebaseUID(firebaseUID string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("firebase_uid = ?", firebaseUID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUsersByIDs(ids []uint) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// GetUsersByUsernames matches usernames case-insensitively.
func (r *PostgresUserRepository) GetUsersByUsernames(usernames []string) ([]models.User, error) {
	var users []models.User
	if len(usernames) == 0 {
		return users, nil
	}
	lowered := make([]string, len(usernames))
	for i, u := range usernames {
		lowered[i] = strings.ToLower(u)
	}
	err := r.db.Where("LOWER(username) IN ?", lowered).Find(&users).Error
	return users, err
}

func (r *PostgresUserRepository) GetAdmins() ([]models.User, error) {
	var users []models.User
	err := r.db.Where("is_admin = ?", true).Find(&users).Error
	return users, err
}

func (r *PostgresUserRepository) UpdateUser(user *models.User) error {
	return r.db.Save(user).Error
}

// SearchUsers returns users whose username or display name contains query.
func (r *PostgresUserRepository) SearchUsers(query string, limit int) ([]models.User, error) {
	var users []models.User
	like := "%" + strings.ToLower(query) + "%"
	err := r.db.Where("LOWER(username) LIKE ? OR LOWER(display_name) LIKE ?", like, like).
		Limit(limit).
		Find(&users).Error
	return users, err
}

// AdjustCounter adds delta to one of the user counters, never going below zero.
func (r *PostgresUserRepository) AdjustCounter(id uint, column string, delta int) error {
	switch column {
	case UserPostsCount, UserCommentsCount, UserFollowersCount, UserFollowingCount:
	default:
		return fmt.Errorf("unknown user counter %q", column)
	}
	expr := gorm.Expr(fmt.Sprintf("CASE WHEN %[1]s + ? < 0 THEN 0 ELSE %[1]s + ? END", column), delta, delta)
	return r.db.Model(&models.User{}).Where("id = ?", id).UpdateColumn(column, expr).Error
}

// RefreshVerification marks the user verified once both activity thresholds
// are met. Verification is never revoked here.
func (r *PostgresUserRepository) RefreshVerification(id uint) error {
	return r.db.Model(&models.User{}).
		Where("id = ? AND is_verified = ? AND posts_count >= ? AND comments_count >= ?",
			id, false, models.VerifyMinPosts, models.VerifyMinComments).
		UpdateColumn("is_verified", true).Error
}

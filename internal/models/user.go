package models

import "time"

// Thresholds for automatic author verification.
const (
	VerifyMinPosts    = 5
	VerifyMinComments = 20
)

type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Username       string    `json:"username" gorm:"size:30;uniqueIndex"`
	Email          string    `json:"email" gorm:"uniqueIndex"`
	DisplayName    string    `json:"display_name" gorm:"size:60"`
	Bio            string    `json:"bio" gorm:"size:500"`
	AvatarURL      string    `json:"avatar_url"`
	Password       string    `json:"-"`
	FirebaseUID    *string   `json:"-" gorm:"uniqueIndex"`
	PostsCount     int       `json:"posts_count" gorm:"default:0"`
	CommentsCount  int       `json:"comments_count" gorm:"default:0"`
	FollowersCount int       `json:"followers_count" gorm:"default:0"`
	FollowingCount int       `json:"following_count" gorm:"default:0"`
	IsVerified     bool      `json:"is_verified" gorm:"default:false"`
	IsAdmin        bool      `json:"is_admin" gorm:"default:false;index"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserCompact is the author / actor shape embedded in other responses.
type UserCompact struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	IsVerified  bool   `json:"is_verified"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		IsVerified:  u.IsVerified,
	}
}

// Name is what notification messages call the user.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

type SignupRequest struct {
	Username    string `json:"username" validate:"required,alphanum,min=3,max=30"`
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"omitempty,max=60"`
	Password    string `json:"password" validate:"required,min=8"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,max=60"`
	Bio         string `json:"bio,omitempty" validate:"omitempty,max=500"`
	AvatarURL   string `json:"avatar_url,omitempty" validate:"omitempty,url"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
}

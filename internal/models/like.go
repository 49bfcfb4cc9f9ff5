package models

import "time"

// Like represents a like on a post
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"size:24;index;uniqueIndex:idx_like_post_user"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_like_post_user"`
	CreatedAt time.Time `json:"created_at"`
}

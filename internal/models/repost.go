package models

import "time"

type Repost struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"size:24;index;uniqueIndex:idx_repost_post_user"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_repost_post_user"`
	Quote     string    `json:"quote,omitempty" gorm:"size:280"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateRepostRequest struct {
	Quote string `json:"quote,omitempty" validate:"omitempty,max=280"`
}

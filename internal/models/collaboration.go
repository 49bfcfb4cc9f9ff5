package models

import "time"

const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
)

// CollaborationInvite asks a user to co-author a post.
type CollaborationInvite struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	PostID      string     `json:"post_id" gorm:"size:24;index"`
	InviterID   uint       `json:"inviter_id" gorm:"index"`
	InviteeID   uint       `json:"invitee_id" gorm:"index"`
	Status      string     `json:"status" gorm:"size:20;default:'pending';index"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type CreateInviteRequest struct {
	InviteeID uint `json:"invitee_id" validate:"required"`
}

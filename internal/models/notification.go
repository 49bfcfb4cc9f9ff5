package models

import "time"

// Notification kinds.
const (
	NotificationLike                  = "like"
	NotificationComment               = "comment"
	NotificationFollow                = "follow"
	NotificationRepost                = "repost"
	NotificationMention               = "mention"
	NotificationCollaborationInvite   = "collaboration_invite"
	NotificationCollaborationAccepted = "collaboration_accepted"
	NotificationReport                = "report"
)

// Notification is one event directed at a recipient. Rows are only ever
// updated to flip IsRead.
type Notification struct {
	ID          uint                   `json:"id" gorm:"primaryKey"`
	Type        string                 `json:"type" gorm:"size:30;index"`
	ActorID     uint                   `json:"actor_id" gorm:"index"`
	RecipientID uint                   `json:"recipient_id" gorm:"index"`
	PostID      *string                `json:"post_id,omitempty" gorm:"size:24"`
	Message     string                 `json:"message"`
	Payload     map[string]interface{} `json:"payload,omitempty" gorm:"serializer:json;type:text"`
	IsRead      bool                   `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time              `json:"created_at" gorm:"index"`
}

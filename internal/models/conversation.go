package models

import "time"

// Conversation is an unordered pair of users, stored with UserOneID < UserTwoID.
type Conversation struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	UserOneID     uint       `json:"user_one_id" gorm:"uniqueIndex:idx_conversation_pair"`
	UserTwoID     uint       `json:"user_two_id" gorm:"uniqueIndex:idx_conversation_pair;index"`
	UserOneReadAt *time.Time `json:"user_one_read_at,omitempty"`
	UserTwoReadAt *time.Time `json:"user_two_read_at,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty" gorm:"index"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ConversationPair orders two user ids canonically.
func ConversationPair(a, b uint) (uint, uint) {
	if a < b {
		return a, b
	}
	return b, a
}

func (c *Conversation) HasParticipant(userID uint) bool {
	return c.UserOneID == userID || c.UserTwoID == userID
}

// OtherParticipant returns the participant that is not userID.
func (c *Conversation) OtherParticipant(userID uint) uint {
	if c.UserOneID == userID {
		return c.UserTwoID
	}
	return c.UserOneID
}

// ReadAt returns when userID last read the conversation.
func (c *Conversation) ReadAt(userID uint) *time.Time {
	if c.UserOneID == userID {
		return c.UserOneReadAt
	}
	return c.UserTwoReadAt
}

type Message struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ConversationID uint      `json:"conversation_id" gorm:"index"`
	SenderID       uint      `json:"sender_id" gorm:"index"`
	Content        string    `json:"content" gorm:"type:text"`
	Attachments    []string  `json:"attachments,omitempty" gorm:"serializer:json;type:text"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
}

type SendMessageRequest struct {
	RecipientID uint     `json:"recipient_id" validate:"required"`
	Content     string   `json:"content" validate:"required_without=Attachments,max=5000"`
	Attachments []string `json:"attachments,omitempty" validate:"omitempty,max=5,dive,url"`
}

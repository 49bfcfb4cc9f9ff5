package repositories

import (
	"errors"
	"time"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"gorm.io/gorm"
)

type ConversationRepository interface {
	GetOrCreateConversation(userA, userB uint) (*models.Conversation, error)
	GetConversationByID(id uint) (*models.Conversation, error)
	GetConversationsForUser(userID uint) ([]models.Conversation, error)
	CreateMessage(message *models.Message) error
	GetMessages(conversationID uint, page, limit int) ([]models.Message, int64, error)
	CountUnread(conversation *models.Conversation, userID uint) (int64, error)
	MarkRead(conversation *models.Conversation, userID uint, at time.Time) error
}

type PostgresConversationRepository struct {
	db *gorm.DB
}

func NewPostgresConversationRepository(db *gorm.DB) *PostgresConversationRepository {
	return &PostgresConversationRepository{db: db}
}

// GetOrCreateConversation returns the conversation between two users,
// creating it on first use. Losing a creation race falls back to a read.
func (r *PostgresConversationRepository) GetOrCreateConversation(userA, userB uint) (*models.Conversation, error) {
	one, two := models.ConversationPair(userA, userB)

	var conv models.Conversation
	err := r.db.Where("user_one_id = ? AND user_two_id = ?", one, two).First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	conv = models.Conversation{UserOneID: one, UserTwoID: two}
	if err := r.db.Create(&conv).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		if err := r.db.Where("user_one_id = ? AND user_two_id = ?", one, two).First(&conv).Error; err != nil {
			return nil, err
		}
	}
	return &conv, nil
}

func (r *PostgresConversationRepository) GetConversationByID(id uint) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.db.First(&conv, id).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *PostgresConversationRepository) GetConversationsForUser(userID uint) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.Where("user_one_id = ? OR user_two_id = ?", userID, userID).
		Order("last_message_at DESC, id DESC").
		Find(&convs).Error
	return convs, err
}

// CreateMessage stores the message and bumps the conversation's
// last_message_at in one transaction.
func (r *PostgresConversationRepository) CreateMessage(message *models.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", message.ConversationID).
			UpdateColumn("last_message_at", message.CreatedAt).Error
	})
}

// GetMessages returns one page of messages, newest first.
func (r *PostgresConversationRepository) GetMessages(conversationID uint, page, limit int) ([]models.Message, int64, error) {
	var messages []models.Message
	var total int64
	if err := r.db.Model(&models.Message{}).Where("conversation_id = ?", conversationID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&messages).Error
	return messages, total, err
}

// CountUnread counts messages from the other participant newer than the
// user's read marker.
func (r *PostgresConversationRepository) CountUnread(conversation *models.Conversation, userID uint) (int64, error) {
	q := r.db.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ?", conversation.ID, userID)
	if readAt := conversation.ReadAt(userID); readAt != nil {
		q = q.Where("created_at > ?", *readAt)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

func (r *PostgresConversationRepository) MarkRead(conversation *models.Conversation, userID uint, at time.Time) error {
	column := "user_two_read_at"
	if conversation.UserOneID == userID {
		column = "user_one_read_at"
	}
	return r.db.Model(&models.Conversation{}).Where("id = ?", conversation.ID).UpdateColumn(column, at).Error
}

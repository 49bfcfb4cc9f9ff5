package services

import (
	"time"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/realtime"
	"github.com/anonto42/writers-guild/backend/internal/repositories"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrSelfMessage       = errors.New("cannot message yourself")
	ErrRecipientNotFound = errors.New("recipient not found")
)

// Messenger sends direct messages. The message row is committed before the
// recipient's channels are pushed.
type Messenger struct {
	conversations repositories.ConversationRepository
	users         repositories.UserRepository
	broadcaster   realtime.Broadcaster
	log           *logrus.Entry
}

func NewMessenger(conversations repositories.ConversationRepository, users repositories.UserRepository, broadcaster realtime.Broadcaster, log *logrus.Entry) *Messenger {
	return &Messenger{
		conversations: conversations,
		users:         users,
		broadcaster:   broadcaster,
		log:           log,
	}
}

func (s *Messenger) Send(senderID uint, req *models.SendMessageRequest) (*models.Message, error) {
	if req.RecipientID == senderID {
		return nil, ErrSelfMessage
	}
	if _, err := s.users.GetUserByID(req.RecipientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, errors.Wrap(err, "unable to load recipient")
	}

	conv, err := s.conversations.GetOrCreateConversation(senderID, req.RecipientID)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open conversation")
	}

	message := &models.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        req.Content,
		Attachments:    req.Attachments,
		CreatedAt:      time.Now(),
	}
	if err := s.conversations.CreateMessage(message); err != nil {
		return nil, errors.Wrap(err, "unable to store message")
	}

	// The sender's own view already has the message from the response.
	s.broadcaster.Broadcast(req.RecipientID, realtime.NewMessageEvent(message))
	return message, nil
}

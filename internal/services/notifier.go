package services

import (
	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/realtime"
	"github.com/anonto42/writers-guild/backend/internal/repositories"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Notifier runs the notify phase of an engagement action: it persists the
// notification and then pushes it to the recipient's open channels.
type Notifier struct {
	repo        repositories.NotificationRepository
	broadcaster realtime.Broadcaster
	log         *logrus.Entry
}

func NewNotifier(repo repositories.NotificationRepository, broadcaster realtime.Broadcaster, log *logrus.Entry) *Notifier {
	return &Notifier{repo: repo, broadcaster: broadcaster, log: log}
}

// Notify never fails the caller. Notifications addressed to their own actor
// are dropped, persistence errors are logged and nothing is pushed.
func (s *Notifier) Notify(n *models.Notification) {
	if n.RecipientID == 0 || n.RecipientID == n.ActorID {
		return
	}
	if err := s.persist(n); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"type":         n.Type,
			"actor_id":     n.ActorID,
			"recipient_id": n.RecipientID,
		}).Error("notification dropped")
		return
	}
	s.broadcaster.Broadcast(n.RecipientID, realtime.NotificationEvent(n))
}

// NotifyAll sends one notification per distinct recipient, built by build.
func (s *Notifier) NotifyAll(recipients []uint, build func(recipientID uint) *models.Notification) {
	seen := make(map[uint]struct{}, len(recipients))
	for _, id := range recipients {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		s.Notify(build(id))
	}
}

func (s *Notifier) persist(n *models.Notification) error {
	if err := s.repo.CreateNotification(n); err != nil {
		return errors.Wrapf(err, "unable to store %s notification", n.Type)
	}
	return nil
}

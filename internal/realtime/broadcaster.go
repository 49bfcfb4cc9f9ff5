package realtime

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// Broadcaster pushes a payload to every open channel of one user. Delivery is
// best effort: nothing is queued for users without open channels, the
// durable notification and message tables are the recovery path.
type Broadcaster interface {
	Broadcast(userID uint, payload interface{})
}

// LocalBroadcaster delivers through the in-process Registry.
type LocalBroadcaster struct {
	registry *Registry
	log      *logrus.Entry
}

func NewLocalBroadcaster(registry *Registry, log *logrus.Entry) *LocalBroadcaster {
	return &LocalBroadcaster{registry: registry, log: log}
}

func (b *LocalBroadcaster) Broadcast(userID uint, payload interface{}) {
	if b.registry.Count(userID) == 0 {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		b.log.WithError(err).WithField("user_id", userID).Error("failed to marshal broadcast payload")
		return
	}
	b.Deliver(userID, data)
}

// Deliver sends already serialized data to each of the user's channels,
// skipping channels that closed since the registry lookup. It returns the
// number of delivery attempts.
func (b *LocalBroadcaster) Deliver(userID uint, data []byte) int {
	attempts := 0
	for _, ch := range b.registry.ChannelsFor(userID) {
		if ch.Closed() {
			continue
		}
		attempts++
		if err := ch.Send(data); err != nil {
			b.log.WithError(err).WithField("user_id", userID).Debug("dropped frame")
		}
	}
	return attempts
}

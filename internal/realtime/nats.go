package realtime

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const subjectPrefix = "writersguild.events."

// NATSBroadcaster fans events out across server processes. Every process
// publishes to writersguild.events.<userID> and delivers whatever it receives
// on writersguild.events.* to its own registry.
type NATSBroadcaster struct {
	conn  *nats.Conn
	sub   *nats.Subscription
	local *LocalBroadcaster
	log   *logrus.Entry
}

func NewNATSBroadcaster(url string, local *LocalBroadcaster, log *logrus.Entry) (*NATSBroadcaster, error) {
	opts := []nats.Option{
		nats.Name("writers-guild"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	b := &NATSBroadcaster{conn: nc, local: local, log: log}
	sub, err := nc.Subscribe(subjectPrefix+"*", b.handle)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to subscribe to %s*: %w", subjectPrefix, err)
	}
	b.sub = sub

	log.WithField("url", nc.ConnectedUrl()).Info("NATS relay connected")
	return b, nil
}

func (b *NATSBroadcaster) Broadcast(userID uint, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.log.WithError(err).WithField("user_id", userID).Error("failed to marshal broadcast payload")
		return
	}
	if err := b.conn.Publish(subjectFor(userID), data); err != nil {
		// The relay is down; at least reach the channels held by this process.
		b.log.WithError(err).Warn("NATS publish failed, delivering locally")
		b.local.Deliver(userID, data)
	}
}

func (b *NATSBroadcaster) handle(msg *nats.Msg) {
	userID, err := userFromSubject(msg.Subject)
	if err != nil {
		b.log.WithError(err).Warn("ignoring relay message")
		return
	}
	b.local.Deliver(userID, msg.Data)
}

func (b *NATSBroadcaster) Close() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
	}
}

func subjectFor(userID uint) string {
	return subjectPrefix + strconv.FormatUint(uint64(userID), 10)
}

func userFromSubject(subject string) (uint, error) {
	raw := strings.TrimPrefix(subject, subjectPrefix)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad subject %q: %w", subject, err)
	}
	return uint(id), nil
}

package realtime

import "sync"

// Channel is one open duplex connection belonging to a single user.
type Channel interface {
	// Send queues data for delivery without blocking.
	Send(data []byte) error
	// Closed reports whether the channel can no longer deliver.
	Closed() bool
}

// Registry maps user ids to their currently open channels. It is safe for
// concurrent use and holds no durable state.
type Registry struct {
	mu       sync.RWMutex
	channels map[uint]map[Channel]struct{}
}

func NewRegistry() *Registry {
	return &Registry{channels: make(map[uint]map[Channel]struct{})}
}

// Register adds ch to the user's set. Registering the same channel twice is
// a no-op.
func (r *Registry) Register(userID uint, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.channels[userID]
	if !ok {
		set = make(map[Channel]struct{})
		r.channels[userID] = set
	}
	set[ch] = struct{}{}
}

// Unregister removes ch and drops the user entry once it is empty. Removing
// an unknown channel is a no-op.
func (r *Registry) Unregister(userID uint, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.channels[userID]
	if !ok {
		return
	}
	delete(set, ch)
	if len(set) == 0 {
		delete(r.channels, userID)
	}
}

// ChannelsFor returns a snapshot of the user's channels. It never creates an
// entry.
func (r *Registry) ChannelsFor(userID uint) []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.channels[userID]
	if len(set) == 0 {
		return nil
	}
	out := make([]Channel, 0, len(set))
	for ch := range set {
		out = append(out, ch)
	}
	return out
}

// Count returns how many channels the user has open.
func (r *Registry) Count(userID uint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[userID])
}

// Stats returns the number of connected users and open channels.
func (r *Registry) Stats() (users, channels int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, set := range r.channels {
		channels += len(set)
	}
	return len(r.channels), channels
}

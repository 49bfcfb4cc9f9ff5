package realtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
	err    error
}

func (f *fakeChannel) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeChannel) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeChannel) sent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.frames...)
}

func TestRegistryRegisterAndUnregister(t *testing.T) {
	r := NewRegistry()
	a, b := &fakeChannel{}, &fakeChannel{}

	r.Register(1, a)
	r.Register(1, b)
	assert.Equal(t, 2, r.Count(1))

	r.Unregister(1, a)
	assert.Equal(t, 1, r.Count(1))

	r.Unregister(1, b)
	assert.Equal(t, 0, r.Count(1))

	users, channels := r.Stats()
	assert.Zero(t, users)
	assert.Zero(t, channels)
}

func TestRegistryRegisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	ch := &fakeChannel{}

	r.Register(7, ch)
	r.Register(7, ch)

	assert.Equal(t, 1, r.Count(7))
}

func TestRegistryUnregisterUnknownChannel(t *testing.T) {
	r := NewRegistry()
	r.Register(1, &fakeChannel{})

	r.Unregister(1, &fakeChannel{})
	r.Unregister(2, &fakeChannel{})

	assert.Equal(t, 1, r.Count(1))
	users, _ := r.Stats()
	assert.Equal(t, 1, users)
}

func TestRegistryChannelsForUnknownUser(t *testing.T) {
	r := NewRegistry()

	assert.Nil(t, r.ChannelsFor(42))
	users, _ := r.Stats()
	assert.Zero(t, users, "lookup must not create an entry")
}

func TestRegistryChannelsForIsSnapshot(t *testing.T) {
	r := NewRegistry()
	a := &fakeChannel{}
	r.Register(1, a)

	snapshot := r.ChannelsFor(1)
	r.Register(1, &fakeChannel{})

	require.Len(t, snapshot, 1)
	assert.Same(t, a, snapshot[0])
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			ch := &fakeChannel{}
			r.Register(userID, ch)
			_ = r.ChannelsFor(userID)
			_ = r.Count(userID)
			r.Unregister(userID, ch)
		}(uint(i % 5))
	}
	wg.Wait()

	users, channels := r.Stats()
	assert.Zero(t, users)
	assert.Zero(t, channels)
}

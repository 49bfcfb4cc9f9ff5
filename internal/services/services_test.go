package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/realtime"
	"github.com/anonto42/writers-guild/backend/internal/repositories"
	"github.com/anonto42/writers-guild/backend/internal/testutil"
	"github.com/anonto42/writers-guild/backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type push struct {
	userID  uint
	payload interface{}
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	pushes []push
}

func (b *recordingBroadcaster) Broadcast(userID uint, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pushes = append(b.pushes, push{userID: userID, payload: payload})
}

func (b *recordingBroadcaster) all() []push {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]push(nil), b.pushes...)
}

type failingNotificationRepo struct {
	repositories.NotificationRepository
}

func (failingNotificationRepo) CreateNotification(*models.Notification) error {
	return errors.New("connection refused")
}

func TestExtractMentions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"none", "just a poem", nil},
		{"single", "thanks @Alice!", []string{"alice"}},
		{"deduplicated", "@bob and @BOB and @carol", []string{"bob", "carol"}},
		{"email is not a mention", "mail me at dan@example.com", nil},
		{"too short", "hi @al", nil},
		{"start of line", "@dave wrote this", []string{"dave"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMentions(tt.content))
		})
	}
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("short", 10))
	assert.Equal(t, "abc…", Excerpt("abcdef", 3))
}

func TestNotifierPersistsThenBroadcasts(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewPostgresNotificationRepository(db)
	b := &recordingBroadcaster{}
	notifier := NewNotifier(repo, b, logger.Component(logger.Discard(), "test"))

	n := &models.Notification{Type: models.NotificationFollow, ActorID: 1, RecipientID: 2, Message: "x followed you"}
	notifier.Notify(n)

	require.NotZero(t, n.ID, "row is stored before the push")
	pushes := b.all()
	require.Len(t, pushes, 1)
	assert.Equal(t, uint(2), pushes[0].userID)
	event, ok := pushes[0].payload.(realtime.Event)
	require.True(t, ok)
	assert.Equal(t, realtime.EventNotification, event.Type)
	assert.Equal(t, n, event.Data)
}

func TestNotifierSkipsSelfAndFailures(t *testing.T) {
	db := testutil.NewDB(t)
	b := &recordingBroadcaster{}
	notifier := NewNotifier(repositories.NewPostgresNotificationRepository(db), b, logger.Component(logger.Discard(), "test"))

	notifier.Notify(&models.Notification{Type: models.NotificationLike, ActorID: 3, RecipientID: 3})
	assert.Empty(t, b.all())

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(t, count)

	failing := NewNotifier(failingNotificationRepo{}, b, logger.Component(logger.Discard(), "test"))
	failing.Notify(&models.Notification{Type: models.NotificationLike, ActorID: 1, RecipientID: 2})
	assert.Empty(t, b.all(), "nothing is pushed when the row could not be stored")
}

func TestNotifyAllDeduplicatesRecipients(t *testing.T) {
	db := testutil.NewDB(t)
	b := &recordingBroadcaster{}
	notifier := NewNotifier(repositories.NewPostgresNotificationRepository(db), b, logger.Component(logger.Discard(), "test"))

	notifier.NotifyAll([]uint{2, 3, 2, 1}, func(id uint) *models.Notification {
		return &models.Notification{Type: models.NotificationMention, ActorID: 1, RecipientID: id}
	})

	var got []uint
	for _, p := range b.all() {
		got = append(got, p.userID)
	}
	assert.Equal(t, []uint{2, 3}, got)
}

func newSessionManager(t *testing.T) (*SessionManager, *repositories.PostgresSessionRepository) {
	t.Helper()
	repo := repositories.NewPostgresSessionRepository(testutil.NewDB(t))
	m, err := NewSessionManager(repo, "test-secret", time.Hour, false)
	require.NoError(t, err)
	return m, repo
}

func requestWith(cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func TestSessionManagerRoundTrip(t *testing.T) {
	m, _ := newSessionManager(t)

	cookie, err := m.Create(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, SessionCookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)

	userID, err := m.Authenticate(requestWith(cookie))
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestSessionManagerRejects(t *testing.T) {
	m, _ := newSessionManager(t)
	cookie, err := m.Create(context.Background(), 7)
	require.NoError(t, err)

	_, err = m.Authenticate(requestWith(nil))
	assert.ErrorIs(t, err, ErrUnauthenticated)

	tampered := *cookie
	tampered.Value = cookie.Value + "A"
	_, err = m.Authenticate(requestWith(&tampered))
	assert.ErrorIs(t, err, ErrUnauthenticated)

	other, err := NewSessionManager(m.repo, "another-secret", time.Hour, false)
	require.NoError(t, err)
	_, err = other.Authenticate(requestWith(cookie))
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSessionManagerDestroyRevokes(t *testing.T) {
	m, _ := newSessionManager(t)
	cookie, err := m.Create(context.Background(), 7)
	require.NoError(t, err)

	cleared, err := m.Destroy(requestWith(cookie))
	require.NoError(t, err)
	assert.Equal(t, -1, cleared.MaxAge)
	assert.Empty(t, cleared.Value)

	_, err = m.Authenticate(requestWith(cookie))
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSessionManagerExpiry(t *testing.T) {
	m, _ := newSessionManager(t)
	cookie, err := m.Create(context.Background(), 7)
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.Authenticate(requestWith(cookie))
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestNewSessionManagerValidates(t *testing.T) {
	_, err := NewSessionManager(nil, "", time.Hour, false)
	assert.Error(t, err)
	_, err = NewSessionManager(nil, "secret", 0, false)
	assert.Error(t, err)
}

func TestMessengerSend(t *testing.T) {
	db := testutil.NewDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	b := &recordingBroadcaster{}
	messenger := NewMessenger(
		repositories.NewPostgresConversationRepository(db),
		repositories.NewPostgresUserRepository(db),
		b,
		logger.Component(logger.Discard(), "test"),
	)

	msg, err := messenger.Send(alice.ID, &models.SendMessageRequest{RecipientID: bob.ID, Content: "hello"})
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)
	assert.NotZero(t, msg.ConversationID)

	pushes := b.all()
	require.Len(t, pushes, 1)
	assert.Equal(t, bob.ID, pushes[0].userID)
	event := pushes[0].payload.(realtime.Event)
	assert.Equal(t, realtime.EventNewMessage, event.Type)

	reply, err := messenger.Send(bob.ID, &models.SendMessageRequest{RecipientID: alice.ID, Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, msg.ConversationID, reply.ConversationID)

	_, err = messenger.Send(alice.ID, &models.SendMessageRequest{RecipientID: alice.ID, Content: "me"})
	assert.ErrorIs(t, err, ErrSelfMessage)
	_, err = messenger.Send(alice.ID, &models.SendMessageRequest{RecipientID: 999, Content: "?"})
	assert.ErrorIs(t, err, ErrRecipientNotFound)
	assert.Len(t, b.all(), 2)
}

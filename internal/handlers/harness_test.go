package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/realtime"
	"github.com/anonto42/writers-guild/backend/internal/repositories"
	"github.com/anonto42/writers-guild/backend/internal/router"
	"github.com/anonto42/writers-guild/backend/internal/services"
	"github.com/anonto42/writers-guild/backend/internal/testutil"
	"github.com/anonto42/writers-guild/backend/pkg/logger"
	"github.com/anonto42/writers-guild/backend/pkg/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testApp struct {
	e        *echo.Echo
	db       *gorm.DB
	posts    *testutil.PostStore
	sessions *services.SessionManager
	registry *realtime.Registry
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	log := logger.Discard()
	db := testutil.NewDB(t)

	sessions, err := services.NewSessionManager(repositories.NewPostgresSessionRepository(db), "test-secret", time.Hour, false)
	require.NoError(t, err)

	registry := realtime.NewRegistry()
	app := &testApp{
		e:        echo.New(),
		db:       db,
		posts:    testutil.NewPostStore(),
		sessions: sessions,
		registry: registry,
	}
	app.e.Validator = validators.NewValidator()

	router.SetupRoutes(app.e, router.Deps{
		DB:             db,
		Posts:          app.posts,
		Sessions:       sessions,
		Registry:       registry,
		Broadcaster:    realtime.NewLocalBroadcaster(registry, logger.Component(log, "broadcaster")),
		AllowedOrigins: []string{"*"},
		Log:            log,
	})
	return app
}

func (a *testApp) user(t *testing.T, username string) *models.User {
	return testutil.CreateUser(t, a.db, username)
}

func (a *testApp) login(t *testing.T, user *models.User) *http.Cookie {
	t.Helper()
	cookie, err := a.sessions.Create(context.Background(), user.ID)
	require.NoError(t, err)
	return cookie
}

func (a *testApp) post(t *testing.T, author *models.User, title string) *models.Post {
	t.Helper()
	post := &models.Post{AuthorID: author.ID, Title: title, Content: "words", Kind: models.PostKindPoetry}
	require.NoError(t, a.posts.CreatePost(context.Background(), post))
	return post
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// open registers a capturing channel for the user, standing in for a tab.
func (a *testApp) open(userID uint) *captureChannel {
	ch := &captureChannel{}
	a.registry.Register(userID, ch)
	return ch
}

func (a *testApp) notifications(t *testing.T, recipientID uint) []models.Notification {
	t.Helper()
	var out []models.Notification
	require.NoError(t, a.db.Where("recipient_id = ?", recipientID).Order("id").Find(&out).Error)
	return out
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.True(t, env.Success, rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
}

type captureChannel struct {
	mu     sync.Mutex
	frames []realtime.Event
}

func (c *captureChannel) Send(data []byte) error {
	var event realtime.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, event)
	return nil
}

func (c *captureChannel) Closed() bool { return false }

func (c *captureChannel) events() []realtime.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]realtime.Event(nil), c.frames...)
}

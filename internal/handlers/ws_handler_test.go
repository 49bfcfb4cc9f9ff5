package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/realtime"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server, cookie *http.Cookie) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	if cookie != nil {
		header.Set("Cookie", cookie.String())
	}
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readEvent(t *testing.T, ws *websocket.Conn) realtime.Event {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event realtime.Event
	require.NoError(t, ws.ReadJSON(&event))
	return event
}

// connect dials as user and waits for the connected ack, after which the
// channel is registered.
func connect(t *testing.T, app *testApp, srv *httptest.Server, user *models.User) *websocket.Conn {
	t.Helper()
	ws := dial(t, srv, app.login(t, user))
	event := readEvent(t, ws)
	require.Equal(t, realtime.EventConnected, event.Type)
	require.Equal(t, user.ID, event.UserID)
	return ws
}

func TestWSRejectsMissingSession(t *testing.T) {
	app := newTestApp(t)
	srv := httptest.NewServer(app.e)
	defer srv.Close()

	ws := dial(t, srv, nil)
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := ws.ReadMessage()

	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, realtime.CloseUnauthorized, closeErr.Code)

	users, channels := app.registry.Stats()
	assert.Zero(t, users)
	assert.Zero(t, channels)
}

func TestWSConnectedAndPing(t *testing.T) {
	app := newTestApp(t)
	srv := httptest.NewServer(app.e)
	defer srv.Close()
	alice := app.user(t, "alice")

	ws := connect(t, app, srv, alice)
	assert.Equal(t, 1, app.registry.Count(alice.ID))

	require.NoError(t, ws.WriteJSON(realtime.ClientFrame{Type: realtime.EventPing}))
	assert.Equal(t, realtime.EventPong, readEvent(t, ws).Type)
}

func TestWSTypingReachesOnlyRecipient(t *testing.T) {
	app := newTestApp(t)
	srv := httptest.NewServer(app.e)
	defer srv.Close()
	alice, bob := app.user(t, "alice"), app.user(t, "bob")

	aliceWS := connect(t, app, srv, alice)
	bobWS := connect(t, app, srv, bob)

	require.NoError(t, aliceWS.WriteJSON(realtime.ClientFrame{
		Type:        realtime.EventUserTyping,
		PostID:      "abc",
		RecipientID: bob.ID,
	}))
	event := readEvent(t, bobWS)
	assert.Equal(t, realtime.EventUserTyping, event.Type)
	assert.Equal(t, alice.ID, event.UserID)
	assert.Equal(t, "abc", event.PostID)

	// Frames are handled in order, so the pong proves the typing frame
	// produced nothing for the sender.
	require.NoError(t, aliceWS.WriteJSON(realtime.ClientFrame{Type: realtime.EventPing}))
	assert.Equal(t, realtime.EventPong, readEvent(t, aliceWS).Type)
}

func TestWSPushesNotifications(t *testing.T) {
	app := newTestApp(t)
	srv := httptest.NewServer(app.e)
	defer srv.Close()
	alice, bob := app.user(t, "alice"), app.user(t, "bob")
	post := app.post(t, alice, "Ballad")

	first := connect(t, app, srv, alice)
	second := connect(t, app, srv, alice)

	rec := app.do(t, http.MethodPost, "/api/v1/posts/"+post.ID.Hex()+"/likes", nil, app.login(t, bob))
	require.Equal(t, http.StatusCreated, rec.Code)

	for _, ws := range []*websocket.Conn{first, second} {
		event := readEvent(t, ws)
		assert.Equal(t, realtime.EventNotification, event.Type)
	}
}

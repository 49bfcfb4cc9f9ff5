package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/anonto42/writers-guild/backend/internal/middleware"
	"github.com/anonto42/writers-guild/backend/internal/realtime"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// WSHandler serves the real-time channel at /ws.
type WSHandler struct {
	auth        middleware.Authenticator
	registry    *realtime.Registry
	broadcaster realtime.Broadcaster
	upgrader    websocket.Upgrader
	log         *logrus.Entry
}

func NewWSHandler(auth middleware.Authenticator, registry *realtime.Registry, broadcaster realtime.Broadcaster, allowedOrigins []string, log *logrus.Entry) *WSHandler {
	return &WSHandler{
		auth:        auth,
		registry:    registry,
		broadcaster: broadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log,
	}
}

func (h *WSHandler) RegisterWSRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

// Serve authenticates before upgrading. A socket without a valid session is
// upgraded only to be closed with 4001 and never reaches the registry.
func (h *WSHandler) Serve(c echo.Context) error {
	userID, authErr := h.auth.Authenticate(c.Request())

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.WithError(err).Debug("upgrade failed")
		return nil
	}
	if authErr != nil {
		realtime.Reject(ws)
		return nil
	}

	ws.SetReadLimit(realtime.MaxFrameSize)
	conn := realtime.NewConn(ws, h.log.WithField("user_id", userID))
	go conn.WritePump()

	h.registry.Register(userID, conn)
	defer func() {
		h.registry.Unregister(userID, conn)
		conn.Close()
	}()

	h.reply(conn, realtime.ConnectedEvent(userID))

	for {
		data, err := conn.ReadFrame()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.WithError(err).WithField("user_id", userID).Debug("channel closed")
			}
			return nil
		}
		h.handleFrame(userID, conn, data)
	}
}

func (h *WSHandler) handleFrame(userID uint, conn *realtime.Conn, data []byte) {
	var frame realtime.ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return
	}

	if frame.Type == realtime.EventPing {
		h.reply(conn, realtime.Event{Type: realtime.EventPong})
		return
	}

	event, ok := realtime.TypingEvent(frame.Type, userID, frame.PostID)
	if !ok || frame.RecipientID == 0 || frame.RecipientID == userID {
		return
	}
	h.broadcaster.Broadcast(frame.RecipientID, event)
}

func (h *WSHandler) reply(conn *realtime.Conn, event realtime.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal event")
		return
	}
	if err := conn.Send(data); err != nil {
		h.log.WithError(err).Debug("dropped reply")
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

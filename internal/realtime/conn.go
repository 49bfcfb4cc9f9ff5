package realtime

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 32

	// MaxFrameSize bounds inbound client frames.
	MaxFrameSize = 4096

	// CloseUnauthorized is sent when a socket has no valid session.
	CloseUnauthorized = 4001
)

var (
	ErrChannelClosed = errors.New("channel closed")
	ErrChannelFull   = errors.New("channel send buffer full")
)

// Conn is a Channel backed by a WebSocket. Writes go through a buffered queue
// drained by WritePump, the only goroutine that writes data frames.
type Conn struct {
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
	log       *logrus.Entry
}

func NewConn(ws *websocket.Conn, log *logrus.Entry) *Conn {
	return &Conn{
		ws:   ws,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
		log:  log,
	}
}

// Send queues data without blocking. A slow client whose buffer is full
// loses the frame.
func (c *Conn) Send(data []byte) error {
	if c.closed.Load() {
		return ErrChannelClosed
	}
	select {
	case <-c.done:
		return ErrChannelClosed
	case c.send <- data:
		return nil
	default:
		return ErrChannelFull
	}
}

func (c *Conn) Closed() bool {
	return c.closed.Load()
}

// WritePump writes queued frames until the connection closes.
func (c *Conn) WritePump() {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.WithError(err).Debug("write failed, closing channel")
				c.Close()
				return
			}
		}
	}
}

// ReadFrame reads the next text frame from the client.
func (c *Conn) ReadFrame() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	return data, err
}

// Close closes the connection with a normal closure status. It is safe to
// call more than once and from any goroutine.
func (c *Conn) Close() {
	c.CloseWithCode(websocket.CloseNormalClosure, "")
}

func (c *Conn) CloseWithCode(code int, text string) {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
		closeSocket(c.ws, code, text)
	})
}

// closeSocket sends a close frame and releases the socket. WriteControl may
// run concurrently with WriteMessage.
func closeSocket(ws *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = ws.Close()
}

// Reject closes a socket that failed authentication. It never reaches the
// registry.
func Reject(ws *websocket.Conn) {
	closeSocket(ws, CloseUnauthorized, "unauthorized")
}

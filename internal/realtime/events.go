package realtime

import "github.com/anonto42/writers-guild/backend/internal/models"

// Event types carried over the channel.
const (
	EventConnected         = "connected"
	EventNotification      = "notification"
	EventNewMessage        = "new_message"
	EventUserTyping        = "user_typing"
	EventUserStoppedTyping = "user_stopped_typing"
	EventPing              = "ping"
	EventPong              = "pong"
)

// Event is the server -> client envelope.
type Event struct {
	Type   string      `json:"type"`
	Data   interface{} `json:"data,omitempty"`
	UserID uint        `json:"userId,omitempty"`
	PostID string      `json:"postId,omitempty"`
}

// ClientFrame is what clients send over the channel.
type ClientFrame struct {
	Type        string `json:"type"`
	PostID      string `json:"postId,omitempty"`
	RecipientID uint   `json:"recipientId,omitempty"`
}

// MessagePayload is the data of a new_message event.
type MessagePayload struct {
	Message        models.Message `json:"message"`
	ConversationID uint           `json:"conversationId"`
	SenderID       uint           `json:"senderId"`
}

func NotificationEvent(n *models.Notification) Event {
	return Event{Type: EventNotification, Data: n}
}

func NewMessageEvent(m *models.Message) Event {
	return Event{
		Type: EventNewMessage,
		Data: MessagePayload{
			Message:        *m,
			ConversationID: m.ConversationID,
			SenderID:       m.SenderID,
		},
	}
}

func ConnectedEvent(userID uint) Event {
	return Event{Type: EventConnected, UserID: userID}
}

// TypingEvent relays a typing indicator from userID. ok is false for frame
// types that are not typing indicators.
func TypingEvent(frameType string, userID uint, postID string) (Event, bool) {
	switch frameType {
	case EventUserTyping, EventUserStoppedTyping:
		return Event{Type: frameType, UserID: userID, PostID: postID}, true
	}
	return Event{}, false
}

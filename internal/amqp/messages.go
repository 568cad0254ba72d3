package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"
)

// NotificationMessage is the event published for every stored notification.
type NotificationMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Section   string    `json:"section"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	Timestamp time.Time `json:"timestamp"`
}

func NewNotificationMessage(n core.Notification) *NotificationMessage {
	return &NotificationMessage{
		ID:        n.ID,
		UserID:    n.UserID,
		Section:   n.Section,
		Title:     n.Title,
		Message:   n.Message,
		CreatedAt: n.CreatedAt,
		Timestamp: time.Now(),
	}
}

func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

package notification

import (
	"context"
	"time"
)

type Status string

const (
	StatusUnread Status = "unread"
	StatusRead   Status = "read"
)

type Notification struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"user"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func New(id, userID, title, message string, now time.Time) *Notification {
	return &Notification{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Message:   message,
		Status:    StatusUnread,
		CreatedAt: now.UTC(),
	}
}

type Repository interface {
	Create(ctx context.Context, n *Notification) error
}

package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/courseshop/internal/domain/notification"
)

type NotificationRepository struct {
	mu    sync.RWMutex
	items []domain.Notification
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	_ = ctx
	if n == nil || n.ID == "" {
		return fmt.Errorf("notification repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, *n)
	return nil
}

// ForUser returns the notifications addressed to userID in creation order.
func (r *NotificationRepository) ForUser(userID string) []domain.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Notification
	for _, n := range r.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

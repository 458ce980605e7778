package postgres

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/courseshop/internal/domain/notification"
)

// Notifications adapts DB to notification.Repository.
type Notifications struct{ db *DB }

func (d *DB) Notifications() *Notifications { return &Notifications{db: d} }

func (r *Notifications) Create(ctx context.Context, n *notification.Notification) error {
	_, err := r.db.sql.ExecContext(ctx,
		"INSERT INTO notifications (id, user_id, title, message, status, created_at) VALUES ($1, $2, $3, $4, $5, $6);",
		n.ID, n.UserID, n.Title, n.Message, string(n.Status), n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("notifications: create %s: %w", n.ID, err)
	}
	return nil
}

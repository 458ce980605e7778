package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/courseshop/internal/domain/order"
	"github.com/lib/pq"
)

const uniqueViolation = pq.ErrorCode("23505")

// Orders adapts DB to order.Repository.
type Orders struct{ db *DB }

func (d *DB) Orders() *Orders { return &Orders{db: d} }

func (r *Orders) Insert(ctx context.Context, o *order.Order) error {
	payment, err := json.Marshal(o.PaymentInfo)
	if err != nil {
		return fmt.Errorf("orders: encode payment: %w", err)
	}
	_, err = r.db.sql.ExecContext(ctx,
		"INSERT INTO orders (id, user_id, course_id, payment_info, created_at) VALUES ($1, $2, $3, $4, $5);",
		o.ID, o.UserID, o.CourseID, payment, o.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return order.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("orders: insert %s: %w", o.ID, err)
	}
	return nil
}

func (r *Orders) List(ctx context.Context) ([]*order.Order, error) {
	rows, err := r.db.sql.QueryContext(ctx,
		"SELECT id, user_id, course_id, payment_info, created_at FROM orders ORDER BY created_at DESC, id DESC;",
	)
	if err != nil {
		return nil, fmt.Errorf("orders: list: %w", err)
	}
	defer rows.Close()

	out := []*order.Order{}
	for rows.Next() {
		var (
			o       order.Order
			payment []byte
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.CourseID, &payment, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("orders: scan: %w", err)
		}
		if err := json.Unmarshal(payment, &o.PaymentInfo); err != nil {
			return nil, fmt.Errorf("orders: decode payment %s: %w", o.ID, err)
		}
		o.CreatedAt = o.CreatedAt.UTC()
		out = append(out, &o)
	}
	return out, rows.Err()
}

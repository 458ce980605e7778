package course

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("course: not found")

type Course struct {
	ID    string  `json:"_id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	// Purchased never decreases; it moves only when an order is fulfilled.
	Purchased int `json:"purchased"`
}

// ShortID is the truncated identifier shown in confirmation messages.
func (c *Course) ShortID() string {
	const n = 6
	r := []rune(c.ID)
	if len(r) <= n {
		return c.ID
	}
	return string(r[:n])
}

type Repository interface {
	FindByID(ctx context.Context, id string) (*Course, error)
	// Save stores the catalogue fields. Purchased is taken from c only when
	// the course is new.
	Save(ctx context.Context, c *Course) error
	// IncrementPurchased atomically adds one to the counter and returns the new value.
	IncrementPurchased(ctx context.Context, id string) (int, error)
}

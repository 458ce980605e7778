package order

import "context"

type Repository interface {
	// Insert appends o. It fails with ErrConflict when o.ID is taken.
	Insert(ctx context.Context, o *Order) error
	// List returns every committed order, newest first.
	List(ctx context.Context) ([]*Order, error)
}

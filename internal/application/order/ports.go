package order

import (
	"context"

	"github.com/Zhima-Mochi/courseshop/internal/domain/session"
)

type IDGenerator interface {
	NewID() string
}

// SessionRefresher rewrites a live session snapshot in place.
type SessionRefresher interface {
	Refresh(ctx context.Context, r session.Record) error
}

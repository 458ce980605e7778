package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session: not found")

// Record is the identity snapshot cached at login and keyed by subject id.
// Its presence in the store is what makes a session live.
type Record struct {
	ID      string   `json:"_id"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Role    string   `json:"role"`
	Courses []string `json:"courses,omitempty"`
}

type Store interface {
	// Get returns ErrNotFound when no live session exists for subjectID.
	Get(ctx context.Context, subjectID string) (*Record, error)
	Put(ctx context.Context, r Record, ttl time.Duration) error
	Evict(ctx context.Context, subjectID string) error
	// Refresh replaces the snapshot of an existing session without changing
	// its remaining lifetime. Returns ErrNotFound when the session is gone.
	Refresh(ctx context.Context, r Record) error
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/courseshop/internal/domain/session"
	goredis "github.com/redis/go-redis/v9"
)

// SessionStore keeps one JSON snapshot per subject id. Keys expire with the
// session; a missing key means the session is not live.
type SessionStore struct {
	client goredis.UniversalClient
	prefix string
}

// NewSessionStore creates a Redis-backed session store. An empty prefix
// stores snapshots under the bare subject id.
func NewSessionStore(client goredis.UniversalClient, prefix string) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: prefix,
	}
}

func (s *SessionStore) key(subjectID string) string {
	return s.prefix + subjectID
}

func (s *SessionStore) Get(ctx context.Context, subjectID string) (*session.Record, error) {
	val, err := s.client.Get(ctx, s.key(subjectID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: get: %w", err)
	}

	var r session.Record
	if err := json.Unmarshal(val, &r); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	return &r, nil
}

func (s *SessionStore) Put(ctx context.Context, r session.Record, ttl time.Duration) error {
	if r.ID == "" {
		return fmt.Errorf("session: missing subject id")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, s.key(r.ID), data, ttl).Err()
}

func (s *SessionStore) Evict(ctx context.Context, subjectID string) error {
	return s.client.Del(ctx, s.key(subjectID)).Err()
}

func (s *SessionStore) Refresh(ctx context.Context, r session.Record) error {
	if r.ID == "" {
		return fmt.Errorf("session: missing subject id")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}

	// XX: only overwrite a live session; KEEPTTL: leave its expiry alone.
	ok, err := s.client.SetArgs(ctx, s.key(r.ID), data, goredis.SetArgs{
		Mode:    "XX",
		KeepTTL: true,
	}).Result()
	if errors.Is(err, goredis.Nil) {
		return session.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("session: refresh: %w", err)
	}
	if ok != "OK" {
		return session.ErrNotFound
	}
	return nil
}

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Zhima-Mochi/courseshop/internal/domain/session"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newSessionStoreTest(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return NewSessionStore(rdb, ""), mr
}

func TestGetAbsentSession(t *testing.T) {
	store, _ := newSessionStoreTest(t)

	if _, err := store.Get(context.Background(), "u-1"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutGetEvict(t *testing.T) {
	store, mr := newSessionStoreTest(t)
	ctx := context.Background()

	rec := session.Record{ID: "u-1", Name: "Ada", Email: "ada@example.com", Role: "admin"}
	if err := store.Put(ctx, rec, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	if ttl := mr.TTL("u-1"); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}

	got, err := store.Get(ctx, "u-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Role != "admin" || got.Email != "ada@example.com" {
		t.Fatalf("unexpected record %#v", got)
	}

	if err := store.Evict(ctx, "u-1"); err != nil {
		t.Fatalf("evict: %v", err)
	}
	if _, err := store.Get(ctx, "u-1"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after evict, got %v", err)
	}
}

func TestSessionExpires(t *testing.T) {
	store, mr := newSessionStoreTest(t)
	ctx := context.Background()

	if err := store.Put(ctx, session.Record{ID: "u-1"}, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, err := store.Get(ctx, "u-1"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestRefreshKeepsTTL(t *testing.T) {
	store, mr := newSessionStoreTest(t)
	ctx := context.Background()

	if err := store.Put(ctx, session.Record{ID: "u-1", Role: "user"}, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	mr.FastForward(10 * time.Minute)

	if err := store.Refresh(ctx, session.Record{ID: "u-1", Role: "user", Courses: []string{"c-1"}}); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if ttl := mr.TTL("u-1"); ttl != 50*time.Minute {
		t.Fatalf("expected remaining ttl of 50m, got %v", ttl)
	}
	got, err := store.Get(ctx, "u-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Courses) != 1 || got.Courses[0] != "c-1" {
		t.Fatalf("unexpected courses %v", got.Courses)
	}
}

func TestRefreshAbsentSession(t *testing.T) {
	store, mr := newSessionStoreTest(t)

	if err := store.Refresh(context.Background(), session.Record{ID: "ghost"}); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if mr.Exists("ghost") {
		t.Fatal("refresh must not create a session")
	}
}

func TestPrefixIsApplied(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	store := NewSessionStore(rdb, "session:")

	if err := store.Put(context.Background(), session.Record{ID: "u-9"}, 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !mr.Exists("session:u-9") {
		t.Fatal("expected prefixed key")
	}
}

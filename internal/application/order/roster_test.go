package order

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/Zhima-Mochi/courseshop/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/courseshop/internal/domain/outbox"
	"github.com/Zhima-Mochi/courseshop/internal/domain/session"
	"github.com/Zhima-Mochi/courseshop/internal/domain/user"
	"github.com/Zhima-Mochi/courseshop/internal/infrastructure/memory"
)

type capturingSubscriber struct {
	handlers map[string]domoutbox.Handler
}

func (s *capturingSubscriber) Subscribe(name string, h domoutbox.Handler) {
	if s.handlers == nil {
		s.handlers = map[string]domoutbox.Handler{}
	}
	s.handlers[name] = h
}

func TestRosterWorkerRefreshesLiveSession(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository(&user.User{ID: "u-1", Role: "user", Courses: []string{"c-1", "c-2"}})
	sessions := memory.NewSessionStore()
	if err := sessions.Put(ctx, session.Record{ID: "u-1", Role: "user", Courses: []string{"c-1"}}, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	sub := &capturingSubscriber{}
	NewRosterWorker(users, sessions, sub, nil).Start()
	h, ok := sub.handlers["order.created"]
	if !ok {
		t.Fatal("worker did not subscribe to order.created")
	}

	if err := h(ctx, domain.OrderCreatedEvent{OrderID: "o-1", UserID: "u-1", CourseID: "c-2"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	rec, err := sessions.Get(ctx, "u-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(rec.Courses) != 2 || rec.Courses[1] != "c-2" {
		t.Fatalf("session not refreshed: %v", rec.Courses)
	}
}

func TestRosterWorkerSkipsAbsentSession(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository(&user.User{ID: "u-1"})
	sessions := memory.NewSessionStore()

	sub := &capturingSubscriber{}
	NewRosterWorker(users, sessions, sub, nil).Start()

	if err := sub.handlers["order.created"](ctx, domain.OrderCreatedEvent{UserID: "u-1"}); err != nil {
		t.Fatalf("absent session should not be an error: %v", err)
	}
	if _, err := sessions.Get(ctx, "u-1"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("refresh must not create a session, got %v", err)
	}
}

func TestRosterWorkerReportsMissingUser(t *testing.T) {
	sub := &capturingSubscriber{}
	NewRosterWorker(memory.NewUserRepository(), memory.NewSessionStore(), sub, nil).Start()

	if err := sub.handlers["order.created"](context.Background(), domain.OrderCreatedEvent{UserID: "ghost"}); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected user.ErrNotFound, got %v", err)
	}
}

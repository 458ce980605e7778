package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Zhima-Mochi/courseshop/internal/domain/course"
	"github.com/Zhima-Mochi/courseshop/internal/domain/order"
	"github.com/Zhima-Mochi/courseshop/internal/domain/session"
	"github.com/Zhima-Mochi/courseshop/internal/domain/user"
)

func TestUserRepositoryAddCourseIsConditional(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(&user.User{ID: "u-1"})

	var ok, dup atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.AddCourse(ctx, "u-1", "c-1")
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, user.ErrAlreadyEnrolled):
				dup.Add(1)
			default:
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	wg.Wait()

	if ok.Load() != 1 || dup.Load() != 15 {
		t.Fatalf("expected 1 success and 15 duplicates, got %d/%d", ok.Load(), dup.Load())
	}
	u, err := repo.FindByID(ctx, "u-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(u.Courses) != 1 {
		t.Fatalf("expected one course, got %v", u.Courses)
	}
	if err := repo.AddCourse(ctx, "missing", "c-1"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(&user.User{ID: "u-1", Courses: []string{"c-1"}})

	u, _ := repo.FindByID(ctx, "u-1")
	u.Courses[0] = "mutated"

	again, _ := repo.FindByID(ctx, "u-1")
	if again.Courses[0] != "c-1" {
		t.Fatal("repository leaked internal state")
	}
}

func TestCourseRepositoryIncrement(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepository(&course.Course{ID: "c-1", Name: "Go", Price: 49.99})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.IncrementPurchased(ctx, "c-1"); err != nil {
				t.Errorf("increment: %v", err)
			}
		}()
	}
	wg.Wait()

	c, _ := repo.FindByID(ctx, "c-1")
	if c.Purchased != 10 {
		t.Fatalf("expected 10, got %d", c.Purchased)
	}
	if _, err := repo.IncrementPurchased(ctx, "nope"); !errors.Is(err, course.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCourseRepositorySaveKeepsPurchased(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepository(&course.Course{ID: "c-1", Name: "Go", Price: 49.99})
	if _, err := repo.IncrementPurchased(ctx, "c-1"); err != nil {
		t.Fatalf("increment: %v", err)
	}

	if err := repo.Save(ctx, &course.Course{ID: "c-1", Name: "Go 2e", Price: 59.99}); err != nil {
		t.Fatalf("save: %v", err)
	}
	c, _ := repo.FindByID(ctx, "c-1")
	if c.Name != "Go 2e" || c.Purchased != 1 {
		t.Fatalf("unexpected course %#v", c)
	}
}

func TestOrderRepositoryInsertAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"o-1", "o-2", "o-3"} {
		o := &order.Order{ID: id, UserID: "u", CourseID: "c", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.Insert(ctx, o); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	if err := repo.Insert(ctx, &order.Order{ID: "o-1"}); !errors.Is(err, order.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].ID != "o-3" || list[2].ID != "o-1" {
		t.Fatalf("unexpected order %v", list)
	}
}

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if _, err := store.Get(ctx, "u-1"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Refresh(ctx, session.Record{ID: "u-1"}); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("refresh of absent session: %v", err)
	}

	if err := store.Put(ctx, session.Record{ID: "u-1", Role: "user"}, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Refresh(ctx, session.Record{ID: "u-1", Role: "user", Courses: []string{"c-1"}}); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	rec, err := store.Get(ctx, "u-1")
	if err != nil || len(rec.Courses) != 1 {
		t.Fatalf("unexpected record %#v (%v)", rec, err)
	}

	now = now.Add(time.Hour)
	if _, err := store.Get(ctx, "u-1"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}

	_ = store.Put(ctx, session.Record{ID: "u-2"}, 0)
	_ = store.Evict(ctx, "u-2")
	if _, err := store.Get(ctx, "u-2"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected eviction, got %v", err)
	}
}

package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domoutbox "github.com/Zhima-Mochi/courseshop/internal/domain/outbox"
	"go.opentelemetry.io/otel/trace"
)

type pingEvent struct{ n int }

func (pingEvent) EventName() string { return "ping" }

func TestBusFanout(t *testing.T) {
	bus := NewBus(nil)

	var mu sync.Mutex
	got := map[string][]int{}
	var wg sync.WaitGroup
	wg.Add(4)
	for _, name := range []string{"a", "b"} {
		bus.Subscribe("ping", func(_ context.Context, e domoutbox.Event) error {
			defer wg.Done()
			mu.Lock()
			got[name] = append(got[name], e.(pingEvent).n)
			mu.Unlock()
			return nil
		})
	}

	ctx := context.Background()
	bus.Start(ctx)
	defer bus.Stop(ctx)

	for i := 1; i <= 2; i++ {
		if err := bus.Publish(ctx, pingEvent{n: i}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	waitOrFail(t, &wg)

	mu.Lock()
	defer mu.Unlock()
	if len(got["a"]) != 2 || len(got["b"]) != 2 {
		t.Fatalf("unexpected deliveries %v", got)
	}
}

func TestBusCarriesPublisherTrace(t *testing.T) {
	bus := NewBus(nil)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})

	seen := make(chan trace.SpanContext, 1)
	bus.Subscribe("ping", func(ctx context.Context, _ domoutbox.Event) error {
		seen <- trace.SpanContextFromContext(ctx)
		return nil
	})

	ctx := context.Background()
	bus.Start(ctx)
	defer bus.Stop(ctx)

	if err := bus.Publish(trace.ContextWithSpanContext(ctx, sc), pingEvent{}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-seen:
		if got.TraceID() != sc.TraceID() {
			t.Fatalf("expected trace %s, got %s", sc.TraceID(), got.TraceID())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler not invoked")
	}
}

func TestBusSurvivesHandlerPanicAndError(t *testing.T) {
	bus := NewBus(nil)

	var wg sync.WaitGroup
	wg.Add(1)
	bus.Subscribe("ping", func(context.Context, domoutbox.Event) error { panic("boom") })
	bus.Subscribe("ping", func(context.Context, domoutbox.Event) error { return errors.New("nope") })
	bus.Subscribe("ping", func(context.Context, domoutbox.Event) error { wg.Done(); return nil })

	ctx := context.Background()
	bus.Start(ctx)
	defer bus.Stop(ctx)

	if err := bus.Publish(ctx, pingEvent{}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	waitOrFail(t, &wg)
}

func TestBusStopDrainsAndRejects(t *testing.T) {
	bus := NewBus(nil)

	var mu sync.Mutex
	delivered := 0
	bus.Subscribe("ping", func(context.Context, domoutbox.Event) error {
		mu.Lock()
		delivered++
		mu.Unlock()
		return nil
	})

	ctx := context.Background()
	bus.Start(ctx)
	for i := 0; i < 5; i++ {
		if err := bus.Publish(ctx, pingEvent{n: i}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	bus.Stop(stopCtx)

	mu.Lock()
	if delivered != 5 {
		t.Fatalf("expected 5 deliveries before stop returned, got %d", delivered)
	}
	mu.Unlock()

	if err := bus.Publish(ctx, pingEvent{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func waitOrFail(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handlers")
	}
}

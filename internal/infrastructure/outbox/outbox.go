package outbox

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	domoutbox "github.com/Zhima-Mochi/courseshop/internal/domain/outbox"
	"github.com/Zhima-Mochi/courseshop/internal/observability"
	"github.com/Zhima-Mochi/courseshop/internal/observability/logctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const (
	componentOutbox = "outbox"
	queueSize       = 1024
	fanoutCap       = 8
	handlerTimeout  = 30 * time.Second
)

var ErrClosed = errors.New("outbox: bus stopped")

// envelope carries the publisher's span so handlers continue the same trace.
type envelope struct {
	id    string
	event domoutbox.Event
	span  trace.SpanContext
}

// Bus is an in-memory, non-durable event bus. Events published after a
// commit fan out to every handler subscribed under the event's name.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]domoutbox.Handler

	// closeMu guards closed and the close of queue.
	closeMu sync.RWMutex
	closed  bool
	queue   chan envelope
	done    chan struct{}
	started sync.Once
	stopped sync.Once
	cancel  context.CancelFunc

	log observability.Logger
}

func NewBus(logger observability.Logger) *Bus {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Bus{
		subs:  make(map[string][]domoutbox.Handler),
		queue: make(chan envelope, queueSize),
		done:  make(chan struct{}),
		log:   logger.With(observability.F("component", componentOutbox)),
	}
}

func (b *Bus) Subscribe(eventName string, h domoutbox.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], h)
}

func (b *Bus) Start(ctx context.Context) {
	b.started.Do(func() {
		bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
		b.cancel = cancel
		go b.dispatchLoop(bg)
		logctx.FromOr(ctx, b.log).Info("event_bus_started")
	})
}

// Stop refuses new events, then waits for queued ones to drain or for ctx
// to expire, whichever happens first.
func (b *Bus) Stop(ctx context.Context) {
	b.stopped.Do(func() {
		b.closeMu.Lock()
		b.closed = true
		close(b.queue)
		b.closeMu.Unlock()

		if b.cancel == nil {
			close(b.done)
		}
		select {
		case <-b.done:
		case <-ctx.Done():
			logctx.FromOr(ctx, b.log).Warn("event_bus_drain_aborted",
				observability.F("pending", len(b.queue)),
			)
		}
		if b.cancel != nil {
			b.cancel()
		}
		logctx.FromOr(ctx, b.log).Info("event_bus_stopped")
	})
}

func (b *Bus) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}
	env := envelope{
		id:    uuid.NewString(),
		event: e,
		span:  trace.SpanContextFromContext(ctx),
	}
	logger := logctx.FromOr(ctx, b.log).With(
		observability.F("event", e.EventName()),
		observability.F("event_id", env.id),
	)

	b.closeMu.RLock()
	defer b.closeMu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	select {
	case b.queue <- env:
		logger.Debug("event_enqueued")
		return nil
	case <-ctx.Done():
		logger.Warn("event_enqueue_aborted",
			observability.F("error", ctx.Err()),
		)
		return ctx.Err()
	}
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-b.queue:
			if !ok {
				return
			}
			b.fanout(ctx, env)
		}
	}
}

// eventContext binds a logger carrying the event identity, plus the
// publisher's trace ids when valid, and links the publisher's span.
func (b *Bus) eventContext(ctx context.Context, env envelope) context.Context {
	fields := []observability.Field{
		observability.F("event", env.event.EventName()),
		observability.F("event_id", env.id),
	}
	if env.span.IsValid() {
		ctx = trace.ContextWithRemoteSpanContext(ctx, env.span)
		fields = append(fields,
			observability.F("trace_id", env.span.TraceID().String()),
			observability.F("span_id", env.span.SpanID().String()),
		)
	}
	return logctx.With(ctx, b.log.With(fields...))
}

func (b *Bus) fanout(ctx context.Context, env envelope) {
	name := env.event.EventName()

	b.mu.RLock()
	handlers := append([]domoutbox.Handler(nil), b.subs[name]...)
	b.mu.RUnlock()

	ctx = b.eventContext(ctx, env)
	logger := logctx.FromOr(ctx, b.log)

	if len(handlers) == 0 {
		logger.Debug("event_dropped_no_subscriber")
		return
	}

	sem := make(chan struct{}, fanoutCap)
	var wg sync.WaitGroup

	for _, h := range handlers {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("event_handler_panic",
						observability.F("panic", r),
						observability.F("stack", string(debug.Stack())),
					)
				}
				<-sem
				wg.Done()
			}()

			hctx, cancel := context.WithTimeout(ctx, handlerTimeout)
			defer cancel()
			if err := h(hctx, env.event); err != nil {
				logger.Warn("event_handler_error",
					observability.F("error", err),
				)
			}
		}()
	}

	wg.Wait()

	logger.Debug("event_fanned_out",
		observability.F("handlers", len(handlers)),
	)
}

package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/courseshop/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/courseshop/internal/domain/outbox"
	"github.com/Zhima-Mochi/courseshop/internal/domain/session"
	"github.com/Zhima-Mochi/courseshop/internal/domain/user"
	"github.com/Zhima-Mochi/courseshop/internal/observability"
	"github.com/Zhima-Mochi/courseshop/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	rosterService = "roster-worker"
	useCaseRoster = "order.worker.roster_sync"
)

// RosterWorker keeps cached session snapshots in line with the durable
// enrollment set after each committed order.
type RosterWorker struct {
	users      user.Repository
	sessions   SessionRefresher
	subscriber domoutbox.Subscriber
	tel        observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewRosterWorker(
	users user.Repository,
	sessions SessionRefresher,
	subscriber domoutbox.Subscriber,
	tel observability.Observability,
) *RosterWorker {
	if tel == nil {
		tel = observability.Nop()
	}
	return &RosterWorker{
		users:        users,
		sessions:     sessions,
		subscriber:   subscriber,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", rosterService)),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

func (w *RosterWorker) Start() {
	if w.subscriber == nil || w.sessions == nil {
		return
	}
	w.subscriber.Subscribe(domain.OrderCreatedEvent{}.EventName(), w.handleOrderCreated)
}

func (w *RosterWorker) handleOrderCreated(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(domain.OrderCreatedEvent)
	if !ok {
		w.observe("ignored", 0)
		return nil
	}

	ctx, span := w.tel.Tracer().Start(ctx, spanPrefix+"RosterSync",
		attribute.String("use_case", useCaseRoster),
		attribute.String("event", e.EventName()),
		attribute.String("order.id", evt.OrderID),
	)
	start := time.Now()
	outcome, status := "success", "OK"

	logger := logctx.FromOr(ctx, w.log).With(
		observability.F("use_case", useCaseRoster),
		observability.F("user_id", evt.UserID),
	)

	defer func() {
		lat := time.Since(start).Seconds()
		w.observe(outcome, lat)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", status),
			observability.F("latency_seconds", lat),
			observability.F("order_id", evt.OrderID),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, status)
		} else {
			span.SetStatus(codes.Ok, status)
		}
		span.End()
	}()

	u, err := w.users.FindByID(ctx, evt.UserID)
	if err != nil {
		outcome, status = "error", "USER_LOAD_FAILED"
		return fmt.Errorf("roster: load user: %w", err)
	}

	err = w.sessions.Refresh(ctx, session.Record{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Role:    u.Role,
		Courses: u.Courses,
	})
	if errors.Is(err, session.ErrNotFound) {
		outcome, status = "skipped", "NO_LIVE_SESSION"
		return nil
	}
	if err != nil {
		outcome, status = "error", "SESSION_REFRESH_FAILED"
		return fmt.Errorf("roster: refresh session: %w", err)
	}
	return nil
}

func (w *RosterWorker) observe(outcome string, latencySeconds float64) {
	w.reqCounter.Add(1,
		observability.L("use_case", useCaseRoster),
		observability.L("outcome", outcome),
	)
	if latencySeconds > 0 {
		w.durHistogram.Observe(latencySeconds, observability.L("use_case", useCaseRoster))
	}
}

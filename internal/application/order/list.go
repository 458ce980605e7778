package order

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/courseshop/internal/apperr"
	domain "github.com/Zhima-Mochi/courseshop/internal/domain/order"
	"github.com/Zhima-Mochi/courseshop/internal/observability"
	"github.com/Zhima-Mochi/courseshop/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const useCaseOrderList = "order.list"

// ListOrdersUseCase returns every committed order, newest first.
type ListOrdersUseCase struct {
	repo domain.Repository
	tel  observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewListOrdersUseCase(repo domain.Repository, tel observability.Observability) *ListOrdersUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	return &ListOrdersUseCase{
		repo:         repo,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", orderService)),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

type ListOrdersInput struct{}

func (uc *ListOrdersUseCase) Execute(ctx context.Context, _ ListOrdersInput) (_ []*domain.Order, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCaseOrderList))

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"ListOrders",
		attribute.String("use_case", useCaseOrderList),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	count := 0

	defer func() {
		lat := time.Since(start).Seconds()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.SetAttributes(attribute.Int("orders.count", count))
		span.End()

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseOrderList),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat, observability.L("use_case", useCaseOrderList))

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
			observability.F("count", count),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	orders, rerr := uc.repo.List(ctx)
	if rerr != nil {
		outcome, statusText = "error", "REPO_LIST_FAILED"
		return nil, apperr.Wrap(apperr.KindInternal, "list orders", rerr)
	}
	count = len(orders)
	return orders, nil
}

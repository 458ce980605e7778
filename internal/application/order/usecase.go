package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/courseshop/internal/apperr"
	"github.com/Zhima-Mochi/courseshop/internal/domain/course"
	dommail "github.com/Zhima-Mochi/courseshop/internal/domain/mail"
	"github.com/Zhima-Mochi/courseshop/internal/domain/notification"
	domain "github.com/Zhima-Mochi/courseshop/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/courseshop/internal/domain/outbox"
	"github.com/Zhima-Mochi/courseshop/internal/domain/user"
	"github.com/Zhima-Mochi/courseshop/internal/observability"
	"github.com/Zhima-Mochi/courseshop/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	orderService       = "order-service"
	useCaseOrderCreate = "order.create"
	spanPrefix         = "UC."

	mailPeer        = "mail"
	mailEndpoint    = "order-confirmation"
	publishPeer     = "outbox"
	publishEndpoint = "order.created"
	publishTimeout  = 300 * time.Millisecond

	DefaultDispatchTimeout = 10 * time.Second

	confirmationSubject = "Order Confirmation"
	confirmationDate    = "January 2, 2006"

	notificationTitle = "New Order"
)

// Confirmation is the payload rendered into the confirmation mail.
type Confirmation struct {
	Order ConfirmationOrder `json:"order"`
}

type ConfirmationOrder struct {
	ID    string  `json:"_id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Date  string  `json:"date"`
}

// CreateOrderDeps lists the collaborators of CreateOrderUseCase. Publisher
// may be nil; everything else is required.
type CreateOrderDeps struct {
	Users         user.Repository
	Courses       course.Repository
	Orders        domain.Repository
	Notifications notification.Repository
	Renderer      dommail.Renderer
	Mailer        dommail.Dispatcher
	IDs           IDGenerator
	Publisher     domoutbox.Publisher

	// DispatchTimeout bounds the confirmation send. Zero means DefaultDispatchTimeout.
	DispatchTimeout time.Duration
	Now             func() time.Time
}

// CreateOrderUseCase runs the purchase pipeline. Steps run strictly in order
// and a failing step stops the rest without undoing earlier ones.
type CreateOrderUseCase struct {
	deps CreateOrderDeps
	tel  observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}

	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewCreateOrderUseCase(deps CreateOrderDeps, tel observability.Observability) *CreateOrderUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	if deps.DispatchTimeout <= 0 {
		deps.DispatchTimeout = DefaultDispatchTimeout
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	m := tel.Metrics()
	return &CreateOrderUseCase{
		deps:         deps,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", orderService)),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

type CreateOrderInput struct {
	UserID      string
	CourseID    string
	PaymentInfo domain.PaymentInfo
}

// Execute performs the purchase. The returned order is the committed record.
func (uc *CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderInput) (_ *domain.Order, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCaseOrderCreate))

	var (
		orderID    string
		publishErr error
	)

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"CreateOrder",
		attribute.String("use_case", useCaseOrderCreate),
		attribute.String("order.user_id", cmd.UserID),
		attribute.String("order.course_id", cmd.CourseID),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		lat := time.Since(start).Seconds()

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseOrderCreate),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCaseOrderCreate),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if orderID != "" {
			fields = append(fields, observability.F("order_id", orderID))
		}
		if publishErr != nil {
			fields = append(fields, observability.F("event_publish_error", publishErr.Error()))
		}
		if err != nil {
			fields = append(fields,
				observability.F("kind", string(apperr.KindOf(err))),
				observability.F("error", err.Error()),
			)
		}

		logger.Info("use_case_done", fields...)
	}()

	if cmd.UserID == "" {
		outcome, statusText = "error", "USER_ID_REQUIRED"
		return nil, apperr.New(apperr.KindNoCredential, "Please login to access this resource")
	}
	if strings.TrimSpace(cmd.CourseID) == "" {
		outcome, statusText = "error", "COURSE_ID_REQUIRED"
		return nil, apperr.New(apperr.KindMalformedRequest, "courseId is required")
	}
	if verr := cmd.PaymentInfo.Validate(); verr != nil {
		outcome, statusText = "error", "PAYMENT_INFO_INVALID"
		return nil, apperr.Wrap(apperr.KindMalformedRequest, "payment_info is invalid", verr)
	}

	// 1. load user
	u, rerr := uc.deps.Users.FindByID(ctx, cmd.UserID)
	switch {
	case errors.Is(rerr, user.ErrNotFound):
		outcome, statusText = "error", "USER_NOT_FOUND"
		return nil, apperr.New(apperr.KindUserNotFound, "User not found")
	case rerr != nil:
		outcome, statusText = "error", "USER_LOAD_FAILED"
		return nil, apperr.Wrap(apperr.KindInternal, "load user", rerr)
	}

	// 2. entitlement check, before any mutation
	if u.HasCourse(cmd.CourseID) {
		outcome, statusText = "rejected", "ALREADY_PURCHASED"
		return nil, apperr.New(apperr.KindAlreadyPurchased, "You have already purchased this course")
	}

	// 3. load course
	c, rerr := uc.deps.Courses.FindByID(ctx, cmd.CourseID)
	switch {
	case errors.Is(rerr, course.ErrNotFound):
		outcome, statusText = "error", "COURSE_NOT_FOUND"
		return nil, apperr.New(apperr.KindCourseNotFound, "Course not found")
	case rerr != nil:
		outcome, statusText = "error", "COURSE_LOAD_FAILED"
		return nil, apperr.Wrap(apperr.KindInternal, "load course", rerr)
	}

	// 4-5. compose and dispatch the confirmation
	payload := Confirmation{Order: ConfirmationOrder{
		ID:    c.ShortID(),
		Name:  c.Name,
		Price: c.Price,
		Date:  uc.deps.Now().Format(confirmationDate),
	}}
	if derr := uc.dispatchConfirmation(ctx, u.Email, payload); derr != nil {
		outcome, statusText = "error", "DISPATCH_FAILED"
		return nil, apperr.Wrap(apperr.KindNotificationDispatchFailed, "confirmation mail not sent", derr)
	}
	span.AddEvent("order.confirmation_sent")

	// 6. notification
	n := notification.New(uc.deps.IDs.NewID(), u.ID, notificationTitle,
		"You have a new order for the course: "+c.Name, uc.deps.Now())
	if perr := uc.deps.Notifications.Create(ctx, n); perr != nil {
		outcome, statusText = "error", "NOTIFICATION_CREATE_FAILED"
		return nil, apperr.Wrap(apperr.KindPersistenceFailed, "create notification", perr)
	}

	// 7. entitlement, conditional so a concurrent duplicate loses here
	if perr := uc.deps.Users.AddCourse(ctx, u.ID, c.ID); perr != nil {
		switch {
		case errors.Is(perr, user.ErrAlreadyEnrolled):
			outcome, statusText = "rejected", "ALREADY_PURCHASED_AT_COMMIT"
			return nil, apperr.New(apperr.KindAlreadyPurchased, "You have already purchased this course")
		case errors.Is(perr, user.ErrNotFound):
			outcome, statusText = "error", "USER_NOT_FOUND"
			return nil, apperr.New(apperr.KindUserNotFound, "User not found")
		default:
			outcome, statusText = "error", "ENTITLEMENT_WRITE_FAILED"
			return nil, apperr.Wrap(apperr.KindPersistenceFailed, "add course to user", perr)
		}
	}

	// 8. purchase counter
	purchased, perr := uc.deps.Courses.IncrementPurchased(ctx, c.ID)
	if perr != nil {
		outcome, statusText = "error", "COUNTER_WRITE_FAILED"
		return nil, apperr.Wrap(apperr.KindPersistenceFailed, "increment purchased", perr)
	}
	span.SetAttributes(attribute.Int("course.purchased", purchased))

	// 9. commit order
	orderID = uc.deps.IDs.NewID()
	entity, derr := domain.New(orderID, u.ID, c.ID, cmd.PaymentInfo, uc.deps.Now())
	if derr != nil {
		outcome, statusText = "error", "DOMAIN_CONSTRUCTION_FAILED"
		return nil, apperr.Wrap(apperr.KindInternal, "construct order", derr)
	}
	if perr := uc.deps.Orders.Insert(ctx, entity); perr != nil {
		outcome, statusText = "error", "ORDER_INSERT_FAILED"
		return nil, apperr.Wrap(apperr.KindPersistenceFailed, "insert order", perr)
	}

	publishErr = uc.publishCreated(ctx, entity)
	if publishErr != nil {
		statusText = "EVENT_PUBLISH_FAILED"
		span.RecordError(publishErr)
	}

	span.AddEvent("order.created",
		trace.WithAttributes(attribute.String("order.id", orderID)),
	)
	return entity.Clone(), nil
}

func (uc *CreateOrderUseCase) dispatchConfirmation(ctx context.Context, to string, payload Confirmation) error {
	body, err := uc.deps.Renderer.Render(dommail.TemplateOrderConfirmation, payload)
	if err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, uc.deps.DispatchTimeout)
	defer cancel()

	start := time.Now()
	err = uc.deps.Mailer.Send(sendCtx, dommail.Message{
		To:       to,
		Subject:  confirmationSubject,
		Template: dommail.TemplateOrderConfirmation,
		Data:     payload,
		HTML:     body,
	})
	uc.observeExternal(mailPeer, mailEndpoint, externalOutcome(err), time.Since(start))
	if err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}
	return nil
}

// publishCreated is best-effort; a failure never fails the order.
func (uc *CreateOrderUseCase) publishCreated(ctx context.Context, o *domain.Order) error {
	if uc.deps.Publisher == nil {
		return nil
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	start := time.Now()
	err := uc.deps.Publisher.Publish(pubCtx, domain.NewOrderCreatedEvent(o))
	if err == nil && pubCtx.Err() != nil {
		err = pubCtx.Err()
	}
	uc.observeExternal(publishPeer, publishEndpoint, externalOutcome(err), time.Since(start))
	return err
}

func (uc *CreateOrderUseCase) observeExternal(peer, endpoint, outcome string, d time.Duration) {
	uc.extCounter.Add(1,
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	uc.extHistogram.Observe(d.Seconds(),
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
	)
}

func externalOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

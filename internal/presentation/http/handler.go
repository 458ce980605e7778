package httppresentation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Zhima-Mochi/courseshop/internal/application"
	appOrder "github.com/Zhima-Mochi/courseshop/internal/application/order"
	"github.com/Zhima-Mochi/courseshop/internal/apperr"
	domainOrder "github.com/Zhima-Mochi/courseshop/internal/domain/order"
	"github.com/Zhima-Mochi/courseshop/internal/domain/session"
	"github.com/Zhima-Mochi/courseshop/internal/domain/user"
	"github.com/Zhima-Mochi/courseshop/internal/observability"
	"github.com/Zhima-Mochi/courseshop/internal/observability/logctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type (
	CreateOrderUseCase = application.UseCase[appOrder.CreateOrderInput, *domainOrder.Order]
	ListOrdersUseCase  = application.UseCase[appOrder.ListOrdersInput, []*domainOrder.Order]
)

// Gate is the two-stage auth check the handler runs ahead of protected routes.
type Gate interface {
	Authenticate(ctx context.Context, raw string) (*session.Record, error)
	Authorize(ctx context.Context, operation string, id *session.Record, roles ...string) error
}

type Handler struct {
	createOrder CreateOrderUseCase
	listOrders  ListOrdersUseCase
	gate        Gate
	log         observability.Logger
	tel         observability.Observability
}

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	maxBodyBytes         = 1 << 20
)

func NewHandler(
	createOrder CreateOrderUseCase,
	listOrders ListOrdersUseCase,
	gate Gate,
	tel observability.Observability,
) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{
		createOrder: createOrder,
		listOrders:  listOrders,
		gate:        gate,
		log:         tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:         tel,
	}
}

const (
	routeCreateOrder = "/api/v1/create-order"
	routeGetOrders   = "/api/v1/get-orders"
)

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// Trace → request logger + metrics → access log → auth → handler
	h.muxHandle(mux, http.MethodPost, routeCreateOrder, h.requireAuth(routeCreateOrder)(http.HandlerFunc(h.handleCreateOrder)))
	h.muxHandle(mux, http.MethodGet, routeGetOrders, h.requireAuth(routeGetOrders, user.RoleAdmin)(http.HandlerFunc(h.handleListOrders)))
	h.muxHandle(mux, http.MethodGet, "/health", http.HandlerFunc(h.handleHealth))

	return mux
}

func (h *Handler) muxHandle(mux *http.ServeMux, method, route string, handler http.Handler) {
	wrapped := h.withTrace(
		ObservabilityMiddleware(
			h.log,
			func(r *http.Request) string { return r.Header.Get(headerRequestID) },
			h.tel,
		)(
			h.withAccessLog(handler),
		),
	)

	mux.HandleFunc(route, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Message: "Method not allowed"})
			return
		}
		wrapped.ServeHTTP(w, r.WithContext(contextWithRoute(r.Context(), route)))
	})
}

type paymentInfoRequest struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
}

type createOrderRequest struct {
	CourseID    string              `json:"courseId"`
	PaymentInfo *paymentInfoRequest `json:"payment_info"`
}

func (r createOrderRequest) validate() error {
	if strings.TrimSpace(r.CourseID) == "" {
		return fmt.Errorf("courseId is required")
	}
	if r.PaymentInfo == nil || strings.TrimSpace(r.PaymentInfo.Status) == "" {
		return fmt.Errorf("payment_info.status is required")
	}
	return nil
}

type createOrderResponse struct {
	Success bool               `json:"success"`
	Order   *domainOrder.Order `json:"order"`
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.reportError(w, r, apperr.Wrap(apperr.KindMalformedRequest, "Invalid request body", err))
		return
	}
	if err := req.validate(); err != nil {
		h.reportError(w, r, apperr.New(apperr.KindMalformedRequest, err.Error()))
		return
	}

	o, err := h.createOrder.Execute(r.Context(), appOrder.CreateOrderInput{
		UserID:   id.ID,
		CourseID: req.CourseID,
		PaymentInfo: domainOrder.PaymentInfo{
			ID:     req.PaymentInfo.ID,
			Status: req.PaymentInfo.Status,
		},
	})
	if err != nil {
		h.reportError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createOrderResponse{Success: true, Order: o})
}

type listOrdersResponse struct {
	Success bool                 `json:"success"`
	Orders  []*domainOrder.Order `json:"orders"`
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.listOrders.Execute(r.Context(), appOrder.ListOrdersInput{})
	if err != nil {
		h.reportError(w, r, err)
		return
	}
	if orders == nil {
		orders = []*domainOrder.Order{}
	}
	writeJSON(w, http.StatusOK, listOrdersResponse{Success: true, Orders: orders})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("courseshop.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		if route == "unknown" {
			route = r.URL.Path
		}

		ctxWithSpan, span := tracer.Start(parentCtx,
			r.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lrw, r.WithContext(ctxWithSpan))
		span.SetAttributes(attribute.Int("http.status_code", lrw.status))
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if decoder.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type routeKey struct{}

// contextWithRoute stores the stable route template in the context so downstream
// metrics/logging can rely on low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}

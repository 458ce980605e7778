package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appAuth "github.com/Zhima-Mochi/courseshop/internal/application/auth"
	appOrder "github.com/Zhima-Mochi/courseshop/internal/application/order"
	"github.com/Zhima-Mochi/courseshop/internal/config"
	"github.com/Zhima-Mochi/courseshop/internal/domain/course"
	dommail "github.com/Zhima-Mochi/courseshop/internal/domain/mail"
	"github.com/Zhima-Mochi/courseshop/internal/domain/notification"
	domorder "github.com/Zhima-Mochi/courseshop/internal/domain/order"
	"github.com/Zhima-Mochi/courseshop/internal/domain/session"
	"github.com/Zhima-Mochi/courseshop/internal/domain/user"
	"github.com/Zhima-Mochi/courseshop/internal/infrastructure/id"
	"github.com/Zhima-Mochi/courseshop/internal/infrastructure/mail"
	"github.com/Zhima-Mochi/courseshop/internal/infrastructure/memory"
	obsinfra "github.com/Zhima-Mochi/courseshop/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/courseshop/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/courseshop/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/courseshop/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/courseshop/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/courseshop/internal/infrastructure/postgres"
	redisstore "github.com/Zhima-Mochi/courseshop/internal/infrastructure/redis"
	"github.com/Zhima-Mochi/courseshop/internal/infrastructure/token"
	"github.com/Zhima-Mochi/courseshop/internal/observability"
	"github.com/Zhima-Mochi/courseshop/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/courseshop/internal/presentation/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type stores struct {
	users         user.Repository
	courses       course.Repository
	orders        domorder.Repository
	notifications notification.Repository
	inMemory      bool
	close         func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	logger := zaplogger.Wrap(baseLogger)
	tel := obsinfra.NewPrometheus(
		oteltrace.New(cfg.ServiceName),
		logger,
		prometrics.New(prometheus.DefaultRegisterer, "", ""),
	)

	if err := run(cfg, tel); err != nil {
		logger.Error("service_exit", observability.F("error", err))
		_ = baseLogger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, tel observability.Observability) error {
	logger := tel.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	sessions, closeSessions, err := openSessions(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeSessions() }()

	verifier, err := token.NewHS256(cfg.AccessTokenSecret)
	if err != nil {
		return err
	}

	renderer, err := mail.NewRenderer()
	if err != nil {
		return err
	}
	var mailer dommail.Dispatcher = mail.NewLogDispatcher(logger)
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPDispatcher(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	}

	bus := outbox.NewBus(logger)
	appOrder.NewRosterWorker(st.users, sessions, bus, tel).Start()
	bus.Start(ctx)

	createOrder := appOrder.NewCreateOrderUseCase(appOrder.CreateOrderDeps{
		Users:           st.users,
		Courses:         st.courses,
		Orders:          st.orders,
		Notifications:   st.notifications,
		Renderer:        renderer,
		Mailer:          mailer,
		IDs:             id.NewUUIDGenerator(),
		Publisher:       bus,
		DispatchTimeout: cfg.MailDispatchTimeout,
	}, tel)
	listOrders := appOrder.NewListOrdersUseCase(st.orders, tel)
	gate := appAuth.NewGate(verifier, sessions, tel)

	if cfg.Env == "dev" && st.inMemory {
		if err := seedDevData(ctx, st, sessions, verifier, logger); err != nil {
			return err
		}
	}

	handler := httppresentation.NewHandler(createOrder, listOrders, gate, tel)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http_server_start", observability.F("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("http_server_error", observability.F("error", err))
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error", observability.F("error", err))
	} else {
		logger.Info("http_server_stopped")
	}
	bus.Stop(shutdownCtx)
	return nil
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.DatabaseDSN == "" {
		return stores{
			users:         memory.NewUserRepository(),
			courses:       memory.NewCourseRepository(),
			orders:        memory.NewOrderRepository(),
			notifications: memory.NewNotificationRepository(),
			inMemory:      true,
			close:         func() error { return nil },
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return stores{}, fmt.Errorf("open postgres: %w", err)
	}
	return stores{
		users:         db.Users(),
		courses:       db.Courses(),
		orders:        db.Orders(),
		notifications: db.Notifications(),
		close:         db.Close,
	}, nil
}

func openSessions(ctx context.Context, cfg config.Config) (session.Store, func() error, error) {
	if cfg.RedisAddr == "" {
		return memory.NewSessionStore(), func() error { return nil }, nil
	}
	client, err := redisstore.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	return redisstore.NewSessionStore(client, ""), client.Close, nil
}

// seedDevData gives a fresh in-memory instance one admin, one course and a
// live session so the API can be exercised without the login service.
func seedDevData(
	ctx context.Context,
	st stores,
	sessions session.Store,
	issuer *token.HS256,
	logger observability.Logger,
) error {
	admin := &user.User{ID: "dev-admin", Name: "Dev Admin", Email: "admin@localhost", Role: user.RoleAdmin}
	if err := st.users.Save(ctx, admin); err != nil {
		return err
	}
	if err := st.courses.Save(ctx, &course.Course{ID: "c0ffee000000000000000001", Name: "Go in Production", Price: 49.99}); err != nil {
		return err
	}

	const ttl = 24 * time.Hour
	if err := sessions.Put(ctx, session.Record{
		ID: admin.ID, Name: admin.Name, Email: admin.Email, Role: admin.Role, Courses: admin.Courses,
	}, ttl); err != nil {
		return err
	}
	raw, err := issuer.Issue(admin.ID, ttl)
	if err != nil {
		return err
	}
	logger.Info("dev_session_issued",
		observability.F("user_id", admin.ID),
		observability.F("access_token", raw),
	)
	return nil
}

package coursemarket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/course-market/internal/cache"
	"github.com/magabrotheeeer/course-market/internal/config"
	"github.com/magabrotheeeer/course-market/internal/http/handlers/health"
	"github.com/magabrotheeeer/course-market/internal/lib/jwt"
	"github.com/magabrotheeeer/course-market/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/course-market/internal/lib/sl"
	"github.com/magabrotheeeer/course-market/internal/migrations"
	"github.com/magabrotheeeer/course-market/internal/paymentgateway"
	"github.com/magabrotheeeer/course-market/internal/services/admin"
	"github.com/magabrotheeeer/course-market/internal/services/auth"
	"github.com/magabrotheeeer/course-market/internal/services/catalog"
	"github.com/magabrotheeeer/course-market/internal/services/order"
	"github.com/magabrotheeeer/course-market/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-сервер и его зависимости.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *storage.Storage
	cache     *cache.Cache
	amqpConn  *amqp.Connection
	publisher *rabbitmq.Publisher
}

// New подключается к Postgres, Redis и RabbitMQ, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "coursemarket.New"

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = storage.CheckDatabaseReady(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}

	var publisher order.Publisher = rabbitmq.NoopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.amqpConn = conn
		app.publisher, err = rabbitmq.NewPublisher(conn, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		publisher = app.publisher
		// Очередь чеков объявляется заранее, чтобы события не терялись до запуска воркера.
		queueCh, err := rabbitmq.SetupQueue(conn, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.Queue, cfg.RabbitMQ.RoutingKey)
		if err != nil {
			logger.Warn("failed to declare receipts queue", sl.Err(err))
		} else {
			_ = queueCh.Close()
		}
	} else {
		logger.Warn("rabbitmq url is empty, purchase events are disabled")
	}

	jwtMaker := jwt.NewJWTMaker(cfg.Session.SecretKey, cfg.Session.TTL)
	gateway := paymentgateway.NewClient(ctx, cfg.PaymentGateway)

	services := Services{
		Auth:    auth.NewService(db, cacheRedis, jwtMaker, cfg.Session.TTL, logger),
		Catalog: catalog.NewService(db, cacheRedis, logger),
		Orders:  order.NewService(db, gateway, publisher, cfg.PaymentGateway.Currency, logger),
		Admin:   admin.NewService(db, logger),
		Health: map[string]health.Checker{
			"postgres": db.DB.PingContext,
			"redis": func(ctx context.Context) error {
				return cacheRedis.Db.Ping(ctx).Err()
			},
		},
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, services)

	app.server = &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}
	return app, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.closeResources()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.closeResources()
		return err
	}
}

func (a *App) closeResources() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close amqp channel", sl.Err(err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Warn("failed to close amqp connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", sl.Err(err))
		}
	}
}

// Package receipt собирает воркер, отправляющий чеки по событиям о покупках.
package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/course-market/internal/config"
	"github.com/magabrotheeeer/course-market/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/course-market/internal/lib/sl"
	"github.com/magabrotheeeer/course-market/internal/lib/smtp"
	receiptservice "github.com/magabrotheeeer/course-market/internal/services/receipt"
	"github.com/magabrotheeeer/course-market/internal/storage"
)

// ErrBrokerDisabled в конфиге не задан адрес RabbitMQ.
var ErrBrokerDisabled = errors.New("rabbitmq url is not configured")

// App воркер чеков.
type App struct {
	db      *storage.Storage
	conn    *amqp.Connection
	ch      *amqp.Channel
	queue   string
	service *receiptservice.Service
	logger  *slog.Logger
}

// New подключается к Postgres и RabbitMQ и объявляет очередь чеков.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "receipt.New"

	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrBrokerDisabled)
	}

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupQueue(conn, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.Queue, cfg.RabbitMQ.RoutingKey)
	if err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)

	return &App{
		db:      db,
		conn:    conn,
		ch:      ch,
		queue:   cfg.RabbitMQ.Queue,
		service: receiptservice.NewService(db, transport, cfg.PaymentGateway.Currency, logger),
		logger:  logger,
	}, nil
}

// Run обрабатывает очередь до отмены ctx. Ресурсы закрываются после
// завершения всех начатых обработчиков.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("receipts consumer starting", slog.String("queue", a.queue))
	err := rabbitmq.Consume(ctx, a.ch, a.queue, a.service.SendReceipt, a.logger)
	if err != nil {
		a.logger.Error("receipts consumer failed", slog.String("queue", a.queue), sl.Err(err))
	} else {
		a.logger.Info("receipt sender shutting down gracefully")
	}
	a.close()
	return err
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}

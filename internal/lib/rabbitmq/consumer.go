package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/course-market/internal/lib/sl"
)

const maxInFlight = 10

// SetupQueue открывает канал, объявляет exchange и durable-очередь и связывает их ключом routingKey.
func SetupQueue(conn *amqp.Connection, exchange, queue, routingKey string) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupQueue"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err = ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = ch.QueueBind(queue, routingKey, exchange, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = ch.Qos(maxInFlight, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ch, nil
}

// Consume обрабатывает сообщения очереди до отмены ctx или закрытия канала.
// Успешно обработанные сообщения подтверждаются. При ошибке сообщение возвращается
// в очередь один раз, повторная ошибка его отбрасывает.
// Возвращает управление только после завершения всех запущенных обработчиков.
func Consume(ctx context.Context, ch *amqp.Channel, queue string, handler func(context.Context, []byte) error, log *slog.Logger) error {
	const op = "rabbitmq.Consume"

	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	sem := make(chan struct{}, maxInFlight)
	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				if nackErr := d.Nack(false, true); nackErr != nil {
					log.Error("failed to nack message", sl.Err(nackErr))
				}
				return nil
			}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				handle(ctx, d, queue, handler, log)
			}(d)
		case <-ctx.Done():
			return nil
		}
	}
}

func handle(ctx context.Context, d amqp.Delivery, queue string, handler func(context.Context, []byte) error, log *slog.Logger) {
	if err := handler(ctx, d.Body); err != nil {
		log.Warn("message handling failed", slog.String("queue", queue), sl.Err(err))
		if nackErr := d.Nack(false, !d.Redelivered); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if ackErr := d.Ack(false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}

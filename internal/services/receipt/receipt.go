// Package receipt отправляет покупателю письмо-чек после оплаты курса.
package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/course-market/internal/lib/sl"
	"github.com/magabrotheeeer/course-market/internal/lib/smtp"
	"github.com/magabrotheeeer/course-market/internal/metrics"
	"github.com/magabrotheeeer/course-market/internal/models"
	"github.com/magabrotheeeer/course-market/internal/storage"
)

const subject = "Чек об оплате курса"

// CourseRepository источник названий курсов.
type CourseRepository interface {
	GetCourse(ctx context.Context, id int64) (*models.Course, error)
}

// Service обрабатывает события о покупках из очереди.
type Service struct {
	courses   CourseRepository
	transport smtp.TransportInterface
	currency  string
	log       *slog.Logger
}

// NewService создает Service.
func NewService(courses CourseRepository, transport smtp.TransportInterface, currency string, log *slog.Logger) *Service {
	return &Service{
		courses:   courses,
		transport: transport,
		currency:  currency,
		log:       log,
	}
}

// SendReceipt отправляет чек по событию models.PurchaseEvent.
// Сообщения, которые нельзя разобрать, подтверждаются без отправки: повтор их не исправит.
func (s *Service) SendReceipt(ctx context.Context, body []byte) error {
	const op = "receipt.SendReceipt"
	log := s.log.With(sl.Op(op))

	var event models.PurchaseEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to decode purchase event", sl.Err(err))
		return nil
	}
	if event.OrderID == "" || event.Email == "" {
		log.Error("purchase event without order id or email", slog.String("order_id", event.OrderID))
		return nil
	}
	log = log.With(slog.String("order_id", event.OrderID))

	courseName, err := s.courseName(ctx, event.CourseID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.send(event.Email, subject, s.receiptText(event, courseName)); err != nil {
		metrics.ReceiptsSent.WithLabelValues(metrics.ResultFailure).Inc()
		log.Error("failed to send receipt", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	metrics.ReceiptsSent.WithLabelValues(metrics.ResultSuccess).Inc()
	log.Info("receipt sent")
	return nil
}

func (s *Service) courseName(ctx context.Context, courseID int64) (string, error) {
	course, err := s.courses.GetCourse(ctx, courseID)
	if errors.Is(err, storage.ErrNotFound) {
		return "#" + strconv.FormatInt(courseID, 10), nil
	}
	if err != nil {
		return "", err
	}
	return course.Name, nil
}

func (s *Service) receiptText(event models.PurchaseEvent, courseName string) string {
	return fmt.Sprintf("Здравствуйте!\n\n"+
		"Оплата курса %q прошла успешно.\n"+
		"Номер заказа: %s\n"+
		"Сумма: %s %s\n"+
		"Дата: %s\n\n"+
		"Курс доступен в разделе «Мои курсы».",
		courseName, event.OrderID, event.Value, s.currency,
		event.CapturedAt.UTC().Format("02.01.2006 15:04 MST"))
}

func (s *Service) send(to, subject, text string) error {
	from := s.transport.Sender()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		text,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			s.log.Debug("smtp client close", sl.Err(err))
		}
	}()

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}
	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		_ = wc.Close()
		return fmt.Errorf("write body: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}
	return client.Quit()
}

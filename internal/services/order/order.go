// Package order создаёт заказы в платёжном шлюзе и фиксирует оплату курсов.
package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/course-market/internal/lib/sl"
	"github.com/magabrotheeeer/course-market/internal/metrics"
	"github.com/magabrotheeeer/course-market/internal/models"
	"github.com/magabrotheeeer/course-market/internal/paymentgateway"
	"github.com/magabrotheeeer/course-market/internal/storage"
)

var (
	// ErrGateway платёжный шлюз вернул ошибку или недоступен.
	ErrGateway = errors.New("payment gateway error")
	// ErrMalformedCapture в ответе шлюза нет обязательных полей.
	ErrMalformedCapture = errors.New("malformed capture response")
	// ErrPersistence не удалось сохранить оплату.
	ErrPersistence = errors.New("failed to save payment")
	// ErrCourseNotFound курс из корзины не найден.
	ErrCourseNotFound = errors.New("course not found")
	// ErrEmptyCart корзина пуста.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidAmount сумма не является положительным числом с двумя знаками после точки
	// или не совпадает с ценой курса.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrForeignOrder заказ уже оплачен другим пользователем.
	ErrForeignOrder = errors.New("order belongs to another account")
	// ErrInvalidOrderID пустой идентификатор заказа.
	ErrInvalidOrderID = errors.New("invalid order id")
)

const purchaseDescription = "Course Purchase"

// Repository определяет методы хранилища, нужные для оформления покупки.
type Repository interface {
	// GetCourse возвращает курс по ID.
	GetCourse(ctx context.Context, id int64) (*models.Course, error)
	// GetPayment возвращает оплату по идентификатору заказа.
	GetPayment(ctx context.Context, orderID string) (*models.Payment, error)
	// SavePurchase атомарно сохраняет оплату и запись на курс.
	SavePurchase(ctx context.Context, payment models.Payment) (*models.Payment, error)
	// ListPaymentsByUser возвращает оплаты пользователя.
	ListPaymentsByUser(ctx context.Context, userID int64) ([]*models.Payment, error)
}

// Gateway клиент платёжного шлюза.
type Gateway interface {
	CreateOrder(ctx context.Context, req paymentgateway.OrderRequest) (*paymentgateway.Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*paymentgateway.Order, error)
	GetOrder(ctx context.Context, orderID string) (*paymentgateway.Order, error)
}

// Publisher публикует события о покупках.
type Publisher interface {
	Publish(ctx context.Context, event any) error
}

// Service оркестрирует создание и подтверждение заказов.
type Service struct {
	repo      Repository
	gateway   Gateway
	publisher Publisher
	currency  string
	log       *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, gateway Gateway, publisher Publisher, currency string, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		gateway:   gateway,
		publisher: publisher,
		currency:  currency,
		log:       log,
	}
}

// CreateOrder создаёт заказ в шлюзе на первый курс из корзины и возвращает
// ответ шлюза без изменений. Цена из корзины должна совпадать с ценой курса.
// Локальные данные не изменяются.
func (s *Service) CreateOrder(ctx context.Context, payerID int64, cart []models.CartItem) (json.RawMessage, error) {
	const op = "order.CreateOrder"

	if len(cart) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyCart)
	}
	item := cart[0]

	courseID, err := strconv.ParseInt(strings.TrimSpace(item.CourseID), 10, 64)
	if err != nil || courseID <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrCourseNotFound)
	}
	amount, err := ValidateAmount(item.Price)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	course, err := s.repo.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrCourseNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cartMinor, err := ToMinorUnits(amount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cartMinor != int64(course.Price) {
		return nil, fmt.Errorf("%s: %w: cart price %s, course price %s",
			op, ErrInvalidAmount, amount, FormatMinorUnits(course.Price))
	}
	amount = FormatMinorUnits(course.Price)

	order, err := s.gateway.CreateOrder(ctx, paymentgateway.OrderRequest{
		Intent: paymentgateway.IntentCapture,
		PurchaseUnits: []paymentgateway.PurchaseUnitRequest{{
			Amount: paymentgateway.Money{
				CurrencyCode: s.currency,
				Value:        amount,
			},
			Description: purchaseDescription,
			CustomID:    strconv.FormatInt(courseID, 10),
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrGateway, err)
	}

	metrics.OrdersCreated.Inc()
	s.log.Info("order created",
		slog.String("order_id", order.ID),
		slog.Int64("user_id", payerID),
		slog.Int64("course_id", courseID),
		slog.String("amount", amount),
	)
	return order.Raw, nil
}

// CaptureOrder списывает средства по заказу и одной транзакцией сохраняет
// оплату и запись на курс. Повторный вызов для уже оплаченного заказа
// возвращает сохранённую запись без обращения к шлюзу. Если шлюз уже списал
// средства, а оплата не была сохранена, заказ загружается из шлюза и сохраняется.
func (s *Service) CaptureOrder(ctx context.Context, orderID string, userID int64) (*models.CaptureRecord, error) {
	const op = "order.CaptureOrder"
	log := s.log.With(sl.Op(op), slog.String("order_id", orderID), slog.Int64("user_id", userID))

	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidOrderID)
	}

	existing, err := s.repo.GetPayment(ctx, orderID)
	switch {
	case err == nil:
		return s.replay(op, existing, userID)
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	}

	order, err := s.gateway.CaptureOrder(ctx, orderID)
	var apiErr *paymentgateway.APIError
	if errors.As(err, &apiErr) && apiErr.AlreadyCaptured() {
		// Списание прошло в предыдущей попытке, но оплата не сохранилась.
		log.Warn("order already captured by gateway, loading order details")
		order, err = s.gateway.GetOrder(ctx, orderID)
	}
	if err != nil {
		metrics.OrdersCaptured.WithLabelValues(metrics.ResultFailed).Inc()
		log.Warn("capture failed", slog.String("state", string(models.OrderFailed)), sl.Err(err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrGateway, err)
	}
	if order.Status != paymentgateway.StatusCompleted {
		metrics.OrdersCaptured.WithLabelValues(metrics.ResultFailed).Inc()
		log.Warn("capture not completed", slog.String("status", order.Status))
		return nil, fmt.Errorf("%s: %w: status %s", op, ErrGateway, order.Status)
	}

	payment, err := paymentFromOrder(orderID, userID, order)
	if err != nil {
		metrics.OrdersCaptured.WithLabelValues(metrics.ResultFailed).Inc()
		log.Error("malformed capture response", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	payment.GatewayOrder = order.Raw

	saved, err := s.repo.SavePurchase(ctx, *payment)
	if errors.Is(err, storage.ErrPaymentExists) {
		existing, getErr := s.repo.GetPayment(ctx, orderID)
		if getErr != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrPersistence, getErr)
		}
		return s.replay(op, existing, userID)
	}
	if err != nil {
		log.Error("failed to save purchase", sl.Err(err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	}

	metrics.OrdersCaptured.WithLabelValues(metrics.ResultCaptured).Inc()
	log.Info("order captured", slog.Int64("course_id", saved.CourseID), slog.String("value", saved.Value))

	event := models.PurchaseEvent{
		OrderID:    saved.ID,
		UserID:     saved.AccountID,
		CourseID:   saved.CourseID,
		Value:      saved.Value,
		Email:      saved.EmailAddress,
		CapturedAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Warn("failed to publish purchase event", sl.Err(err))
	}

	return &models.CaptureRecord{
		Payment: saved,
		State:   models.OrderCaptured,
		Order:   order.Raw,
	}, nil
}

// ListPayments возвращает оплаты пользователя.
func (s *Service) ListPayments(ctx context.Context, userID int64) ([]*models.Payment, error) {
	const op = "order.ListPayments"
	payments, err := s.repo.ListPaymentsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}

func (s *Service) replay(op string, payment *models.Payment, userID int64) (*models.CaptureRecord, error) {
	if payment.AccountID != userID {
		return nil, fmt.Errorf("%s: %w", op, ErrForeignOrder)
	}
	metrics.OrdersCaptured.WithLabelValues(metrics.ResultReplayed).Inc()
	s.log.Info("order already captured", slog.String("order_id", payment.ID), slog.Int64("user_id", userID))
	return &models.CaptureRecord{
		Payment:  payment,
		State:    models.OrderCaptured,
		Replayed: true,
		Order:    payment.GatewayOrder,
	}, nil
}

func paymentFromOrder(orderID string, userID int64, order *paymentgateway.Order) (*models.Payment, error) {
	email := strings.TrimSpace(order.PayerEmail())
	if email == "" {
		return nil, fmt.Errorf("%w: missing payer email", ErrMalformedCapture)
	}
	courseID, err := strconv.ParseInt(strings.TrimSpace(order.CustomID()), 10, 64)
	if err != nil || courseID <= 0 {
		return nil, fmt.Errorf("%w: invalid custom_id %q", ErrMalformedCapture, order.CustomID())
	}
	value, err := ValidateAmount(order.CapturedAmount())
	if err != nil {
		return nil, fmt.Errorf("%w: invalid amount %q", ErrMalformedCapture, order.CapturedAmount())
	}
	return &models.Payment{
		ID:           orderID,
		AccountID:    userID,
		CourseID:     courseID,
		Value:        value,
		EmailAddress: email,
	}, nil
}

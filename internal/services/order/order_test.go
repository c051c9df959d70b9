package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/course-market/internal/models"
	"github.com/magabrotheeeer/course-market/internal/paymentgateway"
	"github.com/magabrotheeeer/course-market/internal/storage"
)

// memoryStore хранилище в памяти с теми же гарантиями уникальности, что и Postgres.
type memoryStore struct {
	mu          sync.Mutex
	courses     map[int64]*models.Course
	payments    map[string]*models.Payment
	enrollments map[[2]int64]bool
	saveErr     error
}

func newMemoryStore(courses ...*models.Course) *memoryStore {
	s := &memoryStore{
		courses:     make(map[int64]*models.Course),
		payments:    make(map[string]*models.Payment),
		enrollments: make(map[[2]int64]bool),
	}
	for _, c := range courses {
		s.courses[c.ID] = c
	}
	return s
}

func (s *memoryStore) GetCourse(_ context.Context, id int64) (*models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return c, nil
}

func (s *memoryStore) GetPayment(_ context.Context, orderID string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[orderID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memoryStore) SavePurchase(_ context.Context, payment models.Payment) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	if _, ok := s.payments[payment.ID]; ok {
		return nil, storage.ErrPaymentExists
	}
	if _, ok := s.courses[payment.CourseID]; !ok {
		return nil, storage.ErrNotFound
	}
	saved := payment
	s.payments[payment.ID] = &saved
	s.enrollments[[2]int64{payment.AccountID, payment.CourseID}] = true
	cp := saved
	return &cp, nil
}

func (s *memoryStore) ListPaymentsByUser(_ context.Context, userID int64) ([]*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Payment
	for _, p := range s.payments {
		if p.AccountID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memoryStore) IsEnrolled(userID, courseID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enrollments[[2]int64{userID, courseID}]
}

func (s *memoryStore) counts() (payments, enrollments int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments), len(s.enrollments)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreateOrder(ctx context.Context, req paymentgateway.OrderRequest) (*paymentgateway.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.Order), args.Error(1)
}

func (m *GatewayMock) CaptureOrder(ctx context.Context, orderID string) (*paymentgateway.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.Order), args.Error(1)
}

func (m *GatewayMock) GetOrder(ctx context.Context, orderID string) (*paymentgateway.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.Order), args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, event any) error {
	return m.Called(ctx, event).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func capturedOrder(id, email, customID, amount string) *paymentgateway.Order {
	raw, _ := json.Marshal(map[string]string{"id": id, "status": paymentgateway.StatusCompleted})
	return &paymentgateway.Order{
		ID:            id,
		Status:        paymentgateway.StatusCompleted,
		PaymentSource: &paymentgateway.PaymentSource{PayPal: &paymentgateway.PayPalSource{EmailAddress: email}},
		PurchaseUnits: []paymentgateway.PurchaseUnit{{
			CustomID: customID,
			Payments: &paymentgateway.Payments{Captures: []paymentgateway.Capture{{
				ID:     "CAP-" + id,
				Status: paymentgateway.StatusCompleted,
				Amount: &paymentgateway.Money{CurrencyCode: "USD", Value: amount},
			}}},
		}},
		Raw: raw,
	}
}

func TestService_CreateOrder(t *testing.T) {
	raw := json.RawMessage(`{"id":"ORDER123","status":"CREATED"}`)

	tests := []struct {
		name        string
		cart        []models.CartItem
		setupMocks  func(g *GatewayMock)
		wantErr     error
		wantGateway bool
	}{
		{
			name: "valid cart",
			cart: []models.CartItem{{CourseID: "7", Price: "49.99"}, {CourseID: "8", Price: "10"}},
			setupMocks: func(g *GatewayMock) {
				g.On("CreateOrder", mock.Anything, paymentgateway.OrderRequest{
					Intent: paymentgateway.IntentCapture,
					PurchaseUnits: []paymentgateway.PurchaseUnitRequest{{
						Amount:      paymentgateway.Money{CurrencyCode: "USD", Value: "49.99"},
						Description: "Course Purchase",
						CustomID:    "7",
					}},
				}).Return(&paymentgateway.Order{ID: "ORDER123", Status: "CREATED", Raw: raw}, nil)
			},
			wantGateway: true,
		},
		{
			name:       "empty cart",
			cart:       nil,
			setupMocks: func(_ *GatewayMock) {},
			wantErr:    ErrEmptyCart,
		},
		{
			name:       "unknown course",
			cart:       []models.CartItem{{CourseID: "99", Price: "10.00"}},
			setupMocks: func(_ *GatewayMock) {},
			wantErr:    ErrCourseNotFound,
		},
		{
			name:       "non numeric course id",
			cart:       []models.CartItem{{CourseID: "abc", Price: "10.00"}},
			setupMocks: func(_ *GatewayMock) {},
			wantErr:    ErrCourseNotFound,
		},
		{
			name:       "invalid price",
			cart:       []models.CartItem{{CourseID: "7", Price: "-5"}},
			setupMocks: func(_ *GatewayMock) {},
			wantErr:    ErrInvalidAmount,
		},
		{
			name:       "price differs from course price",
			cart:       []models.CartItem{{CourseID: "7", Price: "0.01"}},
			setupMocks: func(_ *GatewayMock) {},
			wantErr:    ErrInvalidAmount,
		},
		{
			name:       "price with different scale",
			cart:       []models.CartItem{{CourseID: "7", Price: "4999"}},
			setupMocks: func(_ *GatewayMock) {},
			wantErr:    ErrInvalidAmount,
		},
		{
			name: "price without trailing zero",
			cart: []models.CartItem{{CourseID: "8", Price: "12.5"}},
			setupMocks: func(g *GatewayMock) {
				g.On("CreateOrder", mock.Anything, mock.MatchedBy(func(req paymentgateway.OrderRequest) bool {
					return req.PurchaseUnits[0].Amount.Value == "12.50" && req.PurchaseUnits[0].CustomID == "8"
				})).Return(&paymentgateway.Order{ID: "ORDER123", Status: "CREATED", Raw: raw}, nil)
			},
			wantGateway: true,
		},
		{
			name: "gateway failure",
			cart: []models.CartItem{{CourseID: "7", Price: "49.99"}},
			setupMocks: func(g *GatewayMock) {
				g.On("CreateOrder", mock.Anything, mock.Anything).
					Return(nil, &paymentgateway.APIError{StatusCode: 500, Body: "boom"})
			},
			wantErr: ErrGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore(
				&models.Course{ID: 7, Name: "Go", Price: 4999},
				&models.Course{ID: 8, Name: "SQL", Price: 1250},
			)
			gateway := new(GatewayMock)
			tt.setupMocks(gateway)
			svc := NewService(store, gateway, new(PublisherMock), "USD", newNoopLogger())

			got, err := svc.CreateOrder(context.Background(), 1, tt.cart)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.JSONEq(t, string(raw), string(got))
			}
			if !tt.wantGateway && tt.wantErr != ErrGateway {
				gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
			}
			gateway.AssertExpectations(t)

			payments, enrollments := store.counts()
			assert.Zero(t, payments)
			assert.Zero(t, enrollments)
		})
	}
}

func TestService_EndToEndPurchase(t *testing.T) {
	store := newMemoryStore(&models.Course{ID: 7, Name: "Go", Price: 4999})
	gateway := new(GatewayMock)
	publisher := new(PublisherMock)
	svc := NewService(store, gateway, publisher, "USD", newNoopLogger())
	ctx := context.Background()

	gateway.On("CreateOrder", mock.Anything, mock.Anything).
		Return(&paymentgateway.Order{ID: "ORDER123", Status: "CREATED", Raw: json.RawMessage(`{"id":"ORDER123"}`)}, nil)
	gateway.On("CaptureOrder", mock.Anything, "ORDER123").
		Return(capturedOrder("ORDER123", "buyer@example.com", "7", "49.99"), nil)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e models.PurchaseEvent) bool {
		return e.OrderID == "ORDER123" && e.UserID == 3 && e.CourseID == 7
	})).Return(nil)

	_, err := svc.CreateOrder(ctx, 3, []models.CartItem{{CourseID: "7", Price: "49.99"}})
	require.NoError(t, err)
	assert.False(t, store.IsEnrolled(3, 7))

	record, err := svc.CaptureOrder(ctx, "ORDER123", 3)
	require.NoError(t, err)

	assert.Equal(t, models.OrderCaptured, record.State)
	assert.False(t, record.Replayed)
	assert.NotEmpty(t, record.Order)
	assert.Equal(t, "ORDER123", record.Payment.ID)
	assert.Equal(t, "49.99", record.Payment.Value)
	assert.Equal(t, int64(7), record.Payment.CourseID)
	assert.Equal(t, int64(3), record.Payment.AccountID)
	assert.Equal(t, "buyer@example.com", record.Payment.EmailAddress)
	assert.True(t, store.IsEnrolled(3, 7))

	payments, err := svc.ListPayments(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	publisher.AssertExpectations(t)
}

func TestService_CaptureOrder_Idempotent(t *testing.T) {
	store := newMemoryStore(&models.Course{ID: 7})
	gateway := new(GatewayMock)
	publisher := new(PublisherMock)
	svc := NewService(store, gateway, publisher, "USD", newNoopLogger())

	gateway.On("CaptureOrder", mock.Anything, "ORDER123").
		Return(capturedOrder("ORDER123", "buyer@example.com", "7", "49.99"), nil).Once()
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

	first, err := svc.CaptureOrder(context.Background(), "ORDER123", 3)
	require.NoError(t, err)
	second, err := svc.CaptureOrder(context.Background(), "ORDER123", 3)
	require.NoError(t, err)

	assert.False(t, first.Replayed)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Payment.ID, second.Payment.ID)
	require.NotEmpty(t, second.Order)
	assert.JSONEq(t, string(first.Order), string(second.Order))

	payments, enrollments := store.counts()
	assert.Equal(t, 1, payments)
	assert.Equal(t, 1, enrollments)
	gateway.AssertNumberOfCalls(t, "CaptureOrder", 1)
	publisher.AssertNumberOfCalls(t, "Publish", 1)
}

func TestService_CaptureOrder_ForeignOrder(t *testing.T) {
	store := newMemoryStore(&models.Course{ID: 7})
	store.payments["ORDER123"] = &models.Payment{ID: "ORDER123", AccountID: 3, CourseID: 7, Value: "49.99"}
	gateway := new(GatewayMock)
	svc := NewService(store, gateway, new(PublisherMock), "USD", newNoopLogger())

	_, err := svc.CaptureOrder(context.Background(), "ORDER123", 4)
	assert.ErrorIs(t, err, ErrForeignOrder)
	gateway.AssertNotCalled(t, "CaptureOrder", mock.Anything, mock.Anything)
}

func TestService_CaptureOrder_ConcurrentDuplicateIsReplayed(t *testing.T) {
	store := newMemoryStore(&models.Course{ID: 7})
	gateway := new(GatewayMock)
	svc := NewService(store, gateway, new(PublisherMock), "USD", newNoopLogger())

	// Заказ успевает сохраниться другим запросом между проверкой и записью.
	gateway.On("CaptureOrder", mock.Anything, "ORDER123").
		Run(func(_ mock.Arguments) {
			store.mu.Lock()
			store.payments["ORDER123"] = &models.Payment{ID: "ORDER123", AccountID: 3, CourseID: 7, Value: "49.99"}
			store.enrollments[[2]int64{3, 7}] = true
			store.mu.Unlock()
		}).
		Return(capturedOrder("ORDER123", "buyer@example.com", "7", "49.99"), nil)

	record, err := svc.CaptureOrder(context.Background(), "ORDER123", 3)
	require.NoError(t, err)
	assert.True(t, record.Replayed)

	payments, enrollments := store.counts()
	assert.Equal(t, 1, payments)
	assert.Equal(t, 1, enrollments)
}

func TestService_CaptureOrder_FailuresLeaveNoRecords(t *testing.T) {
	tests := []struct {
		name    string
		order   *paymentgateway.Order
		gwErr   error
		saveErr error
		wantErr error
	}{
		{
			name:    "gateway error",
			gwErr:   &paymentgateway.APIError{StatusCode: 422, Body: "ORDER_NOT_APPROVED"},
			wantErr: ErrGateway,
		},
		{
			name:    "capture not completed",
			order:   &paymentgateway.Order{ID: "ORDER123", Status: "PENDING"},
			wantErr: ErrGateway,
		},
		{
			name:    "missing email",
			order:   capturedOrder("ORDER123", "", "7", "49.99"),
			wantErr: ErrMalformedCapture,
		},
		{
			name:    "bad custom id",
			order:   capturedOrder("ORDER123", "buyer@example.com", "seven", "49.99"),
			wantErr: ErrMalformedCapture,
		},
		{
			name:    "bad amount",
			order:   capturedOrder("ORDER123", "buyer@example.com", "7", "abc"),
			wantErr: ErrMalformedCapture,
		},
		{
			name:    "persistence error",
			order:   capturedOrder("ORDER123", "buyer@example.com", "7", "49.99"),
			saveErr: errors.New("connection reset"),
			wantErr: ErrPersistence,
		},
		{
			name:    "course removed",
			order:   capturedOrder("ORDER123", "buyer@example.com", "8", "49.99"),
			wantErr: ErrPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore(&models.Course{ID: 7})
			store.saveErr = tt.saveErr
			gateway := new(GatewayMock)
			publisher := new(PublisherMock)
			if tt.gwErr != nil {
				gateway.On("CaptureOrder", mock.Anything, "ORDER123").Return(nil, tt.gwErr)
			} else {
				gateway.On("CaptureOrder", mock.Anything, "ORDER123").Return(tt.order, nil)
			}
			svc := NewService(store, gateway, publisher, "USD", newNoopLogger())

			record, err := svc.CaptureOrder(context.Background(), "ORDER123", 3)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, record)

			payments, enrollments := store.counts()
			assert.Zero(t, payments)
			assert.Zero(t, enrollments)
			publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		})
	}
}

func TestService_CaptureOrder_RetryAfterSaveFailure(t *testing.T) {
	store := newMemoryStore(&models.Course{ID: 7})
	store.saveErr = errors.New("connection reset")
	gateway := new(GatewayMock)
	publisher := new(PublisherMock)
	svc := NewService(store, gateway, publisher, "USD", newNoopLogger())
	captured := capturedOrder("ORDER123", "buyer@example.com", "7", "49.99")

	gateway.On("CaptureOrder", mock.Anything, "ORDER123").Return(captured, nil).Once()
	_, err := svc.CaptureOrder(context.Background(), "ORDER123", 3)
	require.ErrorIs(t, err, ErrPersistence)
	payments, enrollments := store.counts()
	require.Zero(t, payments)
	require.Zero(t, enrollments)

	// Шлюз уже списал средства и на повторное списание отвечает 422.
	store.mu.Lock()
	store.saveErr = nil
	store.mu.Unlock()
	alreadyCaptured := &paymentgateway.APIError{
		StatusCode: 422,
		Body:       `{"name":"UNPROCESSABLE_ENTITY","details":[{"issue":"ORDER_ALREADY_CAPTURED"}]}`,
	}
	gateway.On("CaptureOrder", mock.Anything, "ORDER123").
		Return(nil, fmt.Errorf("paymentgateway.CaptureOrder: %w", alreadyCaptured)).Once()
	gateway.On("GetOrder", mock.Anything, "ORDER123").Return(captured, nil).Once()
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

	record, err := svc.CaptureOrder(context.Background(), "ORDER123", 3)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCaptured, record.State)
	assert.False(t, record.Replayed)
	assert.Equal(t, "49.99", record.Payment.Value)
	assert.True(t, store.IsEnrolled(3, 7))

	payments, enrollments = store.counts()
	assert.Equal(t, 1, payments)
	assert.Equal(t, 1, enrollments)
	gateway.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestService_CaptureOrder_OtherUnprocessableIsGatewayError(t *testing.T) {
	store := newMemoryStore(&models.Course{ID: 7})
	gateway := new(GatewayMock)
	gateway.On("CaptureOrder", mock.Anything, "ORDER123").
		Return(nil, &paymentgateway.APIError{StatusCode: 422, Body: `{"details":[{"issue":"ORDER_NOT_APPROVED"}]}`})
	svc := NewService(store, gateway, new(PublisherMock), "USD", newNoopLogger())

	_, err := svc.CaptureOrder(context.Background(), "ORDER123", 3)
	assert.ErrorIs(t, err, ErrGateway)
	gateway.AssertNotCalled(t, "GetOrder", mock.Anything, mock.Anything)
}

func TestService_CaptureOrder_PublishFailureIsNotFatal(t *testing.T) {
	store := newMemoryStore(&models.Course{ID: 7})
	gateway := new(GatewayMock)
	publisher := new(PublisherMock)
	gateway.On("CaptureOrder", mock.Anything, "ORDER123").
		Return(capturedOrder("ORDER123", "buyer@example.com", "7", "49.99"), nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	svc := NewService(store, gateway, publisher, "USD", newNoopLogger())

	record, err := svc.CaptureOrder(context.Background(), "ORDER123", 3)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCaptured, record.State)
	assert.True(t, store.IsEnrolled(3, 7))
}

func TestService_CaptureOrder_EmptyID(t *testing.T) {
	svc := NewService(newMemoryStore(), new(GatewayMock), new(PublisherMock), "USD", newNoopLogger())
	_, err := svc.CaptureOrder(context.Background(), "  ", 3)
	assert.ErrorIs(t, err, ErrInvalidOrderID)
}

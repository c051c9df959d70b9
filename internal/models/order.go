package models

import (
	"encoding/json"
	"time"
)

// CartItem позиция корзины, присланная клиентом при создании заказа.
type CartItem struct {
	CourseID string `json:"course_id" validate:"required,numeric"`
	Price    string `json:"price" validate:"required"`
}

// OrderState состояние заказа у платёжного шлюза с точки зрения сервиса.
type OrderState string

const (
	OrderCreated  OrderState = "CREATED"
	OrderCaptured OrderState = "CAPTURED"
	OrderFailed   OrderState = "FAILED"
)

// CaptureRecord результат подтверждения заказа.
// Replayed выставляется, когда заказ уже был подтверждён ранее и записи не создавались.
type CaptureRecord struct {
	Payment  *Payment   `json:"payment"`
	State    OrderState `json:"state"`
	Replayed bool       `json:"replayed"`
	// Order ответ шлюза на списание без изменений. При повторном подтверждении
	// возвращается сохранённая копия.
	Order json.RawMessage `json:"order,omitempty"`
}

// PurchaseEvent публикуется в брокер после успешной оплаты курса.
type PurchaseEvent struct {
	OrderID    string    `json:"order_id"`
	UserID     int64     `json:"user_id"`
	CourseID   int64     `json:"course_id"`
	Value      string    `json:"value"`
	Email      string    `json:"email"`
	CapturedAt time.Time `json:"captured_at"`
}

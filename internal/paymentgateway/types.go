package paymentgateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Значения intent и статусов заказа шлюза.
const (
	IntentCapture   = "CAPTURE"
	StatusCreated   = "CREATED"
	StatusCompleted = "COMPLETED"

	issueAlreadyCaptured = "ORDER_ALREADY_CAPTURED"
)

// Money денежная сумма в формате шлюза, например {"currency_code":"USD","value":"49.99"}.
type Money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

// OrderRequest тело запроса на создание заказа.
type OrderRequest struct {
	Intent        string                `json:"intent"`
	PurchaseUnits []PurchaseUnitRequest `json:"purchase_units"`
}

// PurchaseUnitRequest позиция заказа. CustomID хранит идентификатор курса.
type PurchaseUnitRequest struct {
	Amount      Money  `json:"amount"`
	Description string `json:"description,omitempty"`
	CustomID    string `json:"custom_id,omitempty"`
}

// Order ответ шлюза на создание или списание заказа.
// Raw содержит тело ответа без изменений.
type Order struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	PaymentSource *PaymentSource  `json:"payment_source,omitempty"`
	PurchaseUnits []PurchaseUnit  `json:"purchase_units,omitempty"`
	Raw           json.RawMessage `json:"-"`
}

// PaymentSource источник оплаты.
type PaymentSource struct {
	PayPal *PayPalSource `json:"paypal,omitempty"`
}

// PayPalSource данные плательщика.
type PayPalSource struct {
	EmailAddress string `json:"email_address"`
}

// PurchaseUnit позиция заказа в ответе шлюза.
type PurchaseUnit struct {
	CustomID string    `json:"custom_id,omitempty"`
	Amount   *Money    `json:"amount,omitempty"`
	Payments *Payments `json:"payments,omitempty"`
}

// Payments списания по позиции заказа.
type Payments struct {
	Captures []Capture `json:"captures,omitempty"`
}

// Capture одно списание.
type Capture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount *Money `json:"amount,omitempty"`
}

// PayerEmail возвращает email плательщика или пустую строку.
func (o *Order) PayerEmail() string {
	if o.PaymentSource == nil || o.PaymentSource.PayPal == nil {
		return ""
	}
	return o.PaymentSource.PayPal.EmailAddress
}

// CustomID возвращает custom_id первой позиции заказа.
func (o *Order) CustomID() string {
	if len(o.PurchaseUnits) == 0 {
		return ""
	}
	return o.PurchaseUnits[0].CustomID
}

// CapturedAmount возвращает списанную сумму первой позиции.
// Если списаний в ответе нет, возвращается сумма позиции.
func (o *Order) CapturedAmount() string {
	if len(o.PurchaseUnits) == 0 {
		return ""
	}
	pu := o.PurchaseUnits[0]
	if pu.Payments != nil && len(pu.Payments.Captures) > 0 && pu.Payments.Captures[0].Amount != nil {
		return pu.Payments.Captures[0].Amount.Value
	}
	if pu.Amount != nil {
		return pu.Amount.Value
	}
	return ""
}

// APIError ответ шлюза с кодом, отличным от 2xx.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payment gateway: status %d: %s", e.StatusCode, e.Body)
}

// AlreadyCaptured сообщает, что шлюз отклонил списание, потому что заказ уже оплачен.
func (e *APIError) AlreadyCaptured() bool {
	return e.StatusCode == http.StatusUnprocessableEntity && strings.Contains(e.Body, issueAlreadyCaptured)
}

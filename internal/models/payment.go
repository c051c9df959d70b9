package models

import (
	"encoding/json"
	"time"
)

// Payment оплаченный заказ платёжного шлюза.
// ID совпадает с идентификатором заказа у провайдера и служит ключом идемпотентности.
type Payment struct {
	ID           string    `json:"id"`
	AccountID    int64     `json:"account_id"`
	CourseID     int64     `json:"course_id"`
	Value        string    `json:"value"` // десятичная сумма, например "49.99"
	EmailAddress string    `json:"email_address"`
	CreatedAt    time.Time `json:"created_at"`
	// GatewayOrder ответ шлюза на списание, возвращается при повторном подтверждении.
	GatewayOrder json.RawMessage `json:"-"`
}

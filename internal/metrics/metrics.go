// Package metrics счётчики Prometheus для заказов, авторизации и чеков.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "course_market"

var (
	// OrdersCreated количество заказов, созданных в платёжном шлюзе.
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Orders created in the payment gateway.",
	})

	// OrdersCaptured результаты списания заказов по состоянию: captured, failed, replayed.
	OrdersCaptured = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_captured_total",
		Help:      "Order capture attempts by outcome.",
	}, []string{"result"})

	// Logins попытки входа по результату: success, failure.
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Login attempts by outcome.",
	}, []string{"result"})

	// ReceiptsSent отправка чеков о покупке по результату: success, failure.
	ReceiptsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "receipts_sent_total",
		Help:      "Purchase receipt emails by outcome.",
	}, []string{"result"})
)

// Значения метки result.
const (
	ResultCaptured = "captured"
	ResultFailed   = "failed"
	ResultReplayed = "replayed"
	ResultSuccess  = "success"
	ResultFailure  = "failure"
)

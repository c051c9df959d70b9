// Package capture реализует подтверждение оплаты заказа.
package capture

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/course-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-market/internal/http/response"
	"github.com/magabrotheeeer/course-market/internal/lib/sl"
	"github.com/magabrotheeeer/course-market/internal/models"
	"github.com/magabrotheeeer/course-market/internal/services/order"
)

// Service подтверждает заказ.
type Service interface {
	CaptureOrder(ctx context.Context, orderID string, userID int64) (*models.CaptureRecord, error)
}

// Handler обрабатывает POST /api/orders/{order_id}/capture.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Подтверждение оплаты
// @Description Списывает средства по заказу и записывает пользователя на курс. Повторный вызов возвращает сохранённый результат.
// @Tags Orders
// @Produce json
// @Param order_id path string true "ID заказа в платёжном шлюзе"
// @Success 200 {object} models.CaptureRecord
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /api/orders/{order_id}/capture [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.capture"

	orderID := chi.URLParam(r, "order_id")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("order_id", orderID),
	)

	session, ok := middlewarectx.SessionFromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication required"))
		return
	}

	record, err := h.service.CaptureOrder(r.Context(), orderID, session.UserID)
	switch {
	case errors.Is(err, order.ErrInvalidOrderID):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("order id is required"))
		return
	case errors.Is(err, order.ErrForeignOrder):
		log.Warn("order captured by another account", slog.Int64("user_id", session.UserID))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("order already captured by another account"))
		return
	case errors.Is(err, order.ErrGateway):
		log.Error("capture rejected by gateway", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("payment was not captured"))
		return
	case errors.Is(err, order.ErrMalformedCapture):
		log.Error("malformed capture", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("payment gateway returned an incomplete response"))
		return
	case errors.Is(err, order.ErrPersistence):
		log.Error("failed to save purchase", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not save payment, please retry"))
		return
	case err != nil:
		log.Error("capture failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("order captured", slog.Bool("replayed", record.Replayed))
	render.JSON(w, r, record)
}

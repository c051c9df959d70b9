// Package create реализует создание заказа в платёжном шлюзе.
//
// Ответ шлюза возвращается клиенту без изменений: он содержит id заказа
// и ссылки для подтверждения оплаты.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/course-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-market/internal/http/response"
	"github.com/magabrotheeeer/course-market/internal/lib/sl"
	"github.com/magabrotheeeer/course-market/internal/models"
	"github.com/magabrotheeeer/course-market/internal/services/order"
)

// Request тело запроса: корзина, из которой оплачивается первая позиция.
type Request struct {
	Cart []models.CartItem `json:"cart" validate:"required,min=1,dive"`
}

// Service создаёт заказ.
type Service interface {
	CreateOrder(ctx context.Context, payerID int64, cart []models.CartItem) (json.RawMessage, error)
}

// Handler обрабатывает POST /api/orders.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создание заказа
// @Description Создаёт заказ в платёжном шлюзе и возвращает его ответ без изменений.
// @Tags Orders
// @Accept json
// @Produce json
// @Param request body Request true "Корзина"
// @Success 200 {object} map[string]any "Заказ платёжного шлюза"
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /api/orders [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	session, ok := middlewarectx.SessionFromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication required"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	raw, err := h.service.CreateOrder(r.Context(), session.UserID, req.Cart)
	switch {
	case errors.Is(err, order.ErrEmptyCart), errors.Is(err, order.ErrInvalidAmount):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(errorMessage(err)))
		return
	case errors.Is(err, order.ErrCourseNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("course not found"))
		return
	case errors.Is(err, order.ErrGateway):
		log.Error("payment gateway failed", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("payment gateway is unavailable, try again later"))
		return
	case err != nil:
		log.Error("failed to create order", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create order"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(raw); err != nil {
		log.Error("failed to write response", sl.Err(err))
	}
}

func errorMessage(err error) string {
	if errors.Is(err, order.ErrEmptyCart) {
		return "cart is empty"
	}
	return "price must be a positive amount with at most two decimal places"
}

// Package checkout отдаёт данные страницы оплаты курса.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/course-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-market/internal/http/response"
	"github.com/magabrotheeeer/course-market/internal/lib/sl"
	"github.com/magabrotheeeer/course-market/internal/models"
	"github.com/magabrotheeeer/course-market/internal/services/catalog"
	"github.com/magabrotheeeer/course-market/internal/services/order"
)

// Service возвращает курс для оплаты.
type Service interface {
	GetCourse(ctx context.Context, userID, courseID int64) (*models.CourseView, error)
}

// Page данные страницы оплаты.
type Page struct {
	Course   *models.Course `json:"course"`
	Enrolled bool           `json:"enrolled"`
	Price    string         `json:"price"`
	Currency string         `json:"currency"`
}

// Handler обрабатывает GET /payment.
type Handler struct {
	log      *slog.Logger
	service  Service
	currency string
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, currency string) *Handler {
	return &Handler{log: log, service: service, currency: currency}
}

// ServeHTTP godoc
// @Summary Страница оплаты
// @Tags Payments
// @Produce json
// @Param course_id query int true "ID курса"
// @Param price query string false "Ожидаемая цена, должна совпадать с ценой курса"
// @Success 200 {object} Page
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /payment [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.checkout"

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

	query := r.URL.Query()
	courseID, err := strconv.ParseInt(query.Get("course_id"), 10, 64)
	if err != nil || courseID <= 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("course_id must be a positive integer"))
		return
	}
	var expected int64
	if raw := query.Get("price"); raw != "" {
		expected, err = order.ToMinorUnits(raw)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("price must be a positive amount with at most two decimal places"))
			return
		}
	}

	view, err := h.service.GetCourse(r.Context(), session.UserID, courseID)
	if errors.Is(err, catalog.ErrCourseNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("course not found"))
		return
	}
	if err != nil {
		log.Error("failed to read course", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load payment page"))
		return
	}

	price := order.FormatMinorUnits(view.Course.Price)
	if expected != 0 && expected != int64(view.Course.Price) {
		log.Info("stale course price", slog.String("price", query.Get("price")), slog.String("course_price", price))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("course price is "+price))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(Page{
		Course:   view.Course,
		Enrolled: view.Enrolled,
		Price:    price,
		Currency: h.currency,
	}))
}

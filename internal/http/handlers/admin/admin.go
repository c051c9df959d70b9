// Package admin отдаёт администратору списки пользователей, курсов, оплат и записей на курсы.
package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/course-market/internal/http/response"
	"github.com/magabrotheeeer/course-market/internal/lib/sl"
	"github.com/magabrotheeeer/course-market/internal/models"
)

// Service описывает выборки для администратора.
type Service interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
	ListCourses(ctx context.Context) ([]*models.Course, error)
	ListPayments(ctx context.Context) ([]*models.PaymentRecord, error)
	ListEnrollments(ctx context.Context) ([]*models.EnrollmentRecord, error)
}

// Handler обрабатывает маршруты /admin/*. Доступ проверяет AdminMiddleware.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// Users godoc
// @Summary Пользователи
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/users [get]
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	serveList(h.log, w, r, "handlers.admin.users", "users", h.service.ListUsers)
}

// Courses godoc
// @Summary Курсы
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/courses [get]
func (h *Handler) Courses(w http.ResponseWriter, r *http.Request) {
	serveList(h.log, w, r, "handlers.admin.courses", "courses", h.service.ListCourses)
}

// Payments godoc
// @Summary Оплаты
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/payments [get]
func (h *Handler) Payments(w http.ResponseWriter, r *http.Request) {
	serveList(h.log, w, r, "handlers.admin.payments", "payments", h.service.ListPayments)
}

// Enrollments godoc
// @Summary Записи на курсы
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/enrollments [get]
func (h *Handler) Enrollments(w http.ResponseWriter, r *http.Request) {
	serveList(h.log, w, r, "handlers.admin.enrollments", "enrollments", h.service.ListEnrollments)
}

func serveList[T any](
	logger *slog.Logger,
	w http.ResponseWriter,
	r *http.Request,
	op, key string,
	fetch func(context.Context) ([]*T, error),
) {
	log := logger.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	items, err := fetch(r.Context())
	if err != nil {
		log.Error("failed to list "+key, sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list "+key))
		return
	}
	if items == nil {
		items = []*T{}
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		key: items,
	}))
}

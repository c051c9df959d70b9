// Package read реализует HTTP-обработчик страницы курса.
//
// Handler берёт course_id из строки запроса и возвращает курс вместе
// с признаком того, что текущий пользователь его купил.
package read

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
)

// Service описывает чтение курса.
type Service interface {
	GetCourse(ctx context.Context, userID, courseID int64) (*models.CourseView, error)
}

// Handler обрабатывает GET /course.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Страница курса
// @Tags Courses
// @Produce json
// @Param course_id query int true "ID курса"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /course [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.read"

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

	courseID, err := strconv.ParseInt(r.URL.Query().Get("course_id"), 10, 64)
	if err != nil || courseID <= 0 {
		log.Info("invalid course_id", slog.String("course_id", r.URL.Query().Get("course_id")))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("course_id must be a positive integer"))
		return
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
		render.JSON(w, r, response.Error("could not read course"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(view))
}

// Package create реализует HTTP-обработчик создания курса.
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
	"github.com/magabrotheeeer/course-market/internal/services/catalog"
)

// Request входные данные для создания курса. Цена в центах: 4999 означает 49.99.
type Request struct {
	Name        string `json:"name" validate:"required,max=200"`
	Price       int    `json:"price" validate:"min=0"`
	Description string `json:"description" validate:"max=2000"`
	Content     string `json:"content"`
}

// Service описывает создание курса.
type Service interface {
	CreateCourse(ctx context.Context, authorID int64, role models.Role, in catalog.CourseInput) (int64, error)
}

// Handler обрабатывает GET и POST /create_course.
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

// Form godoc
// @Summary Форма создания курса
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Router /create_course [get]
func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"fields": []string{"name", "price", "description", "content"},
	}))
}

// ServeHTTP godoc
// @Summary Создание курса
// @Description Доступно преподавателям и администраторам.
// @Tags Courses
// @Accept json
// @Produce json
// @Param request body Request true "Данные курса"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /create_course [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.create"

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

	id, err := h.service.CreateCourse(r.Context(), session.UserID, session.Role, catalog.CourseInput{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Content:     req.Content,
	})
	switch {
	case errors.Is(err, catalog.ErrPermissionDenied):
		log.Warn("course creation denied", slog.Int64("user_id", session.UserID))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("students cannot create courses"))
		return
	case errors.Is(err, catalog.ErrInvalidCourse):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("invalid course data"))
		return
	case err != nil:
		log.Error("failed to create course", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create course"))
		return
	}

	log.Info("course created", slog.Int64("course_id", id))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id": id,
	}))
}

// Package register реализует HTTP-обработчик регистрации пользователя.
package register

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/course-market/internal/http/response"
	"github.com/magabrotheeeer/course-market/internal/lib/sl"
	"github.com/magabrotheeeer/course-market/internal/models"
	"github.com/magabrotheeeer/course-market/internal/services/auth"
)

// Request входные данные для регистрации.
type Request struct {
	Nickname        string `json:"nickname" validate:"required,min=3,max=50"`
	Username        string `json:"username" validate:"required,min=3,max=100"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	Role            string `json:"role" validate:"required"`
	TeacherNumber   string `json:"teacher_number" validate:"max=50"`
	Specialty       string `json:"specialty" validate:"max=100"`
}

// Service описывает регистрацию пользователя.
type Service interface {
	Register(ctx context.Context, in auth.RegisterInput) (int64, error)
}

// Handler обрабатывает регистрацию.
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
// @Summary Данные формы регистрации
// @Description Возвращает допустимые роли и список специальностей.
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /register [get]
func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"roles":       []models.Role{models.RoleStudent, models.RoleTeacher, models.RoleAdmin},
		"specialties": auth.Specialties(),
	}))
}

// ServeHTTP godoc
// @Summary Регистрация пользователя
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body Request true "Данные пользователя"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Пользователь уже существует"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	id, err := h.service.Register(r.Context(), auth.RegisterInput{
		Nickname:        req.Nickname,
		Username:        req.Username,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            req.Role,
		TeacherNumber:   req.TeacherNumber,
		Specialty:       req.Specialty,
	})
	switch {
	case errors.Is(err, auth.ErrPasswordMismatch):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("passwords do not match"))
		return
	case errors.Is(err, auth.ErrInvalidRole):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("role must be one of student, teacher, admin"))
		return
	case errors.Is(err, auth.ErrUserExists):
		log.Info("user already exists", slog.String("username", req.Username))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("user with this nickname or username already exists"))
		return
	case err != nil:
		log.Error("registration failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to register user"))
		return
	}

	log.Info("user registered", slog.Int64("user_id", id))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user_id":  id,
		"username": req.Username,
	}))
}

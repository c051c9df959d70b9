// Package login реализует HTTP-обработчик входа пользователя.
//
// При успешной проверке пароля открывается сессия: токен возвращается в теле
// ответа и записывается в cookie.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/course-market/internal/config"
	"github.com/magabrotheeeer/course-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-market/internal/http/response"
	"github.com/magabrotheeeer/course-market/internal/lib/sl"
	"github.com/magabrotheeeer/course-market/internal/services/auth"
)

// Request структура входных данных для авторизации.
type Request struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

// Handler обрабатывает HTTP-запросы для авторизации.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сервис аутентификации
	session  config.Session      // Настройки cookie сессии
	validate *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Login(ctx context.Context, username, password string) (*auth.Session, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, session config.Session) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		session:  session,
		validate: validator.New(),
	}
}

// Form godoc
// @Summary Форма входа
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /login [get]
func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"fields": []string{"username", "password"},
	}))
}

// ServeHTTP godoc
// @Summary Авторизация пользователя
// @Description Проверяет имя и пароль, открывает сессию и возвращает её токен.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные пользователя"
// @Success 200 {object} response.Response "Успешная авторизация"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

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

	session, err := h.service.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		log.Info("invalid credentials", slog.String("username", req.Username))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid username or password"))
		return
	}
	if err != nil {
		log.Error("login failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	middlewarectx.SetSessionCookie(w, h.session, session.Token)

	log.Info("login success", slog.Int64("user_id", session.UserID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"token":    session.Token,
		"user_id":  session.UserID,
		"username": session.Username,
		"role":     session.Role,
	}))
}

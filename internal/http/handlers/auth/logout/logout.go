// Package logout реализует выход пользователя.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/course-market/internal/config"
	"github.com/magabrotheeeer/course-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-market/internal/lib/sl"
)

// Service закрывает сессию.
type Service interface {
	Logout(ctx context.Context, token string) error
}

// Handler обрабатывает выход.
type Handler struct {
	log     *slog.Logger
	service Service
	session config.Session
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, session config.Session) *Handler {
	return &Handler{
		log:     log,
		service: service,
		session: session,
	}
}

// ServeHTTP godoc
// @Summary Выход
// @Description Закрывает сессию, удаляет cookie и перенаправляет на главную.
// @Tags Auth
// @Success 303
// @Router /logout [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	token := middlewarectx.TokenFromRequest(r, h.session.CookieName)
	if err := h.service.Logout(r.Context(), token); err != nil {
		log.Error("failed to close session", sl.Err(err))
	}
	middlewarectx.ClearSessionCookie(w, h.session)

	if session, ok := middlewarectx.SessionFromContext(r.Context()); ok {
		log.Info("user logged out", slog.Int64("user_id", session.UserID))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

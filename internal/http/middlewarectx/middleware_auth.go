// Package middlewarectx содержит HTTP middleware для проверки сессий,
// ролей пользователей и ограничения частоты запросов.
//
// SessionMiddleware ищет токен сессии в cookie или в заголовке Authorization,
// проверяет его через сервис авторизации и кладёт сессию в контекст запроса.
// Запросы к /api/ без сессии получают 401, остальные перенаправляются на /login.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/course-market/internal/http/response"
	"github.com/magabrotheeeer/course-market/internal/lib/sl"
	"github.com/magabrotheeeer/course-market/internal/services/auth"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// SessionKey ключ текущей сессии в контексте.
const SessionKey Key = "session"

// LoginPath страница входа для перенаправления неавторизованных запросов.
const LoginPath = "/login"

const apiPrefix = "/api/"

// Authenticator проверяет токен сессии.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Session, error)
}

// SessionMiddleware возвращает middleware, требующий действующую сессию.
func SessionMiddleware(authService Authenticator, cookieName string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SessionMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token := TokenFromRequest(r, cookieName)
			if token == "" {
				log.Info("request without session", slog.String("path", r.URL.Path))
				reject(w, r)
				return
			}

			session, err := authService.Authenticate(r.Context(), token)
			if err != nil {
				log.Info("invalid or expired session", sl.Err(err))
				reject(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromRequest достаёт токен из заголовка Authorization или из cookie.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// SessionFromContext возвращает сессию, сохранённую SessionMiddleware.
func SessionFromContext(ctx context.Context) (*auth.Session, bool) {
	session, ok := ctx.Value(SessionKey).(*auth.Session)
	return session, ok && session != nil
}

// WithSession кладёт сессию в контекст.
func WithSession(ctx context.Context, session *auth.Session) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

func reject(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, apiPrefix) {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication required"))
		return
	}
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

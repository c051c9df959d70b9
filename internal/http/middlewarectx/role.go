package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/course-market/internal/http/response"
)

// CourseAuthorMiddleware пропускает только пользователей, которым разрешено
// создавать курсы. Должен стоять после SessionMiddleware.
func CourseAuthorMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFromContext(r.Context())
			if !ok {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("authentication required"))
				return
			}
			if !session.Role.CanCreateCourses() {
				log.Warn("course creation denied",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.Int64("user_id", session.UserID),
					slog.String("role", session.Role.String()),
				)
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("students cannot create courses"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminMiddleware пропускает только администраторов. Должен стоять после SessionMiddleware.
func AdminMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFromContext(r.Context())
			if !ok {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("authentication required"))
				return
			}
			if !session.Role.CanManageData() {
				log.Warn("admin access denied",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.Int64("user_id", session.UserID),
					slog.String("role", session.Role.String()),
					slog.String("path", r.URL.Path),
				)
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("admin role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

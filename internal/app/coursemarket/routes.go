// Package coursemarket собирает HTTP-приложение маркетплейса курсов.
package coursemarket

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрация swagger-спецификации.
	_ "github.com/magabrotheeeer/course-market/docs"
	"github.com/magabrotheeeer/course-market/internal/config"
	adminhandler "github.com/magabrotheeeer/course-market/internal/http/handlers/admin"
	"github.com/magabrotheeeer/course-market/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/course-market/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/course-market/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/course-market/internal/http/handlers/course/create"
	"github.com/magabrotheeeer/course-market/internal/http/handlers/course/dashboard"
	"github.com/magabrotheeeer/course-market/internal/http/handlers/course/read"
	"github.com/magabrotheeeer/course-market/internal/http/handlers/health"
	"github.com/magabrotheeeer/course-market/internal/http/handlers/landing"
	"github.com/magabrotheeeer/course-market/internal/http/handlers/order/capture"
	ordercreate "github.com/magabrotheeeer/course-market/internal/http/handlers/order/create"
	"github.com/magabrotheeeer/course-market/internal/http/handlers/payment/checkout"
	paymentlist "github.com/magabrotheeeer/course-market/internal/http/handlers/payment/list"
	"github.com/magabrotheeeer/course-market/internal/http/handlers/profile"
	"github.com/magabrotheeeer/course-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-market/internal/services/admin"
	"github.com/magabrotheeeer/course-market/internal/services/auth"
	"github.com/magabrotheeeer/course-market/internal/services/catalog"
	"github.com/magabrotheeeer/course-market/internal/services/order"
)

// Services сервисы, обслуживающие HTTP-маршруты.
type Services struct {
	Auth    *auth.Service
	Catalog *catalog.Service
	Orders  *order.Service
	Admin   *admin.Service
	Health  map[string]health.Checker
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, svc Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	loginHandler := login.New(logger, svc.Auth, cfg.Session)
	registerHandler := register.New(logger, svc.Auth)
	createCourseHandler := create.New(logger, svc.Catalog)

	// Открытые страницы
	r.Get("/", landing.New().ServeHTTP)
	r.Get("/health", health.New(logger, svc.Health).ServeHTTP)
	r.Get("/login", loginHandler.Form)
	r.Get("/register", registerHandler.Form)
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		r.Post("/login", loginHandler.ServeHTTP)
		r.Post("/register", registerHandler.ServeHTTP)
	})

	// Группа с проверкой сессии
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.SessionMiddleware(svc.Auth, cfg.Session.CookieName, logger))

		r.Get("/logout", logout.New(logger, svc.Auth, cfg.Session).ServeHTTP)
		r.Get("/dashboard", dashboard.New(logger, svc.Catalog).ServeHTTP)
		r.Get("/course", read.New(logger, svc.Catalog).ServeHTTP)
		r.Get("/payment", checkout.New(logger, svc.Catalog, cfg.PaymentGateway.Currency).ServeHTTP)
		r.Get("/payments", paymentlist.New(logger, svc.Orders).ServeHTTP)
		r.Get("/my_profile", profile.New(logger, svc.Auth).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.CourseAuthorMiddleware(logger))
			r.Get("/create_course", createCourseHandler.Form)
			r.Post("/create_course", createCourseHandler.ServeHTTP)
		})

		r.Route("/api/orders", func(r chi.Router) {
			r.Post("/", ordercreate.New(logger, svc.Orders).ServeHTTP)
			r.Post("/{order_id}/capture", capture.New(logger, svc.Orders).ServeHTTP)
		})

		adminHandler := adminhandler.New(logger, svc.Admin)
		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewarectx.AdminMiddleware(logger))
			r.Get("/users", adminHandler.Users)
			r.Get("/courses", adminHandler.Courses)
			r.Get("/payments", adminHandler.Payments)
			r.Get("/enrollments", adminHandler.Enrollments)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

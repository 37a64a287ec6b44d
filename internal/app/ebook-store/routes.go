// Package ebookstore предоставляет маршруты приложения.
package ebookstore

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/windproject/ebook-store/internal/http/handlers/auth/login"
	"github.com/windproject/ebook-store/internal/http/handlers/auth/register"
	bookaccess "github.com/windproject/ebook-store/internal/http/handlers/book/access"
	bookcreate "github.com/windproject/ebook-store/internal/http/handlers/book/create"
	booklibrary "github.com/windproject/ebook-store/internal/http/handlers/book/library"
	booklist "github.com/windproject/ebook-store/internal/http/handlers/book/list"
	bookread "github.com/windproject/ebook-store/internal/http/handlers/book/read"
	bookremove "github.com/windproject/ebook-store/internal/http/handlers/book/remove"
	bookupdate "github.com/windproject/ebook-store/internal/http/handlers/book/update"
	"github.com/windproject/ebook-store/internal/http/handlers/health"
	plancancel "github.com/windproject/ebook-store/internal/http/handlers/plan/cancel"
	plancreate "github.com/windproject/ebook-store/internal/http/handlers/plan/create"
	planlist "github.com/windproject/ebook-store/internal/http/handlers/plan/list"
	planread "github.com/windproject/ebook-store/internal/http/handlers/plan/read"
	planremove "github.com/windproject/ebook-store/internal/http/handlers/plan/remove"
	planstatus "github.com/windproject/ebook-store/internal/http/handlers/plan/status"
	plansubscribe "github.com/windproject/ebook-store/internal/http/handlers/plan/subscribe"
	planupdate "github.com/windproject/ebook-store/internal/http/handlers/plan/update"
	profileread "github.com/windproject/ebook-store/internal/http/handlers/profile/read"
	profileupdate "github.com/windproject/ebook-store/internal/http/handlers/profile/update"
	userbooks "github.com/windproject/ebook-store/internal/http/handlers/user/books"
	userlist "github.com/windproject/ebook-store/internal/http/handlers/user/list"
	userrole "github.com/windproject/ebook-store/internal/http/handlers/user/role"
	userstats "github.com/windproject/ebook-store/internal/http/handlers/user/stats"
	usersubscription "github.com/windproject/ebook-store/internal/http/handlers/user/subscription"
	"github.com/windproject/ebook-store/internal/http/middlewarectx"
	"github.com/windproject/ebook-store/internal/lib/jwt"
	"github.com/windproject/ebook-store/internal/models"
	accessservice "github.com/windproject/ebook-store/internal/services/access"
	accountservice "github.com/windproject/ebook-store/internal/services/account"
	authservice "github.com/windproject/ebook-store/internal/services/auth"
	catalogservice "github.com/windproject/ebook-store/internal/services/catalog"
	subscriptionservice "github.com/windproject/ebook-store/internal/services/subscription"
)

// Services собирает зависимости маршрутов в одну структуру.
type Services struct {
	Auth         *authservice.AuthService
	Catalog      *catalogservice.CatalogService
	Access       *accessservice.AccessService
	Subscription *subscriptionservice.SubscriptionService
	Account      *accountservice.AccountService
	JWTMaker     jwt.Maker
	Users        middlewarectx.UserLoader
	Storage      health.Checker
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки: регистрация, вход, витрина каталога и планов
		r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, s.Auth).ServeHTTP)
		r.Get("/books", booklist.New(logger, s.Catalog).ServeHTTP)
		r.Get("/books/{id}", bookread.New(logger, s.Catalog).ServeHTTP)
		r.Get("/plans", planlist.New(logger, s.Subscription).ServeHTTP)
		r.Get("/plans/{id}", planread.New(logger, s.Subscription).ServeHTTP)
		r.Get("/users/{uid}/books", userbooks.New(logger, s.Catalog).ServeHTTP)
		r.Get("/health", health.New(logger, s.Storage).ServeHTTP)

		// Группа с JWT аутентификацией и ленивым пересогласованием подписки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.JWTMaker, s.Users, logger))
			r.Use(middlewarectx.ReconcileMiddleware(s.Subscription))
			r.Use(middlewarectx.RateLimitMiddleware(logger, 50, 100))

			r.Post("/books/{id}/access", bookaccess.New(logger, s.Access).ServeHTTP)
			r.Get("/library", booklibrary.New(logger, s.Access).ServeHTTP)
			r.Post("/plans/{id}/subscribe", plansubscribe.New(logger, s.Subscription).ServeHTTP)
			r.Post("/plans/cancel", plancancel.New(logger, s.Subscription).ServeHTTP)
			r.Get("/plans/status/my", planstatus.New(logger, s.Subscription).ServeHTTP)
			r.Get("/profile", profileread.New(logger).ServeHTTP)
			r.Put("/profile", profileupdate.New(logger, s.Account).ServeHTTP)
			r.Get("/users/{uid}/stats", userstats.New(logger, s.Account).ServeHTTP)

			// Управление каталогом: авторы и администраторы
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, models.RoleAuthor, models.RoleAdmin))
				r.Post("/books", bookcreate.New(logger, s.Catalog).ServeHTTP)
				r.Put("/books/{id}", bookupdate.New(logger, s.Catalog).ServeHTTP)
				r.Delete("/books/{id}", bookremove.New(logger, s.Catalog).ServeHTTP)
			})

			// Административная панель
			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, models.RoleAdmin))
				r.Get("/users", userlist.New(logger, s.Account).ServeHTTP)
				r.Put("/users/{uid}/role", userrole.New(logger, s.Account).ServeHTTP)
				r.Put("/users/{uid}/subscription", usersubscription.New(logger, s.Subscription).ServeHTTP)
				r.Post("/plans", plancreate.New(logger, s.Subscription).ServeHTTP)
				r.Put("/plans/{id}", planupdate.New(logger, s.Subscription).ServeHTTP)
				r.Delete("/plans/{id}", planremove.New(logger, s.Subscription).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

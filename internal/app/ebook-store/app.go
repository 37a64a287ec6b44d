// Package ebookstore собирает приложение книжного магазина:
// хранилище, миграции, кеш, брокер сообщений, сервисы и HTTP-сервер.
package ebookstore

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/windproject/ebook-store/internal/cache"
	"github.com/windproject/ebook-store/internal/config"
	"github.com/windproject/ebook-store/internal/lib/jwt"
	"github.com/windproject/ebook-store/internal/lib/rabbitmq"
	"github.com/windproject/ebook-store/internal/lib/sl"
	"github.com/windproject/ebook-store/internal/migrations"
	accessservice "github.com/windproject/ebook-store/internal/services/access"
	accountservice "github.com/windproject/ebook-store/internal/services/account"
	authservice "github.com/windproject/ebook-store/internal/services/auth"
	catalogservice "github.com/windproject/ebook-store/internal/services/catalog"
	subscriptionservice "github.com/windproject/ebook-store/internal/services/subscription"
	"github.com/windproject/ebook-store/internal/storage/repository"
)

// App держит HTTP-сервер и ресурсы, требующие закрытия при остановке.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
}

// New собирает приложение: подключает PostgreSQL, применяет миграции,
// поднимает Redis и RabbitMQ, связывает сервисы и маршруты.
//
// Недоступный брокер не мешает старту: события подписок будут теряться,
// остальная функциональность работает.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	var events subscriptionservice.EventPublisher
	conn, err := rabbitmq.Connect(cfg.RabbitMQConnection.AddressRabbitMQ,
		cfg.RabbitMQConnection.ConnectRetries, cfg.RabbitMQConnection.ConnectDelay)
	if err != nil {
		logger.Warn("rabbitmq unavailable, subscription events disabled", sl.Err(err))
	} else {
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetSubscriptionQueues())
		if err != nil {
			logger.Warn("rabbitmq channel setup failed, subscription events disabled", sl.Err(err))
		} else {
			events = rabbitmq.NewPublisher(ch)
		}
	}

	jwtMaker := jwt.NewMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)

	subscriptionService := subscriptionservice.NewSubscriptionService(db, db, events, logger)
	accessService := accessservice.NewAccessService(db, db, subscriptionService, logger)
	catalogService := catalogservice.NewCatalogService(db, cacheRedis, logger)
	authService := authservice.NewAuthService(db, jwtMaker)
	accountService := accountservice.NewAccountService(db, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Auth:         authService,
		Catalog:      catalogService,
		Access:       accessService,
		Subscription: subscriptionService,
		Account:      accountService,
		JWTMaker:     jwtMaker,
		Users:        db,
		Storage:      db,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.TimeoutHTTP,
		WriteTimeout: cfg.HTTPServer.TimeoutHTTP,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.db.DB.Close()
		return err
	}
}

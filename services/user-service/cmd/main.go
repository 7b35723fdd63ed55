package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/jirapatw/courselab-api/services/user-service/internal/config"
	"github.com/jirapatw/courselab-api/services/user-service/internal/handler"
	"github.com/jirapatw/courselab-api/services/user-service/internal/repository"
	"github.com/jirapatw/courselab-api/services/user-service/internal/usecase"
	"github.com/jirapatw/courselab-api/shared/auth"
	"github.com/jirapatw/courselab-api/shared/discovery"
	"github.com/jirapatw/courselab-api/shared/logger"
	"github.com/jirapatw/courselab-api/shared/mailer"
	"github.com/jirapatw/courselab-api/shared/middleware"
	"github.com/jirapatw/courselab-api/shared/utilities"
	"github.com/jirapatw/courselab-api/shared/validation"
)

const serviceName = "user-service"

func main() {
	log := logger.NewLogger(serviceName)
	cfg := config.NewUserServiceConfig(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to disconnect from mongodb")
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		log.Fatal().Err(err).Msg("failed to ping mongodb")
	}

	db := client.Database(cfg.Mongo.Database)

	identityRepo := repository.NewIdentityMongoRepository(ctx, log, db)
	profileRepo := repository.NewProfileMongoRepository(db)
	auditRepo := repository.NewAuditMongoRepository(ctx, log, db)

	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Issuer, cfg.Token.Issuer)

	var m *mailer.Mailer
	if cfg.Mail.Enabled {
		m = mailer.NewMailer(log)
	}

	rbacUsecase := usecase.NewRBACUsecase(identityRepo, profileRepo, auditRepo, jwtAuth, m, log, cfg)

	v, err := validation.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create validator")
	}

	userHandler := handler.NewUserHTTPHandler(log, v, rbacUsecase)
	authMiddleware := middleware.NewAuthMiddleware(jwtAuth, cfg.Token.AccessTokenSecret)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientIP)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utilities.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Mount("/v1/users", userHandler.Routes(authMiddleware))

	if cfg.Consul.Address != "" {
		deregister, err := discovery.RegisterService(log, cfg.Consul.Address, discovery.ServiceRegistration{
			Name:    serviceName,
			Address: cfg.Server.Host,
			Port:    cfg.Server.Port,
			HealthCheckURL: fmt.Sprintf(
				"http://%s:%d/healthz",
				cfg.Server.Host,
				cfg.Server.Port,
			),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to register with consul")
		}
		defer deregister()
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("user service listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shut down server gracefully")
		}
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/agendly/agenda-api/internal/config"
	"github.com/agendly/agenda-api/internal/email"
	appointmentHandler "github.com/agendly/agenda-api/internal/handler/appointment"
	authHandler "github.com/agendly/agenda-api/internal/handler/auth"
	establishmentHandler "github.com/agendly/agenda-api/internal/handler/establishment"
	healthHandler "github.com/agendly/agenda-api/internal/handler/health"
	inviteHandler "github.com/agendly/agenda-api/internal/handler/invite"
	"github.com/agendly/agenda-api/internal/middleware"
	"github.com/agendly/agenda-api/internal/migration"
	"github.com/agendly/agenda-api/internal/repository/postgres"
	"github.com/agendly/agenda-api/internal/router"
	appointmentService "github.com/agendly/agenda-api/internal/service/appointment"
	authService "github.com/agendly/agenda-api/internal/service/auth"
	availabilityService "github.com/agendly/agenda-api/internal/service/availability"
	catalogService "github.com/agendly/agenda-api/internal/service/catalog"
	clientService "github.com/agendly/agenda-api/internal/service/client"
	establishmentService "github.com/agendly/agenda-api/internal/service/establishment"
	inviteService "github.com/agendly/agenda-api/internal/service/invite"
	"github.com/agendly/agenda-api/pkg/auth"
	"github.com/agendly/agenda-api/pkg/logger"
	"github.com/agendly/agenda-api/pkg/metrics"
	"github.com/agendly/agenda-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := migration.Run(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	base := postgres.NewBaseRepository(db)
	accountRepo := postgres.NewAccountRepository(base)
	establishmentRepo := postgres.NewEstablishmentRepository(base)
	inviteRepo := postgres.NewInviteRepository(base)
	relationshipRepo := postgres.NewRelationshipRepository(base)
	serviceRepo := postgres.NewServiceRepository(base)
	hourRepo := postgres.NewAvailableHourRepository(base)
	appointmentRepo := postgres.NewAppointmentRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)

	appMetrics := metrics.NewMetrics("agenda", "api")

	var sender email.Sender
	if cfg.SMTP.Host != "" {
		sender = email.NewSMTPSender(cfg.SMTP)
	} else {
		sender = email.NewLogSender(appLogger)
	}

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:             cfg.JWT.Secret,
		RefreshSecret:      cfg.JWT.RefreshSecret,
		ExpiryHours:        cfg.JWT.ExpiryHours,
		RefreshExpiryHours: cfg.JWT.RefreshExpiryHours,
	})
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)

	inviteSvc := inviteService.NewService(inviteRepo, establishmentRepo, outboxRepo, sender, appLogger, appMetrics)
	establishmentSvc := establishmentService.NewService(establishmentRepo, outboxRepo, appLogger)
	authSvc := authService.NewService(accountRepo, inviteSvc, hasher, jwtSvc, appLogger)
	catalogSvc := catalogService.NewService(serviceRepo, establishmentRepo)
	availabilitySvc := availabilityService.NewService(hourRepo, establishmentRepo)
	clientSvc := clientService.NewService(relationshipRepo, establishmentRepo)
	appointmentSvc := appointmentService.NewService(appointmentRepo, establishmentRepo, serviceRepo, relationshipRepo, outboxRepo, appLogger)

	if cfg.Admin.Email != "" {
		if err := authSvc.EnsureAdmin(context.Background(), cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			appLogger.Fatal(err, "failed to bootstrap administrator account")
		}
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	r := router.NewRouter(
		authMiddleware,
		authHandler.NewHandler(authSvc),
		establishmentHandler.NewHandler(establishmentSvc, catalogSvc, availabilitySvc, clientSvc),
		inviteHandler.NewHandler(inviteSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		healthHandler.NewHandler(db),
		router.Config{
			RateLimit:      rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:      cfg.RateLimit.Burst,
			RedeemRate:     rate.Limit(cfg.RateLimit.RedeemPerMinute / 60),
			RedeemBurst:    cfg.RateLimit.RedeemBurst,
			CORSConfig:     middleware.DefaultCORSConfig(),
			MetricsPrefix:  "agenda_http",
			RequestTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

package main

import (
	"database/sql"
	"net/http"
	"os"
	"strings"

	_ "github.com/lib/pq"

	"eventlottery/config"
	_ "eventlottery/docs"
	"eventlottery/internal/adapters/email"
	deliveryhttp "eventlottery/internal/delivery/http"
	"eventlottery/internal/delivery/http/controllers"
	"eventlottery/internal/delivery/http/middleware"
	"eventlottery/internal/repository/postgres"
	"eventlottery/internal/services"
)

// @title Event Lottery API
// @version 1.0
// @description Waitlist lottery service: event waitlists, random draws with replacement pools, and winner invitation responses.
// @BasePath /
func main() {
	logger := config.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to reach database", "err", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrations(cfg.DBUrl, cfg.MigrationsPath); err != nil {
		logger.Error("failed to run migrations", "err", err)
		os.Exit(1)
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFrom,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:          cfg.SES.Region,
			AccessKeyID:     cfg.SES.AccessKeyID,
			SecretAccessKey: cfg.SES.SecretAccessKey,
		},
	})
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}

	eventRepo := postgres.NewEventRepository(db)
	waitlistRepo := postgres.NewWaitlistRepository(db)
	entrantRepo := postgres.NewEntrantRepository(db)

	eventService := services.NewEventService(eventRepo, waitlistRepo)
	enrollmentService := services.NewEnrollmentService(waitlistRepo, entrantRepo)
	drawService := services.NewDrawService(eventRepo, waitlistRepo, entrantRepo, mailer, logger, nil)
	invitationService := services.NewInvitationService(waitlistRepo, entrantRepo, logger)
	entrantService := services.NewEntrantService(entrantRepo)

	eventController := controllers.NewEventController(logger, eventService)
	waitlistController := controllers.NewWaitlistController(logger, eventService, enrollmentService, drawService, invitationService)
	entrantController := controllers.NewEntrantController(logger, entrantService)

	mux := deliveryhttp.NewRouter(eventController, waitlistController, entrantController)

	var allowedOrigins []string
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		allowedOrigins = strings.Split(origins, ",")
	}
	handler := middleware.CORS(allowedOrigins, middleware.LoggingMiddleware(logger, mux))

	addr := ":" + cfg.Port
	logger.Info("starting server", "addr", addr, "env", cfg.Environment)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/testimonialnudger/api/internal/http/handlers"
	httpmw "github.com/testimonialnudger/api/internal/http/middleware"
	"github.com/testimonialnudger/api/internal/platform/mailer"
	"github.com/testimonialnudger/api/internal/platform/media"
	"github.com/testimonialnudger/api/internal/repo/postgres"
	"github.com/testimonialnudger/api/internal/service"
	"github.com/testimonialnudger/api/pkg/config"
	"github.com/testimonialnudger/api/pkg/database"
	"github.com/testimonialnudger/api/pkg/events"
	"github.com/testimonialnudger/api/pkg/logger"
	mw "github.com/testimonialnudger/api/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(cfg.Database); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	mail := newMailer(cfg)
	mediaStore := newMediaStore(cfg)

	// Repositories
	tokenRepo := postgres.NewTokenRepo(pool)
	clientRepo := postgres.NewClientRepo(pool)
	testimonialRepo := postgres.NewTestimonialRepo(pool)
	businessRepo := postgres.NewBusinessRepo(pool)

	// Services
	submissionSvc := service.NewSubmissionService(
		tokenRepo, clientRepo, testimonialRepo, businessRepo,
		mediaStore, mail, eventBus, cfg,
	)
	requestSvc := service.NewRequestService(tokenRepo, businessRepo, mail, eventBus, cfg)
	testimonialSvc := service.NewTestimonialService(testimonialRepo, mediaStore, eventBus)

	// Background token reaper
	reaper := service.NewReaper(tokenRepo, cfg.Tokens.ReaperInterval, cfg.Tokens.ReaperGrace)
	go reaper.Run(ctx)

	// In-process consumer for notification events published on the bus.
	notifier := service.NewNotifier(eventBus, mail)
	if err := notifier.Start(); err != nil {
		logger.Error("Failed to start notification consumer", "error", err)
		os.Exit(1)
	}

	// Handlers
	publicHandler := handlers.NewPublicHandler(submissionSvc, cfg.Media.MaxFileBytes)
	businessHandler := handlers.NewBusinessHandler(requestSvc, testimonialSvc, cfg.Auth.JWTSecret)

	rateLimiter := httpmw.NewRateLimiter(redisClient, httpmw.RateLimitConfig{
		Requests: cfg.App.RateLimitRequests,
		Window:   cfg.App.RateLimitWindow,
		KeyFunc:  httpmw.SubmissionRateLimitKeyFunc,
	})

	// Router
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("api"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.App.BaseURL},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Group(func(pr chi.Router) {
		pr.Use(rateLimiter.Middleware())
		pr.Mount("/", publicHandler.Routes())
	})
	r.Mount("/business", businessHandler.Routes())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down API server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("API server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting API server", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("API server error", "error", err)
		os.Exit(1)
	}
}

// newMailer selects the mail implementation from config; there is no runtime
// fallback between drivers.
func newMailer(cfg *config.Config) mailer.Service {
	switch cfg.Email.Driver {
	case "mailersend":
		return mailer.NewMailer(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	case "smtp":
		return mailer.NewSMTPMailer(
			cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPFrom,
			cfg.Email.SMTPUser, cfg.Email.SMTPPass, cfg.Email.SMTPUseTLS,
		)
	default:
		return mailer.NewDevMailer()
	}
}

func newMediaStore(cfg *config.Config) media.Store {
	switch cfg.Media.Driver {
	case "cloudinary":
		store, err := media.NewCloudinaryStore(cfg.Media.CloudinaryURL)
		if err != nil {
			logger.Error("Failed to init Cloudinary", "error", err)
			os.Exit(1)
		}
		return store
	default:
		return media.NewDevStore()
	}
}

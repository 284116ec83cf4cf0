package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/chatify/edge-server-go/internal/config"
	"github.com/chatify/edge-server-go/internal/database"
	"github.com/chatify/edge-server-go/internal/handler"
	"github.com/chatify/edge-server-go/internal/jobs"
	"github.com/chatify/edge-server-go/internal/middleware"
	"github.com/chatify/edge-server-go/internal/redis"
	"github.com/chatify/edge-server-go/internal/repository"
	"github.com/chatify/edge-server-go/internal/service"
	"github.com/chatify/edge-server-go/internal/session"
	"github.com/chatify/edge-server-go/internal/sse"
	"github.com/chatify/edge-server-go/internal/upstream"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	sessionRepo := repository.NewSessionRepository(db.DB)

	flash := session.NewRedisFlash(redisClient, config.FlashTTL)
	manager := session.NewManager(sessionRepo, flash, cfg.EncryptionKey)

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	upstreamClient := upstream.NewClient(cfg.UpstreamBaseURL)
	chatService := service.NewChatService(upstreamClient)

	sessionMiddleware := middleware.NewSessionMiddleware(manager)
	loginRateLimiter := middleware.NewLoginRateLimiter(redisClient.Client, cfg.LoginRatePerMin)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	authHandler := handler.NewAuthHandler(upstreamClient, manager, isProduction)
	chatHandler := handler.NewChatHandler(chatService, manager, broker)
	spotifyHandler := handler.NewSpotifyHandler(upstreamClient, manager)
	sessionHandler := handler.NewSessionHandler(manager)
	eventsHandler := handler.NewEventsHandler(broker)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware.Handler)
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/v1/auth", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
		r.Mount("/", authHandler.Routes(sessionMiddleware.Handler, loginRateLimiter.Handler))
	})

	r.Get("/v1/session", sessionHandler.Status)

	r.Route("/v1/chat", func(r chi.Router) {
		r.Use(sessionMiddleware.Handler)
		r.Mount("/", chatHandler.Routes())
	})

	r.Route("/v1/spotify", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
		r.Use(sessionMiddleware.Handler)
		r.Mount("/", spotifyHandler.Routes())
	})

	r.Route("/v1/events", func(r chi.Router) {
		r.Use(sessionMiddleware.Handler)
		r.Get("/", eventsHandler.ServeHTTP)
	})

	cleanupJob := jobs.NewCleanupJob(sessionRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0, // SSE and slow chat turns manage their own deadlines
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

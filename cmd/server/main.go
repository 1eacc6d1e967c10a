package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/goaltime/goaltime/internal/config"
	"github.com/goaltime/goaltime/internal/database"
	"github.com/goaltime/goaltime/internal/handler"
	"github.com/goaltime/goaltime/internal/logger"
	"github.com/goaltime/goaltime/internal/metrics"
	"github.com/goaltime/goaltime/internal/middleware"
	"github.com/goaltime/goaltime/internal/queue"
	"github.com/goaltime/goaltime/internal/repository"
	"github.com/goaltime/goaltime/internal/router"
	"github.com/goaltime/goaltime/internal/service"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Config{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("database migration failed")
		}
	}

	rdb := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}

	// Booking events are optional; without a broker the services run
	// with a nil publisher.
	var events service.EventPublisher
	qcfg := config.LoadQueueConfig()
	if qcfg.Enabled() {
		events = queue.NewPublisher(qcfg.URL, qcfg.Queue)
		if qcfg.ConsumerEnabled {
			go runBookingConsumer(ctx, qcfg)
		}
	}

	users := repository.NewUserRepo(db)
	stadiums := repository.NewStadiumRepo(db)
	sessions := repository.NewSessionRepo(db)

	authSvc := service.NewAuthService(users, cfg.JWTSecret, cfg.JWTExpiresIn, cfg.BcryptCost)
	userSvc := service.NewUserService(users, cfg.BcryptCost)
	stadiumSvc := service.NewStadiumService(stadiums)
	sessionSvc := service.NewSessionService(sessions, events)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(logger.Middleware())
	e.Use(metrics.Middleware())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	cache := router.Cache{Cfg: config.LoadCacheConfig(), Redis: rdb}
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc), authSvc)
	router.RegisterUsers(e, handler.NewUserHandler(userSvc, sessionSvc), authSvc, cache)
	router.RegisterStadiums(e, handler.NewStadiumHandler(stadiumSvc), authSvc, cache)
	router.RegisterSessions(e, handler.NewSessionHandler(sessionSvc), authSvc, cache)

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func runBookingConsumer(ctx context.Context, qcfg config.QueueConfig) {
	log := logger.L()
	w, err := queue.NewBookingLog(qcfg.BookingLogPath)
	if err != nil {
		log.Error().Err(err).Str("path", qcfg.BookingLogPath).Msg("booking log unavailable, consumer not started")
		return
	}
	defer w.Close()
	if err := queue.StartBookingConsumer(ctx, qcfg.URL, qcfg.Queue, w); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("booking consumer stopped")
	}
}

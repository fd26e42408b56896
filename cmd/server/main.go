package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hall-booking/internal/booking"
	"github.com/iliyamo/hall-booking/internal/config"
	"github.com/iliyamo/hall-booking/internal/database"
	"github.com/iliyamo/hall-booking/internal/handler"
	"github.com/iliyamo/hall-booking/internal/logger"
	"github.com/iliyamo/hall-booking/internal/middleware"
	"github.com/iliyamo/hall-booking/internal/queue"
	"github.com/iliyamo/hall-booking/internal/repository"
	"github.com/iliyamo/hall-booking/internal/router"
	"github.com/iliyamo/hall-booking/internal/scheduler"
	"github.com/iliyamo/hall-booking/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.IsProduction())

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	rdb := config.NewRedisClient(log) // nil when Redis is unavailable

	window, err := booking.NewWindow(cfg.BookingOpen, cfg.BookingClose)
	if err != nil {
		log.WithError(err).Fatal("invalid booking window")
	}

	halls := repository.NewHallRepo(db)
	bookings := repository.NewBookingRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	departments := repository.NewDepartmentRepo(db)
	reports := repository.NewReportRepo(db)

	pub := queue.NewPublisher(cfg.AMQPURL, cfg.Exchange, log)
	notifier := service.NewBookingNotifier(halls, users, pub, log)
	core := booking.NewService(halls, bookings, notifier,
		booking.WithPolicy(booking.Policy{Window: window, PurposeMin: cfg.PurposeMin}))

	// Notification worker
	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	consumer := queue.NewConsumer(cfg.AMQPURL, cfg.Exchange, cfg.NotifyQueue, rdb,
		queue.NewFileMailer(cfg.NotifyLogPath, log), log)
	go func() {
		defer close(workerDone)
		if err := consumer.Run(workerCtx); err != nil {
			log.WithError(err).Error("notification worker stopped")
		}
	}()

	sched := scheduler.New(scheduler.Config{
		ReminderSpec:   cfg.ReminderCron,
		TokenPurgeSpec: cfg.TokenPurgeCron,
	}, bookings, notifier, tokens, log)
	if err := sched.Start(); err != nil {
		log.WithError(err).Fatal("scheduler setup failed")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.CORS())
	e.Use(middleware.RequestLogger(log))

	cacheCfg := config.LoadCacheConfig()
	invalidator := middleware.NewCacheInvalidator(cacheCfg, rdb, log)
	guards := router.Guards{
		JWTSecret: cfg.JWTSecret,
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		Cache: func(tag string) echo.MiddlewareFunc {
			return middleware.NewRedisCache(cacheCfg, rdb, tag, log)
		},
	}

	hallH := handler.NewHallHandler(halls, bookings, core, invalidator, log)
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, log), guards)
	router.RegisterPublic(e, hallH, handler.NewDepartmentHandler(departments, log), guards)
	router.RegisterBookings(e, handler.NewBookingHandler(core, bookings, log), guards)
	router.RegisterAdmin(e, handler.NewAdminHandler(cfg, core, bookings, users, tokens, reports, log), hallH, guards)

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	sched.Stop()
	stopWorker()
	select {
	case <-workerDone:
	case <-ctx.Done():
		log.Warn("notification worker did not stop in time")
	}
	if err := pub.Close(); err != nil {
		log.WithError(err).Warn("closing publisher")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	_ = db.Close()
}

package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // APP_TIMEZONE must resolve in minimal images

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/maddi-booking/internal/config"
	"github.com/iliyamo/maddi-booking/internal/database"
	"github.com/iliyamo/maddi-booking/internal/handler"
	"github.com/iliyamo/maddi-booking/internal/mail"
	"github.com/iliyamo/maddi-booking/internal/middleware"
	"github.com/iliyamo/maddi-booking/internal/queue"
	"github.com/iliyamo/maddi-booking/internal/realtime"
	"github.com/iliyamo/maddi-booking/internal/repository"
	"github.com/iliyamo/maddi-booking/internal/router"
	"github.com/iliyamo/maddi-booking/internal/service"
)

func setupLogger(cfg config.Config) *logrus.Entry {
	logger := logrus.StandardLogger()
	if cfg.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger.WithField("service", "maddi-booking")
}

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	log := setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.WithError(err).Fatal("schema migration failed")
		}
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	billboardRepo := repository.NewBillboardRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	invitationRepo := repository.NewInvitationRepo(db)
	adminRepo := repository.NewAdminRepo(db)
	notificationRepo := repository.NewNotificationRepo(db)

	if cfg.BootstrapAdmin != "" {
		if added, err := adminRepo.Bootstrap(ctx, cfg.BootstrapAdmin); err != nil {
			log.WithError(err).Warn("bootstrap admin failed")
		} else if added {
			log.WithField("email", cfg.BootstrapAdmin).Info("bootstrap super admin granted")
		}
	}

	rcfg := config.LoadRedisConfig()
	rdb := config.NewRedisClient(rcfg, log)
	var feed realtime.Feed = realtime.NewMemoryFeed()
	if rdb != nil {
		defer rdb.Close()
		feed = realtime.NewRedisFeed(rdb, rcfg.Prefix, log)
	}

	mailer := mail.New(cfg.SMTP, log)
	var emails service.EmailSink = mailer
	if cfg.RabbitURL != "" {
		pub := queue.NewPublisher(cfg.RabbitURL, log)
		defer pub.Close()
		emails = pub
		go func() {
			if err := queue.StartEmailConsumer(ctx, cfg.RabbitURL, mailer, log); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("email consumer stopped")
			}
		}()
	} else {
		log.Warn("RABBITMQ_URL not set; emails are sent inline")
	}

	dispatch := &service.Dispatcher{
		Notifications: notificationRepo,
		Emails:        emails,
		Feed:          feed,
		Timeout:       cfg.SideEffectTimeout,
		Log:           log.WithField("component", "dispatch"),
	}
	bookingSvc := service.NewBookingService(bookingRepo, billboardRepo, users, dispatch, cfg.Location, log)
	billboardSvc := service.NewBillboardService(billboardRepo, bookingRepo, dispatch, cfg.Location, log)
	invitationSvc := service.NewInvitationService(invitationRepo, adminRepo, dispatch, cfg.BaseURL, log)
	notificationSvc := service.NewNotificationService(notificationRepo)

	go bookingSvc.RunLifecycle(ctx, cfg.LifecycleInterval)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log.WithField("component", "http")))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log.WithField("component", "ratelimit")))

	authH := handler.NewAuthHandler(cfg, users, tokens, log)
	router.Register(e, router.Deps{
		JWTSecret:     cfg.JWTSecret,
		Auth:          authH,
		Billboards:    handler.NewBillboardHandler(billboardSvc, feed, log),
		Bookings:      handler.NewBookingHandler(bookingSvc, log),
		Notifications: handler.NewNotificationHandler(notificationSvc, log),
		Admin:         handler.NewAdminHandler(invitationSvc, bookingSvc, authH, log),
		Admins: middleware.AdminResolverFunc(func(ctx context.Context, userID uint64) (string, error) {
			role, err := invitationSvc.ResolveAdmin(ctx, userID)
			return string(role), err
		}),
		Ready: handler.Ready(db),
		Cache: middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		Log:   log,
	})

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "tz": cfg.Location.String()}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	log.Info("stopped")
}

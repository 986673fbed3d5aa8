package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-marketplace/internal/config"
	"github.com/iliyamo/rental-marketplace/internal/database"
	"github.com/iliyamo/rental-marketplace/internal/handler"
	"github.com/iliyamo/rental-marketplace/internal/jobs"
	"github.com/iliyamo/rental-marketplace/internal/mailer"
	"github.com/iliyamo/rental-marketplace/internal/middleware"
	"github.com/iliyamo/rental-marketplace/internal/payment"
	"github.com/iliyamo/rental-marketplace/internal/repository"
	"github.com/iliyamo/rental-marketplace/internal/router"
	"github.com/iliyamo/rental-marketplace/internal/scheduler"
	"github.com/iliyamo/rental-marketplace/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Env == "dev" {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("open database failed")
	}
	defer db.Close()

	gateway, err := payment.NewOmiseGateway(cfg.OmisePublicKey, cfg.OmiseSecretKey, cfg.OmiseCurrency, cfg.OmiseSourceType)
	if err != nil {
		log.WithError(err).Fatal("init payment gateway failed")
	}

	users := repository.NewUserRepo(db)
	properties := repository.NewPropertyRepo(db)
	requests := repository.NewBookingRequestRepo(db)
	bookings := repository.NewBookingRepo(db)
	wallets := repository.NewWalletRepo(db)
	transactions := repository.NewTransactionRepo(db)
	settings := repository.NewSettingsRepo(db)
	settlements := repository.NewSettlementRepo(db)
	jobStore := repository.NewJobRepo(db)

	mail := mailer.NewPublisher(cfg.RabbitURL, log)
	go func() {
		if err := mailer.StartConsumer(cfg.RabbitURL, log); err != nil {
			log.WithError(err).Error("mail consumer stopped")
		}
	}()

	sched := scheduler.New(jobStore, scheduler.Options{
		PollInterval: time.Duration(cfg.SchedulerPollSecs) * time.Second,
		Logger:       log,
	})
	handlers := &jobs.Handlers{
		Requests:   requests,
		Properties: properties,
		Mailer:     mail,
		Clock:      scheduler.SystemClock{},
		Log:        log,
	}
	handlers.Register(sched)
	sched.Start()
	defer sched.Stop()

	dashboards := service.Dashboards{Landlord: cfg.LandlordDashboardURL, Tenant: cfg.TenantDashboardURL}
	bookingSvc := &service.BookingService{
		Requests:   requests,
		Properties: properties,
		Users:      users,
		Settings:   settings,
		Confirmed:  bookings,
		Jobs:       sched,
		Clock:      scheduler.SystemClock{},
		Log:        log,
		Dashboards: dashboards,
	}
	settlementSvc := &service.SettlementService{
		Requests:   requests,
		Properties: properties,
		Users:      users,
		Store:      settlements,
		Gateway:    gateway,
		Jobs:       sched,
		Clock:      scheduler.SystemClock{},
		Log:        log,
		ReturnURI:  cfg.PaymentReturnURI,
	}
	walletSvc := &service.WalletService{
		Wallets:      wallets,
		Transactions: transactions,
		Log:          log,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	if rdb := config.NewRedisClient(); rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	} else {
		log.Warn("redis unreachable, rate limiting disabled")
	}

	router.Register(e, router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, users),
		Property: handler.NewPropertyHandler(properties),
		Requests: handler.NewBookingRequestHandler(bookingSvc),
		Payments: handler.NewPaymentHandler(settlementSvc),
		Wallet:   handler.NewWalletHandler(walletSvc),
		Admin:    handler.NewAdminHandler(walletSvc),
	}, cfg.JWTSecret)

	go func() {
		addr := ":" + cfg.Port
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}
}

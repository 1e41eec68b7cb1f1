// File: fixhive/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fixhive/config"
	"fixhive/cron"
	"fixhive/database"
	bookingRepoPkg "fixhive/database/repository/booking"
	customerRepoPkg "fixhive/database/repository/customer"
	requestRepoPkg "fixhive/database/repository/request"
	searchRepoPkg "fixhive/database/repository/search"
	technicianRepoPkg "fixhive/database/repository/technician"
	"fixhive/handlers"
	"fixhive/models"
	"fixhive/routes"
	"fixhive/services/booking"
	"fixhive/services/geocoder"
	"fixhive/services/matching"
	"fixhive/services/notification"
	"fixhive/services/payment"
	"fixhive/services/realtime"
	"fixhive/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitRealtime()
	utils.FirebaseInit()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	// repositories.
	techRepo := technicianRepoPkg.NewMongoTechnicianRepo()
	bookRepo := bookingRepoPkg.NewMongoBookingRepo()
	reqRepo := requestRepoPkg.NewMongoRequestRepo()
	stateRepo := searchRepoPkg.NewMongoSearchStateRepo()
	custRepo := customerRepoPkg.NewMongoCustomerRepo()

	// supporting services.
	realtimeChannel := realtime.NewRedisChannel(utils.GetRealtimeClient())
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisPushQueueDB,
	})
	defer asynqClient.Close()
	notifier := notification.NewQueueSink(asynqClient, logger)

	searchEngine := matching.NewDefaultSearchEngine(
		techRepo,
		stateRepo,
		utils.GetCacheClient(),
		realtimeChannel,
		logger,
	)

	bookingService := &booking.DefaultBookingService{
		Bookings:    bookRepo,
		Requests:    reqRepo,
		Technicians: techRepo,
		Customers:   custRepo,
		Engine:      searchEngine,
		Notifier:    notifier,
		Realtime:    realtimeChannel,
		Payments: payment.NewStripeGateway(
			config.AppConfig.StripeKey,
			config.AppConfig.PaymentReturnURL,
			config.AppConfig.PaymentCancelURL,
		),
		Commission: booking.DefaultCommission,
		Geocoder:   geocoder.NewGoogleGeocoder(config.AppConfig.GoogleAPIKey),
		Logger:     logger,
	}

	// handlers.
	handlerBundle := &handlers.HandlerBundle{
		Booking:    handlers.NewBookingHandler(bookingService),
		Technician: handlers.NewTechnicianHandler(techRepo),
		Payment:    handlers.NewPaymentHandler(bookingService),
	}
	routes.RegisterRoutes(router, handlerBundle)

	// background jobs.
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	sweeper := cron.NewSweeper(
		reqRepo,
		stateRepo,
		searchEngine,
		time.Duration(config.AppConfig.SweepIntervalSeconds)*time.Second,
		time.Duration(config.AppConfig.SearchLookbackMinutes)*time.Minute,
		logger,
	)
	go sweeper.Run(sweeperCtx)

	cron.InitPushWorker(func(ctx context.Context, target, id string) (string, error) {
		if target == models.PushTargetTechnician {
			tech, err := techRepo.GetByID(ctx, id)
			if err != nil {
				return "", err
			}
			return tech.FCMToken, nil
		}
		customer, err := custRepo.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return customer.FCMToken, nil
	})

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")
	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

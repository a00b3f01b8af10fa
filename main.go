package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"hotel-inventory/config"
	"hotel-inventory/controllers"
	"hotel-inventory/events"
	"hotel-inventory/routes"
	"hotel-inventory/services"
)

func main() {
	// .env is optional
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := config.NewLogger(cfg)
	if envErr != nil {
		log.Debug(".env not found; using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := config.OpenStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("database connect failed")
	}
	log.WithField("driver", cfg.DBDriver).Info("store ready")

	opts := cfg.ServiceOptions(log)
	notifiers := []services.BookingNotifier{events.NewEmailNotifier(cfg.SMTP(), log)}

	var publisher *events.Publisher
	if cfg.RabbitURL != "" {
		publisher, err = events.NewPublisher(cfg.RabbitURL, cfg.BookingExchange)
		if err != nil {
			log.WithError(err).Fatal("rabbitmq publisher")
		}
		defer publisher.Close()
		notifiers = append(notifiers, events.NewBookingPublisher(publisher))
	}

	availabilitySvc := services.NewAvailabilityService(store, opts)
	pricingSvc := services.NewPriceComposer(store, opts)
	bookingSvc := services.NewBookingService(store, pricingSvc, availabilitySvc, opts, notifiers...)
	guestSvc := services.NewGuestService(store, opts)
	roomTypeSvc := services.NewRoomTypeService(store, opts)
	roomSvc := services.NewRoomService(store, opts)
	adminSvc := services.NewAdminService(store, cfg.JWTSecret, cfg.JWTTTL(), opts)

	consumerDone := make(chan struct{})
	if cfg.RabbitURL != "" {
		consumer, err := events.NewConsumer(events.ConsumerConfig{
			URL:      cfg.RabbitURL,
			Exchange: cfg.PaymentExchange,
			Queue:    cfg.PaymentQueue,
			Bindings: []string{events.RKPaymentSucceeded},
			Prefetch: cfg.Prefetch,
			DLXName:  cfg.PaymentExchange + ".dlx",
			Tag:      "hotel-inventory",
		})
		if err != nil {
			log.WithError(err).Fatal("rabbitmq consumer")
		}
		defer consumer.Close()
		deliveries, err := consumer.Deliveries(ctx)
		if err != nil {
			log.WithError(err).Fatal("rabbitmq consume")
		}
		go func() {
			defer close(consumerDone)
			_ = events.NewPaymentConsumer(bookingSvc, log).Run(ctx, deliveries)
		}()
		log.WithField("queue", cfg.PaymentQueue).Info("payment consumer started")
	} else {
		close(consumerDone)
		log.Info("RABBIT_URL not set; payment events only via HTTP")
	}

	if cfg.PaymentWebhookSecret == "" {
		log.Warn("PAYMENT_WEBHOOK_SECRET not set; HTTP payment callbacks are refused")
	}

	router := routes.SetupRouter(routes.Controllers{
		Availability: controllers.NewAvailabilityController(availabilitySvc),
		Catalog:      controllers.NewCatalogController(pricingSvc),
		Booking:      controllers.NewBookingController(bookingSvc),
		RoomType:     controllers.NewRoomTypeController(roomTypeSvc),
		Room:         controllers.NewRoomController(roomSvc),
		Guest:        controllers.NewGuestController(guestSvc, cfg.DocumentDir),
		Auth:         controllers.NewAuthController(adminSvc),
		Admin:        controllers.NewAdminController(adminSvc, cfg.SMTP(), strings.TrimRight(cfg.FrontendURL, "/")+"/admin/login", log),
	}, routes.Options{
		Origins:       cfg.Origins(),
		UploadDir:     cfg.UploadDir,
		DocumentDir:   cfg.DocumentDir,
		JWTSecret:     cfg.JWTSecret,
		PaymentSecret: cfg.PaymentWebhookSecret,
		Log:           log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen")
		}
	}()

	<-ctx.Done()
	log.Warn("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	<-consumerDone
	bookingSvc.Wait()
	log.Info("server stopped")
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/travelbooking/api"
	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/afs"
	"github.com/Domenick1991/travelbooking/internal/auth"
	"github.com/Domenick1991/travelbooking/internal/bootstrap"
	"github.com/Domenick1991/travelbooking/internal/cache"
	"github.com/Domenick1991/travelbooking/internal/kafka"
	"github.com/Domenick1991/travelbooking/internal/logger"
	"github.com/Domenick1991/travelbooking/internal/repository"
	authservice "github.com/Domenick1991/travelbooking/internal/service/auth"
	"github.com/Domenick1991/travelbooking/internal/service/booking"
	"github.com/Domenick1991/travelbooking/internal/service/flights"
	"github.com/Domenick1991/travelbooking/internal/service/hotels"
	"github.com/Domenick1991/travelbooking/internal/service/notifications"
	"github.com/Domenick1991/travelbooking/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		zl.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := repository.Migrate(ctx, pool); err != nil {
			zl.Fatal("migrate database", zap.Error(err))
		}
	}
	store := repository.NewStore(pool)

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		zl.Warn("redis unavailable, flight cache and checkout lock degrade", zap.Error(err))
	}

	var (
		dispatcherOpts = []notifications.Option{notifications.WithLogger(zl)}
		bookingOpts    = []booking.BookingServiceOption{
			booking.WithLogger(zl),
			booking.WithEmptyCheckout(cfg.Booking.EmptyCheckoutAllowed()),
			booking.WithCheckoutLock(redisCache, time.Duration(cfg.Booking.CheckoutLockSeconds)*time.Second),
		}
		hotelOpts = []hotels.Option{hotels.WithLogger(zl)}
	)

	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, zl)
		defer producer.Close()
		dispatcherOpts = append(dispatcherOpts, notifications.WithProducer(producer, cfg.Kafka.NotificationsTopic))
		bookingOpts = append(bookingOpts, booking.WithEvents(producer, cfg.Kafka.BookingEventsTopic))
	} else {
		zl.Warn("kafka brokers not configured, events are not published")
	}

	if cfg.Cloudinary.Enabled() {
		images, err := storage.NewCloudinaryStore(cfg.Cloudinary)
		if err != nil {
			zl.Fatal("init cloudinary", zap.Error(err))
		}
		hotelOpts = append(hotelOpts, hotels.WithImageStore(images))
	}

	gateway := afs.NewClient(cfg.FlightAPI)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	dispatcher := notifications.NewDispatcher(store.Notifications(), dispatcherOpts...)

	handlers := api.Handlers{
		Auth:          api.NewAuthHandler(authservice.NewAuthService(store.Users(), tokens)),
		Flights:       api.NewFlightHandler(flights.NewFlightService(gateway, redisCache, zl)),
		Hotels:        api.NewHotelHandler(hotels.NewHotelService(store, dispatcher, hotelOpts...)),
		Bookings:      api.NewBookingHandler(booking.NewBookingService(store, gateway, dispatcher, bookingOpts...)),
		Notifications: api.NewNotificationHandler(dispatcher),
	}

	if err := bootstrap.Run(ctx, cfg, zl, tokens, handlers); err != nil {
		zl.Fatal("server error", zap.Error(err))
	}
	zl.Info("server stopped")
}

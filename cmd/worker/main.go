package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/afs"
	"github.com/Domenick1991/travelbooking/internal/email"
	"github.com/Domenick1991/travelbooking/internal/kafka"
	"github.com/Domenick1991/travelbooking/internal/logger"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"github.com/Domenick1991/travelbooking/internal/service/booking"
	"github.com/Domenick1991/travelbooking/internal/service/notifications"
	"github.com/jackc/pgx/v5/pgxpool"
	kafkaGo "github.com/segmentio/kafka-go"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		zl.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	store := repository.NewStore(pool)
	producer := kafka.NewProducer(cfg.Kafka.Brokers, zl)
	defer producer.Close()

	dispatcher := notifications.NewDispatcher(store.Notifications(),
		notifications.WithProducer(producer, cfg.Kafka.NotificationsTopic),
		notifications.WithLogger(zl),
	)
	bookingService := booking.NewBookingService(store, afs.NewClient(cfg.FlightAPI), dispatcher,
		booking.WithEvents(producer, cfg.Kafka.BookingEventsTopic),
		booking.WithLogger(zl),
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	emailSender := email.NewSender(store.Users(), zl)

	go func() {
		err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			event, err := kafka.DecodeEvent(msg)
			if err != nil {
				zl.Warn("skip undecodable event", zap.Error(err))
				return nil
			}
			if _, err := emailSender.Send(ctx, event); err != nil {
				zl.Error("send email", zap.Int64("user_id", event.UserID), zap.Error(err))
			}
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			zl.Error("consumer stopped", zap.Error(err))
		}
	}()

	verifyTicker := time.NewTicker(time.Duration(cfg.Worker.FlightVerificationMinutes) * time.Minute)
	defer verifyTicker.Stop()

	zl.Info("worker started",
		zap.String("notifications_topic", cfg.Kafka.NotificationsTopic),
		zap.Int("verification_minutes", cfg.Worker.FlightVerificationMinutes),
	)

	for {
		select {
		case <-verifyTicker.C:
			changed, err := bookingService.VerifyScheduledFlights(ctx, cfg.Worker.VerificationBatch)
			if err != nil {
				zl.Error("verify scheduled flights", zap.Error(err))
				continue
			}
			if changed > 0 {
				zl.Info("cancelled flight bookings after schedule changes", zap.Int("count", changed))
			}
		case <-ctx.Done():
			zl.Info("shutting down worker")
			return
		}
	}
}

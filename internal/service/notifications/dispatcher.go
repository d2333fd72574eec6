package notifications

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/kafka"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"go.uber.org/zap"
)

type NotificationUseCase interface {
	Notify(ctx context.Context, userID int64, message string) error
	List(ctx context.Context, userID int64, unreadOnly bool) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type Dispatcher struct {
	repo     repository.NotificationRepository
	producer Producer
	topic    string
	log      *zap.Logger
	now      func() time.Time
}

type Option func(*Dispatcher)

func WithProducer(producer Producer, topic string) Option {
	return func(d *Dispatcher) {
		d.producer = producer
		d.topic = topic
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(d *Dispatcher) {
		d.log = log
	}
}

func NewDispatcher(repo repository.NotificationRepository, opts ...Option) *Dispatcher {
	d := &Dispatcher{repo: repo, log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify stores an unread notification and forwards it to the notifications topic.
// A failed publish is logged; the stored row is what the user sees.
func (d *Dispatcher) Notify(ctx context.Context, userID int64, message string) error {
	n := &domain.Notification{UserID: userID, Message: message}
	if err := d.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	if d.producer == nil || d.topic == "" {
		return nil
	}
	event := kafka.Event{
		Type:       kafka.EventNotificationAdded,
		UserID:     userID,
		Message:    message,
		OccurredAt: d.now(),
	}
	if err := d.producer.Publish(ctx, d.topic, strconv.FormatInt(userID, 10), event); err != nil {
		d.log.Warn("publish notification failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	return nil
}

func (d *Dispatcher) List(ctx context.Context, userID int64, unreadOnly bool) ([]domain.Notification, error) {
	return d.repo.ListByUser(ctx, userID, unreadOnly)
}

func (d *Dispatcher) MarkRead(ctx context.Context, userID, notificationID int64) error {
	return d.repo.MarkRead(ctx, userID, notificationID)
}

var _ NotificationUseCase = (*Dispatcher)(nil)

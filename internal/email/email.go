// Package email delivers user notifications by mail. Delivery is log-backed:
// the rendered message is written to the logger instead of an SMTP relay.
package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/kafka"
	"go.uber.org/zap"
)

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

const notificationSubject = "Travel booking notification"

type Message struct {
	To      string
	Subject string
	Body    string
}

type Sender struct {
	users UserLookup
	log   *zap.Logger
}

func NewSender(users UserLookup, log *zap.Logger) *Sender {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sender{users: users, log: log}
}

// Send mails the event to its user. Unknown users are skipped so one bad
// event does not stall the consumer.
func (s *Sender) Send(ctx context.Context, event kafka.Event) (*Message, error) {
	user, err := s.users.GetByID(ctx, event.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		s.log.Warn("skip email for unknown user", zap.Int64("user_id", event.UserID), zap.String("type", event.Type))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user %d: %w", event.UserID, err)
	}

	msg := Compose(user, event)
	s.log.Info("email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return msg, nil
}

func Compose(user *domain.User, event kafka.Event) *Message {
	return &Message{
		To:      user.Email,
		Subject: notificationSubject,
		Body:    fmt.Sprintf("Hello %s,\n\n%s\n", user.FullName(), event.Message),
	}
}

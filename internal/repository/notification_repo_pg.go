package repository

import (
	"context"

	"github.com/Domenick1991/travelbooking/internal/domain"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, id int64) error
}

type PGNotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) NotificationRepository {
	return &PGNotificationRepository{db: db}
}

func (r *PGNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	n.Read = false
	return r.db.QueryRow(ctx, `INSERT INTO notifications (user_id, message, read) VALUES ($1, $2, FALSE) RETURNING id, created_at`, n.UserID, n.Message).
		Scan(&n.ID, &n.CreatedAt)
}

func (r *PGNotificationRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]domain.Notification, error) {
	rows, err := r.db.Query(ctx, `SELECT id, user_id, message, read, created_at FROM notifications
		WHERE user_id=$1 AND (NOT $2 OR read = FALSE)
		ORDER BY created_at DESC, id DESC`, userID, unreadOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Notification, 0)
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *PGNotificationRepository) MarkRead(ctx context.Context, userID, id int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ NotificationRepository = (*PGNotificationRepository)(nil)

package repository

import (
	"context"

	"github.com/avdeenkov/flightbook/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID int64) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
}

type PGNotificationRepository struct {
	db *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) NotificationRepository {
	return &PGNotificationRepository{db: db}
}

func (r *PGNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return r.db.QueryRow(ctx, `INSERT INTO notifications (user_id, title, message, booking_id, schedule_id, payment_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		n.UserID, n.Title, n.Message, n.BookingID, n.ScheduleID, n.PaymentID).
		Scan(&n.ID, &n.CreatedAt)
}

func (r *PGNotificationRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Notification, error) {
	rows, err := r.db.Query(ctx, `SELECT id, user_id, title, message, booking_id, schedule_id, payment_id, read, created_at
		FROM notifications WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]domain.Notification, 0)
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.BookingID, &n.ScheduleID, &n.PaymentID, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *PGNotificationRepository) MarkRead(ctx context.Context, id, userID int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE notifications SET read = true WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ NotificationRepository = (*PGNotificationRepository)(nil)

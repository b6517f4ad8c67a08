package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/maddi-booking/internal/model"
)

// NotificationRepo persists in-app notifications.
type NotificationRepo struct{ db *sql.DB }

// NewNotificationRepo returns a NotificationRepo bound to db.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// CreateNotification inserts n and fills in its id.
func (r *NotificationRepo) CreateNotification(ctx context.Context, n *model.Notification) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO notifications
		(user_id, title, message, type, related_booking_id, related_billboard_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.UserID, n.Title, n.Message, string(n.Type), n.RelatedBookingID, n.RelatedBillboardID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return nil
}

// ListForUser returns up to limit notifications of a user, newest first.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID uint64, unreadOnly bool, limit int) ([]model.Notification, error) {
	q := `SELECT id, user_id, title, message, type, related_booking_id, related_billboard_id, is_read, created_at
		FROM notifications WHERE user_id = ?`
	if unreadOnly {
		q += " AND is_read = 0"
	}
	q += " ORDER BY created_at DESC, id DESC LIMIT ?"

	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Notification, 0)
	for rows.Next() {
		var (
			n         model.Notification
			kind      string
			booking   sql.NullInt64
			billboard sql.NullInt64
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &kind, &booking, &billboard,
			&n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Type = model.NotificationType(kind)
		if booking.Valid {
			v := uint64(booking.Int64)
			n.RelatedBookingID = &v
		}
		if billboard.Valid {
			v := uint64(billboard.Int64)
			n.RelatedBillboardID = &v
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flags one notification of userID as read. It returns
// ErrNotFound when the notification does not belong to the user.
func (r *NotificationRepo) MarkRead(ctx context.Context, userID, id uint64) error {
	var owner uint64
	err := r.db.QueryRowContext(ctx, "SELECT user_id FROM notifications WHERE id = ?", id).Scan(&owner)
	if err == sql.ErrNoRows || (err == nil && owner != userID) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, "UPDATE notifications SET is_read = 1 WHERE id = ?", id)
	return err
}

// MarkAllRead flags every notification of userID as read and returns how
// many changed.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

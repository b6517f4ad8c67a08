package service

import (
	"context"

	"github.com/iliyamo/maddi-booking/internal/model"
)

// NotificationStore reads and updates a user's inbox.
type NotificationStore interface {
	NotificationSink
	ListForUser(ctx context.Context, userID uint64, unreadOnly bool, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID, id uint64) error
	MarkAllRead(ctx context.Context, userID uint64) (int64, error)
}

// NotificationService exposes the in-app inbox.
type NotificationService struct {
	Store NotificationStore
}

func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{Store: store}
}

// List returns up to limit notifications (default 50, max 200).
func (s *NotificationService) List(ctx context.Context, caller Identity, unreadOnly bool, limit int) ([]model.Notification, error) {
	if caller.UserID == 0 {
		return nil, fail(ErrUnauthorized, "sign in to read notifications")
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	out, err := s.Store.ListForUser(ctx, caller.UserID, unreadOnly, limit)
	if err != nil {
		return nil, storeErr("list notifications", err)
	}
	return out, nil
}

// MarkRead flags one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, caller Identity, id uint64) error {
	return storeErr("notification", s.Store.MarkRead(ctx, caller.UserID, id))
}

// MarkAllRead clears the caller's unread badge.
func (s *NotificationService) MarkAllRead(ctx context.Context, caller Identity) (int64, error) {
	n, err := s.Store.MarkAllRead(ctx, caller.UserID)
	return n, storeErr("mark all read", err)
}

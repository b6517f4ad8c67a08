package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/maddi-booking/internal/model"
	"github.com/iliyamo/maddi-booking/internal/repository"
)

type inboxFake struct {
	mu        sync.Mutex
	items     []model.Notification
	lastLimit int
}

func (f *inboxFake) CreateNotification(_ context.Context, n *model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = uint64(len(f.items) + 1)
	f.items = append(f.items, *n)
	return nil
}

func (f *inboxFake) ListForUser(_ context.Context, userID uint64, unreadOnly bool, limit int) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	var out []model.Notification
	for _, n := range f.items {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *inboxFake) MarkRead(_ context.Context, userID, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id && f.items[i].UserID == userID {
			f.items[i].IsRead = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *inboxFake) MarkAllRead(_ context.Context, userID uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.items {
		if f.items[i].UserID == userID && !f.items[i].IsRead {
			f.items[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func TestNotificationInbox(t *testing.T) {
	inbox := &inboxFake{}
	svc := NewNotificationService(inbox)
	ctx := context.Background()
	d := &Dispatcher{Notifications: inbox, Log: quietLog()}
	for i := 0; i < 3; i++ {
		d.Notify(ctx, model.Notification{UserID: 7, Title: "t", Type: model.NotifyBookingApproved})
	}
	d.Notify(ctx, model.Notification{UserID: 8, Title: "other", Type: model.NotifyBookingRequest})

	me := Identity{UserID: 7}
	list, err := svc.List(ctx, me, false, 0)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, 50, inbox.lastLimit)

	_, err = svc.List(ctx, me, false, 5000)
	require.NoError(t, err)
	assert.Equal(t, 200, inbox.lastLimit)

	require.NoError(t, svc.MarkRead(ctx, me, list[0].ID))
	assert.ErrorIs(t, svc.MarkRead(ctx, me, 4), ErrNotFound, "someone else's notification")

	unread, err := svc.List(ctx, me, true, 10)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	n, err := svc.MarkAllRead(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = svc.List(ctx, Identity{}, false, 10)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestNilDispatcherIsSafe(t *testing.T) {
	var d *Dispatcher
	ctx := context.Background()
	assert.NotPanics(t, func() {
		d.Notify(ctx, model.Notification{UserID: 1})
		d.Email(ctx, model.EmailMessage{RecipientEmail: "a@b.c"})
		d.Changed(ctx, 1, "bookings", 0)
	})
}

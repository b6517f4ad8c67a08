package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/maddi-booking/internal/model"
)

// BookingRepo persists booking requests. Calendar days are exchanged as
// YYYY-MM-DD strings; DATE columns are read through DATE_FORMAT.
type BookingRepo struct{ db *sql.DB }

// NewBookingRepo returns a BookingRepo bound to db.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `b.id, b.billboard_id, b.business_id,
	DATE_FORMAT(b.start_date, '%Y-%m-%d'), DATE_FORMAT(b.end_date, '%Y-%m-%d'),
	b.total_price_cents, b.status, b.start_notified_at, b.created_at, b.updated_at`

func scanBooking(s rowScanner) (model.Booking, error) {
	var (
		bk       model.Booking
		status   string
		notified sql.NullTime
	)
	err := s.Scan(&bk.ID, &bk.BillboardID, &bk.BusinessID, &bk.StartDate, &bk.EndDate,
		&bk.TotalPrice, &status, &notified, &bk.CreatedAt, &bk.UpdatedAt)
	if err != nil {
		return model.Booking{}, err
	}
	bk.Status = model.BookingStatus(status)
	if notified.Valid {
		t := notified.Time
		bk.StartNotifiedAt = &t
	}
	return bk, nil
}

// CreateBooking inserts b as given (normally pending) and refreshes it from
// the stored row.
func (r *BookingRepo) CreateBooking(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (billboard_id, business_id, start_date, end_date, total_price_cents, status)
		VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, b.BillboardID, b.BusinessID, b.StartDate, b.EndDate,
		b.TotalPrice, string(b.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetBooking(ctx, uint64(id))
	if err != nil {
		return err
	}
	*b = created
	return nil
}

// GetBooking returns a booking by id or ErrNotFound.
func (r *BookingRepo) GetBooking(ctx context.Context, id uint64) (model.Booking, error) {
	bk, err := scanBooking(r.db.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings b WHERE b.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrNotFound
	}
	return bk, err
}

const (
	// lockBillboardQ locks the booking and its billboard in one locking read.
	lockBillboardQ = `SELECT bb.id FROM bookings b
		JOIN billboards bb ON bb.id = b.billboard_id
		WHERE b.id = ? FOR UPDATE`
	// overlapQ counts approved bookings sharing a day with [start, end].
	// LOCK IN SHARE MODE makes it a locking read on MySQL 5.7 and 8.
	overlapQ = `SELECT COUNT(*) FROM bookings
		WHERE billboard_id = ? AND status = 'approved' AND id <> ?
		  AND start_date <= ? AND end_date >= ?
		LOCK IN SHARE MODE`
)

// ApproveBooking approves a pending booking inside one transaction. The
// billboard row is locked first so that two approvals on the same billboard
// serialize; with exclusive set, any approved booking overlapping the
// candidate's inclusive date range aborts the approval with ErrConflict.
//
// InnoDB runs this under REPEATABLE READ, where a plain SELECT reads the
// snapshot taken by the transaction's first plain read. Every read below is
// therefore a locking read, which always sees the latest committed rows, so
// an approval committed while we waited on the billboard lock is counted.
func (r *BookingRepo) ApproveBooking(ctx context.Context, id uint64, exclusive bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var billboardID uint64
	err = tx.QueryRowContext(ctx, lockBillboardQ, id).Scan(&billboardID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	bk, err := scanBooking(tx.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings b WHERE b.id = ? FOR UPDATE", id))
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if bk.Status != model.BookingPending {
		return ErrStatusChanged
	}

	if exclusive {
		var overlapping int
		if err = tx.QueryRowContext(ctx, overlapQ, billboardID, id, bk.EndDate, bk.StartDate).Scan(&overlapping); err != nil {
			return err
		}
		if overlapping > 0 {
			return ErrConflict
		}
	}

	if _, err = tx.ExecContext(ctx,
		"UPDATE bookings SET status = 'approved' WHERE id = ? AND status = 'pending'", id); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// TransitionBooking moves a booking from one status to another only if it
// is still in from. It returns ErrNotFound for an unknown id and
// ErrStatusChanged when the row has already moved on.
func (r *BookingRepo) TransitionBooking(ctx context.Context, id uint64, from, to model.BookingStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET status = ? WHERE id = ? AND status = ?", string(to), id, string(from))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	if _, err := r.GetBooking(ctx, id); err != nil {
		return err
	}
	return ErrStatusChanged
}

// ListApprovedEndingBy returns approved bookings whose last day is on or
// before day; the daily pass completes all of them, catching up missed runs.
func (r *BookingRepo) ListApprovedEndingBy(ctx context.Context, day string) ([]model.Booking, error) {
	return r.list(ctx, "SELECT "+bookingColumns+
		" FROM bookings b WHERE b.status = 'approved' AND b.end_date <= ? ORDER BY b.end_date, b.id", day)
}

// ListApprovedStartingOn returns approved bookings beginning on day that
// have not yet been announced.
func (r *BookingRepo) ListApprovedStartingOn(ctx context.Context, day string) ([]model.Booking, error) {
	return r.list(ctx, "SELECT "+bookingColumns+
		" FROM bookings b WHERE b.status = 'approved' AND b.start_date = ? AND b.start_notified_at IS NULL ORDER BY b.id", day)
}

// MarkStartNotified stamps start_notified_at once. The boolean reports
// whether this call performed the stamp.
func (r *BookingRepo) MarkStartNotified(ctx context.Context, id uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET start_notified_at = ? WHERE id = ? AND start_notified_at IS NULL",
		time.Now().UTC(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListByBusiness returns the requests a business made, newest first.
func (r *BookingRepo) ListByBusiness(ctx context.Context, businessID uint64) ([]model.Booking, error) {
	return r.list(ctx, "SELECT "+bookingColumns+
		" FROM bookings b WHERE b.business_id = ? ORDER BY b.created_at DESC, b.id DESC", businessID)
}

// ListByOwner returns requests on any billboard of ownerID, newest first.
func (r *BookingRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Booking, error) {
	return r.list(ctx, "SELECT "+bookingColumns+
		` FROM bookings b JOIN billboards bb ON bb.id = b.billboard_id
		WHERE bb.owner_id = ? ORDER BY b.created_at DESC, b.id DESC`, ownerID)
}

// ListActiveForBillboard returns the pending and approved bookings of a
// billboard, which are the only ones that shape its calendar.
func (r *BookingRepo) ListActiveForBillboard(ctx context.Context, billboardID uint64) ([]model.Booking, error) {
	return r.list(ctx, "SELECT "+bookingColumns+
		` FROM bookings b WHERE b.billboard_id = ? AND b.status IN ('pending', 'approved')
		ORDER BY b.start_date, b.id`, billboardID)
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		bk, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, bk)
	}
	return out, rows.Err()
}

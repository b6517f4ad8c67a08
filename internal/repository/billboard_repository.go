package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/maddi-booking/internal/model"
)

// BillboardRepo persists billboards and their blocked date windows.
type BillboardRepo struct{ db *sql.DB }

// NewBillboardRepo returns a BillboardRepo bound to db.
func NewBillboardRepo(db *sql.DB) *BillboardRepo { return &BillboardRepo{db: db} }

const billboardColumns = `id, owner_id, title, location, latitude, longitude, width_m, height_m,
	billboard_type, is_available, pause_reason, daily_impressions, price_per_month_cents,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBillboard(s rowScanner) (model.Billboard, error) {
	var (
		b      model.Billboard
		kind   string
		reason sql.NullString
	)
	err := s.Scan(&b.ID, &b.OwnerID, &b.Title, &b.Location, &b.Latitude, &b.Longitude,
		&b.WidthM, &b.HeightM, &kind, &b.IsAvailable, &reason, &b.DailyImpressions,
		&b.PricePerMonth, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Billboard{}, err
	}
	b.Type = model.BillboardType(kind)
	if reason.Valid {
		b.PauseReason = model.PauseReason(reason.String)
	}
	return b, nil
}

// GetBillboard returns a billboard by id or ErrNotFound.
func (r *BillboardRepo) GetBillboard(ctx context.Context, id uint64) (model.Billboard, error) {
	b, err := scanBillboard(r.db.QueryRowContext(ctx,
		"SELECT "+billboardColumns+" FROM billboards WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Billboard{}, ErrNotFound
	}
	return b, err
}

// CreateBillboard inserts b and fills in its generated id and timestamps.
func (r *BillboardRepo) CreateBillboard(ctx context.Context, b *model.Billboard) error {
	const q = `INSERT INTO billboards
		(owner_id, title, location, latitude, longitude, width_m, height_m, billboard_type,
		 is_available, pause_reason, daily_impressions, price_per_month_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?, ?)`
	res, err := r.db.ExecContext(ctx, q, b.OwnerID, b.Title, b.Location, b.Latitude, b.Longitude,
		b.WidthM, b.HeightM, string(b.Type), b.IsAvailable, string(b.PauseReason),
		b.DailyImpressions, b.PricePerMonth)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetBillboard(ctx, uint64(id))
	if err != nil {
		return err
	}
	*b = created
	return nil
}

// UpdateBillboard overwrites the descriptive fields of b. Pause state is
// owned by SetPause and left untouched.
func (r *BillboardRepo) UpdateBillboard(ctx context.Context, b *model.Billboard) error {
	const q = `UPDATE billboards SET title = ?, location = ?, latitude = ?, longitude = ?,
		width_m = ?, height_m = ?, billboard_type = ?, daily_impressions = ?, price_per_month_cents = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, b.Title, b.Location, b.Latitude, b.Longitude,
		b.WidthM, b.HeightM, string(b.Type), b.DailyImpressions, b.PricePerMonth, b.ID)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		// MySQL reports 0 affected rows for a no-op update; tell it apart
		// from a missing billboard.
		if _, gerr := r.GetBillboard(ctx, b.ID); gerr != nil {
			return gerr
		}
	}
	updated, err := r.GetBillboard(ctx, b.ID)
	if err != nil {
		return err
	}
	*b = updated
	return nil
}

// SetPause switches a billboard off with reason, or back on when reason is
// model.PauseNone.
func (r *BillboardRepo) SetPause(ctx context.Context, id uint64, reason model.PauseReason) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE billboards SET is_available = ?, pause_reason = NULLIF(?, '') WHERE id = ?",
		reason == model.PauseNone, string(reason), id)
	if err != nil {
		return err
	}
	_, err = r.GetBillboard(ctx, id)
	return err
}

// ListPublic pages through every billboard, newest first.
func (r *BillboardRepo) ListPublic(ctx context.Context, limit, offset int) ([]model.Billboard, error) {
	return r.list(ctx, "SELECT "+billboardColumns+
		" FROM billboards ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?", limit, offset)
}

// ListByOwner returns every billboard of ownerID, newest first.
func (r *BillboardRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Billboard, error) {
	return r.list(ctx, "SELECT "+billboardColumns+
		" FROM billboards WHERE owner_id = ? ORDER BY created_at DESC, id DESC", ownerID)
}

func (r *BillboardRepo) list(ctx context.Context, q string, args ...any) ([]model.Billboard, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Billboard, 0)
	for rows.Next() {
		b, err := scanBillboard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListBlockedDates returns the blocked windows of a billboard by start date.
func (r *BillboardRepo) ListBlockedDates(ctx context.Context, billboardID uint64) ([]model.BlockedDate, error) {
	const q = `SELECT id, billboard_id, DATE_FORMAT(start_date, '%Y-%m-%d'), DATE_FORMAT(end_date, '%Y-%m-%d'),
		reason, created_at FROM blocked_dates WHERE billboard_id = ? ORDER BY start_date, id`
	rows, err := r.db.QueryContext(ctx, q, billboardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.BlockedDate, 0)
	for rows.Next() {
		var (
			d      model.BlockedDate
			reason sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.BillboardID, &d.StartDate, &d.EndDate, &reason, &d.CreatedAt); err != nil {
			return nil, err
		}
		if reason.Valid {
			s := reason.String
			d.Reason = &s
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CreateBlockedDate inserts d and fills in its id.
func (r *BillboardRepo) CreateBlockedDate(ctx context.Context, d *model.BlockedDate) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO blocked_dates (billboard_id, start_date, end_date, reason) VALUES (?, ?, ?, ?)",
		d.BillboardID, d.StartDate, d.EndDate, d.Reason)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	d.CreatedAt = time.Now().UTC()
	return nil
}

// DeleteBlockedDate removes one window; the billboard id scopes the delete
// so a window cannot be removed through another billboard.
func (r *BillboardRepo) DeleteBlockedDate(ctx context.Context, billboardID, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM blocked_dates WHERE id = ? AND billboard_id = ?", id, billboardID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// requireRow converts a zero-row write into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/maddi-booking/internal/model"
)

// InvitationRepo persists admin invitations. Only the SHA-256 of a token is
// ever stored.
type InvitationRepo struct{ db *sql.DB }

// NewInvitationRepo returns an InvitationRepo bound to db.
func NewInvitationRepo(db *sql.DB) *InvitationRepo { return &InvitationRepo{db: db} }

const invitationColumns = `id, email, role, token_hash, invited_by, expires_at, accepted_at, created_at`

func scanInvitation(s rowScanner) (model.AdminInvitation, error) {
	var (
		inv      model.AdminInvitation
		role     string
		accepted sql.NullTime
	)
	err := s.Scan(&inv.ID, &inv.Email, &role, &inv.TokenHash, &inv.InvitedBy,
		&inv.ExpiresAt, &accepted, &inv.CreatedAt)
	if err != nil {
		return model.AdminInvitation{}, err
	}
	inv.Role = model.AdminRole(role)
	if accepted.Valid {
		t := accepted.Time
		inv.AcceptedAt = &t
	}
	return inv, nil
}

// CreateInvitation inserts inv. A token hash collision surfaces as
// ErrConflict.
func (r *InvitationRepo) CreateInvitation(ctx context.Context, inv *model.AdminInvitation) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO admin_invitations (email, role, token_hash, invited_by, expires_at) VALUES (?, ?, ?, ?, ?)",
		inv.Email, string(inv.Role), inv.TokenHash, inv.InvitedBy, inv.ExpiresAt.UTC())
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	inv.ID = uint64(id)
	inv.CreatedAt = time.Now().UTC()
	return nil
}

// GetByTokenHash resolves an invitation or returns ErrNotFound.
func (r *InvitationRepo) GetByTokenHash(ctx context.Context, tokenHash string) (model.AdminInvitation, error) {
	inv, err := scanInvitation(r.db.QueryRowContext(ctx,
		"SELECT "+invitationColumns+" FROM admin_invitations WHERE token_hash = ? LIMIT 1", tokenHash))
	if errors.Is(err, sql.ErrNoRows) {
		return model.AdminInvitation{}, ErrNotFound
	}
	return inv, err
}

// HasLiveInvitation reports whether email holds an unaccepted invitation
// that has not expired at now.
func (r *InvitationRepo) HasLiveInvitation(ctx context.Context, email string, now time.Time) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM admin_invitations WHERE email = ? AND accepted_at IS NULL AND expires_at > ?",
		email, now.UTC()).Scan(&n)
	return n > 0, err
}

// MarkAccepted stamps accepted_at if the invitation is still open.
func (r *InvitationRepo) MarkAccepted(ctx context.Context, id uint64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE admin_invitations SET accepted_at = ? WHERE id = ? AND accepted_at IS NULL", at.UTC(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrStatusChanged
	}
	return nil
}

// ListInvitations returns every invitation, newest first.
func (r *InvitationRepo) ListInvitations(ctx context.Context) ([]model.AdminInvitation, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+invitationColumns+" FROM admin_invitations ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.AdminInvitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// isDuplicate reports a MySQL unique key violation (error 1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

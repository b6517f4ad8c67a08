package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/maddi-booking/internal/model"
)

// AdminRepo persists the admin_users table.
type AdminRepo struct{ db *sql.DB }

// NewAdminRepo returns an AdminRepo bound to db.
func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{db: db} }

func (r *AdminRepo) get(ctx context.Context, where string, arg any) (model.AdminUser, error) {
	var (
		a    model.AdminUser
		role string
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, email, role, created_at FROM admin_users WHERE "+where+" LIMIT 1", arg).
		Scan(&a.ID, &a.UserID, &a.Email, &role, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AdminUser{}, ErrNotFound
	}
	if err != nil {
		return model.AdminUser{}, err
	}
	a.Role = model.AdminRole(role)
	return a, nil
}

// GetByUserID returns the admin record of a user or ErrNotFound.
func (r *AdminRepo) GetByUserID(ctx context.Context, userID uint64) (model.AdminUser, error) {
	return r.get(ctx, "user_id = ?", userID)
}

// GetByEmail returns the admin record for an email or ErrNotFound.
func (r *AdminRepo) GetByEmail(ctx context.Context, email string) (model.AdminUser, error) {
	return r.get(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

// CreateAdmin grants admin rights. A user that is already an admin yields
// ErrConflict.
func (r *AdminRepo) CreateAdmin(ctx context.Context, a *model.AdminUser) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO admin_users (user_id, email, role) VALUES (?, ?, ?)",
		a.UserID, strings.ToLower(a.Email), string(a.Role))
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
	a.ID = uint64(id)
	a.CreatedAt = time.Now().UTC()
	return nil
}

// Bootstrap makes sure the account behind email is a super admin. It is
// used once at start-up so that the first invitation can be sent; it is a
// no-op when the account does not exist or already has admin rights.
func (r *AdminRepo) Bootstrap(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, nil
	}
	res, err := r.db.ExecContext(ctx, `INSERT IGNORE INTO admin_users (user_id, email, role)
		SELECT id, email, 'super_admin' FROM users WHERE email = ?`, email)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

type AdminRepo struct{ DB *sqlx.DB }

func NewAdminRepo(db *sqlx.DB) *AdminRepo { return &AdminRepo{DB: db} }

func (r *AdminRepo) ByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	var a domain.Admin
	err := r.DB.GetContext(ctx, &a, `SELECT id,email,password_hash,role FROM admins WHERE email = LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts an admin unless the email is taken. created reports whether
// a row was written.
func (r *AdminRepo) Create(ctx context.Context, email, hash, role string) (a *domain.Admin, created bool, err error) {
	now := ts(time.Now())
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO admins(id,email,password_hash,role,created_at,updated_at)
		VALUES(?,LOWER(?),?,?,?,?)
		ON CONFLICT(email) DO NOTHING
	`, uuid.NewString(), email, hash, role, now, now)
	if err != nil {
		return nil, false, err
	}
	n, _ := res.RowsAffected()
	a, err = r.ByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	return a, n > 0, nil
}

func (r *AdminRepo) BindSession(ctx context.Context, token, adminID string, expires time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO admin_sessions(token,admin_id,created_at,expires_at)
		VALUES(?,?,?,?)`, token, adminID, ts(time.Now()), ts(expires))
	return err
}

// SessionAdmin resolves a token that has not expired at now.
func (r *AdminRepo) SessionAdmin(ctx context.Context, token string, now time.Time) (*domain.Admin, error) {
	var a domain.Admin
	err := r.DB.GetContext(ctx, &a, `
      SELECT a.id,a.email,a.password_hash,a.role
      FROM admin_sessions s
      JOIN admins a ON a.id = s.admin_id
      WHERE s.token = ? AND s.expires_at > ?`, token, ts(now))
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AdminRepo) UnbindSession(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM admin_sessions WHERE token = ?`, token)
	return err
}

// PurgeExpired drops sessions that expired before now.
func (r *AdminRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM admin_sessions WHERE expires_at <= ?`, ts(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

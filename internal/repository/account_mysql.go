package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/centilliongw/portal-api/internal/model"
)

// AccountRepo implements AccountStore over MySQL.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

const accountColumns = `id, full_name, email, age, phone, country, password_hash,
	is_verified, verification_token, verification_expires,
	is_first_login, password_set, profile_completed, role, created_at, updated_at`

// derivedStatus yields the API-facing form status for an account: the form's
// status when one exists, "draft" otherwise.  The form row is the single
// source of truth; accounts carry no status column.
const derivedStatus = `COALESCE((SELECT tf.status FROM treatment_forms tf WHERE tf.account_id = a.id), 'draft')`

// Create inserts a new account.  The unique index on email enforces
// case-insensitive uniqueness (emails are stored lowercased).
func (r *AccountRepo) Create(ctx context.Context, a model.Account) error {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO accounts
		 (id, full_name, email, age, phone, country, password_hash,
		  is_verified, verification_token, verification_expires,
		  is_first_login, password_set, profile_completed, role)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.FullName, a.Email, a.Age, a.Phone, a.Country, a.PasswordHash,
		a.IsVerified, a.VerificationToken, a.VerificationExpires,
		a.IsFirstLogin, a.PasswordSet, a.ProfileCompleted, a.Role)
	if err != nil {
		// 1062 = duplicate entry on the unique email index
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

func (r *AccountRepo) scanAccount(row *sql.Row) (model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.FullName, &a.Email, &a.Age, &a.Phone, &a.Country,
		&a.PasswordHash, &a.IsVerified, &a.VerificationToken, &a.VerificationExpires,
		&a.IsFirstLogin, &a.PasswordSet, &a.ProfileCompleted, &a.Role,
		&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, ErrNotFound
	}
	return a, err
}

// GetByID fetches an account by its opaque id.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (model.Account, error) {
	return r.scanAccount(r.DB.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id=? LIMIT 1`, id))
}

// GetByEmail fetches an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanAccount(r.DB.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email=? LIMIT 1`, email))
}

// GetByVerificationToken fetches the account holding an unexpired
// verification token.
func (r *AccountRepo) GetByVerificationToken(ctx context.Context, token string, now time.Time) (model.Account, error) {
	return r.scanAccount(r.DB.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE verification_token=? AND verification_expires > ? LIMIT 1`,
		token, now.UTC()))
}

// MarkVerified flips the verified flag and clears the token pair.
func (r *AccountRepo) MarkVerified(ctx context.Context, id string) error {
	return r.exec(ctx,
		`UPDATE accounts SET is_verified=1, verification_token=NULL, verification_expires=NULL WHERE id=?`, id)
}

// SetPassword stores a fresh hash and records that a real password exists.
func (r *AccountRepo) SetPassword(ctx context.Context, id, hash string) error {
	return r.exec(ctx,
		`UPDATE accounts SET password_hash=?, password_set=1, is_first_login=0 WHERE id=?`, hash, id)
}

// ClearFirstLogin records that the account has logged in.
func (r *AccountRepo) ClearFirstLogin(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE accounts SET is_first_login=0 WHERE id=?`, id)
}

// UpdateProfile overwrites the editable profile fields.
func (r *AccountRepo) UpdateProfile(ctx context.Context, id, fullName, age, phone, country string, completed bool) error {
	return r.exec(ctx,
		`UPDATE accounts SET full_name=?, age=?, phone=?, country=?, profile_completed=? WHERE id=?`,
		fullName, age, phone, country, completed, id)
}

// UpdateRole promotes or demotes an account.
func (r *AccountRepo) UpdateRole(ctx context.Context, id, role string) error {
	return r.exec(ctx, `UPDATE accounts SET role=? WHERE id=?`, role, id)
}

// exec runs an UPDATE that must touch exactly one account row.
func (r *AccountRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// View returns the account with its derived form status.
func (r *AccountRepo) View(ctx context.Context, id string) (AccountView, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+accountColumns+`, `+derivedStatus+` AS form_status
		 FROM accounts a WHERE a.id=? LIMIT 1`, id)
	var v AccountView
	err := row.Scan(&v.ID, &v.FullName, &v.Email, &v.Age, &v.Phone, &v.Country,
		&v.PasswordHash, &v.IsVerified, &v.VerificationToken, &v.VerificationExpires,
		&v.IsFirstLogin, &v.PasswordSet, &v.ProfileCompleted, &v.Role,
		&v.CreatedAt, &v.UpdatedAt, &v.FormStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return AccountView{}, ErrNotFound
	}
	if err != nil {
		return AccountView{}, err
	}
	v.FormSubmitted = v.FormStatus != model.FormStatusDraft
	return v, nil
}

// List pages accounts for the admin screens.  Filters compose into a WHERE
// clause; the derived form status backs the hasForm filter so the listing
// agrees with what /me reports.
func (r *AccountRepo) List(ctx context.Context, f AccountFilter) ([]AccountView, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.Verified != nil {
		where = append(where, "a.is_verified=?")
		args = append(args, *f.Verified)
	}
	if f.HasForm != nil {
		if *f.HasForm {
			where = append(where, derivedStatus+" <> 'draft'")
		} else {
			where = append(where, derivedStatus+" = 'draft'")
		}
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "(a.full_name LIKE ? OR a.email LIKE ?)")
		like := "%" + s + "%"
		args = append(args, like, like)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts a WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(f.Page, f.Limit)
	args = append(args, limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+accountColumns+`, `+derivedStatus+` AS form_status
		 FROM accounts a WHERE `+cond+`
		 ORDER BY a.created_at DESC, a.id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []AccountView
	for rows.Next() {
		var v AccountView
		if err := rows.Scan(&v.ID, &v.FullName, &v.Email, &v.Age, &v.Phone, &v.Country,
			&v.PasswordHash, &v.IsVerified, &v.VerificationToken, &v.VerificationExpires,
			&v.IsFirstLogin, &v.PasswordSet, &v.ProfileCompleted, &v.Role,
			&v.CreatedAt, &v.UpdatedAt, &v.FormStatus); err != nil {
			return nil, 0, err
		}
		v.FormSubmitted = v.FormStatus != model.FormStatusDraft
		out = append(out, v)
	}
	return out, total, rows.Err()
}

// Stats aggregates the dashboard counters over accounts.
func (r *AccountRepo) Stats(ctx context.Context, since time.Time) (AccountStats, error) {
	var s AccountStats
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(a.is_verified), 0),
		        COALESCE(SUM(CASE WHEN `+derivedStatus+` <> 'draft' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN a.created_at >= ? THEN 1 ELSE 0 END), 0)
		 FROM accounts a`, since.UTC()).
		Scan(&s.Total, &s.Verified, &s.WithForms, &s.Recent)
	return s, err
}

// normalizePage clamps pagination params to sane defaults (page 1, limit 10,
// max 100).
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

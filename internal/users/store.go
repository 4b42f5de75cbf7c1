// Package users stores accounts and serves the admin user directory.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"buildboard-backend/internal/apperr"
	"buildboard-backend/internal/auth"
	"buildboard-backend/internal/db"
)

const selectAccounts = `SELECT id, name, email, contact, role, password_hash FROM users`

// NewAccount is a user to insert. PasswordHash must already be a bcrypt hash.
type NewAccount struct {
	Name         string
	Email        string
	Contact      string
	Role         auth.Role
	PasswordHash string
}

type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ auth.AccountStore = (*Store)(nil)

func NewStore(dbx *sqlx.DB) *Store {
	return &Store{db: dbx, now: time.Now}
}

// GetByEmail matches case-insensitively.
func (s *Store) GetByEmail(ctx context.Context, email string) (auth.Account, error) {
	return s.getOne(ctx, selectAccounts+` WHERE LOWER(email) = LOWER(?)`, strings.TrimSpace(email))
}

func (s *Store) GetByID(ctx context.Context, id int) (auth.Account, error) {
	return s.getOne(ctx, selectAccounts+` WHERE id = ?`, id)
}

func (s *Store) getOne(ctx context.Context, q string, arg any) (auth.Account, error) {
	var acc auth.Account
	err := s.db.GetContext(ctx, &acc, s.db.Rebind(q), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Account{}, apperr.NotFound("user not found")
	}
	if err != nil {
		return auth.Account{}, apperr.Storage(fmt.Errorf("get user: %w", err))
	}
	return acc, nil
}

// UpdateProfile rewrites name, email and contact. The password changes only
// when upd carries a new hash.
func (s *Store) UpdateProfile(ctx context.Context, id int, upd auth.ProfileUpdate) (auth.Account, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE users SET
			name          = ?,
			email         = ?,
			contact       = ?,
			password_hash = COALESCE(NULLIF(?, ''), password_hash)
		WHERE id = ?
	`), upd.Name, upd.Email, upd.Contact, upd.PasswordHash, id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return auth.Account{}, apperr.Conflict("email already in use")
		}
		return auth.Account{}, apperr.Storage(fmt.Errorf("update user: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auth.Account{}, apperr.NotFound("user not found")
	}
	return s.GetByID(ctx, id)
}

// Search lists users whose name contains term, ignoring case. An empty term
// lists everyone.
func (s *Store) Search(ctx context.Context, term string) ([]auth.Account, error) {
	q := selectAccounts
	var args []any
	if term = strings.TrimSpace(term); term != "" {
		q += ` WHERE LOWER(name) LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(strings.ToLower(term))+"%")
	}
	q += ` ORDER BY name ASC, id ASC`

	rows := []auth.Account{}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return nil, apperr.Storage(fmt.Errorf("search users: %w", err))
	}
	return rows, nil
}

func (s *Store) Create(ctx context.Context, in NewAccount) (auth.Account, error) {
	var id int
	err := s.db.GetContext(ctx, &id, s.db.Rebind(`
		INSERT INTO users (name, email, password_hash, contact, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`), in.Name, in.Email, in.PasswordHash, in.Contact, string(in.Role), s.now().UTC())
	if err != nil {
		if db.IsUniqueViolation(err) {
			return auth.Account{}, apperr.Conflict("email already in use")
		}
		return auth.Account{}, apperr.Storage(fmt.Errorf("insert user: %w", err))
	}
	return s.GetByID(ctx, id)
}

func (s *Store) Delete(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return apperr.Storage(fmt.Errorf("delete user: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// Package credentials authenticates usernames/passwords against a
// Postgres-backed user table and provisions user rows for the admin CLI
// (§4.1).
package credentials

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/sys3222/akshare-mcp-adapter/internal/errors"
)

// Store is the credential lookup/verification surface. Verify always runs
// the KDF, on the real hash for known users and on a dummy hash for
// unknown ones, so response timing never leaks whether a username exists.
type Store struct {
	db *sqlx.DB
}

// Open connects to dsn (a standard postgres:// DSN) and returns a Store.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, errors.Internal("failed to connect to credential store", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

type userRow struct {
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
}

// Verify checks username/password against stored credentials, returning
// nil on success and errors.Unauthorized on any mismatch (unknown user,
// wrong password alike).
func (s *Store) Verify(ctx context.Context, username, password string) error {
	var row userRow
	err := s.db.GetContext(ctx, &row, `SELECT username, password_hash FROM users WHERE username = $1`, username)
	switch {
	case err == sql.ErrNoRows:
		// Pay the same KDF cost as a real lookup so presence/absence of the
		// account is not observable from timing.
		_, _ = verifyPassword(password, dummyHash)
		return errors.Unauthorized("invalid username or password")
	case err != nil:
		return errors.Internal("credential lookup failed", err)
	}

	ok, err := verifyPassword(password, row.PasswordHash)
	if err != nil {
		return errors.Internal("credential verification failed", err)
	}
	if !ok {
		return errors.Unauthorized("invalid username or password")
	}
	return nil
}

// Create inserts a new user with an Argon2id hash of password. Used by the
// useradmin CLI, not exposed over HTTP (account provisioning is out of
// scope for the gateway API itself).
func (s *Store) Create(ctx context.Context, username, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO users (username, password_hash) VALUES ($1, $2)`, username, hash)
	if err != nil {
		return errors.Internal("failed to create user", err)
	}
	return nil
}

// SetPassword rehashes and updates password for an existing username.
func (s *Store) SetPassword(ctx context.Context, username, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE username = $2`, hash, username)
	if err != nil {
		return errors.Internal("failed to update password", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Internal("failed to confirm password update", err)
	}
	if n == 0 {
		return errors.NotFound("no such user")
	}
	return nil
}

// Exists reports whether username has a row in the store.
func (s *Store) Exists(ctx context.Context, username string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE username = $1`, username)
	if err != nil {
		return false, errors.Internal("failed to check user existence", err)
	}
	return count > 0, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const adminRole = "admin"

// userColumns is the select list scanUser expects.
const userColumns = "id, email, password_hash, role, disabled, created_at, updated_at"

// AuthUser is a provisioned admin account.
type AuthUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Disabled     bool      `json:"disabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AuthSession is one live browser session joined with its owner.
type AuthSession struct {
	ID        string
	UserID    string
	Email     string
	ExpiresAt time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

// CountEnabledUsers returns the number of non-disabled provisioned users.
func (s *Store) CountEnabledUsers(ctx context.Context) (int, error) {
	var count int
	err := s.queryRow(ctx, "SELECT COUNT(*) FROM users WHERE disabled = 0").Scan(&count)
	return count, err
}

// CreateAdminUser creates one local admin user.
func (s *Store) CreateAdminUser(ctx context.Context, email, passwordHash string, now time.Time) (*AuthUser, error) {
	user := &AuthUser{
		ID:           uuid.NewString(),
		Email:        canonicalEmail(email),
		PasswordHash: strings.TrimSpace(passwordHash),
		Role:         adminRole,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
	switch {
	case user.Email == "":
		return nil, fmt.Errorf("email is required")
	case user.PasswordHash == "":
		return nil, fmt.Errorf("password hash is required")
	}

	_, err := s.exec(ctx, "INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, 0, ?, ?)",
		user.ID, user.Email, user.PasswordHash, user.Role, dbFormatTime(now), dbFormatTime(now))
	if err != nil {
		return nil, s.classify("create user", err, "user not found")
	}
	return user, nil
}

// GetUserByEmail returns a provisioned user by normalized email, or nil.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*AuthUser, error) {
	return s.userWhere(ctx, "email", canonicalEmail(email))
}

// GetUserByID returns a provisioned user by id, or nil.
func (s *Store) GetUserByID(ctx context.Context, id string) (*AuthUser, error) {
	return s.userWhere(ctx, "id", strings.TrimSpace(id))
}

// userWhere loads the single user whose column equals value. column is one
// of the fixed names above, never caller input.
func (s *Store) userWhere(ctx context.Context, column, value string) (*AuthUser, error) {
	if value == "" {
		return nil, nil
	}
	row := s.queryRow(ctx, "SELECT "+userColumns+" FROM users WHERE "+column+" = ? LIMIT 1", value)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return user, err
}

// ListUsers returns all provisioned users sorted by email.
func (s *Store) ListUsers(ctx context.Context) ([]AuthUser, error) {
	rows, err := s.query(ctx, "SELECT "+userColumns+" FROM users ORDER BY email ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []AuthUser{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// SetUserDisabled updates one user's disabled state by email. A nil user
// means no account matched.
func (s *Store) SetUserDisabled(ctx context.Context, email string, disabled bool, now time.Time) (*AuthUser, error) {
	email = canonicalEmail(email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	flag := 0
	if disabled {
		flag = 1
	}

	n, err := s.affected(s.exec(ctx, "UPDATE users SET disabled = ?, updated_at = ? WHERE email = ?",
		flag, dbFormatTime(now), email))
	if err != nil || n == 0 {
		return nil, err
	}
	return s.GetUserByEmail(ctx, email)
}

// DeleteUser deletes one user by email. Sessions cascade.
func (s *Store) DeleteUser(ctx context.Context, email string) (bool, error) {
	email = canonicalEmail(email)
	if email == "" {
		return false, fmt.Errorf("email is required")
	}
	n, err := s.affected(s.exec(ctx, "DELETE FROM users WHERE email = ?", email))
	return n > 0, err
}

// CreateSession creates a browser session bound to one user and token hash
// and returns the session id.
func (s *Store) CreateSession(ctx context.Context, userID, tokenHash string, expiresAt, createdAt time.Time) (string, error) {
	userID, tokenHash = strings.TrimSpace(userID), strings.TrimSpace(tokenHash)
	switch {
	case userID == "":
		return "", fmt.Errorf("user id is required")
	case tokenHash == "":
		return "", fmt.Errorf("token hash is required")
	}

	id := uuid.NewString()
	_, err := s.exec(ctx, `INSERT INTO sessions (id, user_id, token_hash, expires_at, revoked_at, created_at)
		VALUES (?, ?, ?, ?, NULL, ?)`,
		id, userID, tokenHash, dbFormatTime(expiresAt), dbFormatTime(createdAt))
	if err != nil {
		return "", s.classify("create session", err, "user not found")
	}
	return id, nil
}

// GetSessionByTokenHash returns the active, non-revoked session for a token
// hash whose owner is still enabled.
func (s *Store) GetSessionByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*AuthSession, error) {
	tokenHash = strings.TrimSpace(tokenHash)
	if tokenHash == "" {
		return nil, nil
	}

	var (
		session   AuthSession
		expiresAt string
	)
	err := s.queryRow(ctx, `SELECT s.id, u.id, u.email, s.expires_at
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token_hash = ? AND s.revoked_at IS NULL AND s.expires_at > ? AND u.disabled = 0`,
		tokenHash, dbFormatTime(now)).Scan(&session.ID, &session.UserID, &session.Email, &expiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, err
	}
	if session.ExpiresAt, err = dbParseTime(expiresAt); err != nil {
		return nil, err
	}
	return &session, nil
}

// RevokeSessionByTokenHash marks one session revoked by token hash and
// returns its id, empty when nothing was live.
func (s *Store) RevokeSessionByTokenHash(ctx context.Context, tokenHash string, revokedAt time.Time) (string, error) {
	tokenHash = strings.TrimSpace(tokenHash)
	if tokenHash == "" {
		return "", nil
	}

	var id string
	err := s.queryRow(ctx, `UPDATE sessions SET revoked_at = ?
		WHERE token_hash = ? AND revoked_at IS NULL
		RETURNING id`, dbFormatTime(revokedAt), tokenHash).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}

// PruneSessions deletes sessions that expired or were revoked before cutoff.
func (s *Store) PruneSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	ts := dbFormatTime(cutoff)
	return s.affected(s.exec(ctx, `DELETE FROM sessions
		WHERE expires_at <= ? OR (revoked_at IS NOT NULL AND revoked_at <= ?)`, ts, ts))
}

// affected unwraps an exec result into its row count.
func (s *Store) affected(result sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanUser(row rowScanner) (*AuthUser, error) {
	var (
		user             AuthUser
		disabled         int
		created, updated string
	)
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &disabled, &created, &updated); err != nil {
		return nil, err
	}
	user.Disabled = disabled != 0

	var err error
	if user.CreatedAt, err = dbParseTime(created); err != nil {
		return nil, err
	}
	if user.UpdatedAt, err = dbParseTime(updated); err != nil {
		return nil, err
	}
	return &user, nil
}

func canonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package store

import (
	"context"
	"time"

	"jobboard/internal/backend"
)

// AuthStore abstracts admin user and session persistence.
type AuthStore interface {
	CountEnabledUsers(ctx context.Context) (int, error)
	CreateAdminUser(ctx context.Context, email, passwordHash string, now time.Time) (*AuthUser, error)
	GetUserByEmail(ctx context.Context, email string) (*AuthUser, error)
	GetUserByID(ctx context.Context, id string) (*AuthUser, error)
	ListUsers(ctx context.Context) ([]AuthUser, error)
	SetUserDisabled(ctx context.Context, email string, disabled bool, now time.Time) (*AuthUser, error)
	DeleteUser(ctx context.Context, email string) (bool, error)
	CreateSession(ctx context.Context, userID, tokenHash string, expiresAt, createdAt time.Time) (string, error)
	GetSessionByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*AuthSession, error)
	RevokeSessionByTokenHash(ctx context.Context, tokenHash string, revokedAt time.Time) (string, error)
	PruneSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

var (
	_ AuthStore                = (*Store)(nil)
	_ backend.JobTable         = (*Store)(nil)
	_ backend.ApplicationTable = (*Store)(nil)
)

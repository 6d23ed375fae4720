// Package backend defines the collaborator contracts the job board talks to:
// row storage for jobs and applications, session authentication, and object
// storage for CV files. Views and workflows depend on these interfaces only.
package backend

import (
	"context"
	"io"
	"time"

	"jobboard/internal/models"
)

// JobTable is row storage for job postings.
type JobTable interface {
	// ListJobs returns every posting ordered by created_at descending.
	ListJobs(ctx context.Context) ([]models.JobPosting, error)
	GetJob(ctx context.Context, id string) (models.JobPosting, error)
	CreateJob(ctx context.Context, in models.JobInput) (models.JobPosting, error)
	UpdateJob(ctx context.Context, id string, in models.JobInput) (models.JobPosting, error)
	DeleteJob(ctx context.Context, id string) error
}

// ApplicationFilter narrows an application select by equality.
type ApplicationFilter struct {
	JobID string
}

// ApplicationTable is row storage for submitted applications.
type ApplicationTable interface {
	// ListApplications returns applications ordered by created_at descending.
	ListApplications(ctx context.Context, filter ApplicationFilter) ([]models.Application, error)
	GetApplication(ctx context.Context, id string) (models.Application, error)
	CreateApplication(ctx context.Context, app *models.Application) error
}

// Session is the opaque credential state of one signed-in admin.
type Session struct {
	ID        string
	UserID    string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// AuthEventType names an auth-state transition.
type AuthEventType string

const (
	EventSignedIn  AuthEventType = "SIGNED_IN"
	EventSignedOut AuthEventType = "SIGNED_OUT"
)

// AuthEvent is delivered to OnAuthStateChange subscribers. Session is nil
// when the transition left SessionID without a live session.
type AuthEvent struct {
	Type      AuthEventType `json:"type"`
	SessionID string        `json:"session_id"`
	Session   *Session      `json:"-"`
}

// Auth is session-based authentication.
type Auth interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	// GetSession returns nil without error when token has no live session.
	GetSession(ctx context.Context, token string) (*Session, error)
	// OnAuthStateChange registers fn and returns the function that removes it.
	OnAuthStateChange(fn func(AuthEvent)) (unsubscribe func())
}

// UploadOptions controls object writes.
type UploadOptions struct {
	// Upsert allows replacing an existing object. When false an existing key
	// fails the upload with a Conflict error.
	Upsert       bool
	ContentType  string
	CacheControl string
}

// Object is a downloaded object stream.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// ObjectStorage is a single bucket of objects addressed by key.
type ObjectStorage interface {
	Bucket() string
	Upload(ctx context.Context, key string, r io.Reader, opts UploadOptions) error
	Download(ctx context.Context, key string) (*Object, error)
	PublicURL(key string) string
	Remove(ctx context.Context, keys ...string) error
}

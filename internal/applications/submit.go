package applications

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"jobboard/internal/backend"
	"jobboard/internal/metrics"
	"jobboard/internal/models"
)

// CVCacheControl is the cache policy set on uploaded CV objects.
const CVCacheControl = "3600"

// Notifier is told about every stored application. Failures are logged and
// never reach the applicant.
type Notifier interface {
	ApplicationSubmitted(ctx context.Context, job models.JobPosting, app models.Application) error
}

// Result is a successful submission.
type Result struct {
	Application models.Application
	Key         string
	Company     string
	Title       string
}

// Submitter runs the upload-then-record workflow.
type Submitter struct {
	storage  backend.ObjectStorage
	table    backend.ApplicationTable
	notifier Notifier
	linkJob  bool
	newToken func() string
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithNotifier attaches a best-effort notifier.
func WithNotifier(n Notifier) SubmitterOption {
	return func(s *Submitter) { s.notifier = n }
}

// WithLinkJob controls whether applications carry the job id.
func WithLinkJob(link bool) SubmitterOption {
	return func(s *Submitter) { s.linkJob = link }
}

// WithTokenSource replaces NewToken.
func WithTokenSource(fn func() string) SubmitterOption {
	return func(s *Submitter) {
		if fn != nil {
			s.newToken = fn
		}
	}
}

// NewSubmitter links applications to their job by default.
func NewSubmitter(storage backend.ObjectStorage, table backend.ApplicationTable, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		storage:  storage,
		table:    table,
		linkJob:  true,
		newToken: NewToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit uploads the selected CV, resolves its public URL and records the
// application. The form is reset only on success; on failure no later step
// runs and the form keeps its values.
func (s *Submitter) Submit(ctx context.Context, job models.JobPosting, form *Form) (*Result, error) {
	if form == nil {
		return nil, validationf("application form is required")
	}
	if err := form.validate(); err != nil {
		metrics.ApplicationSubmissions.WithLabelValues(metrics.OutcomeValidation).Inc()
		return nil, err
	}

	name := strings.TrimSpace(form.Name)
	email := strings.TrimSpace(form.Email)
	file := form.File
	key := StorageKey(s.newToken(), name, file.Name)

	if err := s.upload(ctx, key, file); err != nil {
		metrics.ApplicationSubmissions.WithLabelValues(metrics.OutcomeUploadError).Inc()
		slog.Warn("cv upload failed", "job_id", job.ID, "key", key, "error", err)
		return nil, &UploadError{Err: err}
	}
	metrics.CVUploadBytes.Observe(float64(file.Size))

	app := models.Application{
		ApplicantName:  name,
		ApplicantEmail: email,
		CVURL:          s.storage.PublicURL(key),
	}
	if s.linkJob {
		app.JobID = job.ID
	}
	if err := s.table.CreateApplication(ctx, &app); err != nil {
		metrics.ApplicationSubmissions.WithLabelValues(metrics.OutcomeRecordError).Inc()
		slog.Warn("application insert failed", "job_id", job.ID, "key", key, "error", err)
		return nil, &RecordCreationError{Err: err}
	}

	metrics.ApplicationSubmissions.WithLabelValues(metrics.OutcomeSuccess).Inc()
	slog.Info("application submitted", "application_id", app.ID, "job_id", job.ID, "key", key)
	form.Reset()

	if s.notifier != nil {
		if err := s.notifier.ApplicationSubmitted(ctx, job, app); err != nil {
			slog.Warn("application notification failed", "application_id", app.ID, "error", err)
		}
	}

	return &Result{
		Application: app,
		Key:         key,
		Company:     job.Company,
		Title:       job.Title,
	}, nil
}

func (s *Submitter) upload(ctx context.Context, key string, file *File) error {
	if file.Open == nil {
		return fmt.Errorf("cv file is not readable")
	}
	body, err := file.Open()
	if err != nil {
		return err
	}
	defer body.Close()

	return s.storage.Upload(ctx, key, body, backend.UploadOptions{
		Upsert:       false,
		ContentType:  file.ContentType,
		CacheControl: CVCacheControl,
	})
}

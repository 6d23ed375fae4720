package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"jobboard/internal/backend"
	"jobboard/internal/models"
)

const applicationColumns = "id, job_id, applicant_name, applicant_email, cv_url, created_at"

// ListApplications returns applications newest first, optionally for one job.
func (s *Store) ListApplications(ctx context.Context, filter backend.ApplicationFilter) ([]models.Application, error) {
	query := "SELECT " + applicationColumns + " FROM applications"
	args := []any{}
	if jobID := strings.TrimSpace(filter.JobID); jobID != "" {
		query += " WHERE job_id = ?"
		args = append(args, jobID)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, backend.Wrap("list applications", err)
	}
	defer rows.Close()

	apps := make([]models.Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, backend.Wrap("list applications", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, backend.Wrap("list applications", err)
	}
	return apps, nil
}

// GetApplication returns one application or a not-found error.
func (s *Store) GetApplication(ctx context.Context, id string) (models.Application, error) {
	row := s.queryRow(ctx, "SELECT "+applicationColumns+" FROM applications WHERE id = ?", strings.TrimSpace(id))
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Application{}, backend.NotFound("get application", "application not found")
	}
	if err != nil {
		return models.Application{}, backend.Wrap("get application", err)
	}
	return app, nil
}

// CreateApplication inserts app, filling ID and CreatedAt when unset.
// A JobID that references no posting fails with a not-found error.
func (s *Store) CreateApplication(ctx context.Context, app *models.Application) error {
	if app == nil {
		return fmt.Errorf("application is required")
	}
	if strings.TrimSpace(app.ApplicantName) == "" || strings.TrimSpace(app.ApplicantEmail) == "" {
		return fmt.Errorf("applicant name and email are required")
	}
	if strings.TrimSpace(app.CVURL) == "" {
		return fmt.Errorf("cv url is required")
	}
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.CreatedAt.IsZero() {
		app.CreatedAt = s.now()
	}
	app.CreatedAt = app.CreatedAt.UTC()

	_, err := s.exec(ctx, `
		INSERT INTO applications (id, job_id, applicant_name, applicant_email, cv_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, app.ID, nullIfEmpty(app.JobID), app.ApplicantName, app.ApplicantEmail, app.CVURL, dbFormatTime(app.CreatedAt))
	if err != nil {
		return s.classify("create application", err, "job not found")
	}
	return nil
}

func scanApplication(scanner rowScanner) (models.Application, error) {
	var app models.Application
	var jobID sql.NullString
	var createdAt string
	if err := scanner.Scan(&app.ID, &jobID, &app.ApplicantName, &app.ApplicantEmail, &app.CVURL, &createdAt); err != nil {
		return models.Application{}, err
	}
	app.JobID = jobID.String
	parsed, err := dbParseTime(createdAt)
	if err != nil {
		return models.Application{}, err
	}
	app.CreatedAt = parsed
	return app, nil
}

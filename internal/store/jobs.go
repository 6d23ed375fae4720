package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"jobboard/internal/backend"
	"jobboard/internal/models"
)

const jobColumns = "id, title, company, location, description, created_at, updated_at"

// ListJobs returns every posting, newest first.
func (s *Store) ListJobs(ctx context.Context) ([]models.JobPosting, error) {
	rows, err := s.query(ctx, "SELECT "+jobColumns+" FROM jobs ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, backend.Wrap("list jobs", err)
	}
	defer rows.Close()

	jobs := make([]models.JobPosting, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, backend.Wrap("list jobs", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, backend.Wrap("list jobs", err)
	}
	return jobs, nil
}

// GetJob returns one posting or a not-found error.
func (s *Store) GetJob(ctx context.Context, id string) (models.JobPosting, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.JobPosting{}, backend.NotFound("get job", "job not found")
	}
	row := s.queryRow(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.JobPosting{}, backend.NotFound("get job", "job not found")
	}
	if err != nil {
		return models.JobPosting{}, backend.Wrap("get job", err)
	}
	return job, nil
}

// CreateJob inserts a posting with a fresh id and timestamps.
func (s *Store) CreateJob(ctx context.Context, in models.JobInput) (models.JobPosting, error) {
	in, err := in.Normalize()
	if err != nil {
		return models.JobPosting{}, err
	}
	now := s.now().UTC()
	job := models.JobPosting{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Company:     in.Company,
		Location:    in.Location,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err = s.exec(ctx, `
		INSERT INTO jobs (id, title, company, location, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.Title, job.Company, job.Location, job.Description, dbFormatTime(now), dbFormatTime(now))
	if err != nil {
		return models.JobPosting{}, s.classify("create job", err, "job not found")
	}
	return job, nil
}

// UpdateJob replaces the editable fields of one posting.
func (s *Store) UpdateJob(ctx context.Context, id string, in models.JobInput) (models.JobPosting, error) {
	in, err := in.Normalize()
	if err != nil {
		return models.JobPosting{}, err
	}
	result, err := s.exec(ctx, `
		UPDATE jobs
		SET title = ?, company = ?, location = ?, description = ?, updated_at = ?
		WHERE id = ?
	`, in.Title, in.Company, in.Location, in.Description, dbFormatTime(s.now()), strings.TrimSpace(id))
	if err != nil {
		return models.JobPosting{}, s.classify("update job", err, "job not found")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return models.JobPosting{}, backend.Wrap("update job", err)
	}
	if affected == 0 {
		return models.JobPosting{}, backend.NotFound("update job", "job not found")
	}
	return s.GetJob(ctx, id)
}

// DeleteJob removes one posting. Linked applications cascade.
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	result, err := s.exec(ctx, "DELETE FROM jobs WHERE id = ?", strings.TrimSpace(id))
	if err != nil {
		return backend.Wrap("delete job", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return backend.Wrap("delete job", err)
	}
	if affected == 0 {
		return backend.NotFound("delete job", "job not found")
	}
	return nil
}

func scanJob(scanner rowScanner) (models.JobPosting, error) {
	var job models.JobPosting
	var createdAt, updatedAt string
	if err := scanner.Scan(&job.ID, &job.Title, &job.Company, &job.Location, &job.Description, &createdAt, &updatedAt); err != nil {
		return models.JobPosting{}, err
	}
	var err error
	if job.CreatedAt, err = dbParseTime(createdAt); err != nil {
		return models.JobPosting{}, err
	}
	if job.UpdatedAt, err = dbParseTime(updatedAt); err != nil {
		return models.JobPosting{}, err
	}
	return job, nil
}

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"jobboard/internal/backend"
	"jobboard/internal/models"
)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// steppedClock returns a clock advancing one second per call.
func steppedClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func sampleJob(title string) models.JobInput {
	return models.JobInput{
		Title:       title,
		Company:     "Acme",
		Location:    "Remote",
		Description: "Build things.",
	}
}

func TestCreateAndGetJob(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	created, err := st.CreateJob(ctx, models.JobInput{
		Title:       "  Backend Engineer ",
		Company:     "Acme",
		Location:    "Jakarta",
		Description: "Go services",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.Title != "Backend Engineer" {
		t.Fatalf("expected trimmed title, got %q", created.Title)
	}

	got, err := st.GetJob(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Company != "Acme" || got.Location != "Jakarta" {
		t.Fatalf("unexpected job %+v", got)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("expected created_at %v, got %v", created.CreatedAt, got.CreatedAt)
	}
}

func TestGetJobNotFound(t *testing.T) {
	st := testStore(t)
	_, err := st.GetJob(context.Background(), "missing")
	if !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateJobRejectsInvalidInput(t *testing.T) {
	st := testStore(t)
	if _, err := st.CreateJob(context.Background(), models.JobInput{Title: "x"}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestListJobsNewestFirst(t *testing.T) {
	st := testStore(t)
	st.now = steppedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		if _, err := st.CreateJob(ctx, sampleJob(title)); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}

	jobs, err := st.ListJobs(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	if jobs[0].Title != "third" || jobs[2].Title != "first" {
		t.Fatalf("expected newest first, got %q..%q", jobs[0].Title, jobs[2].Title)
	}
}

func TestListJobsEmpty(t *testing.T) {
	st := testStore(t)
	jobs, err := st.ListJobs(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if jobs == nil || len(jobs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", jobs)
	}
}

func TestUpdateAndDeleteJob(t *testing.T) {
	st := testStore(t)
	st.now = steppedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	job, err := st.CreateJob(ctx, sampleJob("Designer"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	in := sampleJob("Senior Designer")
	in.Location = "Bandung"
	updated, err := st.UpdateJob(ctx, job.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Senior Designer" || updated.Location != "Bandung" {
		t.Fatalf("unexpected updated job %+v", updated)
	}
	if !updated.UpdatedAt.After(job.UpdatedAt) {
		t.Fatalf("expected updated_at to advance, got %v <= %v", updated.UpdatedAt, job.UpdatedAt)
	}

	if _, err := st.UpdateJob(ctx, "missing", in); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}

	if err := st.DeleteJob(ctx, job.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := st.DeleteJob(ctx, job.ID); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestCreateApplicationLinkedAndListed(t *testing.T) {
	st := testStore(t)
	st.now = steppedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	job, err := st.CreateJob(ctx, sampleJob("Engineer"))
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	other, err := st.CreateJob(ctx, sampleJob("Other"))
	if err != nil {
		t.Fatalf("create other job: %v", err)
	}

	first := &models.Application{JobID: job.ID, ApplicantName: "Jane Doe", ApplicantEmail: "jane@x.io", CVURL: "http://localhost/cv/1.pdf"}
	second := &models.Application{JobID: other.ID, ApplicantName: "John Roe", ApplicantEmail: "john@x.io", CVURL: "http://localhost/cv/2.pdf"}
	for _, app := range []*models.Application{first, second} {
		if err := st.CreateApplication(ctx, app); err != nil {
			t.Fatalf("create application: %v", err)
		}
		if app.ID == "" || app.CreatedAt.IsZero() {
			t.Fatalf("expected id and created_at to be filled, got %+v", app)
		}
	}

	all, err := st.ListApplications(ctx, backend.ApplicationFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != second.ID {
		t.Fatalf("expected newest application first, got %+v", all)
	}

	forJob, err := st.ListApplications(ctx, backend.ApplicationFilter{JobID: job.ID})
	if err != nil {
		t.Fatalf("list for job: %v", err)
	}
	if len(forJob) != 1 || forJob[0].ApplicantName != "Jane Doe" {
		t.Fatalf("expected only Jane's application, got %+v", forJob)
	}

	got, err := st.GetApplication(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CVURL != first.CVURL || got.JobID != job.ID {
		t.Fatalf("unexpected application %+v", got)
	}
}

func TestCreateApplicationUnlinked(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	app := &models.Application{ApplicantName: "Jane", ApplicantEmail: "jane@x.io", CVURL: "u"}
	if err := st.CreateApplication(ctx, app); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := st.GetApplication(ctx, app.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.JobID != "" {
		t.Fatalf("expected empty job id, got %q", got.JobID)
	}
}

func TestCreateApplicationUnknownJob(t *testing.T) {
	st := testStore(t)
	app := &models.Application{JobID: "missing", ApplicantName: "Jane", ApplicantEmail: "jane@x.io", CVURL: "u"}
	err := st.CreateApplication(context.Background(), app)
	if !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected not found for unknown job, got %v", err)
	}
}

func TestDeleteJobCascadesApplications(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	job, err := st.CreateJob(ctx, sampleJob("Engineer"))
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	app := &models.Application{JobID: job.ID, ApplicantName: "Jane", ApplicantEmail: "jane@x.io", CVURL: "u"}
	if err := st.CreateApplication(ctx, app); err != nil {
		t.Fatalf("create application: %v", err)
	}
	if err := st.DeleteJob(ctx, job.ID); err != nil {
		t.Fatalf("delete job: %v", err)
	}
	if _, err := st.GetApplication(ctx, app.ID); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected cascaded delete, got %v", err)
	}
}

func TestDBTimeRoundTripSortsLexically(t *testing.T) {
	early := time.Date(2024, 1, 1, 9, 0, 0, 5, time.UTC)
	late := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	if dbFormatTime(early) >= dbFormatTime(late) {
		t.Fatalf("expected %q < %q", dbFormatTime(early), dbFormatTime(late))
	}
	parsed, err := dbParseTime(dbFormatTime(early))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(early) {
		t.Fatalf("expected %v, got %v", early, parsed)
	}
}

func TestCanonicalDriver(t *testing.T) {
	for raw, want := range map[string]string{"": DriverSQLite, "sqlite3": DriverSQLite, "PostgreSQL": DriverPostgres, "pq": DriverPostgres} {
		got, err := CanonicalDriver(raw)
		if err != nil || got != want {
			t.Fatalf("CanonicalDriver(%q) = %q, %v; want %q", raw, got, err, want)
		}
	}
	if _, err := CanonicalDriver("mysql"); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

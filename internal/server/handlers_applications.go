package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"

	"jobboard/internal/api"
	"jobboard/internal/applications"
	"jobboard/internal/backend"
	"jobboard/internal/listing"
	"jobboard/internal/metrics"
	"jobboard/internal/models"
)

const (
	cvFormField       = "cv"
	maxFormFieldBytes = 4 << 10
)

// submission is the outcome of one apply request. form keeps the applicant's
// input when the submit failed.
type submission struct {
	job    models.JobPosting
	form   *applications.Form
	result *applications.Result
}

// submitApplication reads the multipart apply form for job id and runs the
// submission workflow.
func (s *Server) submitApplication(w http.ResponseWriter, r *http.Request, id string) (*submission, error) {
	sub := &submission{form: applications.NewForm(s.maxCVBytes)}

	job, err := s.getJob(r.Context(), id)
	if err != nil {
		return sub, err
	}
	sub.job = job
	if s.submitter == nil {
		return sub, notConfigured("object storage")
	}

	cleanup, err := s.readApplicationForm(w, r, sub.form)
	defer cleanup()
	if err != nil {
		return sub, err
	}
	result, err := s.submitter.Submit(r.Context(), job, sub.form)
	if err != nil {
		return sub, applicationError(err)
	}
	sub.result = result
	return sub, nil
}

// readApplicationForm streams the multipart body into form. Text fields land
// in form as they are read, so they survive a CV that overflows the body
// limit. The returned cleanup removes any CV spilled to disk.
func (s *Server) readApplicationForm(w http.ResponseWriter, r *http.Request, form *applications.Form) (func(), error) {
	cleanup := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxCVBytes+multipartOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		return cleanup, badRequestCode(fmt.Errorf("invalid application form: %w", err), ErrCodeInvalidForm)
	}

	var cv *applications.File
	for cv == nil || cv.Size <= s.maxCVBytes {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return cleanup, multipartError(err)
		}
		switch part.FormName() {
		case "name", "email":
			value, err := readFormField(part)
			if err != nil {
				return cleanup, multipartError(err)
			}
			if part.FormName() == "name" {
				form.Name = value
			} else {
				form.Email = value
			}
		case cvFormField:
			if cv != nil || part.FileName() == "" {
				continue
			}
			file, release, err := s.readCVPart(part)
			if err != nil {
				return cleanup, multipartError(err)
			}
			cleanup, cv = release, file
		}
	}

	// Parts after an oversized CV are not read.
	if err := form.SelectFile(cv); err != nil {
		metrics.ApplicationSubmissions.WithLabelValues(metrics.OutcomeValidation).Inc()
		return cleanup, applicationError(err)
	}
	return cleanup, nil
}

func readFormField(part *multipart.Part) (string, error) {
	data, err := io.ReadAll(io.LimitReader(part, maxFormFieldBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > maxFormFieldBytes {
		return "", fmt.Errorf("field %s is too long", part.FormName())
	}
	return string(data), nil
}

// readCVPart reads at most one byte past the CV ceiling, so an oversized
// file is detected without consuming it. Files above the multipart memory
// budget are spilled to a temp file.
func (s *Server) readCVPart(part *multipart.Part) (*applications.File, func(), error) {
	name, contentType := part.FileName(), part.Header.Get("Content-Type")
	limited := io.LimitReader(part, s.maxCVBytes+1)
	if s.maxCVBytes < s.multipartMaxMemory {
		data, err := io.ReadAll(limited)
		if err != nil {
			return nil, nil, err
		}
		return applications.FileFromBytes(name, contentType, data), func() {}, nil
	}

	tmp, err := os.CreateTemp("", "jobboard-cv-*")
	if err != nil {
		return nil, nil, err
	}
	release := func() { _ = os.Remove(tmp.Name()) }
	n, err := io.Copy(tmp, limited)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		release()
		return nil, nil, err
	}
	return applications.FileFromPath(name, contentType, tmp.Name(), n), release, nil
}

func multipartError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return badRequestCode(fmt.Errorf("application form is too large"), ErrCodeRequestTooLarge)
	}
	return badRequestCode(fmt.Errorf("invalid application form: %w", err), ErrCodeInvalidForm)
}

func (s *Server) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	sub, err := s.submitApplication(w, r, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.ApplicationSubmitResponse{
		Application: sub.result.Application,
		Company:     sub.result.Company,
		Title:       sub.result.Title,
		Message:     confirmationMessage(sub.result),
	})
}

func confirmationMessage(result *applications.Result) string {
	return fmt.Sprintf("Thank you for applying for %s at %s. We will be in touch.", result.Title, result.Company)
}

// applicantRow is one application with the posting it belongs to.
type applicantRow struct {
	models.Application
	JobTitle   string
	JobCompany string
}

// listApplicants fetches applications, optionally for one job, and filters
// them by q in memory.
func (s *Server) listApplicants(ctx context.Context, q, jobID string) ([]applicantRow, error) {
	if s.applications == nil || s.jobs == nil {
		return nil, notConfigured("application table")
	}
	apps, err := s.applications.ListApplications(ctx, backend.ApplicationFilter{JobID: jobID})
	if err != nil {
		return nil, storeFailure(err)
	}
	jobs, err := s.jobs.ListJobs(ctx)
	if err != nil {
		return nil, storeFailure(err)
	}
	byID := make(map[string]models.JobPosting, len(jobs))
	for _, job := range jobs {
		byID[job.ID] = job
	}

	apps = listing.Applications(apps, q)
	rows := make([]applicantRow, 0, len(apps))
	for _, app := range apps {
		job := byID[app.JobID]
		rows = append(rows, applicantRow{Application: app, JobTitle: job.Title, JobCompany: job.Company})
	}
	return rows, nil
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSpace(r.URL.Query().Get("job"))
	if jobID != "" && !validateID(jobID) {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(fmt.Errorf("invalid job"), ErrCodeInvalidQuery))
		return
	}
	rows, err := s.listApplicants(r.Context(), r.URL.Query().Get("q"), jobID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := make([]api.ApplicationResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, api.ApplicationResponse{
			Application: row.Application,
			JobTitle:    row.JobTitle,
			JobCompany:  row.JobCompany,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDownloadCV(w http.ResponseWriter, r *http.Request) {
	s.serveCV(w, r, s.writeServiceError)
}

func (s *Server) handleDownloadCVPage(w http.ResponseWriter, r *http.Request) {
	s.serveCV(w, r, s.renderError)
}

// serveCV streams an applicant's CV as an attachment named
// <Name>_CV.<ext>. fail writes any error in the caller's format.
func (s *Server) serveCV(w http.ResponseWriter, r *http.Request, fail func(http.ResponseWriter, *http.Request, error)) {
	id, err := requirePathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if s.applications == nil || s.downloader == nil {
		fail(w, r, notConfigured("object storage"))
		return
	}

	app, err := s.applications.GetApplication(r.Context(), id)
	if err != nil {
		fail(w, r, backendError(err, ErrCodeApplicationNotFound))
		return
	}

	file, err := s.downloader.Download(r.Context(), app)
	if err != nil {
		if applications.IsValidation(err) {
			fail(w, r, badRequestCode(err, ErrCodeInvalidCVURL))
			return
		}
		fail(w, r, applicationError(err))
		return
	}
	defer file.Body.Close()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename}))
	if file.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, file.Body); err != nil {
		s.log().Warn("cv download interrupted", "application_id", id, "error", err)
	}
}

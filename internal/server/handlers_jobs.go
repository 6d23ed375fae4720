package server

import (
	"context"
	"net/http"

	"jobboard/internal/api"
	"jobboard/internal/listing"
	"jobboard/internal/models"
	"jobboard/internal/validation"
)

// listJobs fetches every posting and filters it by q in memory.
func (s *Server) listJobs(ctx context.Context, q string) ([]models.JobPosting, error) {
	if s.jobs == nil {
		return nil, notConfigured("job table")
	}
	jobs, err := s.jobs.ListJobs(ctx)
	if err != nil {
		return nil, storeFailure(err)
	}
	return listing.Jobs(jobs, q), nil
}

func (s *Server) getJob(ctx context.Context, id string) (models.JobPosting, error) {
	if s.jobs == nil {
		return models.JobPosting{}, notConfigured("job table")
	}
	job, err := s.jobs.GetJob(ctx, id)
	if err != nil {
		return models.JobPosting{}, backendError(err, ErrCodeJobNotFound)
	}
	return job, nil
}

func (s *Server) createJob(ctx context.Context, in models.JobInput) (models.JobPosting, error) {
	normalized, err := in.Normalize()
	if err != nil {
		return models.JobPosting{}, badRequest(err)
	}
	if s.jobs == nil {
		return models.JobPosting{}, notConfigured("job table")
	}
	job, err := s.jobs.CreateJob(ctx, normalized)
	if err != nil {
		return models.JobPosting{}, backendError(err, ErrCodeJobNotFound)
	}
	s.log().Info("job created", "job_id", job.ID, "title", job.Title)
	return job, nil
}

func (s *Server) updateJob(ctx context.Context, id string, in models.JobInput) (models.JobPosting, error) {
	normalized, err := in.Normalize()
	if err != nil {
		return models.JobPosting{}, badRequest(err)
	}
	if s.jobs == nil {
		return models.JobPosting{}, notConfigured("job table")
	}
	job, err := s.jobs.UpdateJob(ctx, id, normalized)
	if err != nil {
		return models.JobPosting{}, backendError(err, ErrCodeJobNotFound)
	}
	s.log().Info("job updated", "job_id", job.ID)
	return job, nil
}

// deleteJob removes a posting. Its applications go with it.
func (s *Server) deleteJob(ctx context.Context, id string) error {
	if s.jobs == nil {
		return notConfigured("job table")
	}
	if err := s.jobs.DeleteJob(ctx, id); err != nil {
		return backendError(err, ErrCodeJobNotFound)
	}
	s.log().Info("job deleted", "job_id", id)
	return nil
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.listJobs(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := make([]api.JobResponse, 0, len(jobs))
	for _, job := range jobs {
		resp = append(resp, api.JobResponse{JobPosting: job})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	job, err := s.getJob(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobResponse{JobPosting: job})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req api.JobCreateRequest
	if !s.decodeValidatedJSON(w, r, validation.JobCreate, &req) {
		return
	}

	job, err := s.createJob(r.Context(), models.JobInput{
		Title:       req.Title,
		Company:     req.Company,
		Location:    req.Location,
		Description: req.Description,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.JobResponse{JobPosting: job})
}

func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.JobUpdateRequest
	if !s.decodeValidatedJSON(w, r, validation.JobPatch, &req) {
		return
	}

	current, err := s.getJob(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	in := models.JobInput{
		Title:       current.Title,
		Company:     current.Company,
		Location:    current.Location,
		Description: current.Description,
	}
	if req.Title != nil {
		in.Title = valueOrEmpty(req.Title)
	}
	if req.Company != nil {
		in.Company = valueOrEmpty(req.Company)
	}
	if req.Location != nil {
		in.Location = valueOrEmpty(req.Location)
	}
	if req.Description != nil {
		in.Description = valueOrEmpty(req.Description)
	}

	job, err := s.updateJob(r.Context(), id, in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobResponse{JobPosting: job})
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	if err := s.deleteJob(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

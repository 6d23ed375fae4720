package api

import (
	"time"

	"jobboard/internal/models"
)

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// JobResponse is one job posting.
type JobResponse struct {
	models.JobPosting
}

// JobCreateRequest creates a job posting. Every field is required.
type JobCreateRequest struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// JobUpdateRequest patches a job posting. Nil fields keep their value.
type JobUpdateRequest struct {
	Title       *string `json:"title,omitempty"`
	Company     *string `json:"company,omitempty"`
	Location    *string `json:"location,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ApplicationResponse is one stored application.
type ApplicationResponse struct {
	models.Application
	JobTitle   string `json:"job_title,omitempty"`
	JobCompany string `json:"job_company,omitempty"`
}

// ApplicationSubmitResponse confirms a submission.
type ApplicationSubmitResponse struct {
	Application models.Application `json:"application"`
	Company     string             `json:"company"`
	Title       string             `json:"title"`
	Message     string             `json:"message"`
}

// AuthLoginRequest signs an admin in.
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthSessionResponse describes the caller's session.
type AuthSessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	Email         string     `json:"email,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status string `json:"status"`
}

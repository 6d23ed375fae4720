package models

import "time"

// Application links an applicant's identity fields and CV reference to a job posting.
// JobID is empty when applications are stored unlinked.
type Application struct {
	ID             string    `json:"id"`
	JobID          string    `json:"job_id,omitempty"`
	ApplicantName  string    `json:"applicant_name"`
	ApplicantEmail string    `json:"applicant_email"`
	CVURL          string    `json:"cv_url"`
	CreatedAt      time.Time `json:"created_at"`
}

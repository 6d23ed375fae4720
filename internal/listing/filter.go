// Package listing filters already-fetched collections by a free-text query.
package listing

import (
	"strings"

	"jobboard/internal/models"
)

// Filter returns the items for which query is a case-insensitive substring
// of at least one of fields(item). An empty or blank query returns items
// unchanged. Order is preserved and items is never modified.
func Filter[T any](items []T, query string, fields func(T) []string) []T {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		for _, field := range fields(item) {
			if strings.Contains(strings.ToLower(field), needle) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// JobFields are the searchable fields of a posting.
func JobFields(job models.JobPosting) []string {
	return []string{job.Title, job.Company, job.Location, job.Description}
}

// ApplicationFields are the searchable fields of an application.
func ApplicationFields(app models.Application) []string {
	return []string{app.ApplicantName, app.ApplicantEmail}
}

// Jobs filters postings by title, company, location and description.
func Jobs(jobs []models.JobPosting, query string) []models.JobPosting {
	return Filter(jobs, query, JobFields)
}

// Applications filters applications by applicant name and email.
func Applications(apps []models.Application, query string) []models.Application {
	return Filter(apps, query, ApplicationFields)
}

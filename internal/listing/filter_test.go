package listing

import (
	"testing"

	"jobboard/internal/models"
)

func sampleJobs() []models.JobPosting {
	return []models.JobPosting{
		{ID: "1", Title: "Backend Engineer", Company: "Acme", Location: "Remote", Description: "Build APIs"},
		{ID: "2", Title: "Product Designer", Company: "Globex", Location: "Jakarta", Description: "Design flows"},
		{ID: "3", Title: "Data Analyst", Company: "Initech", Location: "Bandung", Description: "SQL and dashboards"},
	}
}

func ids(jobs []models.JobPosting) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.ID)
	}
	return out
}

func TestJobs(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "empty restores all", query: "", want: []string{"1", "2", "3"}},
		{name: "blank restores all", query: "   ", want: []string{"1", "2", "3"}},
		{name: "title substring", query: "engineer", want: []string{"1"}},
		{name: "case insensitive company", query: "GLOBEX", want: []string{"2"}},
		{name: "location", query: "bandung", want: []string{"3"}},
		{name: "description", query: "apis", want: []string{"1"}},
		{name: "shared substring", query: "ar", want: []string{"2", "3"}},
		{name: "no match", query: "zzz", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Jobs(sampleJobs(), tt.query))
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestJobsDoesNotMutateInput(t *testing.T) {
	jobs := sampleJobs()
	_ = Jobs(jobs, "acme")
	if len(jobs) != 3 || jobs[0].ID != "1" {
		t.Fatalf("input was modified: %+v", jobs)
	}
}

func TestApplications(t *testing.T) {
	apps := []models.Application{
		{ID: "a", ApplicantName: "Jane Doe", ApplicantEmail: "jane@x.com"},
		{ID: "b", ApplicantName: "John Roe", ApplicantEmail: "john@acme.io"},
	}
	if got := Applications(apps, "ACME"); len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("expected email match on b, got %+v", got)
	}
	if got := Applications(apps, "jane"); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected name match on a, got %+v", got)
	}
	if got := Applications(apps, ""); len(got) != 2 {
		t.Fatalf("expected all applications, got %d", len(got))
	}
}

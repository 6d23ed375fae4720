package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	MaxJobTitleLength       = 200
	MaxJobCompanyLength     = 200
	MaxJobLocationLength    = 200
	MaxJobDescriptionLength = 20000
)

// JobPosting is an employer-authored record describing an open role.
type JobPosting struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// JobInput carries the editable fields of a job posting.
type JobInput struct {
	Title       string `json:"title" yaml:"title"`
	Company     string `json:"company" yaml:"company"`
	Location    string `json:"location" yaml:"location"`
	Description string `json:"description" yaml:"description"`
}

// Normalize trims every field and checks required values and lengths.
func (in JobInput) Normalize() (JobInput, error) {
	out := JobInput{
		Title:       strings.TrimSpace(in.Title),
		Company:     strings.TrimSpace(in.Company),
		Location:    strings.TrimSpace(in.Location),
		Description: strings.TrimSpace(in.Description),
	}
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"title", out.Title, MaxJobTitleLength},
		{"company", out.Company, MaxJobCompanyLength},
		{"location", out.Location, MaxJobLocationLength},
		{"description", out.Description, MaxJobDescriptionLength},
	}
	for _, f := range fields {
		if f.value == "" {
			return JobInput{}, fmt.Errorf("%s is required", f.name)
		}
		if len(f.value) > f.max {
			return JobInput{}, fmt.Errorf("%s too long", f.name)
		}
	}
	return out, nil
}

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"jobboard/internal/api"
	"jobboard/internal/format"
)

var (
	outputFormatter format.Formatter = format.JSONFormatter{}
	stdout          io.Writer        = os.Stdout
)

func writeJSON(payload any) error {
	return outputFormatter.Write(stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(stdout, format, args...)
	return err
}

func writeJobTable(jobs []api.JobResponse) error {
	if len(jobs) == 0 {
		return writePlain("no jobs found\n")
	}
	tbl := format.NewTable("id", "title", "company", "location", "posted")
	for _, job := range jobs {
		tbl.Row(job.ID, format.Truncate(job.Title, 40), job.Company, job.Location, format.Time(job.CreatedAt))
	}
	return tbl.Write(stdout)
}

func writeJobDetail(job api.JobResponse) error {
	return writePlain("id: %s\ntitle: %s\ncompany: %s\nlocation: %s\nposted: %s\n\n%s\n",
		job.ID, job.Title, job.Company, job.Location, format.Time(job.CreatedAt), job.Description)
}

func writeApplicationTable(apps []api.ApplicationResponse) error {
	if len(apps) == 0 {
		return writePlain("no applications found\n")
	}
	tbl := format.NewTable("id", "name", "email", "job", "applied")
	for _, app := range apps {
		job := "-"
		if app.JobTitle != "" {
			job = app.JobTitle + " (" + app.JobCompany + ")"
		}
		tbl.Row(app.ID, app.ApplicantName, app.ApplicantEmail, job, format.Time(app.CreatedAt))
	}
	return tbl.Write(stdout)
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

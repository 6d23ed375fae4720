package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"jobboard/internal/api"
	"jobboard/internal/config"
	"jobboard/internal/models"
)

func newJobsCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List and manage job postings",
	}
	cmd.AddCommand(
		newJobsListCmd(cfg, jsonOutput),
		newJobsShowCmd(cfg, jsonOutput),
		newJobsCreateCmd(cfg, jsonOutput),
		newJobsUpdateCmd(cfg, jsonOutput),
		newJobsDeleteCmd(cfg, jsonOutput),
		newJobsImportCmd(cfg, jsonOutput),
	)
	return cmd
}

func newJobsListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List job postings, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(client *api.Client) error {
				jobs, err := client.ListJobs(cmd.Context(), query)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(jobs)
				}
				return writeJobTable(jobs)
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by title, company, location or description")
	return cmd
}

func newJobsShowCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job posting",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(client *api.Client) error {
				job, err := client.GetJob(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(job)
				}
				return writeJobDetail(job)
			})
		},
	}
}

func newJobsCreateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var req api.JobCreateRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Post a new job",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdminClient(cmd.Context(), cfg, func(client *api.Client) error {
				job, err := client.CreateJob(cmd.Context(), req)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(job)
				}
				return writePlain("created job %s\n", job.ID)
			})
		},
	}
	cmd.Flags().StringVar(&req.Title, "title", "", "job title (required)")
	cmd.Flags().StringVar(&req.Company, "company", "", "company name (required)")
	cmd.Flags().StringVar(&req.Location, "location", "", "location (required)")
	cmd.Flags().StringVar(&req.Description, "description", "", "description (required)")
	return cmd
}

func newJobsUpdateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var title, company, location, description string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a job posting",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req api.JobUpdateRequest
			flags := cmd.Flags()
			if flags.Changed("title") {
				req.Title = &title
			}
			if flags.Changed("company") {
				req.Company = &company
			}
			if flags.Changed("location") {
				req.Location = &location
			}
			if flags.Changed("description") {
				req.Description = &description
			}
			if req == (api.JobUpdateRequest{}) {
				return fmt.Errorf("nothing to update; pass at least one of --title, --company, --location, --description")
			}

			return withAdminClient(cmd.Context(), cfg, func(client *api.Client) error {
				job, err := client.UpdateJob(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(job)
				}
				return writePlain("updated job %s\n", job.ID)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "job title")
	cmd.Flags().StringVar(&company, "company", "", "company name")
	cmd.Flags().StringVar(&location, "location", "", "location")
	cmd.Flags().StringVar(&description, "description", "", "description")
	return cmd
}

func newJobsDeleteCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a job posting and its applications",
		Args:    requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdminClient(cmd.Context(), cfg, func(client *api.Client) error {
				if err := client.DeleteJob(cmd.Context(), args[0]); err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(map[string]any{"id": args[0], "deleted": true})
				}
				return writePlain("deleted job %s\n", args[0])
			})
		},
	}
}

// jobsFile is the YAML document read by jobs import.
type jobsFile struct {
	Jobs []models.JobInput `yaml:"jobs"`
}

func readJobsFile(path string) ([]models.JobInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc jobsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, in := range doc.Jobs {
		if _, err := in.Normalize(); err != nil {
			return nil, fmt.Errorf("%s: job %d: %w", path, i+1, err)
		}
	}
	return doc.Jobs, nil
}

func newJobsImportCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Create job postings from a YAML file",
		Args:  requireExactlyArgs(1, "file is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := readJobsFile(args[0])
			if err != nil {
				return err
			}
			if dryRun {
				if *jsonOutput {
					return writeJSON(map[string]any{"dry_run": true, "count": len(inputs), "jobs": inputs})
				}
				return writePlain("dry run: %d jobs would be created\n", len(inputs))
			}

			return withAdminClient(cmd.Context(), cfg, func(client *api.Client) error {
				created := make([]api.JobResponse, 0, len(inputs))
				for _, in := range inputs {
					job, err := client.CreateJob(cmd.Context(), api.JobCreateRequest{
						Title:       in.Title,
						Company:     in.Company,
						Location:    in.Location,
						Description: in.Description,
					})
					if err != nil {
						return fmt.Errorf("create %q: %w (created %d before failing)", in.Title, err, len(created))
					}
					created = append(created, job)
				}
				if *jsonOutput {
					return writeJSON(map[string]any{"count": len(created), "jobs": created})
				}
				return writePlain("created %d jobs\n", len(created))
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without creating anything")
	return cmd
}

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"jobboard/internal/api"
	"jobboard/internal/config"
)

func newApplicationsCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "applications",
		Aliases: []string{"apps"},
		Short:   "Review submitted applications",
	}
	cmd.AddCommand(newApplicationsListCmd(cfg, jsonOutput), newApplicationsCVCmd(cfg, jsonOutput))
	return cmd
}

func newApplicationsListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var query, jobID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applications, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdminClient(cmd.Context(), cfg, func(client *api.Client) error {
				apps, err := client.ListApplications(cmd.Context(), query, jobID)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(apps)
				}
				return writeApplicationTable(apps)
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by applicant name or email")
	cmd.Flags().StringVar(&jobID, "job", "", "only applications for this job id")
	return cmd
}

func newApplicationsCVCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "cv <application-id>",
		Short: "Download the CV of one application",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdminClient(cmd.Context(), cfg, func(client *api.Client) error {
				var buf bytes.Buffer
				filename, err := client.DownloadCV(cmd.Context(), args[0], &buf)
				if err != nil {
					return err
				}
				if filename == "" {
					filename = args[0]
				}
				path := filepath.Join(outDir, filepath.Base(filename))
				if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				if *jsonOutput {
					return writeJSON(map[string]any{"path": path, "bytes": buf.Len()})
				}
				return writePlain("saved %s (%d bytes)\n", path, buf.Len())
			})
		},
	}
	cmd.Flags().StringVarP(&outDir, "output-dir", "o", ".", "directory to save the CV in")
	return cmd
}

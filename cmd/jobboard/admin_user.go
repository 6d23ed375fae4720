package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	internalauth "jobboard/internal/auth"
	"jobboard/internal/config"
	"jobboard/internal/format"
	"jobboard/internal/store"
)

func newAdminUserCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage admin accounts for the dashboard",
	}
	cmd.AddCommand(
		newAdminUserAddCmd(cfg, jsonOutput),
		newAdminUserListCmd(cfg, jsonOutput),
		newAdminUserSetDisabledCmd(cfg, jsonOutput, true),
		newAdminUserSetDisabledCmd(cfg, jsonOutput, false),
		newAdminUserDeleteCmd(cfg, jsonOutput),
	)
	return cmd
}

// userAction runs against one normalized email and returns the JSON payload
// plus the plain-text confirmation.
type userAction func(ctx context.Context, st *store.Store, email string) (any, string, error)

// emailCommand wires the shared <email> argument, store access and output.
func emailCommand(cfg *config.Config, jsonOutput *bool, cmd *cobra.Command, action userAction) *cobra.Command {
	cmd.Args = requireExactlyArgs(1, "email is required")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		email, err := internalauth.NormalizeEmail(args[0])
		if err != nil {
			return err
		}
		return withStore(cfg, func(st *store.Store) error {
			payload, text, err := action(cmd.Context(), st, email)
			if err != nil {
				return err
			}
			if *jsonOutput {
				return writeJSON(payload)
			}
			return writePlain("%s\n", text)
		})
	}
	return cmd
}

func newAdminUserAddCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var passwordStdin bool
	cmd := &cobra.Command{Use: "add <email>", Short: "Create one admin user"}
	emailCommand(cfg, jsonOutput, cmd, func(ctx context.Context, st *store.Store, email string) (any, string, error) {
		if !passwordStdin {
			return nil, "", fmt.Errorf("--password-stdin is required")
		}
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, "", fmt.Errorf("read password: %w", err)
		}
		hash, err := internalauth.HashPassword(strings.TrimRight(string(raw), "\r\n"))
		if err != nil {
			return nil, "", err
		}
		created, err := st.CreateAdminUser(ctx, email, hash, time.Now().UTC())
		if err != nil {
			return nil, "", err
		}
		return created, fmt.Sprintf("created admin user %s (%s)", created.Email, created.ID), nil
	})
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read password from stdin")
	return cmd
}

func newAdminUserSetDisabledCmd(cfg *config.Config, jsonOutput *bool, disabled bool) *cobra.Command {
	verb := "enable"
	if disabled {
		verb = "disable"
	}
	cmd := &cobra.Command{Use: verb + " <email>", Short: strings.ToUpper(verb[:1]) + verb[1:] + " one admin user"}
	return emailCommand(cfg, jsonOutput, cmd, func(ctx context.Context, st *store.Store, email string) (any, string, error) {
		updated, err := st.SetUserDisabled(ctx, email, disabled, time.Now().UTC())
		if err != nil {
			return nil, "", err
		}
		if updated == nil {
			return nil, "", fmt.Errorf("admin user %s not found", email)
		}
		return updated, fmt.Sprintf("%sd admin user %s", verb, updated.Email), nil
	})
}

func newAdminUserDeleteCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <email>",
		Aliases: []string{"rm"},
		Short:   "Delete one admin user and their sessions",
	}
	return emailCommand(cfg, jsonOutput, cmd, func(ctx context.Context, st *store.Store, email string) (any, string, error) {
		deleted, err := st.DeleteUser(ctx, email)
		if err != nil {
			return nil, "", err
		}
		if !deleted {
			return nil, "", fmt.Errorf("admin user %s not found", email)
		}
		return map[string]any{"email": email, "deleted": true}, "deleted admin user " + email, nil
	})
}

func newAdminUserListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List admin users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(st *store.Store) error {
				users, err := st.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(map[string]any{"count": len(users), "users": users})
				}
				return writeUserTable(users)
			})
		},
	}
}

func writeUserTable(users []store.AuthUser) error {
	if len(users) == 0 {
		return writePlain("no admin users configured\n")
	}
	tbl := format.NewTable("email", "role", "status", "created", "id")
	for _, user := range users {
		status := "enabled"
		if user.Disabled {
			status = "disabled"
		}
		tbl.Row(user.Email, user.Role, status, format.Time(user.CreatedAt), user.ID)
	}
	return tbl.Write(stdout)
}

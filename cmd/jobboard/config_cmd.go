package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"jobboard/internal/config"
	"jobboard/internal/format"
)

func newConfigCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or change configuration",
	}
	cmd.AddCommand(
		newConfigGetCmd(cfg),
		newConfigListCmd(cfg, jsonOutput),
		newConfigSetCmd(),
	)
	return cmd
}

func newConfigGetCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the effective value of a config key",
		Args:  requireExactlyArgs(1, "key is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := lookupConfigKey(cfg, args[0])
			if err != nil {
				return err
			}
			return writePlain("%s\n", value)
		},
	}
}

func newConfigListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every config key with its effective value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := slices.Sorted(slices.Values(config.AllowedKeys()))
			values := make(map[string]string, len(keys))
			tbl := format.NewTable("key", "value")
			for _, key := range keys {
				value, err := cfg.Get(key)
				if err != nil {
					return err
				}
				values[key] = value
				if value == "" {
					value = "-"
				}
				tbl.Row(key, value)
			}
			if *jsonOutput {
				return writeJSON(values)
			}
			return tbl.Write(stdout)
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a config key to the project or global config file",
		Args:  requireExactlyArgs(2, "key and value are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolve := config.ProjectPath
			if global {
				resolve = config.GlobalPath
			}
			path, err := resolve()
			if err != nil {
				return err
			}
			if err := config.SetKey(path, args[0], args[1]); err != nil {
				return err
			}
			return writePlain("%s written to %s\n", args[0], path)
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "write to global config (~/.jobboard.toml)")
	return cmd
}

func lookupConfigKey(cfg *config.Config, key string) (string, error) {
	if !config.IsAllowedKey(key) {
		return "", fmt.Errorf("unknown key: %s (allowed: %v)", key, config.AllowedKeys())
	}
	return cfg.Get(key)
}

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"jobboard/internal/config"
)

const (
	logLevelEnvKey  = "JOBBOARD_LOG_LEVEL"
	logFormatEnvKey = "JOBBOARD_LOG_FORMAT"
)

// levelChoice is the log level that won precedence and where it came from.
type levelChoice struct {
	raw    string
	origin string
}

// describe names the origin for warnings.
func (c levelChoice) describe() string {
	switch c.origin {
	case "env":
		return fmt.Sprintf("%s=%q", logLevelEnvKey, c.raw)
	case "config":
		return fmt.Sprintf("log_level=%q", c.raw)
	default:
		return fmt.Sprintf("--log-level %q", c.raw)
	}
}

// resolveLogLevel applies flag > env > config precedence.
func resolveLogLevel(flagLevel, envLevel, configLevel string) levelChoice {
	for _, c := range []levelChoice{
		{raw: flagLevel, origin: "flag"},
		{raw: envLevel, origin: "env"},
		{raw: configLevel, origin: "config"},
	} {
		if strings.TrimSpace(c.raw) != "" {
			return c
		}
	}
	return levelChoice{origin: "default"}
}

// configureLoggerForCLI installs the default slog logger. A bad flag is an
// error; a bad env or config value falls back to the default level and
// returns a warning for stderr.
func configureLoggerForCLI(flagLevel, configLevel string) (string, error) {
	choice := resolveLogLevel(flagLevel, os.Getenv(logLevelEnvKey), configLevel)
	format := os.Getenv(logFormatEnvKey)

	level, err := parseLogLevel(choice.raw)
	if err == nil {
		slog.SetDefault(newLogger(os.Stderr, format, level))
		return "", nil
	}
	if choice.origin == "flag" {
		return "", fmt.Errorf("invalid --log-level %q", flagLevel)
	}

	fallback, _ := parseLogLevel(config.DefaultLogLevel)
	slog.SetDefault(newLogger(os.Stderr, format, fallback))
	return fmt.Sprintf("warning: invalid %s; defaulting to %s", choice.describe(), config.DefaultLogLevel), nil
}

// parseLogLevel accepts slog names, "warning", and numeric levels. Empty
// means debug.
func parseLogLevel(raw string) (slog.Level, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "":
		return slog.LevelDebug, nil
	case "warning":
		return slog.LevelWarn, nil
	}
	if n, err := strconv.Atoi(value); err == nil {
		return slog.Level(n), nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelDebug, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

// newLogger writes text logs, or JSON lines when format is "json".
func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

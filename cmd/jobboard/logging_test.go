package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]struct {
		want    slog.Level
		wantErr bool
	}{
		"":        {want: slog.LevelDebug},
		"info":    {want: slog.LevelInfo},
		" WARN ":  {want: slog.LevelWarn},
		"warning": {want: slog.LevelWarn},
		"error":   {want: slog.LevelError},
		"8":       {want: slog.LevelError},
		"info+2":  {want: slog.LevelInfo + 2},
		"chatty":  {wantErr: true},
	}
	for raw, tt := range tests {
		got, err := parseLogLevel(raw)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseLogLevel(%q) err=%v wantErr=%v", raw, err, tt.wantErr)
		}
		if err == nil && got != tt.want {
			t.Fatalf("parseLogLevel(%q)=%v want %v", raw, got, tt.want)
		}
	}
}

func TestResolveLogLevelPrecedence(t *testing.T) {
	tests := []struct {
		flag, env, cfg string
		want           levelChoice
	}{
		{"debug", "error", "warn", levelChoice{raw: "debug", origin: "flag"}},
		{" ", "warn", "info", levelChoice{raw: "warn", origin: "env"}},
		{"", "", "error", levelChoice{raw: "error", origin: "config"}},
		{"", "", "", levelChoice{origin: "default"}},
	}
	for _, tt := range tests {
		if got := resolveLogLevel(tt.flag, tt.env, tt.cfg); got != tt.want {
			t.Fatalf("resolveLogLevel(%q,%q,%q)=%+v want %+v", tt.flag, tt.env, tt.cfg, got, tt.want)
		}
	}
}

func TestConfigureLoggerForCLI(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		flag        string
		cfg         string
		wantErr     bool
		wantWarning string
	}{
		{name: "flag wins over bad env", env: "chatty", flag: "info", cfg: "error"},
		{name: "bad flag is fatal", flag: "chatty", cfg: "info", wantErr: true},
		{name: "bad env warns", env: "chatty", cfg: "info", wantWarning: `invalid JOBBOARD_LOG_LEVEL="chatty"; defaulting to debug`},
		{name: "bad config warns", cfg: "chatty", wantWarning: `invalid log_level="chatty"; defaulting to debug`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(logLevelEnvKey, tt.env)
			warning, err := configureLoggerForCLI(tt.flag, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tt.wantErr)
			}
			if tt.wantWarning == "" && warning != "" {
				t.Fatalf("unexpected warning %q", warning)
			}
			if !strings.Contains(warning, tt.wantWarning) {
				t.Fatalf("warning %q does not contain %q", warning, tt.wantWarning)
			}
		})
	}
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "JSON", slog.LevelInfo).Info("listening", "addr", "127.0.0.1:7333")
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"addr":"127.0.0.1:7333"`) {
		t.Fatalf("expected JSON line, got %q", buf.String())
	}

	buf.Reset()
	newLogger(&buf, "", slog.LevelWarn).Info("hidden")
	newLogger(&buf, "", slog.LevelWarn).Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "level=WARN msg=shown") {
		t.Fatalf("unexpected text output %q", buf.String())
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"jobboard/internal/api"
	"jobboard/internal/config"
)

const (
	serverStartTimeout = 3 * time.Second
	serverPollInterval = 100 * time.Millisecond
	serverProbeTimeout = 500 * time.Millisecond

	adminEmailEnvKey    = "JOBBOARD_ADMIN_EMAIL"
	adminPasswordEnvKey = "JOBBOARD_ADMIN_PASSWORD"
)

// withClient runs fn against the configured API, starting a local server
// for the duration of the call when nothing answers at api_url.
func withClient(ctx context.Context, cfg *config.Config, fn func(*api.Client) error) error {
	client := api.NewClient(cfg.APIURL)
	srv, err := ensureServer(ctx, cfg, client)
	if err != nil {
		return err
	}
	defer srv.stop()
	return fn(client)
}

// withAdminClient signs in with the admin credentials from the environment
// and signs out again when fn returns.
func withAdminClient(ctx context.Context, cfg *config.Config, fn func(*api.Client) error) error {
	email := strings.TrimSpace(os.Getenv(adminEmailEnvKey))
	password := os.Getenv(adminPasswordEnvKey)
	if email == "" || password == "" {
		return fmt.Errorf("%s and %s are required for admin commands", adminEmailEnvKey, adminPasswordEnvKey)
	}

	return withClient(ctx, cfg, func(client *api.Client) error {
		if _, err := client.Login(ctx, api.AuthLoginRequest{Email: email, Password: password}); err != nil {
			return err
		}
		defer func() { _ = client.Logout(context.WithoutCancel(ctx)) }()
		return fn(client)
	})
}

// localServer is a `jobboard srv` child process. The zero value stands for a
// server that was already running and is left alone.
type localServer struct {
	cmd *exec.Cmd
}

func (s localServer) stop() {
	if s.cmd == nil || s.cmd.Process == nil {
		return
	}
	_ = s.cmd.Process.Kill()
	_ = s.cmd.Wait()
}

func ensureServer(ctx context.Context, cfg *config.Config, client *api.Client) (localServer, error) {
	probeCtx, cancel := context.WithTimeout(ctx, serverProbeTimeout)
	err := client.Ping(probeCtx)
	cancel()
	if err == nil {
		return localServer{}, nil
	}

	srv, err := startServerProcess(cfg)
	if err != nil {
		return localServer{}, fmt.Errorf("start local server: %w", err)
	}
	if err := waitForServer(ctx, client, serverStartTimeout); err != nil {
		srv.stop()
		return localServer{}, err
	}
	return srv, nil
}

// serverEnv passes the effective storage settings to the child so it serves
// the same data the caller's config points at.
func serverEnv(cfg *config.Config) []string {
	env := []string{
		"JOBBOARD_API_URL=" + cfg.APIURL,
		"JOBBOARD_DB_DRIVER=" + cfg.Database.Driver,
		"JOBBOARD_STORAGE_ROOT=" + cfg.Storage.Root,
	}
	if cfg.Database.Path != "" {
		env = append(env, "JOBBOARD_DB="+cfg.Database.Path)
	}
	if cfg.Database.DSN != "" {
		env = append(env, "JOBBOARD_DB_DSN="+cfg.Database.DSN)
	}
	return env
}

func startServerProcess(cfg *config.Config) (localServer, error) {
	exe, err := os.Executable()
	if err != nil {
		return localServer{}, err
	}

	cmd := exec.Command(exe, "srv")
	cmd.Env = append(os.Environ(), serverEnv(cfg)...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return localServer{}, err
	}
	return localServer{cmd: cmd}, nil
}

// waitForServer polls /health until it answers, the port turns out to be
// owned by something else, or timeout passes.
func waitForServer(ctx context.Context, client *api.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(serverPollInterval)
	defer ticker.Stop()
	for {
		err := client.Ping(ctx)
		if err == nil {
			return nil
		}
		if !isConnRefused(err) && ctx.Err() == nil {
			return err
		}
		select {
		case <-ctx.Done():
			return errors.New("server did not start in time")
		case <-ticker.C:
		}
	}
}

func isConnRefused(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

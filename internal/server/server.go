package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"jobboard/internal/applications"
	"jobboard/internal/auth"
	"jobboard/internal/backend"
	"jobboard/internal/config"
	"jobboard/internal/theme"
)

const (
	allowRemoteEnvKey = "JOBBOARD_ALLOW_REMOTE"
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second

	loginMaxFailures = 5
	loginWindow      = 5 * time.Minute
	loginBlockedFor  = 15 * time.Minute
)

// Pinger reports backend reachability for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backends are the collaborators the server talks to.
type Backends struct {
	Jobs         backend.JobTable
	Applications backend.ApplicationTable
	Auth         *auth.Service
	Storage      backend.ObjectStorage
	Health       Pinger
}

// ApplicationOptions tunes the submission workflow.
type ApplicationOptions struct {
	MaxCVBytes         int64
	MultipartMaxMemory int64
	LinkJob            bool
	Notifier           applications.Notifier
}

// Server wraps HTTP handlers for the job board.
type Server struct {
	addr         string
	jobs         backend.JobTable
	applications backend.ApplicationTable
	auth         *auth.Service
	storage      backend.ObjectStorage
	health       Pinger
	logger       *slog.Logger

	submitter          *applications.Submitter
	downloader         *applications.Downloader
	maxCVBytes         int64
	multipartMaxMemory int64

	theme        *theme.Provider
	views        *views
	loginLimiter *loginRateLimiter
	cookieSecure bool
	sseHeartbeat time.Duration
}

// New creates a new server instance.
func New(addr string, b Backends, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:         addr,
		jobs:         b.Jobs,
		applications: b.Applications,
		auth:         b.Auth,
		storage:      b.Storage,
		health:       b.Health,
		logger:       logger,
		theme:        theme.NewProvider(false),
		views:        mustLoadViews(),
		loginLimiter: newLoginRateLimiter(loginMaxFailures, loginWindow, loginBlockedFor),
		sseHeartbeat: 25 * time.Second,
	}
	if b.Storage != nil {
		s.downloader = applications.NewDownloader(b.Storage)
	}
	s.ConfigureApplicationOptions(ApplicationOptions{
		MaxCVBytes:         config.DefaultMaxCVBytes,
		MultipartMaxMemory: config.DefaultMultipartMaxMemory,
		LinkJob:            config.DefaultLinkJob,
	})
	return s
}

// ConfigureApplicationOptions replaces the submission settings.
func (s *Server) ConfigureApplicationOptions(opts ApplicationOptions) {
	if s == nil {
		return
	}
	s.maxCVBytes = opts.MaxCVBytes
	if s.maxCVBytes <= 0 {
		s.maxCVBytes = applications.DefaultMaxCVBytes
	}
	s.multipartMaxMemory = opts.MultipartMaxMemory
	if s.multipartMaxMemory <= 0 {
		s.multipartMaxMemory = config.DefaultMultipartMaxMemory
	}
	if s.storage == nil || s.applications == nil {
		s.submitter = nil
		return
	}
	submitOpts := []applications.SubmitterOption{applications.WithLinkJob(opts.LinkJob)}
	if opts.Notifier != nil {
		submitOpts = append(submitOpts, applications.WithNotifier(opts.Notifier))
	}
	s.submitter = applications.NewSubmitter(s.storage, s.applications, submitOpts...)
}

// SetCookieSecure marks session and theme cookies Secure regardless of the
// request scheme. Use it behind a TLS-terminating proxy.
func (s *Server) SetCookieSecure(secure bool) {
	s.cookieSecure = secure
	s.theme = theme.NewProvider(secure)
}

// Handler returns the complete middleware chain.
func (s *Server) Handler() http.Handler {
	return s.theme.Middleware(s.withRequestLogging(s.routes()))
}

// ListenAndServe starts the HTTP server and shuts it down when ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.log().Info("starting server", "addr", s.addr)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log().Info("shutting down server", "addr", s.addr)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

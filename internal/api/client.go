package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	httpTimeoutEnvKey  = "JOBBOARD_HTTP_TIMEOUT"
)

// Client is a simple HTTP client for the jobboard API. It keeps the session
// cookie set by Login for later admin calls.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: httpTimeoutFromEnv(), Jar: jar},
	}
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) ListJobs(ctx context.Context, q string) ([]JobResponse, error) {
	var resp []JobResponse
	query := url.Values{}
	if q = strings.TrimSpace(q); q != "" {
		query.Set("q", q)
	}
	err := c.do(ctx, http.MethodGet, "/v1/jobs", query, nil, &resp)
	return resp, err
}

func (c *Client) GetJob(ctx context.Context, id string) (JobResponse, error) {
	var resp JobResponse
	err := c.do(ctx, http.MethodGet, "/v1/jobs/"+url.PathEscape(id), nil, nil, &resp)
	return resp, err
}

func (c *Client) Login(ctx context.Context, req AuthLoginRequest) (AuthSessionResponse, error) {
	var resp AuthSessionResponse
	err := c.do(ctx, http.MethodPost, "/v1/auth/login", nil, req, &resp)
	return resp, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/v1/auth/logout", nil, nil, nil)
}

func (c *Client) Session(ctx context.Context) (AuthSessionResponse, error) {
	var resp AuthSessionResponse
	err := c.do(ctx, http.MethodGet, "/v1/auth/session", nil, nil, &resp)
	return resp, err
}

func (c *Client) CreateJob(ctx context.Context, req JobCreateRequest) (JobResponse, error) {
	var resp JobResponse
	err := c.do(ctx, http.MethodPost, "/v1/admin/jobs", nil, req, &resp)
	return resp, err
}

func (c *Client) UpdateJob(ctx context.Context, id string, req JobUpdateRequest) (JobResponse, error) {
	var resp JobResponse
	err := c.do(ctx, http.MethodPatch, "/v1/admin/jobs/"+url.PathEscape(id), nil, req, &resp)
	return resp, err
}

func (c *Client) DeleteJob(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/admin/jobs/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ListApplications(ctx context.Context, q, jobID string) ([]ApplicationResponse, error) {
	var resp []ApplicationResponse
	query := url.Values{}
	if q = strings.TrimSpace(q); q != "" {
		query.Set("q", q)
	}
	if jobID = strings.TrimSpace(jobID); jobID != "" {
		query.Set("job", jobID)
	}
	err := c.do(ctx, http.MethodGet, "/v1/admin/applications", query, nil, &resp)
	return resp, err
}

// DownloadCV streams the CV of application id into w and returns the
// server-suggested filename.
func (c *Client) DownloadCV(ctx context.Context, id string, w io.Writer) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/admin/applications/"+url.PathEscape(id)+"/cv", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", errorFromResponse(resp)
	}

	filename := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		filename = params["filename"]
	}
	_, err = io.Copy(w, resp.Body)
	return filename, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errorFromResponse(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}

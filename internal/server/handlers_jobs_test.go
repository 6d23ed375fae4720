package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"jobboard/internal/api"
)

func TestListJobsFiltersInMemory(t *testing.T) {
	env := newTestServer(t)
	seedJob(t, env, "Backend Engineer", "Acme")
	seedJob(t, env, "Designer", "Globex")

	tests := []struct {
		query string
		want  []string
	}{
		{query: "", want: []string{"Designer", "Backend Engineer"}},
		{query: "acme", want: []string{"Backend Engineer"}},
		{query: "GLOBEX", want: []string{"Designer"}},
		{query: "remote", want: []string{"Designer", "Backend Engineer"}},
		{query: "nothing-matches", want: []string{}},
	}
	for _, tt := range tests {
		t.Run("q="+tt.query, func(t *testing.T) {
			w := env.do(t, httptest.NewRequest(http.MethodGet, "/v1/jobs?q="+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
			}
			var jobs []api.JobResponse
			if err := json.Unmarshal(w.Body.Bytes(), &jobs); err != nil {
				t.Fatalf("decode jobs: %v", err)
			}
			got := make([]string, 0, len(jobs))
			for _, job := range jobs {
				got = append(got, job.Title)
			}
			slices.Sort(got)
			want := slices.Sorted(slices.Values(tt.want))
			if strings.Join(got, ",") != strings.Join(want, ",") {
				t.Fatalf("expected %v, got %v", want, got)
			}
		})
	}
}

func TestGetJob(t *testing.T) {
	env := newTestServer(t)
	job := seedJob(t, env, "Backend Engineer", "Acme")

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/v1/jobs/"+job.ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got api.JobResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if got.ID != job.ID || got.Company != "Acme" {
		t.Fatalf("unexpected job %+v", got)
	}

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/v1/jobs/missing-job", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if code := decodeErrorResponse(t, w).ErrorCode; code != ErrCodeJobNotFound {
		t.Fatalf("expected error_code %d, got %d", ErrCodeJobNotFound, code)
	}

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/v1/jobs/bad%20id", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid id, got %d", w.Code)
	}
}

func TestAdminJobCRUD(t *testing.T) {
	env := newTestServer(t)
	seedAdminUser(t, env, testAdminEmail, testAdminPassword)
	cookie := loginCookie(t, env)

	createReq := httptest.NewRequest(http.MethodPost, "/v1/admin/jobs", strings.NewReader(`{"title":" Backend Engineer ","company":"Acme","location":"Berlin","description":"Go services"}`))
	createReq.AddCookie(cookie)
	createW := env.do(t, createReq)
	if createW.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", createW.Code, createW.Body.String())
	}
	var created api.JobResponse
	if err := json.Unmarshal(createW.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created job: %v", err)
	}
	if created.ID == "" || created.Title != "Backend Engineer" {
		t.Fatalf("unexpected created job %+v", created)
	}

	patchReq := httptest.NewRequest(http.MethodPatch, "/v1/admin/jobs/"+created.ID, strings.NewReader(`{"location":"Remote"}`))
	patchReq.AddCookie(cookie)
	patchW := env.do(t, patchReq)
	if patchW.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", patchW.Code, patchW.Body.String())
	}
	var patched api.JobResponse
	if err := json.Unmarshal(patchW.Body.Bytes(), &patched); err != nil {
		t.Fatalf("decode patched job: %v", err)
	}
	if patched.Location != "Remote" || patched.Title != "Backend Engineer" {
		t.Fatalf("patch should only change location, got %+v", patched)
	}

	deleteReq := httptest.NewRequest(http.MethodDelete, "/v1/admin/jobs/"+created.ID, nil)
	deleteReq.AddCookie(cookie)
	if w := env.do(t, deleteReq); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d (%s)", w.Code, w.Body.String())
	}

	deleteReq = httptest.NewRequest(http.MethodDelete, "/v1/admin/jobs/"+created.ID, nil)
	deleteReq.AddCookie(cookie)
	if w := env.do(t, deleteReq); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestAdminJobPayloadValidation(t *testing.T) {
	env := newTestServer(t)
	seedAdminUser(t, env, testAdminEmail, testAdminPassword)
	cookie := loginCookie(t, env)

	tests := []struct {
		name     string
		method   string
		body     string
		wantCode int
	}{
		{name: "malformed", method: http.MethodPost, body: `{"title":`, wantCode: ErrCodeInvalidPayload},
		{name: "missing field", method: http.MethodPost, body: `{"title":"x","company":"y","location":"z"}`, wantCode: ErrCodeInvalidPayload},
		{name: "unknown field", method: http.MethodPost, body: `{"title":"x","company":"y","location":"z","description":"d","salary":1}`, wantCode: ErrCodeInvalidPayload},
		{name: "blank after trim", method: http.MethodPost, body: `{"title":"   ","company":"y","location":"z","description":"d"}`, wantCode: ErrCodeInvalidArgument},
		{name: "empty patch", method: http.MethodPatch, body: `{}`, wantCode: ErrCodeInvalidPayload},
	}
	job := seedJob(t, env, "Backend Engineer", "Acme")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/v1/admin/jobs"
			if tt.method == http.MethodPatch {
				path += "/" + job.ID
			}
			req := httptest.NewRequest(tt.method, path, strings.NewReader(tt.body))
			req.AddCookie(cookie)
			w := env.do(t, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
			}
			if got := decodeErrorResponse(t, w).ErrorCode; got != tt.wantCode {
				t.Fatalf("expected error_code %d, got %d", tt.wantCode, got)
			}
		})
	}
}

package server

import (
	"net/http"

	"jobboard/internal/metrics"
	"jobboard/internal/objectstore"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health and metrics.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	// Public pages.
	mux.HandleFunc("GET /{$}", s.handleLanding)
	mux.HandleFunc("GET /jobs", s.handleJobsPage)
	mux.HandleFunc("GET /job/{id}", s.handleJobPage)
	mux.HandleFunc("POST /job/{id}/apply", s.handleApplyForm)
	mux.HandleFunc("POST /theme/toggle", s.handleThemeToggle)
	mux.Handle("GET /ui/", s.uiAssetHandler())
	mux.HandleFunc("GET "+objectstore.PublicPathPrefix+"{bucket}/{key...}", s.handlePublicObject)

	// Admin pages.
	mux.HandleFunc("GET /admin", s.handleLoginPage)
	mux.HandleFunc("GET /admin/login", s.handleLoginPage)
	mux.HandleFunc("POST /admin/login", s.handleLoginForm)
	mux.HandleFunc("POST /admin/logout", s.handleLogoutForm)
	mux.Handle("GET /admin/dashboard", s.requireAdminPage(s.handleDashboard))
	mux.Handle("POST /admin/jobs", s.requireAdminPage(s.handleCreateJobForm))
	mux.Handle("POST /admin/jobs/{id}", s.requireAdminPage(s.handleUpdateJobForm))
	mux.Handle("POST /admin/jobs/{id}/delete", s.requireAdminPage(s.handleDeleteJobForm))
	mux.Handle("GET /admin/applications/{id}/cv", s.requireAdminPage(s.handleDownloadCVPage))
	mux.HandleFunc("GET /admin/events", s.handleAdminEvents)

	// JSON API.
	mux.HandleFunc("GET /v1/jobs", s.handleListJobs)
	mux.HandleFunc("GET /v1/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("POST /v1/jobs/{id}/applications", s.handleSubmitApplication)

	mux.HandleFunc("POST /v1/auth/login", s.handleAuthLogin)
	mux.HandleFunc("POST /v1/auth/logout", s.handleAuthLogout)
	mux.HandleFunc("GET /v1/auth/session", s.handleAuthSession)

	mux.Handle("POST /v1/admin/jobs", s.requireAdminAPI(s.handleCreateJob))
	mux.Handle("PATCH /v1/admin/jobs/{id}", s.requireAdminAPI(s.handleUpdateJob))
	mux.Handle("DELETE /v1/admin/jobs/{id}", s.requireAdminAPI(s.handleDeleteJob))
	mux.Handle("GET /v1/admin/applications", s.requireAdminAPI(s.handleListApplications))
	mux.Handle("GET /v1/admin/applications/{id}/cv", s.requireAdminAPI(s.handleDownloadCV))

	return mux
}

package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"jobboard/internal/models"
)

const (
	landingJobCount  = 3
	formMaxBody      = 1 << 20
	dashboardPath    = "/admin/dashboard"
	loginFailedText  = "Login failed. Check your email and password."
	throttledLoginUI = "Too many login attempts. Try again later."
)

var dashboardNotices = map[string]string{
	"created": "Job created.",
	"updated": "Job updated.",
	"deleted": "Job deleted.",
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.listJobs(r.Context(), "")
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if len(jobs) > landingJobCount {
		jobs = jobs[:landingJobCount]
	}
	s.render(w, r, http.StatusOK, "landing", pageData{Jobs: jobs})
}

func (s *Server) handleJobsPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	jobs, err := s.listJobs(r.Context(), q)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "jobs", pageData{Title: "Jobs", Query: q, Jobs: jobs})
}

func (s *Server) handleJobPage(w http.ResponseWriter, r *http.Request) {
	id, err := requirePathID(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	job, err := s.getJob(r.Context(), id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "job", s.jobPageData(job))
}

func (s *Server) jobPageData(job models.JobPosting) pageData {
	return pageData{Title: job.Title, Job: job, MaxCVMiB: s.maxCVBytes >> 20}
}

// handleApplyForm submits the apply form. On failure the page is shown again
// with the error and the applicant's name and email.
func (s *Server) handleApplyForm(w http.ResponseWriter, r *http.Request) {
	id, err := requirePathID(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	sub, err := s.submitApplication(w, r, id)
	if sub.job.ID == "" {
		s.renderError(w, r, err)
		return
	}

	data := s.jobPageData(sub.job)
	if err != nil {
		status := httpStatusFromError(err)
		if status >= 500 {
			s.log().Error("application submit failed", "job_id", id, "error", err)
		}
		data.Error = userMessage(err)
		data.Form = formView{Name: sub.form.Name, Email: sub.form.Email}
		s.render(w, r, status, "job", data)
		return
	}
	data.Confirmation = confirmationMessage(sub.result)
	s.render(w, r, http.StatusOK, "job", data)
}

func (s *Server) handleThemeToggle(w http.ResponseWriter, r *http.Request) {
	s.theme.Toggle(w, r)
	http.Redirect(w, r, localReferer(r), http.StatusSeeOther)
}

// localReferer returns the referring path on this host, "/" otherwise.
func localReferer(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") {
		return "/"
	}
	if ref.Host != "" && ref.Host != r.Host {
		return "/"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.auth != nil {
		if session, err := s.auth.GetSession(r.Context(), sessionTokenFromRequest(r)); err == nil && session != nil {
			http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
			return
		}
	}
	s.render(w, r, http.StatusOK, "login", pageData{Title: "Admin login"})
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, formMaxBody)
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, badRequestCode(err, ErrCodeInvalidForm))
		return
	}
	email := r.PostForm.Get("email")

	if _, err := s.signIn(w, r, email, r.PostForm.Get("password")); err != nil {
		status := httpStatusFromError(err)
		message := userMessage(err)
		switch status {
		case http.StatusUnauthorized:
			message = loginFailedText
		case http.StatusTooManyRequests:
			message = throttledLoginUI
		}
		if status >= 500 {
			s.log().Error("admin sign-in failed", "error", err)
		}
		s.render(w, r, status, "login", pageData{Title: "Admin login", Error: message, Form: formView{Email: email}})
		return
	}
	http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
}

func (s *Server) handleLogoutForm(w http.ResponseWriter, r *http.Request) {
	if err := s.signOut(w, r); err != nil {
		s.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.renderDashboard(w, r, http.StatusOK, pageData{Notice: dashboardNotices[r.URL.Query().Get("notice")]})
}

// renderDashboard loads jobs and the filtered applicant list into data.
func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	q := r.URL.Query().Get("q")
	jobID := strings.TrimSpace(r.URL.Query().Get("job"))
	if jobID != "" && !validateID(jobID) {
		jobID = ""
	}

	jobs, err := s.listJobs(r.Context(), "")
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	applicants, err := s.listApplicants(r.Context(), q, jobID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	data.Title = "Dashboard"
	data.Query = q
	data.JobFilter = jobID
	data.Jobs = jobs
	data.Applicants = applicants
	s.render(w, r, status, "dashboard", data)
}

func (s *Server) handleCreateJobForm(w http.ResponseWriter, r *http.Request) {
	in, ok := s.jobInputFromForm(w, r)
	if !ok {
		return
	}
	if _, err := s.createJob(r.Context(), in); err != nil {
		s.renderDashboardError(w, r, err, in)
		return
	}
	http.Redirect(w, r, dashboardPath+"?notice=created", http.StatusSeeOther)
}

func (s *Server) handleUpdateJobForm(w http.ResponseWriter, r *http.Request) {
	id, err := requirePathID(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	in, ok := s.jobInputFromForm(w, r)
	if !ok {
		return
	}
	if _, err := s.updateJob(r.Context(), id, in); err != nil {
		s.renderDashboardError(w, r, err, models.JobInput{})
		return
	}
	http.Redirect(w, r, dashboardPath+"?notice=updated", http.StatusSeeOther)
}

func (s *Server) handleDeleteJobForm(w http.ResponseWriter, r *http.Request) {
	id, err := requirePathID(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if err := s.deleteJob(r.Context(), id); err != nil {
		s.renderDashboardError(w, r, err, models.JobInput{})
		return
	}
	http.Redirect(w, r, dashboardPath+"?notice=deleted", http.StatusSeeOther)
}

func (s *Server) renderDashboardError(w http.ResponseWriter, r *http.Request, err error, draft models.JobInput) {
	status := httpStatusFromError(err)
	if status >= 500 {
		s.renderError(w, r, err)
		return
	}
	s.renderDashboard(w, r, status, pageData{Error: userMessage(err), Form: formView{Job: draft}})
}

func (s *Server) jobInputFromForm(w http.ResponseWriter, r *http.Request) (models.JobInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, formMaxBody)
	if err := r.ParseForm(); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.renderError(w, r, badRequestCode(errors.New("request body too large"), ErrCodeRequestTooLarge))
			return models.JobInput{}, false
		}
		s.renderError(w, r, badRequestCode(err, ErrCodeInvalidForm))
		return models.JobInput{}, false
	}
	return models.JobInput{
		Title:       r.PostForm.Get("title"),
		Company:     r.PostForm.Get("company"),
		Location:    r.PostForm.Get("location"),
		Description: r.PostForm.Get("description"),
	}, true
}

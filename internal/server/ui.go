package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"jobboard/internal/backend"
	"jobboard/internal/models"
	"jobboard/internal/theme"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed uiassets/*
var uiFS embed.FS

var pageNames = []string{"landing", "jobs", "job", "login", "dashboard", "error"}

// views holds one parsed template set per page, each sharing the layout.
type views struct {
	pages map[string]*template.Template
}

// formView carries user input back into a re-rendered form.
type formView struct {
	Name  string
	Email string
	Job   models.JobInput
}

// pageData is the model every page renders from.
type pageData struct {
	Title        string
	Theme        theme.Theme
	Admin        *backend.Session
	Status       int
	Query        string
	JobFilter    string
	Jobs         []models.JobPosting
	Job          models.JobPosting
	Applicants   []applicantRow
	Form         formView
	MaxCVMiB     int64
	Confirmation string
	Notice       string
	Error        string
}

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("2 Jan 2006")
	},
	"year": func() int { return time.Now().Year() },
	"excerpt": func(s string, n int) string {
		s = strings.Join(strings.Fields(s), " ")
		runes := []rune(s)
		if len(runes) <= n {
			return s
		}
		return strings.TrimSpace(string(runes[:n])) + "…"
	},
	"statusText": http.StatusText,
}

func loadViews() (*views, error) {
	v := &views{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		v.pages[name] = tmpl
	}
	return v, nil
}

func mustLoadViews() *views {
	v, err := loadViews()
	if err != nil {
		panic(err)
	}
	return v
}

// render executes page into a buffer first so a template error never
// leaves a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	data.Theme = theme.FromContext(r.Context())
	if data.Admin == nil {
		if session, ok := sessionFromContext(r.Context()); ok {
			data.Admin = session
		}
	}
	if data.Status == 0 {
		data.Status = status
	}

	tmpl, ok := s.views.pages[page]
	if !ok {
		s.log().Error("unknown page template", "page", page)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.log().Error("render page", "page", page, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError shows err on the error page, masking 5xx details.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromError(err)
	message := userMessage(err)
	fields := []any{"status", status, "error", err, "method", r.Method, "path", r.URL.Path}
	if status >= 500 {
		s.log().Error("page error", fields...)
	} else {
		s.log().Debug("page error", fields...)
	}
	s.render(w, r, status, "error", pageData{Title: http.StatusText(status), Error: message})
}

// userMessage is the text shown to a visitor for err. Submission failures
// keep their backend message; other server errors are masked.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	if httpStatusFromError(err) < 500 {
		return err.Error()
	}
	switch errorEnvelope(http.StatusInternalServerError, err).ErrorCode {
	case ErrCodeUploadFailed, ErrCodeRecordFailed, ErrCodeDownloadFailed:
		return err.Error()
	}
	return "internal error"
}

func (s *Server) uiAssetHandler() http.Handler {
	assets, err := fs.Sub(uiFS, "uiassets")
	if err != nil {
		return http.NotFoundHandler()
	}

	fileServer := http.StripPrefix("/ui/", http.FileServerFS(assets))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		fileServer.ServeHTTP(w, r)
	})
}

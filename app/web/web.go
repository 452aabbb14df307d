// Package web serves the results dashboard, an HTML view of recent runs plus
// a JSON API for programmatic access.
package web

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v8"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"
	"golang.org/x/crypto/bcrypt"

	"github.com/storecheck/storecheck/app/store"
)

// Storage is the subset of the results store the dashboard reads
type Storage interface {
	RecentRuns(ctx context.Context, limit int) ([]store.Run, error)
	Trials(ctx context.Context, runID int64) ([]store.Trial, error)
}

// Config defines the web server
type Config struct {
	Store        Storage
	Target       string
	Hostname     string
	Version      string
	PasswordHash string // bcrypt hash for basic auth, empty disables auth
}

// Server is the dashboard HTTP server
type Server struct {
	store        Storage
	target       string
	hostname     string
	version      string
	passwordHash string
	startedAt    time.Time
	tmpl         *template.Template
}

// New creates the dashboard server
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("web server initialization failed: store is required")
	}
	tmpl, err := template.New("dashboard").Parse(dashboardTmpl)
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}
	return &Server{
		store:        cfg.Store,
		target:       cfg.Target,
		hostname:     cfg.Hostname,
		version:      cfg.Version,
		passwordHash: cfg.PasswordHash,
		startedAt:    time.Now(),
		tmpl:         tmpl,
	}, nil
}

// Run starts the web server and blocks until the context is canceled
func (s *Server) Run(ctx context.Context, address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown server: %v", err)
		}
	}()

	log.Printf("[INFO] starting web server on %s", address)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// routes returns the http.Handler with all routes configured
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	router.Use(
		rest.RealIP,
		rest.Recoverer(log.Default()),
		rest.Throttle(1000),
		rest.AppInfo("storecheck", "storecheck", s.version),
		rest.Ping,
		rest.Trace,
		rest.SizeLimit(64*1024),
		logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler,
	)

	if s.passwordHash != "" {
		log.Printf("[INFO] authentication enabled for dashboard")
		router.Use(s.authMiddleware)
	}

	router.HandleFunc("GET /", s.handleDashboard)

	apiLimiter := tollbooth.NewLimiter(10, nil)
	router.Mount("/api/v1").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)
		api.Use(tollbooth.HTTPMiddleware(apiLimiter))
		api.HandleFunc("GET /status", s.handleStatus)
		api.HandleFunc("GET /runs", s.handleRuns)
		api.HandleFunc("GET /runs/{id}/trials", s.handleTrials)
	})

	return router
}

// authMiddleware requires basic auth with the configured bcrypt hash
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, password, ok := r.BasicAuth()
		if ok && bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)) == nil {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="Storecheck Dashboard"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

// render executes the dashboard template into the response
func (s *Server) render(w http.ResponseWriter, data any) {
	buf := new(bytes.Buffer)
	if err := s.tmpl.Execute(buf, data); err != nil {
		log.Printf("[WARN] failed to execute template: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

const dashboardTmpl = `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8">
	<title>Storecheck Dashboard</title>
	<style>
		body { font-family: Arial, sans-serif; margin: 2em; }
		.header { font-size: 1.4em; margin-bottom: 0.2em; }
		.target-badge { color: #666; margin-bottom: 1.5em; }
		table.runs-table { border-collapse: collapse; width: 100%; }
		table.runs-table th, table.runs-table td { border: 1px solid #ddd; padding: 0.4em 0.8em; text-align: left; }
		.run-failed { color: #882828; font-weight: bold; }
		.run-passed { color: #2e7d32; }
	</style>
</head>
<body>
	<div class="header">Storecheck Dashboard</div>
	<div class="target-badge">{{.Target}} &mdash; {{.Hostname}}</div>
	<table class="runs-table">
		<tr><th>Run</th><th>Started</th><th>Trials</th><th>Passed</th><th>Failed</th></tr>
		{{range .Runs}}
		<tr class="run-row">
			<td>{{.ID}}</td>
			<td>{{.StartedAt.Format "2006-01-02 15:04:05"}}</td>
			<td>{{.Total}}</td>
			<td class="run-passed">{{.Passed}}</td>
			<td {{if gt .Failed 0}}class="run-failed"{{end}}>{{.Failed}}</td>
		</tr>
		{{end}}
	</table>
</body>
</html>
`

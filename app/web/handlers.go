package web

import (
	"net/http"
	"strconv"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"

	"github.com/storecheck/storecheck/app/store"
)

// StatusResponse is the JSON response for /api/v1/status
type StatusResponse struct {
	Target    string    `json:"target"`
	Hostname  string    `json:"hostname"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	LastRun   *RunInfo  `json:"last_run,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RunInfo represents a run in JSON API responses
type RunInfo struct {
	ID         int64     `json:"id"`
	Target     string    `json:"target"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Total      int       `json:"total"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
}

// TrialInfo represents a trial in JSON API responses
type TrialInfo struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	MainMenu    string    `json:"main_menu"`
	SubMenu     string    `json:"sub_menu,omitempty"`
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	Location    string    `json:"location,omitempty"`
	Error       string    `json:"error,omitempty"`
	Screenshot  string    `json:"screenshot,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	ElapsedMs   int64     `json:"elapsed_ms"`
}

func makeRunInfo(r store.Run) RunInfo {
	return RunInfo{ID: r.ID, Target: r.Target, StartedAt: r.StartedAt, FinishedAt: r.FinishedAt,
		Total: r.Total, Passed: r.Passed, Failed: r.Failed}
}

// handleDashboard renders the HTML view of recent runs
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.RecentRuns(r.Context(), 20)
	if err != nil {
		log.Printf("[WARN] failed to load runs: %v", err)
		http.Error(w, "Storage error", http.StatusInternalServerError)
		return
	}
	s.render(w, map[string]any{"Target": s.target, "Hostname": s.hostname, "Runs": runs})
}

// handleStatus answers with service info and the latest run summary
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Target:    s.target,
		Hostname:  s.hostname,
		Version:   s.version,
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
		Timestamp: time.Now(),
	}

	runs, err := s.store.RecentRuns(r.Context(), 1)
	if err != nil {
		log.Printf("[WARN] failed to load last run: %v", err)
		http.Error(w, "Storage error", http.StatusInternalServerError)
		return
	}
	if len(runs) > 0 {
		info := makeRunInfo(runs[0])
		resp.LastRun = &info
	}
	rest.RenderJSON(w, resp)
}

// handleRuns lists recent runs, newest first
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := s.store.RecentRuns(r.Context(), limit)
	if err != nil {
		log.Printf("[WARN] failed to load runs: %v", err)
		http.Error(w, "Storage error", http.StatusInternalServerError)
		return
	}

	resp := make([]RunInfo, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, makeRunInfo(run))
	}
	rest.RenderJSON(w, resp)
}

// handleTrials lists the trials of one run in execution order
func (s *Server) handleTrials(w http.ResponseWriter, r *http.Request) {
	runID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid run id", http.StatusBadRequest)
		return
	}

	trials, err := s.store.Trials(r.Context(), runID)
	if err != nil {
		log.Printf("[WARN] failed to load trials for run %d: %v", runID, err)
		http.Error(w, "Storage error", http.StatusInternalServerError)
		return
	}

	resp := make([]TrialInfo, 0, len(trials))
	for _, t := range trials {
		resp = append(resp, TrialInfo{
			ID:          t.ID,
			Description: t.Description,
			MainMenu:    t.MainMenu,
			SubMenu:     t.SubMenu,
			Kind:        string(t.Kind),
			Status:      string(t.Status),
			Location:    t.Location,
			Error:       t.Error,
			Screenshot:  t.Screenshot,
			StartedAt:   t.StartedAt,
			ElapsedMs:   t.ElapsedMs,
		})
	}
	rest.RenderJSON(w, resp)
}

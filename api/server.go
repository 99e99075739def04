// Package api serves the health and status endpoints of serve mode.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/github-devtools-2022/ghas-to-csv/config"
	"github.com/github-devtools-2022/ghas-to-csv/github"
	"github.com/github-devtools-2022/ghas-to-csv/pipeline"
	"github.com/github-devtools-2022/ghas-to-csv/scheduler"
)

// StatusProvider exposes scheduler state to the API handlers.
type StatusProvider interface {
	GetScheduleCount() int
	GetLastSyncTime() time.Time
	GetScheduleDetails() []scheduler.ScheduleDetail
	GetRecentRuns() []*pipeline.Run
}

// Server is the health/status API server.
type Server struct {
	config         *config.WebAPIConfig
	appConfig      *config.Config
	httpServer     *http.Server
	statusProvider StatusProvider
	startTime      time.Time
	mu             sync.RWMutex
}

// NewServer creates a new API server.
func NewServer(cfg *config.WebAPIConfig, appCfg *config.Config) *Server {
	return &Server{
		config:    cfg,
		appConfig: appCfg,
		startTime: time.Now(),
	}
}

// SetStatusProvider wires in the scheduler once it exists.
func (s *Server) SetStatusProvider(provider StatusProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusProvider = provider
}

// Start starts the API server.
func (s *Server) Start() error {
	if !s.config.Enabled {
		slog.Info("web API server is disabled")
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/schedules", s.handleSchedules)
	mux.HandleFunc("/runs", s.handleRuns)
	mux.HandleFunc("/config", s.handleConfig)

	addr := net.JoinHostPort(s.config.Host, fmt.Sprintf("%d", s.config.Port))
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("API server started", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Stop stops the API server.
func (s *Server) Stop() {
	if s.httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("failed to stop API server", "error", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"service": "ghas-to-csv",
		"endpoints": []map[string]string{
			{"path": "/healthz", "description": "Health check"},
			{"path": "/status", "description": "Service status (uptime, schedules, last sync, last run)"},
			{"path": "/schedules", "description": "Registered cron trigger list"},
			{"path": "/runs", "description": "Recent report runs, newest first"},
			{"path": "/config", "description": "Public configuration"},
		},
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	provider := s.statusProvider
	s.mu.RUnlock()

	status := map[string]interface{}{
		"uptime_seconds": time.Since(s.startTime).Seconds(),
	}

	if provider != nil {
		status["schedules"] = provider.GetScheduleCount()
		lastSync := provider.GetLastSyncTime()
		if !lastSync.IsZero() {
			status["last_sync"] = lastSync.Format(time.RFC3339)
		}
		if runs := provider.GetRecentRuns(); len(runs) > 0 {
			last := runs[0]
			status["last_run"] = map[string]interface{}{
				"id":         last.ID,
				"status":     last.Status,
				"started_at": last.StartedAt.Format(time.RFC3339),
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (s *Server) handleSchedules(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	provider := s.statusProvider
	s.mu.RUnlock()

	var schedules []scheduler.ScheduleDetail
	if provider != nil {
		schedules = provider.GetScheduleDetails()
	}
	if schedules == nil {
		schedules = []scheduler.ScheduleDetail{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(schedules)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	provider := s.statusProvider
	s.mu.RUnlock()

	var runs []*pipeline.Run
	if provider != nil {
		runs = provider.GetRecentRuns()
	}
	if runs == nil {
		runs = []*pipeline.Run{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

// configResponse is the publicly exposable part of the configuration.
// The token never leaves the process.
type configResponse struct {
	GitHub configGitHub `json:"github"`
	Report configReport `json:"report"`
	Serve  configServe  `json:"serve"`
	Log    configLog    `json:"log"`
	WebAPI configWebAPI `json:"webapi"`
}

type configGitHub struct {
	APIURL    string `json:"api_url"`
	ServerURL string `json:"server_url"`
}

type configReport struct {
	Scopes   []github.Scope   `json:"scopes"`
	Features []github.Feature `json:"features"`
}

type configServe struct {
	SyncIntervalMinutes int    `json:"sync_interval_minutes"`
	RunOnStart          bool   `json:"run_on_start"`
	Timezone            string `json:"timezone"`
}

type configLog struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type configWebAPI struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	appCfg := s.appConfig
	s.mu.RUnlock()

	resp := configResponse{
		GitHub: configGitHub{
			APIURL:    appCfg.GitHub.APIURL,
			ServerURL: appCfg.GitHub.ServerURL,
		},
		Report: configReport{
			Scopes:   appCfg.Report.Scopes,
			Features: appCfg.Report.Features,
		},
		Serve: configServe{
			SyncIntervalMinutes: appCfg.Serve.SyncIntervalMinutes,
			RunOnStart:          appCfg.Serve.RunOnStart,
			Timezone:            appCfg.Serve.Timezone,
		},
		Log: configLog{
			Level:  appCfg.Log.Level,
			Format: appCfg.Log.Format,
		},
		WebAPI: configWebAPI{
			Enabled: appCfg.WebAPI.Enabled,
			Host:    appCfg.WebAPI.Host,
			Port:    appCfg.WebAPI.Port,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Package api exposes run history and run triggering over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"verigo/events"
	"verigo/gate"
	"verigo/runner"
	"verigo/runner/history"
)

// Handlers bundles the dependencies the HTTP surface needs.
type Handlers struct {
	Store      *history.Store
	Service    *gate.Service
	Workspaces *runner.WorkspaceSet
	Broker     *events.Broker
	BaseDir    string
}

// Router assembles the API routes.
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(cors)

	r.Route("/api", func(r chi.Router) {
		r.Get("/runs", h.getRuns)
		r.Get("/runs/{id}", h.getRun)
		r.Post("/runs", h.postRun)
		r.Get("/workspaces", h.getWorkspaces)
		r.Post("/workspaces/{name}/runs", h.postWorkspaceRun)
		r.Get("/workspaces/{name}/stats", h.getWorkspaceStats)
		r.Get("/events", h.sse)
	})
	return r
}

func (h *Handlers) getRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.GetRuns(100)
	if err != nil {
		http.Error(w, "failed to get runs: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

func (h *Handlers) getRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid run ID", http.StatusBadRequest)
		return
	}

	run, err := h.Store.GetRun(id)
	if err != nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	steps, err := h.Store.GetStepRecords(id)
	if err != nil {
		http.Error(w, "failed to get steps: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"run":   run,
		"steps": steps,
	})
}

// postRun triggers a verification run for a config path. The run executes
// in the background; poll /api/runs or subscribe to /api/events for the
// outcome.
func (h *Handlers) postRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigPath string `json:"config_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConfigPath == "" {
		http.Error(w, "config_path is required", http.StatusBadRequest)
		return
	}

	go func() {
		if _, err := h.Service.Verify(context.Background(), req.ConfigPath, ""); err != nil {
			log.Printf("❌ triggered run failed to start: %v", err)
		}
	}()

	writeJSONStatus(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (h *Handlers) getWorkspaces(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Workspaces.Workspaces)
}

func (h *Handlers) postWorkspaceRun(w http.ResponseWriter, r *http.Request) {
	ws, err := h.Workspaces.Get(chi.URLParam(r, "name"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	go func() {
		if _, err := h.Service.VerifyWorkspace(context.Background(), ws, h.BaseDir); err != nil {
			log.Printf("❌ triggered run failed to start for %s: %v", ws.Name, err)
		}
	}()

	writeJSONStatus(w, http.StatusAccepted, map[string]string{"status": "started", "workspace": ws.Name})
}

func (h *Handlers) getWorkspaceStats(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := h.Workspaces.Get(name); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	stats, err := h.Store.LatestRuns(name, 20)
	if err != nil {
		http.Error(w, "failed to get stats: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

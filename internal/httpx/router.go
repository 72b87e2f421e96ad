// Package httpx exposes the pipeline over HTTP: trigger a run, fetch stored
// runs, and the usual health and metrics endpoints.
package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"adinsight/app"
	"adinsight/domain/core"
	"adinsight/internal"
	"adinsight/ports"
)

var (
	runsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adinsight_runs_started_total",
		Help: "Pipeline runs started over HTTP.",
	})
	runsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adinsight_runs_failed_total",
		Help: "Pipeline runs that ended in an error.",
	})
	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "adinsight_run_duration_seconds",
		Help:    "Wall-clock duration of a pipeline run.",
		Buckets: prometheus.DefBuckets,
	})
)

type runRequest struct {
	Query  string `json:"query"`
	OutDir string `json:"out_dir,omitempty"`
}

// NewRouter builds the HTTP surface. The repository is optional; without it
// the stored-run endpoints answer 404.
func NewRouter(orch *app.Orchestrator, repo ports.RunRepository, defaultOutDir string) http.Handler {
	log := internal.DefaultLogger
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	mux.Handle("/metrics", promhttp.Handler())

	mux.Post("/runs", func(w http.ResponseWriter, r *http.Request) {
		var req runRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if req.Query == "" {
			req.Query = "Analyze recent advertising performance"
		}
		if req.OutDir == "" {
			req.OutDir = defaultOutDir
		}

		runsStarted.Inc()
		timer := prometheus.NewTimer(runDuration)
		result, err := orch.Run(r.Context(), req.Query, req.OutDir)
		timer.ObserveDuration()
		if err != nil {
			runsFailed.Inc()
			log.Error("run failed: %v", err)
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, result)
	})

	mux.Get("/runs", func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			http.Error(w, "run storage not configured", http.StatusNotFound)
			return
		}
		limit := 20
		if q := r.URL.Query().Get("limit"); q != "" {
			if n, err := strconv.Atoi(q); err == nil && n > 0 {
				limit = n
			}
		}
		runs, err := repo.ListRuns(r.Context(), limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, runs)
	})

	mux.Get("/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			http.Error(w, "run storage not configured", http.StatusNotFound)
			return
		}
		id, err := core.ParseRunID(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		run, err := repo.GetRun(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, run)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}

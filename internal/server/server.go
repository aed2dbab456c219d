package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/imai1205/zumen-connect-backend/internal/bootstrap/config"
	"github.com/imai1205/zumen-connect-backend/internal/bootstrap/logging"
	"github.com/imai1205/zumen-connect-backend/internal/ports"
)

const serviceVersion = "0.1.0"

// Server exposes the worker's narrow HTTP surface: job enqueue plus
// service and health probes. Processing itself happens in the poll loop,
// never in a request handler.
type Server struct {
	jobs    ports.JobRepository
	appName string
	apiKey  string
}

func New(jobs ports.JobRepository, cfg config.Config) *Server {
	return &Server{
		jobs:    jobs,
		appName: cfg.App.Name,
		apiKey:  cfg.HTTP.WorkerAPIKey,
	}
}

func (s *Server) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Route("/api/jobs", func(r chi.Router) {
		r.Use(s.requireWorkerKey)
		r.Post("/process", s.handleProcess)
	})
	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": s.appName,
		"version": serviceVersion,
		"status":  "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "worker",
	})
}

type processRequest struct {
	DrawingID string `json:"drawing_id"`
}

// handleProcess enqueues one processing job for a drawing and returns its
// id. The poll loop picks it up on the next cycle.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DrawingID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "drawing_id is required"})
		return
	}

	job, err := s.jobs.CreateQueued(r.Context(), req.DrawingID)
	if err != nil {
		logging.Error(r.Context(), "enqueue job failed",
			slog.String("drawing_id", req.DrawingID),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": "Failed to create processing job"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":     job.JobID,
		"drawing_id": job.DrawingID,
		"status":     job.Status,
	})
}

// requireWorkerKey validates X-Worker-API-Key. With no key configured the
// check is disabled, matching local development setups.
func (s *Server) requireWorkerKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("X-Worker-API-Key") != s.apiKey {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Invalid or missing X-Worker-API-Key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

package daemon

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"vocalless/internal/api"
	"vocalless/internal/jobs"
	"vocalless/internal/logging"
	"vocalless/internal/pipeline"
	"vocalless/internal/preflight"
	"vocalless/internal/services"
)

// MsgCapacity is returned to clients whose submission hit the admission ceiling.
const MsgCapacity = "Maximum number of requests per hour reached. Please try again later."

const maxSubmitBytes = 64 << 10

func (d *Daemon) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestContext)

	r.Get("/", d.handleIndex)
	r.Post(api.PathSubmit, d.handleSubmit)
	r.Get(api.PathStatus+"{id}", d.handleStatus)
	r.Get(api.PathJobs, d.handleJobs)
	r.Get(api.PathHealth, d.handleHealth)

	static := http.FileServer(http.Dir(d.cfg.Paths.PublicDir))
	r.Handle(pipeline.PublicPrefix+"/*", http.StripPrefix(pipeline.PublicPrefix+"/", static))
	return r
}

// requestContext copies chi's request id into the services context so job
// logs can be correlated with the submitting request.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(services.WithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func (d *Daemon) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBytes)
	var req api.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		d.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.YoutubeURL) == "" {
		d.writeError(w, http.StatusBadRequest, "youtube_url is required")
		return
	}

	job, err := d.pipeline.Submit(r.Context(), req.YoutubeURL)
	switch {
	case err == nil:
		d.writeJSON(w, http.StatusOK, api.SubmitResponse{RequestID: job.ID})
	case errors.Is(err, jobs.ErrCapacity):
		d.writeError(w, http.StatusTooManyRequests, MsgCapacity)
	case errors.Is(err, services.ErrValidation):
		d.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pipeline.ErrClosed):
		d.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		logging.ErrorWithContext(logging.WithContext(r.Context(), d.logger), "submission failed", "submit_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check daemon logs"),
		)
		d.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (d *Daemon) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, err := d.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		d.writeJSON(w, http.StatusNotFound, api.NotFoundResponse{Detail: api.MsgNotFound})
		return
	}
	d.writeJSON(w, http.StatusOK, job)
}

func (d *Daemon) handleJobs(w http.ResponseWriter, _ *http.Request) {
	d.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: d.store.List(), MaxJobs: d.cfg.Pipeline.MaxJobs})
}

func (d *Daemon) handleHealth(w http.ResponseWriter, _ *http.Request) {
	checks := preflight.RunAll(d.cfg)
	d.writeJSON(w, http.StatusOK, api.HealthResponse{
		Ready:        len(preflight.Failed(checks)) == 0,
		ActiveJobs:   d.store.Count(),
		MaxJobs:      d.cfg.Pipeline.MaxJobs,
		Checks:       checks,
		Dependencies: preflight.CheckSystemDeps(d.cfg),
	})
}

func (d *Daemon) handleIndex(w http.ResponseWriter, r *http.Request) {
	index := filepath.Join(d.cfg.Paths.PublicDir, "index.html")
	if info, err := os.Stat(index); err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, index)
}

func (d *Daemon) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		d.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (d *Daemon) writeError(w http.ResponseWriter, status int, message string) {
	d.writeJSON(w, status, api.ErrorResponse{Error: message})
}

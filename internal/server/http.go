// Package server exposes the job pipeline over HTTP and gRPC health.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobs-tracker/internal/async"
	"github.com/joseph-ayodele/jobs-tracker/internal/batch"
	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/entity"
	"github.com/joseph-ayodele/jobs-tracker/internal/export"
)

const (
	maxRequestBytes = 1 << 20
	maxBatchURLs    = 500
	maxConcurrency  = 50
)

// Deps are the services the HTTP API drives. Queue may be nil, in which case
// async job submission is rejected.
type Deps struct {
	Runner      batch.JobRunner
	Coordinator *batch.Coordinator
	Queue       async.Queue
}

// Server is the HTTP JSON API.
type Server struct {
	deps   Deps
	logger *slog.Logger
	mux    *http.ServeMux
	now    func() time.Time
}

func New(deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{deps: deps, logger: logger, mux: http.NewServeMux(), now: time.Now}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /jobs", s.handleCreateJob)
	s.mux.HandleFunc("GET /jobs/{id}", s.handleGetJob)
	s.mux.HandleFunc("POST /batches", s.handleBatch)
}

// Handler returns the API with request-id tagging and access logging.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		r = r.WithContext(common.WithRequestID(r.Context(), reqID))

		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		s.mux.ServeHTTP(rw, r)
		common.LoggerFrom(r.Context(), s.logger).Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type jobRequest struct {
	URL   string `json:"url"`
	Async bool   `json:"async"`
}

type jobResponse struct {
	Success bool          `json:"success"`
	Error   string        `json:"error,omitempty"`
	Record  entity.Record `json:"record"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	v := common.NewValidator().Field("url", req.URL, common.Required, common.HTTPURL)
	if v.HasErrors() {
		writeError(w, http.StatusBadRequest, v.ErrorMessage())
		return
	}

	if req.Async {
		if s.deps.Queue == nil {
			writeError(w, http.StatusNotImplemented, "async jobs are not enabled")
			return
		}
		job := async.Job{
			ID:          uuid.NewString(),
			URL:         req.URL,
			SubmittedAt: s.now(),
			TraceID:     common.RequestIDFromContext(r.Context()),
		}
		if err := s.deps.Queue.Enqueue(r.Context(), job); err != nil {
			status := http.StatusServiceUnavailable
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				status = http.StatusRequestTimeout
			}
			writeError(w, status, err.Error())
			return
		}
		w.Header().Set("Location", "/jobs/"+job.ID)
		writeJSON(w, http.StatusAccepted, map[string]string{"id": job.ID, "state": string(async.JobQueued)})
		return
	}

	rec := s.deps.Runner.Run(r.Context(), req.URL)
	writeJSON(w, http.StatusOK, jobResponse{Success: rec.Succeeded(), Error: rec.FirstError(), Record: withoutHTML(rec)})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	if s.deps.Queue == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	st, ok := s.deps.Queue.Status(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if st.Record != nil {
		rec := withoutHTML(*st.Record)
		st.Record = &rec
	}
	writeJSON(w, http.StatusOK, st)
}

type batchRequest struct {
	URLs           []string `json:"urls"`
	MaxConcurrency int      `json:"max_concurrency"`
}

// handleBatch runs a batch synchronously. ?format=csv or ?format=xlsx returns
// the results report instead of JSON.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !s.decode(w, r, &req) {
		return
	}
	urls := make([]string, 0, len(req.URLs))
	for _, u := range req.URLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	v := common.NewValidator().
		Field("urls", urls, common.Required, common.HTTPURL).
		Field("max_concurrency", req.MaxConcurrency, common.Range(0, maxConcurrency))
	if len(urls) > maxBatchURLs {
		writeError(w, http.StatusBadRequest, "too many urls")
		return
	}
	if v.HasErrors() {
		writeError(w, http.StatusBadRequest, v.ErrorMessage())
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	switch format {
	case "", "json", "csv", "xlsx":
	default:
		writeError(w, http.StatusBadRequest, "format must be json, csv or xlsx")
		return
	}

	res := s.deps.Coordinator.Run(r.Context(), urls, req.MaxConcurrency)

	switch format {
	case "csv":
		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, res); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeAttachment(w, "text/csv", export.ReportName(s.now(), "csv"), buf.Bytes())
	case "xlsx":
		data, err := export.WriteXLSX(res)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeAttachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.ReportName(s.now(), "xlsx"), data)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.LoggerFrom(r.Context(), s.logger).Warn("http.decode.failed", "error", err)
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// withoutHTML drops the raw page from API responses.
func withoutHTML(rec entity.Record) entity.Record {
	rec.RawHTML = nil
	return rec
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

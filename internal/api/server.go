package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nao1215/seoaudit/internal/metrics"
	"github.com/nao1215/seoaudit/internal/model"
	"github.com/nao1215/seoaudit/internal/pipeline"
	"github.com/nao1215/seoaudit/internal/report"
	"github.com/nao1215/seoaudit/internal/target"
)

// DefaultMaxSessions bounds how many sessions a server keeps.
const DefaultMaxSessions = 1000

// maxBodyBytes bounds request bodies; they only carry a URL or a tab name.
const maxBodyBytes = 64 << 10

// ErrTooManySessions is returned when the session limit is reached.
var ErrTooManySessions = errors.New("too many sessions")

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Server wires HTTP handlers to per-session runners and boards.
type Server struct {
	router      chi.Router
	executor    pipeline.Executor
	baseCtx     context.Context
	logger      *slog.Logger
	exporter    *report.PDFExporter
	maxSessions int

	mu       sync.Mutex
	sessions map[string]*session
	clock    uint64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBaseContext sets the context audits run under. Cancelling it stops
// every running audit.
func WithBaseContext(ctx context.Context) Option {
	return func(s *Server) {
		if ctx != nil {
			s.baseCtx = ctx
		}
	}
}

// WithMaxSessions sets the session limit. Values below 1 are ignored.
func WithMaxSessions(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// NewServer constructs a Server with middleware and routes.
func NewServer(executor pipeline.Executor, opts ...Option) *Server {
	s := &Server{
		executor:    executor,
		baseCtx:     context.Background(),
		logger:      slog.Default(),
		exporter:    report.NewPDFExporter(),
		maxSessions: DefaultMaxSessions,
		sessions:    make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1/sessions/{session}", func(r chi.Router) {
		r.Get("/", s.getSession)
		r.Delete("/", s.deleteSession)
		r.Post("/audit", s.startAudit)
		r.Post("/cancel", s.cancelAudit)
		r.Put("/tab", s.switchTab)
		r.Get("/export.pdf", s.exportPDF)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// session returns the session named in the request path, creating it when
// create is set. A nil session has already been answered with an error.
func (s *Server) session(w http.ResponseWriter, r *http.Request, create bool) *session {
	id := chi.URLParam(r, "session")
	if !sessionIDPattern.MatchString(id) {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.clock++
	if sess, ok := s.sessions[id]; ok {
		sess.lastUsed = s.clock
		return sess
	}
	if !create {
		writeError(w, http.StatusNotFound, "session not found")
		return nil
	}
	if len(s.sessions) >= s.maxSessions && !s.evictLocked() {
		writeError(w, http.StatusServiceUnavailable, ErrTooManySessions.Error())
		return nil
	}
	sess := newSession(id, s.executor)
	sess.lastUsed = s.clock
	s.sessions[id] = sess
	return sess
}

// evictLocked removes the least recently used session that is not running
// an audit. It reports false when every session is running.
func (s *Server) evictLocked() bool {
	var oldest *session
	for _, sess := range s.sessions {
		if state, _ := sess.status(); state == model.StateRunning {
			continue
		}
		if oldest == nil || sess.lastUsed < oldest.lastUsed {
			oldest = sess
		}
	}
	if oldest == nil {
		return false
	}
	delete(s.sessions, oldest.id)
	s.logger.Debug("session evicted", "session", oldest.id)
	return true
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r, false)
	if sess == nil {
		return
	}
	sess.runner.Cancel()

	s.mu.Lock()
	if s.sessions[sess.id] == sess {
		delete(s.sessions, sess.id)
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sessionResponse is the body of GET /v1/sessions/{session}.
type sessionResponse struct {
	Session string         `json:"session"`
	State   model.RunState `json:"state"`
	RunID   string         `json:"run_id,omitempty"`
	report.BoardView
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r, false)
	if sess == nil {
		return
	}
	state, runID := sess.status()
	writeJSON(w, http.StatusOK, sessionResponse{
		Session:   sess.id,
		State:     state,
		RunID:     runID,
		BoardView: sess.board.View(),
	})
}

type auditRequest struct {
	URL string `json:"url"`
}

func (s *Server) startAudit(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	sess := s.session(w, r, true)
	if sess == nil {
		return
	}

	// Invalid input is shown on the board and leaves a running audit alone.
	if _, err := target.Normalize(req.URL); err != nil {
		sess.board.Notify(err.Error())
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	sess.start(s.baseCtx, req.URL, s.logger)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"session": sess.id,
		"state":   string(model.StateRunning),
	})
}

func (s *Server) cancelAudit(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r, false)
	if sess == nil {
		return
	}
	sess.runner.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

type tabRequest struct {
	Tab string `json:"tab"`
}

func (s *Server) switchTab(w http.ResponseWriter, r *http.Request) {
	var req tabRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	sess := s.session(w, r, false)
	if sess == nil {
		return
	}

	tab, err := model.ParseCategory(req.Tab)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := sess.board.Tabs().Switch(tab); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"active_tab": string(tab)})
}

func (s *Server) exportPDF(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r, false)
	if sess == nil {
		return
	}

	state, runID := sess.status()
	audit := sess.runner.Last()
	if state != model.StateCompleted || audit == nil || audit.ID != runID || !audit.Exportable() {
		writeError(w, http.StatusConflict, report.ErrNotExportable.Error())
		return
	}

	var buf bytes.Buffer
	if err := s.exporter.Export(&buf, audit); err != nil {
		s.logger.Error("PDF export failed", "session", sess.id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.DefaultPDFFileName+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Error("PDF write failed", "session", sess.id, "error", err)
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error("write JSON failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

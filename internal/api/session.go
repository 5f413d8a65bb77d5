package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/nao1215/seoaudit/internal/model"
	"github.com/nao1215/seoaudit/internal/pipeline"
	"github.com/nao1215/seoaudit/internal/report"
)

// session is the audit board of one client.
type session struct {
	id     string
	board  *report.Board
	runner *pipeline.Runner

	// lastUsed is guarded by the server's mutex.
	lastUsed uint64

	mu    sync.Mutex
	gen   uint64
	state model.RunState
	runID string
}

func newSession(id string, executor pipeline.Executor) *session {
	board := report.NewBoard()
	return &session{
		id:     id,
		board:  board,
		runner: pipeline.NewRunner(executor, board),
		state:  model.StateIdle,
	}
}

// start runs an audit of raw in the background. ctx bounds the run and must
// not be tied to the request that triggered it.
func (s *session) start(ctx context.Context, raw string, logger *slog.Logger) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.state = model.StateRunning
	s.runID = ""
	s.mu.Unlock()

	done := s.runner.Start(ctx, raw)
	go func() {
		res := <-done
		if errors.Is(res.Err, pipeline.ErrSuperseded) {
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen {
			return
		}
		switch {
		case res.Audit != nil:
			s.state = res.Audit.State
			s.runID = res.Audit.ID
		default:
			s.state = model.StateFailed
		}
		if res.Err != nil {
			logger.Warn("audit failed", "session", s.id, "input", raw, "error", res.Err)
		}
	}()
}

// status returns the state and run ID of the latest run.
func (s *session) status() (model.RunState, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.runID
}

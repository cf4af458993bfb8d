// Package session holds the per-browser UI state: the query machine, the
// workflow trace of the current response and the health banner.
package session

import (
	"github.com/lojasmm/supportdemo/internal/agentapi"
	"github.com/lojasmm/supportdemo/internal/health"
	"github.com/lojasmm/supportdemo/internal/query"
	"github.com/lojasmm/supportdemo/internal/trace"
)

// Session is the UI state of one browser. Fields other than Query and
// Health, which are safe for concurrent use, must only be touched through
// Manager.WithLock.
type Session struct {
	ID     string
	Query  *query.Machine
	Health *health.Indicator

	// Mounted is set once the page has been rendered and the initial
	// health check started.
	Mounted bool

	trace      *trace.Trace
	traceGen   uint64
	traceState query.State
}

func New(id string, m *query.Machine, h *health.Indicator) *Session {
	return &Session{ID: id, Query: m, Health: h}
}

// Trace returns the trace of the current response. A new response, or no
// response at all while a query is in flight, starts a fresh trace with
// every step collapsed.
func (s *Session) Trace() *trace.Trace {
	snap := s.Query.Snapshot()
	if s.trace == nil || snap.Generation != s.traceGen || snap.State != s.traceState {
		var steps []agentapi.WorkflowStep
		if snap.Response != nil {
			steps = snap.Response.WorkflowSteps
		}
		s.trace = trace.New(steps)
		s.traceGen = snap.Generation
		s.traceState = snap.State
	}
	return s.trace
}

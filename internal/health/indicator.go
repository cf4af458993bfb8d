// Package health tracks the advisory backend status banner.
package health

import (
	"context"
	"errors"
	"sync"

	"github.com/lojasmm/supportdemo/internal/agentapi"
)

type State int

const (
	Checking State = iota
	Connected
	Unreachable
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Connected:
		return "connected"
	case Unreachable:
		return "unreachable"
	}
	return "unknown"
}

const defaultFailure = "Failed to connect to backend"

// Tone drives the banner colour and icon.
type Tone string

const (
	ToneChecking Tone = "checking"
	ToneHealthy  Tone = "healthy"
	ToneDegraded Tone = "degraded"
	ToneUnknown  Tone = "unknown"
	ToneFailed   Tone = "failed"
)

// Checker is the part of agentapi.Client the indicator needs.
type Checker interface {
	GetHealth(ctx context.Context) (*agentapi.HealthResponse, error)
}

// Status is a copy of the indicator's state.
type Status struct {
	State   State
	Health  *agentapi.HealthResponse // set when Connected
	Message string                   // set when Unreachable
}

// Indicator is safe for concurrent use. At most one check runs at a time.
type Indicator struct {
	checker Checker

	mu      sync.Mutex
	status  Status
	lastErr error
	running chan struct{} // closed when the in-flight check finishes; nil when idle
}

func NewIndicator(c Checker) *Indicator {
	return &Indicator{checker: c, status: Status{State: Checking}}
}

// Refresh runs one health check and waits for its outcome. When a check is
// already in flight it waits for that one instead of starting another. The
// returned error may only be logged: health never blocks queries.
func (ind *Indicator) Refresh(ctx context.Context) (Status, error) {
	ind.mu.Lock()
	if running := ind.running; running != nil {
		ind.mu.Unlock()
		select {
		case <-running:
		case <-ctx.Done():
			return ind.Status(), ctx.Err()
		}
		ind.mu.Lock()
		defer ind.mu.Unlock()
		return ind.status, ind.lastErr
	}
	running := ind.start()
	ind.mu.Unlock()

	return ind.check(ctx, running)
}

// RefreshAsync marks the indicator Checking and runs the check in the
// background, calling done (if not nil) with the outcome. It returns false
// without doing anything when a check is already running.
func (ind *Indicator) RefreshAsync(ctx context.Context, done func(Status, error)) bool {
	ind.mu.Lock()
	if ind.running != nil {
		ind.mu.Unlock()
		return false
	}
	running := ind.start()
	ind.mu.Unlock()

	go func() {
		st, err := ind.check(ctx, running)
		if done != nil {
			done(st, err)
		}
	}()
	return true
}

// start must be called with mu held.
func (ind *Indicator) start() chan struct{} {
	ind.running = make(chan struct{})
	ind.status = Status{State: Checking}
	ind.lastErr = nil
	return ind.running
}

func (ind *Indicator) check(ctx context.Context, running chan struct{}) (Status, error) {
	h, err := ind.checker.GetHealth(ctx)
	if err == nil && h == nil {
		err = errors.New(defaultFailure)
	}

	var st Status
	if err != nil {
		msg := agentapi.ErrorMessage(err)
		if msg == agentapi.DefaultErrorMessage {
			msg = defaultFailure
		}
		st = Status{State: Unreachable, Message: msg}
	} else {
		st = Status{State: Connected, Health: h}
	}

	ind.mu.Lock()
	ind.status = st
	ind.lastErr = err
	ind.running = nil
	close(running)
	ind.mu.Unlock()
	return st, err
}

func (ind *Indicator) Status() Status {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	return ind.status
}

// Tone maps the status onto the banner treatment.
func (s Status) Tone() Tone {
	switch s.State {
	case Checking:
		return ToneChecking
	case Unreachable:
		return ToneFailed
	}
	if s.Health == nil {
		return ToneFailed
	}
	switch s.Health.Status {
	case agentapi.StatusHealthy:
		return ToneHealthy
	case agentapi.StatusDegraded:
		return ToneDegraded
	default:
		return ToneUnknown
	}
}

// Text is the banner headline.
func (s Status) Text() string {
	switch s.State {
	case Checking:
		return "Checking status..."
	case Unreachable:
		return "Connection Failed"
	}
	if s.Health == nil {
		return "Unknown Status"
	}
	switch s.Health.Status {
	case agentapi.StatusHealthy:
		return "All Systems Operational"
	case agentapi.StatusDegraded:
		return "Partially Operational"
	default:
		return "Status Unknown"
	}
}

// OpenAILine describes the LLM key state, empty unless Connected.
func (s Status) OpenAILine() string {
	if s.State != Connected || s.Health == nil {
		return ""
	}
	if s.Health.OpenAIConfigured {
		return "OpenAI API: Configured"
	}
	return "OpenAI API: Not Configured"
}

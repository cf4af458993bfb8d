// Package query owns the lifecycle of a support query submitted from the UI:
// Idle -> Submitting -> Resolved, with local validation and a synthesized
// failure response so the renderer only ever sees one shape.
package query

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/lojasmm/supportdemo/internal/agentapi"
)

type State int

const (
	Idle State = iota
	Submitting
	Resolved
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Resolved:
		return "resolved"
	}
	return "unknown"
}

const (
	msgEmptyQuery  = "Please enter a support query"
	msgTooLong     = "Query is too long (4000 characters max)"
	msgRateLimited = "You are sending queries too quickly. Wait a moment and try again."
)

// ErrRateLimited is wrapped by the ValidationError returned when the
// per-machine limiter rejects a submission.
var ErrRateLimited = errors.New("submission rate limited")

// ValidationError is a submission rejected before reaching the network.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

// Submitter is the part of agentapi.Client the machine needs.
type Submitter interface {
	SubmitQuery(ctx context.Context, query string) (*agentapi.SupportResponse, error)
}

// Resolution describes one finished submission.
type Resolution struct {
	Generation uint64
	Query      string
	Response   *agentapi.SupportResponse
	Err        error // nil when the backend answered, even with success=false
	Latency    time.Duration
}

// Snapshot is a copy of the machine's observable state.
type Snapshot struct {
	State             State
	Generation        uint64
	Query             string
	Response          *agentapi.SupportResponse
	Draft             string
	ValidationMessage string
}

// Loading reports whether the loading indicator should show and the submit
// control be disabled.
func (s Snapshot) Loading() bool { return s.State == Submitting }

type Option func(*Machine)

// WithTimeout bounds each submission independently of the client's own timeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Machine) { m.timeout = d }
}

// WithRateLimit limits accepted submissions to perMinute with the given burst.
func WithRateLimit(perMinute, burst int) Option {
	return func(m *Machine) {
		if perMinute <= 0 {
			m.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		m.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
	}
}

// OnResolved registers fn to be called after every resolution, outside the
// machine's lock.
func OnResolved(fn func(Resolution)) Option {
	return func(m *Machine) { m.hooks = append(m.hooks, fn) }
}

var validate = validator.New()

// Machine is safe for concurrent use. At most one call is in flight; a new
// Submit while Submitting cancels the older call and its result is dropped.
type Machine struct {
	api     Submitter
	timeout time.Duration
	limiter *rate.Limiter
	hooks   []func(Resolution)

	mu      sync.Mutex
	state   State
	gen     uint64
	query   string
	resp    *agentapi.SupportResponse
	draft   string
	invalid string
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewMachine(api Submitter, opts ...Option) *Machine {
	m := &Machine{api: api}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Submit validates query and, when valid, starts the backend call in the
// background. The previous response is cleared before Submit returns.
// ctx supplies values (trace spans); its cancellation does not abort the call.
func (m *Machine) Submit(ctx context.Context, query string) error {
	trimmed := strings.TrimSpace(query)

	if verr := check(trimmed); verr != nil {
		m.reject(query, verr)
		return verr
	}
	if m.limiter != nil && !m.limiter.Allow() {
		verr := &ValidationError{Message: msgRateLimited, Err: ErrRateLimited}
		m.reject(query, verr)
		return verr
	}

	callCtx := context.WithoutCancel(ctx)
	var cancel context.CancelFunc
	if m.timeout > 0 {
		callCtx, cancel = context.WithTimeout(callCtx, m.timeout)
	} else {
		callCtx, cancel = context.WithCancel(callCtx)
	}

	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	if m.state != Submitting {
		m.done = make(chan struct{})
	}
	m.gen++
	gen := m.gen
	m.state = Submitting
	m.query = trimmed
	m.resp = nil
	m.draft = query
	m.invalid = ""
	m.cancel = cancel
	m.mu.Unlock()

	go m.run(callCtx, cancel, gen, trimmed)
	return nil
}

func (m *Machine) run(ctx context.Context, cancel context.CancelFunc, gen uint64, query string) {
	defer cancel()

	start := time.Now()
	resp, err := m.api.SubmitQuery(ctx, query)
	if err == nil && resp == nil {
		err = errors.New(agentapi.DefaultErrorMessage)
	}
	if err != nil {
		resp = Failed(query, err)
	}
	res := Resolution{
		Generation: gen,
		Query:      query,
		Response:   resp,
		Err:        err,
		Latency:    time.Since(start),
	}

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.state = Resolved
	m.resp = resp
	m.cancel = nil
	done := m.done
	hooks := m.hooks
	m.mu.Unlock()

	for _, fn := range hooks {
		fn(res)
	}
	close(done)
}

func (m *Machine) reject(draft string, verr *ValidationError) {
	m.mu.Lock()
	m.draft = draft
	m.invalid = verr.Message
	m.mu.Unlock()
}

func check(trimmed string) *ValidationError {
	err := validate.Struct(agentapi.SupportRequest{Query: trimmed})
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Tag() == "max" {
		return &ValidationError{Message: msgTooLong, Err: err}
	}
	return &ValidationError{Message: msgEmptyQuery, Err: err}
}

// Failed builds the response shown when the call itself failed.
func Failed(query string, err error) *agentapi.SupportResponse {
	return &agentapi.SupportResponse{
		Query:         query,
		WorkflowSteps: []agentapi.WorkflowStep{},
		Success:       false,
		ErrorMessage:  agentapi.ErrorMessage(err),
	}
}

// SetDraft replaces the query text, e.g. when an example is picked, and
// clears any validation message. Ignored while Submitting.
func (m *Machine) SetDraft(text string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Submitting {
		return false
	}
	m.draft = text
	m.invalid = ""
	return true
}

// Cancel aborts the in-flight call, if any. The machine then resolves with
// a cancellation failure.
func (m *Machine) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
	}
}

// Wait blocks until the latest submission has resolved and its OnResolved
// hooks have returned, or ctx is done.
func (m *Machine) Wait(ctx context.Context) error {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		State:             m.state,
		Generation:        m.gen,
		Query:             m.query,
		Response:          m.resp,
		Draft:             m.draft,
		ValidationMessage: m.invalid,
	}
}

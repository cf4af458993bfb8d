// Package web serves the demo page and turns its form posts into session
// state changes.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lojasmm/supportdemo/internal/agentapi"
	"github.com/lojasmm/supportdemo/internal/health"
	"github.com/lojasmm/supportdemo/internal/query"
	"github.com/lojasmm/supportdemo/internal/session"
	"github.com/lojasmm/supportdemo/internal/store"
	"github.com/lojasmm/supportdemo/internal/trace"
)

//go:embed page.html
var pageFS embed.FS

var pageTmpl = template.Must(template.New("page.html").
	Funcs(template.FuncMap{"categoryTone": categoryTone}).
	ParseFS(pageFS, "page.html"))

const (
	cookieName    = "supportdemo_session"
	healthTimeout = 10 * time.Second
)

type Handler struct {
	sessions   *session.Manager
	store      store.Store
	examples   *query.Examples
	backendURL string

	// baseCtx parents background work (health checks) that outlives a request.
	baseCtx  context.Context
	onHealth func(health.Status, error)
}

type Option func(*Handler)

// WithHealthHook is called after every completed health check.
func WithHealthHook(fn func(health.Status, error)) Option {
	return func(h *Handler) { h.onHealth = fn }
}

func NewHandler(ctx context.Context, sessions *session.Manager, s store.Store, ex *query.Examples, backendURL string, opts ...Option) *Handler {
	h := &Handler{
		sessions:   sessions,
		store:      s,
		examples:   ex,
		backendURL: backendURL,
		baseCtx:    ctx,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers the page and its actions on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.HandlePage)
	r.Post("/query", h.HandleSubmit)
	r.Post("/examples/{index}", h.HandleExample)
	r.Post("/history/{index}", h.HandleHistory)
	r.Post("/steps/{index}/toggle", h.HandleToggle)
	r.Post("/steps/expand", h.HandleExpandAll)
	r.Post("/steps/collapse", h.HandleCollapseAll)
	r.Post("/health/refresh", h.HandleHealthRefresh)
	r.Get("/api/state", h.HandleState)
}

func (h *Handler) HandlePage(w http.ResponseWriter, r *http.Request) {
	id := h.sessionID(w, r)
	history := h.history(id)

	var data pageData
	h.sessions.WithLock(id, func(s *session.Session) error {
		if !s.Mounted {
			s.Mounted = true
			h.refreshHealth(s)
		}
		data = buildPage(s, h.examples, history, h.backendURL)
		return nil
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pageTmpl.Execute(w, data); err != nil {
		logrus.WithError(err).Error("web: rendering page failed")
	}
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	id := h.sessionID(w, r)
	text := r.FormValue("query")

	h.sessions.WithLock(id, func(s *session.Session) error {
		err := s.Query.Submit(r.Context(), text)
		var verr *query.ValidationError
		switch {
		case errors.As(err, &verr):
			logrus.WithField("session", id).Debugf("web: submission rejected: %s", verr.Message)
		case err != nil:
			logrus.WithError(err).WithField("session", id).Error("web: submit failed")
		default:
			logrus.WithField("session", id).Info("web: query submitted")
		}
		return nil
	})
	redirectHome(w, r, "")
}

func (h *Handler) HandleExample(w http.ResponseWriter, r *http.Request) {
	i, ok := indexParam(w, r)
	if !ok {
		return
	}
	text, ok := h.examples.At(i)
	if !ok {
		http.Error(w, "unknown example", http.StatusNotFound)
		return
	}
	h.setDraft(w, r, h.sessionID(w, r), text)
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	i, ok := indexParam(w, r)
	if !ok {
		return
	}
	id := h.sessionID(w, r)
	entries := h.history(id)
	if i >= len(entries) {
		http.Error(w, "unknown history entry", http.StatusNotFound)
		return
	}
	h.setDraft(w, r, id, entries[i].Query)
}

func (h *Handler) setDraft(w http.ResponseWriter, r *http.Request, id, text string) {
	h.sessions.WithLock(id, func(s *session.Session) error {
		s.Query.SetDraft(text)
		return nil
	})
	redirectHome(w, r, "")
}

func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	i, ok := indexParam(w, r)
	if !ok {
		return
	}
	h.sessions.WithLock(h.sessionID(w, r), func(s *session.Session) error {
		s.Trace().Toggle(i)
		return nil
	})
	redirectHome(w, r, "step-"+strconv.Itoa(i))
}

func (h *Handler) HandleExpandAll(w http.ResponseWriter, r *http.Request) {
	h.sessions.WithLock(h.sessionID(w, r), func(s *session.Session) error {
		s.Trace().ExpandAll()
		return nil
	})
	redirectHome(w, r, "workflow")
}

func (h *Handler) HandleCollapseAll(w http.ResponseWriter, r *http.Request) {
	h.sessions.WithLock(h.sessionID(w, r), func(s *session.Session) error {
		s.Trace().CollapseAll()
		return nil
	})
	redirectHome(w, r, "workflow")
}

func (h *Handler) HandleHealthRefresh(w http.ResponseWriter, r *http.Request) {
	h.sessions.WithLock(h.sessionID(w, r), func(s *session.Session) error {
		s.Mounted = true
		h.refreshHealth(s)
		return nil
	})
	redirectHome(w, r, "")
}

type stateResponse struct {
	State             string                    `json:"state"`
	Loading           bool                      `json:"loading"`
	Draft             string                    `json:"draft"`
	ValidationMessage string                    `json:"validation_message,omitempty"`
	Response          *agentapi.SupportResponse `json:"response,omitempty"`
	Expanded          []int                     `json:"expanded"`
	Summary           trace.Summary             `json:"summary"`
	Health            healthState               `json:"health"`
}

type healthState struct {
	State            string `json:"state"`
	Tone             string `json:"tone"`
	Status           string `json:"status,omitempty"`
	OpenAIConfigured bool   `json:"openai_configured"`
	Message          string `json:"message,omitempty"`
}

// HandleState reports the session's state as JSON, for scripting the demo.
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	var resp stateResponse
	h.sessions.WithLock(h.sessionID(w, r), func(s *session.Session) error {
		snap := s.Query.Snapshot()
		t := s.Trace()
		resp = stateResponse{
			State:             snap.State.String(),
			Loading:           snap.Loading(),
			Draft:             snap.Draft,
			ValidationMessage: snap.ValidationMessage,
			Response:          snap.Response,
			Expanded:          t.ExpandedSet(),
			Summary:           t.Summary(),
		}
		hs := s.Health.Status()
		resp.Health = healthState{
			State:   hs.State.String(),
			Tone:    string(hs.Tone()),
			Message: hs.Message,
		}
		if hs.Health != nil {
			resp.Health.Status = hs.Health.Status
			resp.Health.OpenAIConfigured = hs.Health.OpenAIConfigured
		}
		return nil
	})
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) refreshHealth(s *session.Session) {
	ctx, cancel := context.WithTimeout(h.baseCtx, healthTimeout)
	started := s.Health.RefreshAsync(ctx, func(st health.Status, err error) {
		cancel()
		if err != nil {
			logrus.WithError(err).WithField("session", s.ID).Warn("web: health check failed")
		}
		if h.onHealth != nil {
			h.onHealth(st, err)
		}
	})
	if !started {
		cancel()
	}
}

func (h *Handler) history(id string) []store.Entry {
	if h.store == nil {
		return nil
	}
	entries, err := h.store.History(id)
	if err != nil {
		logrus.WithError(err).WithField("session", id).Warn("web: loading history failed")
	}
	return entries
}

// sessionID returns the browser's session id, issuing a new cookie when the
// request has none or an invalid one.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(cookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || i < 0 {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return 0, false
	}
	return i, true
}

func redirectHome(w http.ResponseWriter, r *http.Request, anchor string) {
	target := "/"
	if anchor != "" {
		target += "#" + anchor
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("web: encoding response failed")
	}
}

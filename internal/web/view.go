package web

import (
	"github.com/lojasmm/supportdemo/internal/agentapi"
	"github.com/lojasmm/supportdemo/internal/health"
	"github.com/lojasmm/supportdemo/internal/query"
	"github.com/lojasmm/supportdemo/internal/session"
	"github.com/lojasmm/supportdemo/internal/store"
	"github.com/lojasmm/supportdemo/internal/trace"
)

type pageData struct {
	Draft             string
	ValidationMessage string
	Loading           bool
	AutoRefresh       bool

	Result *resultView
	Trace  trace.View

	Health     healthView
	BackendURL string

	Examples []string
	Showcase []query.Showcase
	History  []store.Entry
}

type resultView struct {
	Query         string
	Category      string
	CategoryTone  string
	Sentiment     string
	SentimentTone string
	Success       bool
	Response      string
	ErrorMessage  string
}

type healthView struct {
	Tone        string
	Text        string
	OpenAI      string
	OpenAIOK    bool
	Message     string
	Checking    bool
	Unreachable bool
}

// buildPage must run under the session lock.
func buildPage(s *session.Session, ex *query.Examples, history []store.Entry, backendURL string) pageData {
	snap := s.Query.Snapshot()
	hs := s.Health.Status()

	p := pageData{
		Draft:             snap.Draft,
		ValidationMessage: snap.ValidationMessage,
		Loading:           snap.Loading(),
		Health:            newHealthView(hs),
		BackendURL:        backendURL,
		History:           history,
	}
	p.AutoRefresh = p.Loading || hs.State == health.Checking
	if ex != nil {
		p.Examples = ex.Quick
		p.Showcase = ex.Showcase
	}

	if snap.Response != nil && !p.Loading {
		r := snap.Response
		p.Result = &resultView{
			Query:         r.Query,
			Category:      r.Category,
			CategoryTone:  categoryTone(r.Category),
			Sentiment:     r.Sentiment,
			SentimentTone: sentimentTone(r.Sentiment),
			Success:       r.Success,
			Response:      r.Response,
			ErrorMessage:  r.ErrorMessage,
		}
		if !r.Success && p.Result.ErrorMessage == "" {
			p.Result.ErrorMessage = agentapi.DefaultErrorMessage
		}
		p.Trace = s.Trace().View()
	}
	return p
}

func newHealthView(st health.Status) healthView {
	hv := healthView{
		Tone:        string(st.Tone()),
		Text:        st.Text(),
		OpenAI:      st.OpenAILine(),
		Message:     st.Message,
		Checking:    st.State == health.Checking,
		Unreachable: st.State == health.Unreachable,
	}
	if st.Health != nil {
		hv.OpenAIOK = st.Health.OpenAIConfigured
	}
	return hv
}

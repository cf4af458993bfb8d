package events

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lojasmm/supportdemo/internal/agentapi"
	"github.com/lojasmm/supportdemo/internal/observability"
	"github.com/lojasmm/supportdemo/internal/query"
	"github.com/lojasmm/supportdemo/internal/store"
)

const publishTimeout = 5 * time.Second

// Recorder fans a resolved query out to the history store, metrics and the
// outcome publisher. Failures are logged; they never reach the UI.
type Recorder struct {
	Store     store.Store
	Publisher Publisher
	Metrics   *observability.Metrics
	Now       func() time.Time
}

// Record is meant to be registered with query.OnResolved for sessionID.
func (r *Recorder) Record(sessionID string, res query.Resolution) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	resp := res.Response
	at := now().UTC()
	log := logrus.WithFields(logrus.Fields{"session": sessionID, "generation": res.Generation})

	if r.Store != nil {
		entry := store.Entry{
			Query:     res.Query,
			Category:  resp.Category,
			Sentiment: resp.Sentiment,
			Success:   resp.Success,
			Error:     resp.ErrorMessage,
			Steps:     len(resp.WorkflowSteps),
			At:        at,
		}
		if err := r.Store.Append(sessionID, entry); err != nil {
			log.WithError(err).Warn("events: saving history failed")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if r.Metrics != nil {
		r.Metrics.RecordQuery(ctx, OutcomeLabel(res), resp.Category, res.Latency)
	}

	if r.Publisher != nil {
		o := Outcome{
			SessionID:  sessionID,
			Query:      res.Query,
			Category:   resp.Category,
			Sentiment:  resp.Sentiment,
			Success:    resp.Success,
			StepCount:  len(resp.WorkflowSteps),
			LatencyMS:  res.Latency.Milliseconds(),
			ResolvedAt: at,
		}
		if !resp.Success {
			o.ErrorMessage = resp.ErrorMessage
		}
		if err := r.Publisher.Publish(ctx, o); err != nil {
			log.WithError(err).Warn("events: publishing outcome failed")
		}
	}

	log.WithFields(logrus.Fields{
		"success":  resp.Success,
		"category": resp.Category,
		"steps":    len(resp.WorkflowSteps),
		"latency":  res.Latency,
	}).Info("events: query resolved")
}

// OutcomeLabel names how a resolution ended for metrics: "success",
// "failed" when the backend reported success=false, or the client error kind.
func OutcomeLabel(res query.Resolution) string {
	if res.Err != nil {
		return string(agentapi.Classify(res.Err))
	}
	if res.Response != nil && res.Response.Success {
		return "success"
	}
	return "failed"
}

package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lojasmm/supportdemo/internal/events"
	"github.com/lojasmm/supportdemo/internal/health"
	"github.com/lojasmm/supportdemo/internal/query"
	"github.com/lojasmm/supportdemo/internal/session"
	"github.com/lojasmm/supportdemo/internal/store"
)

// evictWait bounds how long eviction waits for a cancelled query to settle.
const evictWait = 5 * time.Second

type backend interface {
	query.Submitter
	health.Checker
}

type sessionDeps struct {
	API      backend
	Recorder *events.Recorder
	Store    store.Store

	Timeout            time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
}

// newSessionManager builds the per-browser sessions. Resolutions of
// sessions that were already evicted are not recorded, and eviction clears
// history only once the session's in-flight query has settled.
func newSessionManager(d sessionDeps) *session.Manager {
	var mgr *session.Manager
	mgr = session.NewManager(
		func(id string) *session.Session {
			m := query.NewMachine(d.API,
				query.WithTimeout(d.Timeout),
				query.WithRateLimit(d.RateLimitPerMinute, d.RateLimitBurst),
				query.OnResolved(func(res query.Resolution) {
					if !mgr.Exists(id) {
						return
					}
					d.Recorder.Record(id, res)
				}),
			)
			return session.New(id, m, health.NewIndicator(d.API))
		},
		func(s *session.Session) {
			log := logrus.WithField("session", s.ID)
			s.Query.Cancel()

			ctx, cancel := context.WithTimeout(context.Background(), evictWait)
			defer cancel()
			if err := s.Query.Wait(ctx); err != nil {
				log.WithError(err).Warn("supportdemo: evicted session did not settle")
			}
			if err := d.Store.Clear(s.ID); err != nil {
				log.WithError(err).Warn("supportdemo: clearing history failed")
			}
		},
	)
	return mgr
}

package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lojasmm/supportdemo/internal/agentapi"
	"github.com/lojasmm/supportdemo/internal/events"
	"github.com/lojasmm/supportdemo/internal/query"
	"github.com/lojasmm/supportdemo/internal/session"
	"github.com/lojasmm/supportdemo/internal/store"
)

// stallingAPI answers /support only after its context ends, unless block
// is false.
type stallingAPI struct {
	block bool
}

func (a stallingAPI) SubmitQuery(ctx context.Context, q string) (*agentapi.SupportResponse, error) {
	if a.block {
		<-ctx.Done()
		return nil, &agentapi.NetworkError{Op: "submit query", Err: ctx.Err()}
	}
	return &agentapi.SupportResponse{Query: q, Category: "General", Sentiment: "Neutral", Success: true}, nil
}

func (stallingAPI) GetHealth(context.Context) (*agentapi.HealthResponse, error) {
	return &agentapi.HealthResponse{Status: agentapi.StatusHealthy}, nil
}

func newTestManager(t *testing.T, api stallingAPI) (*session.Manager, store.Store) {
	t.Helper()
	db, err := store.NewBoltStore(filepath.Join(t.TempDir(), "supportdemo.db"), store.DefaultHistoryLimit)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mgr := newSessionManager(sessionDeps{
		API:      api,
		Recorder: &events.Recorder{Store: db},
		Store:    db,
		Timeout:  time.Minute,
	})
	return mgr, db
}

func submit(t *testing.T, mgr *session.Manager, id, q string) *query.Machine {
	t.Helper()
	var m *query.Machine
	require.NoError(t, mgr.WithLock(id, func(s *session.Session) error {
		m = s.Query
		return s.Query.Submit(context.Background(), q)
	}))
	return m
}

func TestSessionManager_RecordsResolvedQueries(t *testing.T) {
	mgr, db := newTestManager(t, stallingAPI{})

	m := submit(t, mgr, "s1", "hello")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Wait(ctx))

	entries, err := db.History("s1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Query)
	assert.True(t, entries[0].Success)
}

func TestSessionManager_EvictionLeavesNoHistory(t *testing.T) {
	mgr, db := newTestManager(t, stallingAPI{block: true})

	m := submit(t, mgr, "s1", "hi")
	assert.Equal(t, query.Submitting, m.Snapshot().State)

	time.Sleep(5 * time.Millisecond)
	require.Equal(t, 1, mgr.Cleanup(time.Millisecond))

	// Eviction has already waited for the cancelled call to settle.
	assert.Equal(t, query.Resolved, m.Snapshot().State)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Wait(ctx))

	entries, err := db.History("s1")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.False(t, mgr.Exists("s1"))
}

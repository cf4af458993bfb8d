package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lojasmm/supportdemo/internal/agentapi"
)

type stubChecker struct {
	resp *agentapi.HealthResponse
	err  error
}

func (s *stubChecker) GetHealth(context.Context) (*agentapi.HealthResponse, error) {
	return s.resp, s.err
}

func TestIndicator_StartsChecking(t *testing.T) {
	ind := NewIndicator(&stubChecker{})
	st := ind.Status()
	assert.Equal(t, Checking, st.State)
	assert.Equal(t, ToneChecking, st.Tone())
	assert.Equal(t, "Checking status...", st.Text())
	assert.Empty(t, st.OpenAILine())
}

func TestIndicator_Refresh(t *testing.T) {
	tests := []struct {
		name      string
		checker   *stubChecker
		wantState State
		wantTone  Tone
		wantText  string
		wantLine  string
		wantMsg   string
	}{
		{
			name:      "healthy",
			checker:   &stubChecker{resp: &agentapi.HealthResponse{Status: "healthy", OpenAIConfigured: true}},
			wantState: Connected,
			wantTone:  ToneHealthy,
			wantText:  "All Systems Operational",
			wantLine:  "OpenAI API: Configured",
		},
		{
			name:      "degraded",
			checker:   &stubChecker{resp: &agentapi.HealthResponse{Status: "degraded"}},
			wantState: Connected,
			wantTone:  ToneDegraded,
			wantText:  "Partially Operational",
			wantLine:  "OpenAI API: Not Configured",
		},
		{
			name:      "other status",
			checker:   &stubChecker{resp: &agentapi.HealthResponse{Status: "maintenance"}},
			wantState: Connected,
			wantTone:  ToneUnknown,
			wantText:  "Status Unknown",
			wantLine:  "OpenAI API: Not Configured",
		},
		{
			name:      "backend detail",
			checker:   &stubChecker{err: &agentapi.BackendError{Op: "health check", StatusCode: 503, Detail: "warming up"}},
			wantState: Unreachable,
			wantTone:  ToneFailed,
			wantText:  "Connection Failed",
			wantMsg:   "warming up",
		},
		{
			name:      "no usable message",
			checker:   &stubChecker{err: errors.New("")},
			wantState: Unreachable,
			wantTone:  ToneFailed,
			wantText:  "Connection Failed",
			wantMsg:   "Failed to connect to backend",
		},
		{
			name:      "nil body",
			checker:   &stubChecker{},
			wantState: Unreachable,
			wantTone:  ToneFailed,
			wantText:  "Connection Failed",
			wantMsg:   "Failed to connect to backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind := NewIndicator(tt.checker)
			st, _ := ind.Refresh(context.Background())
			require.Equal(t, st, ind.Status())
			assert.Equal(t, tt.wantState, st.State)
			assert.Equal(t, tt.wantTone, st.Tone())
			assert.Equal(t, tt.wantText, st.Text())
			assert.Equal(t, tt.wantLine, st.OpenAILine())
			assert.Equal(t, tt.wantMsg, st.Message)
		})
	}
}

type blockingChecker struct {
	release chan struct{}
}

func (b *blockingChecker) GetHealth(ctx context.Context) (*agentapi.HealthResponse, error) {
	<-b.release
	return &agentapi.HealthResponse{Status: "healthy", OpenAIConfigured: true}, nil
}

func TestIndicator_RefreshAsync(t *testing.T) {
	c := &blockingChecker{release: make(chan struct{})}
	ind := NewIndicator(c)

	done := make(chan Status, 1)
	require.True(t, ind.RefreshAsync(context.Background(), func(st Status, err error) {
		assert.NoError(t, err)
		done <- st
	}))
	assert.Equal(t, Checking, ind.Status().State)

	// A second refresh while one is running is dropped.
	assert.False(t, ind.RefreshAsync(context.Background(), nil))

	close(c.release)
	st := <-done
	assert.Equal(t, Connected, st.State)
	assert.Equal(t, ToneHealthy, ind.Status().Tone())

	assert.True(t, ind.RefreshAsync(context.Background(), nil))
}

func TestIndicator_RefreshJoinsInFlightCheck(t *testing.T) {
	c := &blockingChecker{release: make(chan struct{})}
	ind := NewIndicator(c)

	require.True(t, ind.RefreshAsync(context.Background(), nil))

	got := make(chan Status, 1)
	go func() {
		st, err := ind.Refresh(context.Background())
		assert.NoError(t, err)
		got <- st
	}()

	// Refresh must not flip the in-flight guard: no second check starts.
	assert.False(t, ind.RefreshAsync(context.Background(), nil))

	close(c.release)
	select {
	case st := <-got:
		assert.Equal(t, Connected, st.State)
	case <-time.After(2 * time.Second):
		t.Fatal("Refresh did not return after the in-flight check finished")
	}
	assert.Equal(t, Connected, ind.Status().State)
}

func TestIndicator_RefreshWaitHonoursContext(t *testing.T) {
	c := &blockingChecker{release: make(chan struct{})}
	defer close(c.release)
	ind := NewIndicator(c)
	require.True(t, ind.RefreshAsync(context.Background(), nil))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	st, err := ind.Refresh(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Checking, st.State)
}

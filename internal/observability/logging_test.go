package observability

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger_Level(t *testing.T) {
	l := InitLogger("DEBUG", "")
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	l = InitLogger("nonsense", "")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	h := middleware.RequestID(middleware.RequestLogger(&RequestLogger{Logger: logger})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
	))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/steps/expand", nil))

	out := buf.String()
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"path":"/steps/expand"`)
	assert.Contains(t, out, `"request_id"`)
}

func TestMetrics_NoopProvider(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)
	m.RecordQuery(context.Background(), "success", "Billing", 150*time.Millisecond)
	m.RecordHealth(context.Background(), "healthy")
}

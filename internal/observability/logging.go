// Package observability sets up logging, metrics and tracing.
package observability

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// InitLogger configures the standard logrus logger. When file is set, output
// is also written there with size-based rotation.
func InitLogger(level, file string) *logrus.Logger {
	logger := logrus.StandardLogger()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	var out io.Writer = os.Stdout
	if file != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
	}
	logger.SetOutput(out)
	return logger
}

// RequestLogger is a chi LogFormatter writing one logrus entry per request.
type RequestLogger struct {
	Logger logrus.FieldLogger
}

func (l *RequestLogger) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &requestEntry{
		log: l.Logger.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"remote":     r.RemoteAddr,
		}),
	}
}

type requestEntry struct {
	log logrus.FieldLogger
}

func (e *requestEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	e.log.WithFields(logrus.Fields{
		"status":   status,
		"bytes":    bytes,
		"duration": elapsed,
	}).Info("request")
}

func (e *requestEntry) Panic(v interface{}, stack []byte) {
	e.log.WithField("stack", string(stack)).Errorf("panic: %v", v)
}

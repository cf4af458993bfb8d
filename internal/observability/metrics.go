package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the UI's otel instruments. Without a configured meter
// provider they are no-ops.
type Metrics struct {
	QueryCount   metric.Int64Counter
	QueryLatency metric.Float64Histogram
	HealthChecks metric.Int64Counter
}

func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("supportdemo")

	queryCount, err := meter.Int64Counter("supportdemo.query.count",
		metric.WithDescription("Resolved support queries"),
	)
	if err != nil {
		return nil, err
	}

	queryLatency, err := meter.Float64Histogram("supportdemo.query.latency_seconds",
		metric.WithDescription("Time from submission to resolution"),
	)
	if err != nil {
		return nil, err
	}

	healthChecks, err := meter.Int64Counter("supportdemo.health.checks",
		metric.WithDescription("Backend health checks by outcome"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		QueryCount:   queryCount,
		QueryLatency: queryLatency,
		HealthChecks: healthChecks,
	}, nil
}

// RecordQuery records one resolution. outcome is "success", "failed" or an
// agentapi error kind.
func (m *Metrics) RecordQuery(ctx context.Context, outcome, category string, latency time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("category", category),
	)
	m.QueryCount.Add(ctx, 1, attrs)
	m.QueryLatency.Record(ctx, latency.Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) RecordHealth(ctx context.Context, tone string) {
	m.HealthChecks.Add(ctx, 1, metric.WithAttributes(attribute.String("tone", tone)))
}

package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "promptforge"

// Metrics holds all PromptForge metric instruments.
type Metrics struct {
	Commits         metric.Int64Counter
	CommitConflicts metric.Int64Counter
	Rollbacks       metric.Int64Counter
	Resolves        metric.Int64Counter
	ResolveDuration metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Commits, err = meter.Int64Counter("promptforge.commits",
		metric.WithDescription("Number of versions committed"))
	if err != nil {
		return nil, err
	}

	m.CommitConflicts, err = meter.Int64Counter("promptforge.commit.conflicts",
		metric.WithDescription("Number of commits rejected with a version conflict"))
	if err != nil {
		return nil, err
	}

	m.Rollbacks, err = meter.Int64Counter("promptforge.rollbacks",
		metric.WithDescription("Number of rollback commits"))
	if err != nil {
		return nil, err
	}

	m.Resolves, err = meter.Int64Counter("promptforge.resolves",
		metric.WithDescription("Number of role compositions served"))
	if err != nil {
		return nil, err
	}

	m.ResolveDuration, err = meter.Float64Histogram("promptforge.resolve.duration_seconds",
		metric.WithDescription("Role composition latency in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

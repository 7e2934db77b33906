package gauges

import (
	"time"

	"go.uber.org/zap"
)

// RunReport summarizes one reconciliation run for logging and inspection.
type RunReport struct {
	Registry      int // gauges in the on-chain snapshot (admin slots excluded)
	Indexed       int // subgraph records found for those gauges
	Persisted     int
	WriteFailures int
	Ineligible    int
	Duration      time.Duration
}

// Fields renders the report as structured log fields.
func (r RunReport) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("registry", r.Registry),
		zap.Int("indexed", r.Indexed),
		zap.Int("persisted", r.Persisted),
		zap.Int("write_failures", r.WriteFailures),
		zap.Int("ineligible", r.Ineligible),
		zap.Duration("duration", r.Duration),
	}
}

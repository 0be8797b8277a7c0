package observability

import "time"

// Timer measures one operation and reports it to a metrics recorder on
// Stop. Zero-value collaborators are tolerated so callers can time
// unconditionally and attach metrics only when configured.
type Timer struct {
	operation string
	start     time.Time
	metrics   Metrics
	tags      []Tag
}

// StartTimer begins timing the named operation.
func StartTimer(operation string) *Timer {
	return &Timer{
		operation: operation,
		start:     time.Now(),
	}
}

// WithMetrics attaches the recorder that Stop reports to.
func (t *Timer) WithMetrics(metrics Metrics) *Timer {
	t.metrics = metrics
	return t
}

// WithTags adds labels to the recorded metrics.
func (t *Timer) WithTags(tags ...Tag) *Timer {
	t.tags = append(t.tags, tags...)
	return t
}

// Stop records the duration and count for the operation and returns the
// elapsed time.
func (t *Timer) Stop() time.Duration {
	duration := time.Since(t.start)

	if t.metrics != nil {
		tags := append(t.tags, T("operation", t.operation))
		t.metrics.Timing(MetricOperationDuration, duration, tags...)
		t.metrics.Counter(MetricOperationTotal, 1, tags...)
	}

	return duration
}

package telemetry

import (
	"context"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys. Keep values low cardinality: job names and
// trigger sources, never investment or user IDs.
const (
	ProfilingLabelJob     = "job"
	ProfilingLabelTrigger = "trigger"
)

// Trigger sources for a job run
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// WithJobLabels runs fn with the job and trigger attached as pprof labels,
// so profiles can be sliced per batch in the Pyroscope UI.
func WithJobLabels(ctx context.Context, job, trigger string, fn func(context.Context)) {
	if job == "" {
		fn(ctx)
		return
	}
	if trigger == "" {
		trigger = TriggerSchedule
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(ProfilingLabelJob, job, ProfilingLabelTrigger, trigger), fn)
}

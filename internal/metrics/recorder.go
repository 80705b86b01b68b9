// Package metrics records pipeline stage timings and run outcomes.
package metrics

import "time"

// Recorder receives stage and run observations. NoopRecorder is used when
// metrics are not configured.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage, result string)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome string)
	SetReleasedCommits(n int)
}

type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, string)              {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncRunOutcome(string)                       {}
func (NoopRecorder) SetReleasedCommits(int)                     {}

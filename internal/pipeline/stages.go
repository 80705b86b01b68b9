package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/thomas-vilte/semrel/internal/models"
)

// StageName identifies a pipeline stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StageVerifyConditions StageName = "verify-conditions"
	StageAnalyzeCommits   StageName = "analyze-commits"
	StageGenerateNotes    StageName = "generate-notes"
	StagePrepare          StageName = "prepare"
	StagePublish          StageName = "publish"
	StageCommitChangelog  StageName = "commit-changelog"
)

// StageNames lists every stage in order.
func StageNames() []StageName {
	return []StageName{
		StageVerifyConditions,
		StageAnalyzeCommits,
		StageGenerateNotes,
		StagePrepare,
		StagePublish,
		StageCommitChangelog,
	}
}

// ParseStageName accepts the canonical names only.
func ParseStageName(s string) (StageName, error) {
	for _, n := range StageNames() {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", s)
}

// Mutating stages change the repository or the hosting provider.
func (n StageName) Mutating() bool {
	switch n {
	case StagePrepare, StagePublish, StageCommitChangelog:
		return true
	}
	return false
}

// StageState is the lifecycle of one stage within a run.
type StageState string

const (
	StatePending   StageState = "pending"
	StateRunning   StageState = "running"
	StateSucceeded StageState = "succeeded"
	StateSkipped   StageState = "skipped"
	StateFailed    StageState = "failed"
)

// Outcome is the terminal state of a run.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeAborted   Outcome = "aborted"
)

// StageError names the stage a failure happened in. Failures of mutating
// stages are retryable: the next run resumes the release from its tag.
type StageError struct {
	Stage     StageName
	Err       error
	Retryable bool
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func newStageError(stage StageName, err error) *StageError {
	return &StageError{Stage: stage, Err: err, Retryable: stage.Mutating()}
}

// StageReport is the result of one stage.
type StageReport struct {
	Name       StageName
	State      StageState
	Duration   time.Duration
	Err        error
	Detail     string
	BestEffort bool
}

// Report is the result of a run.
type Report struct {
	RunID     uuid.UUID
	Outcome   Outcome
	NoRelease bool
	DryRun    bool
	Stages    []StageReport
	Context   *models.ReleaseContext
	Duration  time.Duration
	// Err is the failure that aborted the run.
	Err error
}

func newReport(rc *models.ReleaseContext, dryRun bool) *Report {
	r := &Report{RunID: rc.RunID, Context: rc, DryRun: dryRun}
	for _, n := range StageNames() {
		r.Stages = append(r.Stages, StageReport{Name: n, State: StatePending})
	}
	return r
}

// Stage returns the report of the named stage.
func (r *Report) Stage(name StageName) *StageReport {
	for i := range r.Stages {
		if r.Stages[i].Name == name {
			return &r.Stages[i]
		}
	}
	return nil
}

// Failed lists the failed stages, including best-effort ones.
func (r *Report) Failed() []StageReport {
	var out []StageReport
	for _, s := range r.Stages {
		if s.State == StateFailed {
			out = append(out, s)
		}
	}
	return out
}

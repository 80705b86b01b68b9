// Package pipeline runs the release stages in order over one shared
// ReleaseContext.
package pipeline

import (
	"context"
	"time"

	"github.com/thomas-vilte/semrel/internal/classifier"
	"github.com/thomas-vilte/semrel/internal/hooks"
	"github.com/thomas-vilte/semrel/internal/logger"
	"github.com/thomas-vilte/semrel/internal/metadata"
	"github.com/thomas-vilte/semrel/internal/metrics"
	"github.com/thomas-vilte/semrel/internal/models"
	"github.com/thomas-vilte/semrel/internal/vcs"
)

// CommitSource reads tags and commits from the repository.
type CommitSource interface {
	// Tags lists the tags reachable from HEAD.
	Tags(ctx context.Context) ([]string, error)
	CommitsSince(ctx context.Context, tag string) ([]models.CommitRecord, error)
}

// ConditionChecker verifies one release prerequisite.
type ConditionChecker interface {
	Name() string
	Verify(ctx context.Context, rc *models.ReleaseContext) error
}

type NotesRenderer interface {
	Render(commits []models.CommitRecord, rc *models.ReleaseContext) (*models.ReleaseDocument, error)
}

type VersionWriter interface {
	PrepareVersionFiles(ctx context.Context, files []models.VersionFile, version string) ([]string, error)
}

type MetadataRefresher interface {
	Refresh(ctx context.Context, previousTag, version string) (metadata.Result, error)
	Path() string
}

type HookRunner interface {
	Run(ctx context.Context, name, command string, data hooks.Data) (string, error)
}

type AssetResolver interface {
	Resolve(ctx context.Context, patterns []string) ([]models.Asset, error)
}

// TagWriter creates and pushes release tags.
type TagWriter interface {
	TagExists(ctx context.Context, tag string) bool
	RemoteTagExists(ctx context.Context, tag string) (bool, error)
	CreateTag(ctx context.Context, tag, message string) error
	PushTag(ctx context.Context, tag string) error
}

// HistoryWriter commits release files and pushes them.
type HistoryWriter interface {
	AddFileToStaging(ctx context.Context, file string) error
	HasStagedChanges(ctx context.Context) bool
	CreateCommit(ctx context.Context, message string) error
	Push(ctx context.Context) error
}

type ChangelogWriter interface {
	Prepend(ctx context.Context, version, notes string) (bool, error)
	Path() string
}

// Dependencies are the collaborators of a run. Metadata, Changelog and
// Publisher are optional.
type Dependencies struct {
	Source     CommitSource
	Checkers   []ConditionChecker
	Rules      classifier.Rules
	Annotators []classifier.Annotator
	Renderer   NotesRenderer
	Versions   VersionWriter
	Metadata   MetadataRefresher
	Hooks      HookRunner
	Assets     AssetResolver
	Publisher  vcs.Publisher
	Tags       TagWriter
	History    HistoryWriter
	Changelog  ChangelogWriter
}

// Settings are the configured values the stages read.
type Settings struct {
	VersionFiles          []models.VersionFile
	Assets                []string
	GitAssets             []string
	CommitMessageTemplate string
	PrepareCmd            string
	PublishCmd            string
	Draft                 bool
	BestEffort            []StageName
	DryRun                bool
	// StopAfter skips every stage after the named one.
	StopAfter StageName
}

const DefaultCommitMessageTemplate = "chore(release): {{.Version}} [skip ci]\n\n{{.Notes}}"

type Option func(*Pipeline)

func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithClock replaces time.Now for stage timing.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

type Pipeline struct {
	deps     Dependencies
	settings Settings
	recorder metrics.Recorder
	now      func() time.Time
}

func New(deps Dependencies, settings Settings, opts ...Option) *Pipeline {
	if settings.CommitMessageTemplate == "" {
		settings.CommitMessageTemplate = DefaultCommitMessageTemplate
	}
	p := &Pipeline{
		deps:     deps,
		settings: settings,
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type stageFunc func(ctx context.Context, rc *models.ReleaseContext) error

type stageDef struct {
	name StageName
	fn   stageFunc
}

func (p *Pipeline) stages() []stageDef {
	return []stageDef{
		{StageVerifyConditions, p.verifyConditions},
		{StageAnalyzeCommits, p.analyzeCommits},
		{StageGenerateNotes, p.generateNotes},
		{StagePrepare, p.prepare},
		{StagePublish, p.publish},
		{StageCommitChangelog, p.commitChangelog},
	}
}

// bestEffort reports whether a failure of name lets the run continue. Only
// mutating stages qualify; the stages before them always abort.
func (p *Pipeline) bestEffort(name StageName) bool {
	if !name.Mutating() {
		return false
	}
	for _, n := range p.settings.BestEffort {
		if n == name {
			return true
		}
	}
	return false
}

// Run executes the stages once, in order. The returned error is the one
// that aborted the run, also available as Report.Err.
func (p *Pipeline) Run(ctx context.Context, rc *models.ReleaseContext) (*Report, error) {
	ctx = logger.With(ctx, "run_id", rc.RunID.String())
	log := logger.FromContext(ctx)
	report := newReport(rc, p.settings.DryRun)
	start := p.now()

	log.Info("release run started", "branch", rc.Branch, "channel", rc.Channel, "dry_run", p.settings.DryRun)

	skipReason := ""
	for i, st := range p.stages() {
		rep := &report.Stages[i]
		rep.BestEffort = p.bestEffort(st.name)

		if skipReason == "" && p.settings.DryRun && st.name.Mutating() {
			skipReason = "dry run"
		}
		if skipReason != "" {
			rep.State = StateSkipped
			rep.Detail = skipReason
			p.recorder.IncStageResult(string(st.name), string(StateSkipped))
			log.Debug("stage skipped", "stage", string(st.name), "reason", skipReason)
			continue
		}

		stageCtx := logger.With(ctx, "stage", string(st.name))
		stageLog := logger.FromContext(stageCtx)

		if err := ctx.Err(); err != nil {
			rep.State = StateFailed
			rep.Err = newStageError(st.name, err)
			p.abort(report, rep.Err)
			break
		}

		rep.State = StateRunning
		stageLog.Info("stage started")
		t0 := p.now()
		err := st.fn(stageCtx, rc)
		rep.Duration = p.now().Sub(t0)
		p.recorder.ObserveStageDuration(string(st.name), rep.Duration)

		if err != nil {
			rep.State = StateFailed
			rep.Err = newStageError(st.name, err)
			p.recorder.IncStageResult(string(st.name), string(StateFailed))
			if rep.BestEffort {
				stageLog.Warn("best-effort stage failed, continuing", "error", err, "duration_ms", rep.Duration.Milliseconds())
				continue
			}
			stageLog.Error("stage failed", "error", err, "duration_ms", rep.Duration.Milliseconds())
			p.abort(report, rep.Err)
			break
		}

		rep.State = StateSucceeded
		p.recorder.IncStageResult(string(st.name), string(StateSucceeded))
		stageLog.Info("stage finished", "duration_ms", rep.Duration.Milliseconds())

		if st.name == StageAnalyzeCommits && rc.Bump() == models.BumpNone {
			report.NoRelease = true
			skipReason = "nothing to release"
		}
		if st.name == p.settings.StopAfter {
			skipReason = "not requested"
		}
	}

	if report.Outcome == "" {
		report.Outcome = OutcomeCompleted
	}
	report.Duration = p.now().Sub(start)
	p.recorder.ObserveRunDuration(report.Duration)
	p.recorder.IncRunOutcome(string(report.Outcome))

	switch {
	case report.Outcome == OutcomeAborted:
		log.Error("release run aborted", "error", report.Err, "duration_ms", report.Duration.Milliseconds())
	case report.NoRelease:
		log.Info("nothing to release", "previous_tag", rc.PreviousTag, "duration_ms", report.Duration.Milliseconds())
	default:
		log.Info("release run completed", "version", rc.Version, "duration_ms", report.Duration.Milliseconds())
	}
	return report, report.Err
}

func (p *Pipeline) abort(report *Report, err error) {
	report.Outcome = OutcomeAborted
	report.Err = err
}

package services

import (
	"context"
	"strings"
	"time"

	"github.com/thomas-vilte/semrel/internal/assets"
	"github.com/thomas-vilte/semrel/internal/changelog"
	"github.com/thomas-vilte/semrel/internal/checks"
	"github.com/thomas-vilte/semrel/internal/classifier"
	"github.com/thomas-vilte/semrel/internal/config"
	"github.com/thomas-vilte/semrel/internal/hooks"
	"github.com/thomas-vilte/semrel/internal/logger"
	"github.com/thomas-vilte/semrel/internal/manifest"
	"github.com/thomas-vilte/semrel/internal/metadata"
	"github.com/thomas-vilte/semrel/internal/metrics"
	"github.com/thomas-vilte/semrel/internal/models"
	"github.com/thomas-vilte/semrel/internal/notes"
	"github.com/thomas-vilte/semrel/internal/pipeline"
	"github.com/thomas-vilte/semrel/internal/vcs"
)

// releaseGitService defines only the methods needed by ReleaseService.
type releaseGitService interface {
	pipeline.CommitSource
	pipeline.TagWriter
	pipeline.HistoryWriter
	ValidateGitConfig(ctx context.Context) error
	CurrentBranch(ctx context.Context) (string, error)
	RemoteURL(ctx context.Context) (string, error)
}

// ReleaseService assembles a pipeline from the configuration and runs it.
type ReleaseService struct {
	git       releaseGitService
	tree      metadata.TreeInspector
	publisher vcs.Publisher
	config    *config.Config
	recorder  metrics.Recorder
	root      string
	now       func() time.Time
}

type ReleaseOption func(*ReleaseService)

// WithReleaseVCSClient sets the hosting provider. Without one, publishing
// only pushes the tag.
func WithReleaseVCSClient(p vcs.Publisher) ReleaseOption {
	return func(s *ReleaseService) {
		s.publisher = p
	}
}

func WithReleaseConfig(cfg *config.Config) ReleaseOption {
	return func(s *ReleaseService) {
		s.config = cfg
	}
}

// WithReleaseTree sets the tree inspector used by the metadata record.
func WithReleaseTree(tree metadata.TreeInspector) ReleaseOption {
	return func(s *ReleaseService) {
		s.tree = tree
	}
}

// WithReleaseRoot sets the repository root that relative paths resolve
// against.
func WithReleaseRoot(root string) ReleaseOption {
	return func(s *ReleaseService) {
		s.root = root
	}
}

func WithReleaseRecorder(r metrics.Recorder) ReleaseOption {
	return func(s *ReleaseService) {
		s.recorder = r
	}
}

func NewReleaseService(gitSvc releaseGitService, opts ...ReleaseOption) *ReleaseService {
	s := &ReleaseService{
		git:      gitSvc,
		config:   config.Default(),
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunOptions narrow a run.
type RunOptions struct {
	// Branch overrides the checked-out branch.
	Branch    string
	DryRun    bool
	StopAfter pipeline.StageName
}

// NewContext resolves the branch spec and repository URL of a run. Branches
// that are not configured still get a context; verify-conditions rejects
// them.
func (s *ReleaseService) NewContext(ctx context.Context, branch string) (*models.ReleaseContext, error) {
	if branch == "" {
		current, err := s.git.CurrentBranch(ctx)
		if err != nil {
			return nil, err
		}
		branch = current
	}

	spec, err := checks.ResolveBranch(s.config.Branches, branch)
	if err != nil {
		spec = models.BranchSpec{Name: branch}
	}

	repoURL := s.config.RepositoryURL
	if repoURL == "" {
		if remote, err := s.git.RemoteURL(ctx); err == nil {
			repoURL = remote
		} else {
			logger.Debug(ctx, "no remote url, release notes will not link commits", "error", err)
		}
	}

	return models.NewReleaseContext(spec, repoURL, s.now()), nil
}

// Pipeline builds the stages and their collaborators from the configuration.
func (s *ReleaseService) Pipeline(opts RunOptions) (*pipeline.Pipeline, error) {
	cfg := s.config

	rules, err := classifier.Compile(cfg.Rules)
	if err != nil {
		return nil, err
	}
	annotators, err := classifier.CompileAnnotations(cfg.Annotations)
	if err != nil {
		return nil, err
	}
	renderer, err := notes.New(cfg.Sections,
		notes.WithHeaderTemplate(cfg.HeaderTemplate),
		notes.WithEntryTemplate(cfg.EntryTemplate),
		notes.WithAnnotators(annotators),
	)
	if err != nil {
		return nil, err
	}

	runner := hooks.NewRunner(s.root)
	deps := pipeline.Dependencies{
		Source:     s.git,
		Checkers:   s.checkers(runner),
		Rules:      rules,
		Annotators: annotators,
		Renderer:   renderer,
		Versions:   manifest.NewUpdater(s.root),
		Hooks:      runner,
		Assets:     assets.NewResolver(s.root),
		Publisher:  s.publisher,
		Tags:       s.git,
		History:    s.git,
		Changelog:  changelog.NewWriter(s.root, cfg.ChangelogFile),
	}
	if store := s.metadataStore(runner); store != nil {
		deps.Metadata = store
	}

	settings := pipeline.Settings{
		VersionFiles:          cfg.VersionFiles,
		Assets:                cfg.Assets,
		GitAssets:             cfg.GitAssets,
		CommitMessageTemplate: cfg.CommitMessageTemplate,
		PrepareCmd:            cfg.Hooks.PrepareCmd,
		PublishCmd:            cfg.Hooks.PublishCmd,
		Draft:                 cfg.GitHub.Draft,
		BestEffort:            cfg.StageNames(),
		DryRun:                opts.DryRun,
		StopAfter:             opts.StopAfter,
	}

	return pipeline.New(deps, settings, pipeline.WithRecorder(s.recorder), pipeline.WithClock(s.now)), nil
}

func (s *ReleaseService) checkers(runner *hooks.Runner) []pipeline.ConditionChecker {
	cfg := s.config
	out := []pipeline.ConditionChecker{
		checks.NewGitIdentity(s.git),
		checks.NewBranchAllowed(cfg.Branches),
		checks.NewTools("git",
			hooks.Tool(cfg.Hooks.VerifyConditionsCmd),
			hooks.Tool(cfg.Hooks.PrepareCmd),
			hooks.Tool(cfg.Hooks.PublishCmd),
		),
	}
	if s.publisher != nil {
		out = append(out, checks.NewHostingToken(cfg.TokenVar(), s.publisher))
	}
	if cfg.Hooks.VerifyConditionsCmd != "" {
		out = append(out, checks.NewCommand(runner, cfg.Hooks.VerifyConditionsCmd))
	}
	return out
}

func (s *ReleaseService) metadataStore(runner *hooks.Runner) *metadata.Store {
	m := s.config.Metadata
	if m.Path == "" || s.tree == nil {
		return nil
	}
	var opts []metadata.Option
	if m.AuxCmd != "" {
		opts = append(opts, metadata.WithAuxiliary(func(ctx context.Context) (string, error) {
			out, err := runner.Run(ctx, "metadata-aux", m.AuxCmd, hooks.Data{})
			return strings.TrimSpace(out), err
		}))
	}
	return metadata.NewStore(s.root, m.Path, m.Paths, s.tree, opts...)
}

// Run executes one pipeline run.
func (s *ReleaseService) Run(ctx context.Context, opts RunOptions) (*pipeline.Report, error) {
	rc, err := s.NewContext(ctx, opts.Branch)
	if err != nil {
		return nil, err
	}
	p, err := s.Pipeline(opts)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, rc)
}

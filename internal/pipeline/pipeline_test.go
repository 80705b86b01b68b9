package pipeline

import (
	"context"
	stdErrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomas-vilte/semrel/internal/changelog"
	"github.com/thomas-vilte/semrel/internal/classifier"
	"github.com/thomas-vilte/semrel/internal/commits"
	"github.com/thomas-vilte/semrel/internal/errors"
	"github.com/thomas-vilte/semrel/internal/hooks"
	"github.com/thomas-vilte/semrel/internal/metadata"
	"github.com/thomas-vilte/semrel/internal/models"
	"github.com/thomas-vilte/semrel/internal/notes"
	"github.com/thomas-vilte/semrel/internal/vcs"
)

// fakeSource is a linear history. Tags record how many commits existed when
// they were created, so tags and commits written by a run are visible to the
// next one.
type fakeSource struct {
	log  []models.CommitRecord // newest first
	tags map[string]int
	err  error
}

// newFakeSource tags a root commit with tag and adds since on top of it,
// newest first.
func newFakeSource(tag string, since ...models.CommitRecord) *fakeSource {
	root := commits.Parse("f0f0f0f0f0f0", "dev", "feat: initial import")
	return &fakeSource{
		log:  append(append([]models.CommitRecord{}, since...), root),
		tags: map[string]int{tag: 1},
	}
}

func (f *fakeSource) Tags(context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]string, 0, len(f.tags))
	for t := range f.tags {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeSource) CommitsSince(_ context.Context, tag string) ([]models.CommitRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if tag == "" {
		return f.log, nil
	}
	return f.log[:len(f.log)-f.tags[tag]], nil
}

func (f *fakeSource) tagHead(tag string) { f.tags[tag] = len(f.log) }

func (f *fakeSource) commit(message string) {
	c := commits.Parse(fmt.Sprintf("%012d", len(f.log)), "semrel", message)
	f.log = append([]models.CommitRecord{c}, f.log...)
}

type fakeChecker struct {
	name  string
	err   error
	calls int
}

func (f *fakeChecker) Name() string { return f.name }

func (f *fakeChecker) Verify(context.Context, *models.ReleaseContext) error {
	f.calls++
	return f.err
}

type fakeVersions struct {
	changed []string
	calls   int
}

func (f *fakeVersions) PrepareVersionFiles(context.Context, []models.VersionFile, string) ([]string, error) {
	f.calls++
	return f.changed, nil
}

type fakeHooks struct {
	ran []string
	err map[string]error
}

func (f *fakeHooks) Run(_ context.Context, name, command string, data hooks.Data) (string, error) {
	if err := f.err[name]; err != nil {
		return "", err
	}
	f.ran = append(f.ran, name+":"+data.Version)
	return "", nil
}

type fakeAssets struct {
	assets []models.Asset
}

func (f *fakeAssets) Resolve(context.Context, []string) ([]models.Asset, error) {
	return f.assets, nil
}

type fakePublisher struct {
	requests []vcs.PublishRequest
	released map[string]bool
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, req vcs.PublishRequest) (*models.PublishedRelease, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, req)
	existed := f.released[req.Tag]
	f.released[req.Tag] = true
	return &models.PublishedRelease{Tag: req.Tag, URL: "https://example.com/" + req.Tag, AlreadyExisted: existed}, nil
}

func (f *fakePublisher) VerifyAccess(context.Context) error { return nil }

type fakeTags struct {
	repo      *fakeSource
	local     map[string]bool
	remote    map[string]bool
	created   int
	pushed    int
	createErr error
}

func (f *fakeTags) TagExists(_ context.Context, tag string) bool { return f.local[tag] }

func (f *fakeTags) RemoteTagExists(_ context.Context, tag string) (bool, error) {
	return f.remote[tag], nil
}

func (f *fakeTags) CreateTag(_ context.Context, tag, _ string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created++
	f.local[tag] = true
	f.repo.tagHead(tag)
	return nil
}

func (f *fakeTags) PushTag(_ context.Context, tag string) error {
	f.pushed++
	f.remote[tag] = true
	return nil
}

type fakeHistory struct {
	repo      *fakeSource
	staged    []string
	messages  []string
	pushes    int
	dirty     bool
	commitErr error
	pushErr   error
}

func (f *fakeHistory) AddFileToStaging(_ context.Context, file string) error {
	f.staged = append(f.staged, file)
	return nil
}

func (f *fakeHistory) HasStagedChanges(context.Context) bool { return f.dirty }

func (f *fakeHistory) CreateCommit(_ context.Context, message string) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.messages = append(f.messages, message)
	f.dirty = false
	f.repo.commit(message)
	return nil
}

func (f *fakeHistory) Push(context.Context) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushes++
	return nil
}

type fakeTree struct {
	changed bool
	hash    string
}

func (f *fakeTree) DiffPaths(context.Context, string, string, []string) (bool, error) {
	return f.changed, nil
}

func (f *fakeTree) PathsHash(context.Context, string, []string) (string, error) {
	return f.hash, nil
}

type fixture struct {
	dir       string
	source    *fakeSource
	checker   *fakeChecker
	versions  *fakeVersions
	hooks     *fakeHooks
	publisher *fakePublisher
	tags      *fakeTags
	history   *fakeHistory
	tree      *fakeTree
	renderer  NotesRenderer
	settings  Settings
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		dir: t.TempDir(),
		source: newFakeSource("v1.1.0", defaultCommits()...),
		checker:   &fakeChecker{name: "git-identity"},
		versions:  &fakeVersions{changed: []string{"Cargo.toml"}},
		hooks:     &fakeHooks{err: map[string]error{}},
		publisher: &fakePublisher{released: map[string]bool{}},
		tags:      &fakeTags{local: map[string]bool{}, remote: map[string]bool{}},
		history:   &fakeHistory{dirty: true},
		tree:      &fakeTree{hash: "fresh"},
		settings: Settings{
			VersionFiles: []models.VersionFile{{Path: "Cargo.toml"}},
			Assets:       []string{"dist/*"},
			GitAssets:    []string{"CHANGELOG.md"},
			PrepareCmd:   "./build {{.Version}}",
			PublishCmd:   "./notify {{.Tag}}",
		},
	}
}

func defaultCommits() []models.CommitRecord {
	return []models.CommitRecord{
		commits.Parse("a1b2c3d4e5f6", "dev", "feat(server): add workspace blacklist"),
		commits.Parse("b2c3d4e5f6a1", "dev", "fix: reconnect after broken pipe"),
		commits.Parse("c3d4e5f6a1b2", "dev", "chore: bump deps"),
	}
}

func (f *fixture) pipeline(t *testing.T) *Pipeline {
	t.Helper()
	f.tags.repo = f.source
	f.history.repo = f.source
	renderer := f.renderer
	if renderer == nil {
		r, err := notes.New(notes.DefaultSections())
		require.NoError(t, err)
		renderer = r
	}

	deps := Dependencies{
		Source:    f.source,
		Checkers:  []ConditionChecker{f.checker},
		Rules:     classifier.MustCompile(classifier.DefaultRules()),
		Renderer:  renderer,
		Versions:  f.versions,
		Metadata:  metadata.NewStore(f.dir, ".metadata", []string{"server"}, f.tree),
		Hooks:     f.hooks,
		Assets:    &fakeAssets{assets: []models.Asset{{Name: "cord-linux.tar.gz", SHA256: "abc"}}},
		Publisher: f.publisher,
		Tags:      f.tags,
		History:   f.history,
		Changelog: changelog.NewWriter(f.dir, "CHANGELOG.md"),
	}
	return New(deps, f.settings)
}

func (f *fixture) seedMetadata(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, ".metadata"), []byte(content), 0644))
}

func (f *fixture) readFile(t *testing.T, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(f.dir, name))
	require.NoError(t, err)
	return string(content)
}

func (f *fixture) local(tag string) bool { return f.tags.local[tag] }

func newContext() *models.ReleaseContext {
	return models.NewReleaseContext(
		models.BranchSpec{Name: "main"},
		"https://github.com/vyfor/cord.nvim.git",
		time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	)
}

func states(r *Report) map[StageName]StageState {
	out := make(map[StageName]StageState)
	for _, s := range r.Stages {
		out[s.Name] = s.State
	}
	return out
}

func TestPipeline_Run_FullRelease(t *testing.T) {
	f := newFixture(t)
	rc := newContext()

	report, err := f.pipeline(t).Run(context.Background(), rc)
	require.NoError(t, err)

	assert.Equal(t, OutcomeCompleted, report.Outcome)
	assert.False(t, report.NoRelease)
	for _, s := range report.Stages {
		assert.Equal(t, StateSucceeded, s.State, s.Name)
	}

	assert.Equal(t, "1.2.0", rc.Version)
	assert.Equal(t, "v1.1.0", rc.PreviousTag)
	assert.Equal(t, models.BumpMinor, rc.Bump())
	require.NotNil(t, rc.Document)
	assert.Len(t, rc.Document.Sections, 2)

	assert.Equal(t, 1, f.tags.created)
	assert.Equal(t, 1, f.tags.pushed)
	require.Len(t, f.publisher.requests, 1)
	req := f.publisher.requests[0]
	assert.Equal(t, "v1.2.0", req.Tag)
	assert.False(t, req.Prerelease)
	assert.Equal(t, "abc  cord-linux.tar.gz\n", req.Checksums)
	assert.Equal(t, rc.Document.String(), req.Body)

	assert.Equal(t, []string{"prepare:1.2.0", "publish:1.2.0"}, f.hooks.ran)
	assert.Equal(t, "1.2.0|fresh\n", f.readFile(t, ".metadata"))
	assert.Contains(t, f.readFile(t, "CHANGELOG.md"), "add workspace blacklist")

	assert.Equal(t, []string{"CHANGELOG.md", "Cargo.toml", ".metadata"}, f.history.staged)
	require.Len(t, f.history.messages, 1)
	assert.Equal(t, "chore(release): 1.2.0 [skip ci]\n\n"+rc.Document.String(), f.history.messages[0])
	assert.Equal(t, 1, f.history.pushes)
}

func TestPipeline_Run_VerifyConditionsFailure(t *testing.T) {
	f := newFixture(t)
	f.checker.err = errors.ErrTokenMissing

	report, err := f.pipeline(t).Run(context.Background(), newContext())
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageVerifyConditions, stageErr.Stage)
	assert.False(t, stageErr.Retryable)
	assert.ErrorIs(t, err, errors.ErrConditionFailed)
	assert.ErrorIs(t, err, errors.ErrTokenMissing)

	assert.Equal(t, OutcomeAborted, report.Outcome)
	assert.Equal(t, StateFailed, report.Stage(StageVerifyConditions).State)
	assert.Equal(t, StatePending, report.Stage(StagePublish).State)

	assert.Zero(t, f.tags.created)
	assert.Zero(t, f.tags.pushed)
	assert.Empty(t, f.publisher.requests)
	assert.Empty(t, f.history.messages)
	assert.Zero(t, f.versions.calls)
	assert.NoFileExists(t, filepath.Join(f.dir, "CHANGELOG.md"))
}

func TestPipeline_Run_NothingToRelease(t *testing.T) {
	f := newFixture(t)
	f.source = newFakeSource("v1.1.0",
		commits.Parse("c3d4e5f6a1b2", "dev", "chore: bump deps"),
		commits.Parse("d4e5f6a1b2c3", "dev", "feat(no-release): internal tooling"),
	)
	rc := newContext()

	report, err := f.pipeline(t).Run(context.Background(), rc)
	require.NoError(t, err)

	assert.Equal(t, OutcomeCompleted, report.Outcome)
	assert.True(t, report.NoRelease)
	assert.Empty(t, rc.Version)

	got := states(report)
	assert.Equal(t, StateSucceeded, got[StageAnalyzeCommits])
	for _, n := range []StageName{StageGenerateNotes, StagePrepare, StagePublish, StageCommitChangelog} {
		assert.Equal(t, StateSkipped, got[n], n)
		assert.Equal(t, "nothing to release", report.Stage(n).Detail)
	}
	assert.Zero(t, f.tags.created)
	assert.Empty(t, f.publisher.requests)
	assert.Empty(t, f.history.messages)
}

func TestPipeline_Run_MetadataCarryForward(t *testing.T) {
	f := newFixture(t)
	f.seedMetadata(t, "1.1.0|abc123\n")
	f.tree.changed = false

	_, err := f.pipeline(t).Run(context.Background(), newContext())
	require.NoError(t, err)

	assert.Equal(t, "1.2.0|abc123\n", f.readFile(t, ".metadata"))
}

func TestPipeline_Run_MetadataRecomputedOnChange(t *testing.T) {
	f := newFixture(t)
	f.seedMetadata(t, "1.1.0|abc123\n")
	f.tree.changed = true
	f.tree.hash = "def456"

	_, err := f.pipeline(t).Run(context.Background(), newContext())
	require.NoError(t, err)

	assert.Equal(t, "1.2.0|def456\n", f.readFile(t, ".metadata"))
}

func TestPipeline_Run_DryRun(t *testing.T) {
	f := newFixture(t)
	f.settings.DryRun = true
	rc := newContext()

	report, err := f.pipeline(t).Run(context.Background(), rc)
	require.NoError(t, err)

	got := states(report)
	assert.Equal(t, StateSucceeded, got[StageGenerateNotes])
	for _, n := range []StageName{StagePrepare, StagePublish, StageCommitChangelog} {
		assert.Equal(t, StateSkipped, got[n], n)
		assert.Equal(t, "dry run", report.Stage(n).Detail)
	}
	assert.True(t, report.DryRun)
	assert.Equal(t, "1.2.0", rc.Version)
	assert.NotNil(t, rc.Document)
	assert.Zero(t, f.versions.calls)
	assert.Zero(t, f.tags.created)
	assert.NoFileExists(t, filepath.Join(f.dir, ".metadata"))
}

func TestPipeline_Run_StopAfter(t *testing.T) {
	f := newFixture(t)
	f.settings.StopAfter = StageAnalyzeCommits

	report, err := f.pipeline(t).Run(context.Background(), newContext())
	require.NoError(t, err)

	assert.Equal(t, StateSkipped, report.Stage(StageGenerateNotes).State)
	assert.Equal(t, "not requested", report.Stage(StageGenerateNotes).Detail)
}

func TestPipeline_Run_MutatingStageFailure(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.ErrCreateRelease

	report, err := f.pipeline(t).Run(context.Background(), newContext())
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StagePublish, stageErr.Stage)
	assert.True(t, stageErr.Retryable)
	assert.Contains(t, err.Error(), "stage publish failed")
	assert.ErrorIs(t, err, errors.ErrCreateRelease)

	assert.ErrorIs(t, err, errors.ErrPublishFailed)

	assert.Equal(t, OutcomeAborted, report.Outcome)
	assert.Equal(t, StateSucceeded, report.Stage(StagePrepare).State)
	assert.Equal(t, StatePending, report.Stage(StageCommitChangelog).State)
	assert.Empty(t, f.history.messages)
}

func TestPipeline_Run_BestEffortStage(t *testing.T) {
	f := newFixture(t)
	f.hooks.err["publish"] = fmt.Errorf("webhook down")
	f.settings.BestEffort = []StageName{StagePublish}

	report, err := f.pipeline(t).Run(context.Background(), newContext())
	require.NoError(t, err)

	assert.Equal(t, OutcomeCompleted, report.Outcome)
	assert.Equal(t, StateFailed, report.Stage(StagePublish).State)
	assert.True(t, report.Stage(StagePublish).BestEffort)
	assert.Len(t, report.Failed(), 1)
	assert.Equal(t, StateSucceeded, report.Stage(StageCommitChangelog).State)
	assert.Len(t, f.history.messages, 1)
}

func TestPipeline_Run_VerifyConditionsIsNeverBestEffort(t *testing.T) {
	f := newFixture(t)
	f.checker.err = errors.ErrGitUserNotConfigured
	f.settings.BestEffort = []StageName{StageVerifyConditions}

	report, err := f.pipeline(t).Run(context.Background(), newContext())
	require.Error(t, err)
	assert.Equal(t, OutcomeAborted, report.Outcome)
	assert.Zero(t, f.tags.created)
}

func TestPipeline_Run_RerunAfterCommitFailure(t *testing.T) {
	f := newFixture(t)
	f.seedMetadata(t, "1.1.0|abc123\n")
	f.history.commitErr = stdErrors.New("index.lock exists")

	_, err := f.pipeline(t).Run(context.Background(), newContext())
	require.Error(t, err)
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageCommitChangelog, stageErr.Stage)
	assert.ErrorIs(t, err, errors.ErrCommitFailed)

	f.history.commitErr = nil
	report, err := f.pipeline(t).Run(context.Background(), newContext())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, report.Outcome)
	assert.False(t, report.NoRelease)
	assert.True(t, report.Context.Resumed)
	assert.Equal(t, "v1.1.0", report.Context.PreviousTag)

	assert.Equal(t, 1, f.tags.created, "tag must not be recreated")
	assert.Equal(t, 1, f.tags.pushed)
	require.Len(t, f.publisher.requests, 2)
	assert.True(t, report.Context.Published.AlreadyExisted)
	assert.Equal(t, "1.2.0|abc123\n", f.readFile(t, ".metadata"))
	assert.Len(t, changelog.Versions([]byte(f.readFile(t, "CHANGELOG.md"))), 1)
	assert.Len(t, f.history.messages, 1)
}

func TestPipeline_Run_Prerelease(t *testing.T) {
	f := newFixture(t)
	f.source = newFakeSource("v1.2.0-beta.1", defaultCommits()...)
	rc := models.NewReleaseContext(
		models.BranchSpec{Name: "client-server", Prerelease: "beta", Channel: "beta"},
		"",
		time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
	)

	_, err := f.pipeline(t).Run(context.Background(), rc)
	require.NoError(t, err)

	assert.Equal(t, "1.2.0-beta.2", rc.Version)
	require.Len(t, f.publisher.requests, 1)
	assert.True(t, f.publisher.requests[0].Prerelease)
}

func TestPipeline_Run_MalformedCommitsAreSkipped(t *testing.T) {
	f := newFixture(t)
	f.source = newFakeSource("v1.1.0", append(defaultCommits(), models.CommitRecord{Hash: "", Subject: "lost"})...)
	rc := newContext()

	_, err := f.pipeline(t).Run(context.Background(), rc)
	require.NoError(t, err)

	require.Len(t, rc.Decision.Skipped, 1)
	assert.ErrorIs(t, rc.Decision.Skipped[0], errors.ErrMalformedCommit)
	assert.Len(t, rc.Commits, 3)
}

func TestPipeline_Run_Canceled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.pipeline(t).Run(ctx, newContext())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeAborted, report.Outcome)
	assert.Zero(t, f.checker.calls)
}

type failingRenderer struct{}

func (failingRenderer) Render([]models.CommitRecord, *models.ReleaseContext) (*models.ReleaseDocument, error) {
	return nil, errors.ErrRenderTemplate
}

func TestPipeline_Run_OnlyMutatingStagesAreBestEffort(t *testing.T) {
	t.Run("analyze-commits failure aborts", func(t *testing.T) {
		f := newFixture(t)
		f.source.err = stdErrors.New("not a git repository")
		f.settings.BestEffort = []StageName{StageAnalyzeCommits}

		report, err := f.pipeline(t).Run(context.Background(), newContext())
		require.Error(t, err)

		assert.Equal(t, OutcomeAborted, report.Outcome)
		assert.False(t, report.Stage(StageAnalyzeCommits).BestEffort)
		assert.Equal(t, StatePending, report.Stage(StagePrepare).State)
		assert.Zero(t, f.tags.created)
		assert.Empty(t, f.publisher.requests)
		assert.Empty(t, f.history.messages)
		assert.NoFileExists(t, filepath.Join(f.dir, ".metadata"))
	})

	t.Run("generate-notes failure aborts", func(t *testing.T) {
		f := newFixture(t)
		f.renderer = failingRenderer{}
		f.settings.BestEffort = []StageName{StageGenerateNotes}

		report, err := f.pipeline(t).Run(context.Background(), newContext())
		require.ErrorIs(t, err, errors.ErrRenderTemplate)

		assert.Equal(t, OutcomeAborted, report.Outcome)
		assert.Equal(t, StateFailed, report.Stage(StageGenerateNotes).State)
		assert.Equal(t, StatePending, report.Stage(StagePublish).State)
		assert.Empty(t, f.publisher.requests)
		assert.Zero(t, f.versions.calls)
	})
}

func TestPipeline_Run_ResumesAfterPublishFailure(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.ErrCreateRelease

	_, err := f.pipeline(t).Run(context.Background(), newContext())
	require.ErrorIs(t, err, errors.ErrPublishFailed)
	assert.True(t, f.local("v1.2.0"), "the failed run already tagged HEAD")

	f.publisher.err = nil
	rc := newContext()
	report, err := f.pipeline(t).Run(context.Background(), rc)
	require.NoError(t, err)

	assert.Equal(t, OutcomeCompleted, report.Outcome)
	assert.False(t, report.NoRelease)
	assert.True(t, rc.Resumed)
	assert.Equal(t, "1.2.0", rc.Version)
	assert.Equal(t, "v1.1.0", rc.PreviousTag)
	assert.Len(t, rc.Commits, 3)

	assert.Equal(t, 1, f.tags.created)
	assert.Equal(t, 1, f.tags.pushed)
	require.Len(t, f.publisher.requests, 1)
	assert.Equal(t, "v1.2.0", f.publisher.requests[0].Tag)
	assert.Contains(t, f.publisher.requests[0].Body, "add workspace blacklist")
	require.Len(t, f.history.messages, 1)
	assert.Equal(t, 1, f.history.pushes)
	assert.Len(t, changelog.Versions([]byte(f.readFile(t, "CHANGELOG.md"))), 1)
}

func TestPipeline_Run_ResumesAfterPushFailure(t *testing.T) {
	f := newFixture(t)
	f.history.pushErr = stdErrors.New("remote rejected")

	_, err := f.pipeline(t).Run(context.Background(), newContext())
	require.ErrorIs(t, err, errors.ErrCommitFailed)
	require.Len(t, f.history.messages, 1)

	f.history.pushErr = nil
	rc := newContext()
	report, err := f.pipeline(t).Run(context.Background(), rc)
	require.NoError(t, err)

	assert.True(t, rc.Resumed)
	assert.Equal(t, "1.2.0", rc.Version)
	assert.Len(t, rc.Commits, 3, "the release commit is not part of its own release")
	assert.Equal(t, StateSucceeded, report.Stage(StageCommitChangelog).State)
	assert.Len(t, f.history.messages, 1, "nothing left to commit")
	assert.Equal(t, 1, f.history.pushes)
	assert.True(t, f.publisher.released["v1.2.0"])
	assert.True(t, rc.Published.AlreadyExisted)
}

func TestPipeline_Run_NewCommitsAfterReleaseStartNextVersion(t *testing.T) {
	f := newFixture(t)
	_, err := f.pipeline(t).Run(context.Background(), newContext())
	require.NoError(t, err)

	f.source.commit("fix: handle empty workspace")
	f.history.dirty = true
	rc := newContext()
	_, err = f.pipeline(t).Run(context.Background(), rc)
	require.NoError(t, err)

	assert.False(t, rc.Resumed)
	assert.Equal(t, "v1.2.0", rc.PreviousTag)
	assert.Equal(t, "1.2.1", rc.Version)
	require.Len(t, rc.Commits, 2)
	assert.Equal(t, "chore", rc.Commits[1].Type)
}

func TestPipeline_Run_TagAtHeadWithoutReleasableCommits(t *testing.T) {
	f := newFixture(t)
	f.source = &fakeSource{
		log: []models.CommitRecord{
			commits.Parse("a1a1a1a1a1a1", "dev", "chore: bump deps"),
			commits.Parse("b2b2b2b2b2b2", "dev", "chore: scaffold"),
		},
		tags: map[string]int{"v0.1.0": 1, "v0.1.1": 2},
	}
	rc := newContext()

	report, err := f.pipeline(t).Run(context.Background(), rc)
	require.NoError(t, err)

	assert.True(t, report.NoRelease)
	assert.False(t, rc.Resumed)
	assert.Equal(t, "v0.1.1", rc.PreviousTag)
	assert.Empty(t, f.publisher.requests)
}

func TestPipeline_Run_PublishFailuresArePublishErrors(t *testing.T) {
	t.Run("tag creation", func(t *testing.T) {
		f := newFixture(t)
		f.tags.createErr = errors.ErrCreateTag

		_, err := f.pipeline(t).Run(context.Background(), newContext())
		assert.ErrorIs(t, err, errors.ErrPublishFailed)
		assert.ErrorIs(t, err, errors.ErrCreateTag)
	})

	t.Run("publish hook", func(t *testing.T) {
		f := newFixture(t)
		f.hooks.err["publish"] = errors.ErrHookFailed

		_, err := f.pipeline(t).Run(context.Background(), newContext())
		assert.ErrorIs(t, err, errors.ErrPublishFailed)
		assert.ErrorIs(t, err, errors.ErrHookFailed)
		assert.NotErrorIs(t, err, errors.ErrPrepareFailed)
	})

	t.Run("prepare hook stays a prepare error", func(t *testing.T) {
		f := newFixture(t)
		f.hooks.err["prepare"] = errors.ErrHookFailed

		_, err := f.pipeline(t).Run(context.Background(), newContext())
		assert.ErrorIs(t, err, errors.ErrPrepareFailed)
		assert.NotErrorIs(t, err, errors.ErrPublishFailed)
	})
}

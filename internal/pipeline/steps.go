package pipeline

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/thomas-vilte/semrel/internal/assets"
	"github.com/thomas-vilte/semrel/internal/classifier"
	"github.com/thomas-vilte/semrel/internal/errors"
	"github.com/thomas-vilte/semrel/internal/hooks"
	"github.com/thomas-vilte/semrel/internal/logger"
	"github.com/thomas-vilte/semrel/internal/models"
	"github.com/thomas-vilte/semrel/internal/semver"
	"github.com/thomas-vilte/semrel/internal/vcs"
)

// verifyConditions runs every checker and reports all failures at once.
func (p *Pipeline) verifyConditions(ctx context.Context, rc *models.ReleaseContext) error {
	log := logger.FromContext(ctx)

	var errs []error
	for _, c := range p.deps.Checkers {
		if err := c.Verify(ctx, rc); err != nil {
			log.Error("condition not met", "check", c.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
			continue
		}
		log.Debug("condition met", "check", c.Name())
	}
	if len(errs) > 0 {
		return errors.ErrConditionFailed.WithError(stdErrors.Join(errs...)).
			WithContext("failed_checks", len(errs))
	}
	return nil
}

func (p *Pipeline) analyzeCommits(ctx context.Context, rc *models.ReleaseContext) error {
	log := logger.FromContext(ctx)

	tags, err := p.deps.Source.Tags(ctx)
	if err != nil {
		return err
	}
	prev := semver.Latest(tags, rc.Prerelease)

	raw, err := p.deps.Source.CommitsSince(ctx, prev)
	if err != nil {
		return err
	}

	if resumed, err := p.resume(ctx, rc, tags, prev, raw); err != nil || resumed {
		return err
	}

	decision := classifier.Classify(raw, p.deps.Rules)
	p.record(ctx, rc, prev, len(raw), decision)
	if decision.Bump == models.BumpNone {
		return nil
	}

	version, err := semver.Next(prev, decision.Bump, rc.Prerelease)
	if err != nil {
		return err
	}
	rc.Version = version
	log.Info("next version resolved", "version", version)
	return nil
}

// resume picks up the release of tag when an earlier run created the tag but
// may have failed before finishing: nothing but its own release commit
// follows the tag. The commits since the tag before it are classified again
// and the remaining stages run against the existing version. Returns false
// when tag is not such a release.
func (p *Pipeline) resume(ctx context.Context, rc *models.ReleaseContext, tags []string, tag string, since []models.CommitRecord) (bool, error) {
	if tag == "" {
		return false, nil
	}
	version := strings.TrimPrefix(tag, "v")
	header := p.releaseHeader(rc, version)
	for _, c := range since {
		if header == "" || c.Header != header {
			return false, nil
		}
	}

	prev := semver.Latest(without(tags, tag), rc.Prerelease)
	raw, err := p.deps.Source.CommitsSince(ctx, prev)
	if err != nil {
		return false, err
	}
	released := make([]models.CommitRecord, 0, len(raw))
	for _, c := range raw {
		if c.Header != header {
			released = append(released, c)
		}
	}

	decision := classifier.Classify(released, p.deps.Rules)
	if decision.Bump == models.BumpNone {
		return false, nil
	}
	p.record(ctx, rc, prev, len(released), decision)
	rc.Version = version
	rc.Resumed = true
	logger.Info(ctx, "resuming unfinished release", "tag", tag, "previous_tag", prev)
	return true, nil
}

// record stores a classification in the context.
func (p *Pipeline) record(ctx context.Context, rc *models.ReleaseContext, prev string, total int, decision models.ReleaseDecision) {
	log := logger.FromContext(ctx)
	for _, skipped := range decision.Skipped {
		log.Warn("skipping malformed commit", "error", skipped)
	}

	rc.PreviousTag = prev
	rc.Commits = make([]models.CommitRecord, 0, len(decision.Outcomes))
	for _, o := range decision.Outcomes {
		rc.Commits = append(rc.Commits, o.Commit)
	}
	classifier.Annotate(rc.Commits, p.deps.Annotators, rc.Annotations)
	rc.Decision = &decision
	p.recorder.SetReleasedCommits(len(rc.Commits))

	log.Info("commits analyzed",
		"previous_tag", prev,
		"commits", total,
		"skipped", len(decision.Skipped),
		"bump", decision.Bump.String())
}

// releaseHeader is the first line of the release commit for version, or ""
// when the template cannot be rendered.
func (p *Pipeline) releaseHeader(rc *models.ReleaseContext, version string) string {
	msg, err := hooks.Render(p.settings.CommitMessageTemplate, hooks.Data{
		Version: version,
		Tag:     semver.Tag(version),
		Channel: rc.Channel,
		Branch:  rc.Branch,
	})
	if err != nil {
		return ""
	}
	header, _, _ := strings.Cut(strings.TrimLeft(msg, "\n"), "\n")
	return strings.TrimSpace(header)
}

func without(tags []string, tag string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}

func (p *Pipeline) generateNotes(ctx context.Context, rc *models.ReleaseContext) error {
	doc, err := p.deps.Renderer.Render(rc.Commits, rc)
	if err != nil {
		return err
	}
	rc.Document = doc
	logger.Debug(ctx, "release notes rendered", "sections", len(doc.Sections), "breaking_notes", len(doc.BreakingNotes))
	return nil
}

func hookData(rc *models.ReleaseContext) hooks.Data {
	d := hooks.Data{
		Version:     rc.Version,
		Tag:         rc.Tag(),
		PreviousTag: rc.PreviousTag,
		Channel:     rc.Channel,
		Branch:      rc.Branch,
	}
	if rc.Document != nil {
		d.Notes = rc.Document.String()
	}
	return d
}

func (p *Pipeline) prepare(ctx context.Context, rc *models.ReleaseContext) error {
	log := logger.FromContext(ctx)

	if len(p.settings.VersionFiles) > 0 {
		changed, err := p.deps.Versions.PrepareVersionFiles(ctx, p.settings.VersionFiles, rc.Version)
		if err != nil {
			return err
		}
		rc.ChangedFiles = append(rc.ChangedFiles, changed...)
	}

	if p.settings.PrepareCmd != "" {
		if _, err := p.deps.Hooks.Run(ctx, "prepare", p.settings.PrepareCmd, hookData(rc)); err != nil {
			return errors.ErrPrepareFailed.WithError(err).WithContext("step", "prepare-cmd")
		}
	}

	if p.deps.Metadata == nil {
		return nil
	}
	res, err := p.deps.Metadata.Refresh(ctx, rc.PreviousTag, rc.Version)
	if err != nil {
		return err
	}
	rc.ChangedFiles = append(rc.ChangedFiles, p.deps.Metadata.Path())
	log.Info("metadata record refreshed",
		"record", res.Record.String(),
		"carried_forward", res.CarriedForward,
		"written", res.Written)
	return nil
}

// publish creates and pushes the tag, then the hosting release. Steps
// already done by an earlier run are skipped. Every failure is a publish
// error carrying the step that failed.
func (p *Pipeline) publish(ctx context.Context, rc *models.ReleaseContext) error {
	log := logger.FromContext(ctx)
	tag := rc.Tag()
	fail := func(step string, err error) error {
		return errors.ErrPublishFailed.WithError(err).WithContext("step", step).WithContext("tag", tag)
	}

	if p.deps.Tags.TagExists(ctx, tag) {
		log.Info("tag already exists locally", "tag", tag)
	} else if err := p.deps.Tags.CreateTag(ctx, tag, "Release "+tag); err != nil {
		return fail("create-tag", err)
	}

	pushed, err := p.deps.Tags.RemoteTagExists(ctx, tag)
	if err != nil {
		return fail("push-tag", err)
	}
	if pushed {
		log.Info("tag already on remote", "tag", tag)
	} else if err := p.deps.Tags.PushTag(ctx, tag); err != nil {
		return fail("push-tag", err)
	}

	resolved, err := p.deps.Assets.Resolve(ctx, p.settings.Assets)
	if err != nil {
		return fail("assets", err)
	}

	published := &models.PublishedRelease{Tag: tag}
	if p.deps.Publisher != nil {
		req := vcs.PublishRequest{
			Tag:        tag,
			Name:       tag,
			Body:       rc.Document.String(),
			Prerelease: rc.Prerelease != "",
			Draft:      p.settings.Draft,
			Assets:     resolved,
		}
		if len(resolved) > 0 {
			req.Checksums = assets.Checksums(resolved)
		}
		published, err = p.deps.Publisher.Publish(ctx, req)
		if err != nil {
			return fail("release", err)
		}
	} else {
		log.Warn("no hosting provider configured, release page not created", "tag", tag)
	}
	rc.Published = published

	if p.settings.PublishCmd != "" {
		if _, err := p.deps.Hooks.Run(ctx, "publish", p.settings.PublishCmd, hookData(rc)); err != nil {
			return fail("publish-cmd", err)
		}
	}

	log.Info("release published",
		"tag", tag,
		"url", published.URL,
		"assets", len(published.Assets),
		"already_existed", published.AlreadyExisted,
		"resumed", rc.Resumed)
	return nil
}

// commitChangelog writes the changelog, stages the release files and
// commits them. An empty index means an earlier run already committed.
func (p *Pipeline) commitChangelog(ctx context.Context, rc *models.ReleaseContext) error {
	log := logger.FromContext(ctx)

	var files []string
	if p.deps.Changelog != nil {
		if _, err := p.deps.Changelog.Prepend(ctx, rc.Version, rc.Document.String()); err != nil {
			return errors.ErrCommitFailed.WithError(err).WithContext("file", p.deps.Changelog.Path())
		}
		files = append(files, p.deps.Changelog.Path())
	}
	files = append(files, p.settings.GitAssets...)
	files = append(files, rc.ChangedFiles...)

	seen := make(map[string]bool)
	for _, f := range files {
		if seen[f] {
			continue
		}
		seen[f] = true
		if err := p.deps.History.AddFileToStaging(ctx, f); err != nil {
			return errors.ErrCommitFailed.WithError(err).WithContext("file", f)
		}
	}

	if p.deps.History.HasStagedChanges(ctx) {
		message, err := hooks.Render(p.settings.CommitMessageTemplate, hookData(rc))
		if err != nil {
			return errors.ErrCommitFailed.WithError(err)
		}
		if err := p.deps.History.CreateCommit(ctx, message); err != nil {
			return errors.ErrCommitFailed.WithError(err)
		}
		log.Info("release commit created", "files", len(seen))
	} else {
		log.Info("nothing to commit, release files already committed")
	}

	if err := p.deps.History.Push(ctx); err != nil {
		return errors.ErrCommitFailed.WithError(err)
	}
	return nil
}

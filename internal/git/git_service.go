package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/thomas-vilte/semrel/internal/commits"
	"github.com/thomas-vilte/semrel/internal/errors"
	"github.com/thomas-vilte/semrel/internal/models"
	"github.com/thomas-vilte/semrel/internal/regex"
)

// GitService drives the git binary inside a work tree. An empty Dir means
// the process working directory.
type GitService struct {
	dir    string
	remote string
}

type Option func(*GitService)

func WithDir(dir string) Option {
	return func(s *GitService) { s.dir = dir }
}

func WithRemote(remote string) Option {
	return func(s *GitService) {
		if remote != "" {
			s.remote = remote
		}
	}
}

func NewGitService(opts ...Option) *GitService {
	s := &GitService{remote: "origin"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *GitService) Dir() string {
	return s.dir
}

func (s *GitService) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.dir
	return cmd
}

// run executes git and returns trimmed stdout. On failure the sentinel is
// wrapped with the exit error and stderr.
func (s *GitService) run(ctx context.Context, sentinel *errors.AppError, args ...string) (string, error) {
	cmd := s.command(ctx, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", sentinel.WithError(err).
			WithContext("args", strings.Join(args, " ")).
			WithContext("stderr", strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// HasStagedChanges checks if there are changes in the staging area
func (s *GitService) HasStagedChanges(ctx context.Context) bool {
	cmd := s.command(ctx, "diff", "--cached", "--quiet")
	err := cmd.Run()

	// exit status 1 means there are staged changes
	return err != nil && cmd.ProcessState != nil && cmd.ProcessState.ExitCode() == 1
}

func (s *GitService) CreateCommit(ctx context.Context, message string) error {
	if !s.HasStagedChanges(ctx) {
		return errors.ErrNoChanges
	}
	_, err := s.run(ctx, errors.ErrCreateCommit, "commit", "-m", message)
	return err
}

func (s *GitService) AddFileToStaging(ctx context.Context, file string) error {
	root, err := s.RepoRoot(ctx)
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, "git", "add", "--", file)
	cmd.Dir = root
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errors.ErrAddFile.WithError(err).
			WithContext("file", file).
			WithContext("stderr", strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (s *GitService) CurrentBranch(ctx context.Context) (string, error) {
	branch, err := s.run(ctx, errors.ErrGetBranch, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	if branch == "" {
		return "", errors.ErrNoBranch
	}
	return branch, nil
}

func (s *GitService) RemoteURL(ctx context.Context) (string, error) {
	return s.run(ctx, errors.ErrGetRepoURL, "remote", "get-url", s.remote)
}

// RepoInfo returns owner, repository name and provider of the remote.
func (s *GitService) RepoInfo(ctx context.Context) (string, string, string, error) {
	url, err := s.RemoteURL(ctx)
	if err != nil {
		return "", "", "", err
	}
	return ParseRepoURL(url)
}

func (s *GitService) RepoRoot(ctx context.Context) (string, error) {
	return s.run(ctx, errors.ErrGetRepoRoot, "rev-parse", "--show-toplevel")
}

// Tags lists tags reachable from HEAD.
func (s *GitService) Tags(ctx context.Context) ([]string, error) {
	if s.isEmptyRepo(ctx) {
		return nil, nil
	}
	out, err := s.run(ctx, errors.ErrGetCommits, "tag", "--merged", "HEAD")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// CommitsSince lists non-merge commits after tag, newest first. An empty tag
// lists the whole history.
func (s *GitService) CommitsSince(ctx context.Context, tag string) ([]models.CommitRecord, error) {
	args := []string{"log", "--no-merges", "--format=" + commits.LogFormat}
	if tag != "" {
		args = append(args, tag+"..HEAD")
	}
	out, err := s.run(ctx, errors.ErrGetCommits, args...)
	if err != nil {
		if tag == "" && s.isEmptyRepo(ctx) {
			return nil, nil
		}
		return nil, err
	}
	return commits.ParseLog(out), nil
}

func (s *GitService) isEmptyRepo(ctx context.Context) bool {
	return s.command(ctx, "rev-parse", "--verify", "-q", "HEAD").Run() != nil
}

func (s *GitService) TagExists(ctx context.Context, tag string) bool {
	return s.command(ctx, "rev-parse", "-q", "--verify", "refs/tags/"+tag).Run() == nil
}

func (s *GitService) RemoteTagExists(ctx context.Context, tag string) (bool, error) {
	out, err := s.run(ctx, errors.ErrPushTag, "ls-remote", "--tags", s.remote, "refs/tags/"+tag)
	if err != nil {
		return false, err
	}
	return out != "", nil
}

func (s *GitService) CreateTag(ctx context.Context, tag, message string) error {
	_, err := s.run(ctx, errors.ErrCreateTag, "tag", "-a", tag, "-m", message)
	return err
}

func (s *GitService) PushTag(ctx context.Context, tag string) error {
	_, err := s.run(ctx, errors.ErrPushTag, "push", s.remote, "refs/tags/"+tag)
	return err
}

// Push pushes the current branch to the remote.
func (s *GitService) Push(ctx context.Context) error {
	_, err := s.run(ctx, errors.ErrPush, "push", s.remote, "HEAD")
	return err
}

// ValidateGitConfig checks the committer identity used for the release
// commit and tag.
func (s *GitService) ValidateGitConfig(ctx context.Context) error {
	name, _ := s.run(ctx, errors.ErrGitUserNotConfigured, "config", "user.name")
	if name == "" {
		return errors.ErrGitUserNotConfigured
	}
	email, _ := s.run(ctx, errors.ErrGitEmailNotConfigured, "config", "user.email")
	if email == "" {
		return errors.ErrGitEmailNotConfigured
	}
	return nil
}

// ParseRepoURL extracts owner, repository and provider from an SSH or HTTPS
// remote URL.
func ParseRepoURL(url string) (string, string, string, error) {
	var matches []string
	if m := regex.SSHRepo.FindStringSubmatch(url); m != nil {
		matches = m
	} else if m := regex.HTTPSRepo.FindStringSubmatch(url); m != nil {
		matches = m
	}

	if len(matches) >= 4 {
		provider := detectProvider(matches[1])
		repoName := strings.TrimSuffix(matches[3], ".git")
		return matches[2], repoName, provider, nil
	}

	return "", "", "", errors.ErrExtractRepoInfo.WithError(fmt.Errorf("unrecognized remote %q", url))
}

func detectProvider(host string) string {
	if strings.Contains(host, "github") {
		return "github"
	}
	if strings.Contains(host, "gitlab") {
		return "gitlab"
	}
	return "unknown"
}

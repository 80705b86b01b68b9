// Package checks implements the verify-conditions prerequisites.
package checks

import (
	"context"
	"os"
	"os/exec"
	"path"

	"github.com/thomas-vilte/semrel/internal/errors"
	"github.com/thomas-vilte/semrel/internal/hooks"
	"github.com/thomas-vilte/semrel/internal/models"
)

// ResolveBranch returns the first branch spec matching name. Spec names may
// be path.Match patterns such as "release/*".
func ResolveBranch(branches []models.BranchSpec, name string) (models.BranchSpec, error) {
	for _, b := range branches {
		if b.Name == name {
			return b, nil
		}
		if ok, _ := path.Match(b.Name, name); ok {
			spec := b
			spec.Name = name
			return spec, nil
		}
	}
	return models.BranchSpec{}, errors.ErrBranchNotAllowed.WithContext("branch", name)
}

type identityValidator interface {
	ValidateGitConfig(ctx context.Context) error
}

// GitIdentity requires a committer name and email.
type GitIdentity struct {
	git identityValidator
}

func NewGitIdentity(git identityValidator) *GitIdentity {
	return &GitIdentity{git: git}
}

func (c *GitIdentity) Name() string { return "git-identity" }

func (c *GitIdentity) Verify(ctx context.Context, _ *models.ReleaseContext) error {
	return c.git.ValidateGitConfig(ctx)
}

// BranchAllowed requires the run's branch to be configured for releases.
type BranchAllowed struct {
	branches []models.BranchSpec
}

func NewBranchAllowed(branches []models.BranchSpec) *BranchAllowed {
	return &BranchAllowed{branches: branches}
}

func (c *BranchAllowed) Name() string { return "branch-allowed" }

func (c *BranchAllowed) Verify(_ context.Context, rc *models.ReleaseContext) error {
	if rc.Branch == "" {
		return errors.ErrNoBranch
	}
	_, err := ResolveBranch(c.branches, rc.Branch)
	return err
}

type accessVerifier interface {
	VerifyAccess(ctx context.Context) error
}

// HostingToken requires the token variable to be set and, when a verifier
// is given, usable against the hosting provider.
type HostingToken struct {
	envVar   string
	lookup   func(string) (string, bool)
	verifier accessVerifier
}

func NewHostingToken(envVar string, verifier accessVerifier) *HostingToken {
	return &HostingToken{envVar: envVar, lookup: os.LookupEnv, verifier: verifier}
}

func (c *HostingToken) Name() string { return "hosting-token" }

func (c *HostingToken) Verify(ctx context.Context, _ *models.ReleaseContext) error {
	if v, ok := c.lookup(c.envVar); !ok || v == "" {
		return errors.ErrTokenMissing.WithContext("env", c.envVar)
	}
	if c.verifier == nil {
		return nil
	}
	return c.verifier.VerifyAccess(ctx)
}

// Tools requires executables to be on PATH.
type Tools struct {
	names    []string
	lookPath func(string) (string, error)
}

// NewTools checks the given executables. Empty names are ignored, so hook
// commands can be passed through hooks.Tool directly.
func NewTools(names ...string) *Tools {
	var filtered []string
	for _, n := range names {
		if n != "" {
			filtered = append(filtered, n)
		}
	}
	return &Tools{names: filtered, lookPath: exec.LookPath}
}

func (c *Tools) Name() string { return "tools" }

func (c *Tools) Verify(_ context.Context, _ *models.ReleaseContext) error {
	var missing []string
	for _, n := range c.names {
		if _, err := c.lookPath(n); err != nil {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return errors.ErrToolMissing.WithContext("tools", missing)
	}
	return nil
}

type commandRunner interface {
	Run(ctx context.Context, name, command string, data hooks.Data) (string, error)
}

// Command runs the configured verify_conditions_cmd.
type Command struct {
	runner  commandRunner
	command string
}

func NewCommand(runner commandRunner, command string) *Command {
	return &Command{runner: runner, command: command}
}

func (c *Command) Name() string { return "verify-conditions-cmd" }

func (c *Command) Verify(ctx context.Context, rc *models.ReleaseContext) error {
	_, err := c.runner.Run(ctx, "verify-conditions", c.command, hooks.Data{
		Branch:      rc.Branch,
		Channel:     rc.Channel,
		PreviousTag: rc.PreviousTag,
	})
	return err
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/semrel/internal/commands"
	configcmd "github.com/thomas-vilte/semrel/internal/commands/config"
	"github.com/thomas-vilte/semrel/internal/commands/registry"
	"github.com/thomas-vilte/semrel/internal/commands/release"
	cfg "github.com/thomas-vilte/semrel/internal/config"
	"github.com/thomas-vilte/semrel/internal/git"
	"github.com/thomas-vilte/semrel/internal/i18n"
	"github.com/thomas-vilte/semrel/internal/logger"
	"github.com/thomas-vilte/semrel/internal/metrics"
	"github.com/thomas-vilte/semrel/internal/services"
	"github.com/thomas-vilte/semrel/internal/ui"
	"github.com/thomas-vilte/semrel/internal/vcs"
	"github.com/thomas-vilte/semrel/internal/vcs/github"
	"github.com/thomas-vilte/semrel/internal/version"
)

func main() {
	ctx := context.Background()

	app, translations, err := initializeApp(ctx)
	if err != nil {
		ui.HandleAppError(os.Stderr, err, translations)
		os.Exit(1)
	}

	if err := app.Run(ctx, os.Args); err != nil {
		ui.HandleAppError(os.Stderr, err, translations)
		os.Exit(1)
	}
}

func initializeApp(ctx context.Context) (*cli.Command, *i18n.Translations, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot determine working directory: %w", err)
	}

	root := wd
	if top, err := git.NewGitService(git.WithDir(wd)).RepoRoot(ctx); err == nil {
		root = top
	}

	if err := cfg.LoadEnv(root); err != nil {
		return nil, nil, err
	}

	cfgApp, err := cfg.LoadConfig(os.Getenv("SEMREL_CONFIG"), root)
	if err != nil {
		return nil, nil, err
	}

	translations, err := i18n.NewTranslations(cfg.GetLocaleConfig(cfgApp.Language), "")
	if err != nil {
		return nil, nil, err
	}

	recorder := metrics.NewPrometheusRecorder(nil)
	provider := func(ctx context.Context, c *cfg.Config) (release.Service, error) {
		gitService := git.NewGitService(git.WithDir(root))
		return services.NewReleaseService(gitService,
			services.WithReleaseConfig(c),
			services.WithReleaseRoot(root),
			services.WithReleaseTree(git.NewTreeInspector(root)),
			services.WithReleaseVCSClient(newPublisher(ctx, gitService, c)),
			services.WithReleaseRecorder(recorder),
		), nil
	}

	registerCommand := registry.NewRegistry(cfgApp, translations)
	if err := registerCommand.Register("release", release.NewReleaseCommandFactory(provider, root)); err != nil {
		return nil, nil, err
	}
	if err := registerCommand.Register("config", configcmd.NewConfigCommandFactory(root)); err != nil {
		return nil, nil, err
	}

	globals := &commands.Globals{}
	return &cli.Command{
		Name:    "semrel",
		Usage:   translations.GetMessage("app_usage", 0, nil),
		Version: version.FullVersion(),
		Flags:   globals.Flags(translations),
		Before: func(ctx context.Context, _ *cli.Command) (context.Context, error) {
			return globals.Configure(ctx, os.Stderr), nil
		},
		After: func(ctx context.Context, _ *cli.Command) error {
			return globals.Flush(ctx, recorder)
		},
		Commands:              registerCommand.CreateCommands(),
		EnableShellCompletion: true,
	}, translations, nil
}

// newPublisher returns the GitHub client, or nil when publishing to GitHub
// is disabled or the repository cannot be identified.
func newPublisher(ctx context.Context, gitService *git.GitService, c *cfg.Config) vcs.Publisher {
	if c.GitHub.Disabled {
		return nil
	}
	owner, repo := c.GitHub.Owner, c.GitHub.Repo
	if owner == "" || repo == "" {
		o, r, _, err := gitService.RepoInfo(ctx)
		if err != nil {
			logger.Warn(ctx, "cannot identify the GitHub repository, release pages disabled", "error", err)
			return nil
		}
		owner, repo = o, r
	}
	return github.NewGitHubClient(owner, repo, c.Token())
}

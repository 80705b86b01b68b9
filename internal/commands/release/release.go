package release

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/semrel/internal/commands/completion_helper"
	cfg "github.com/thomas-vilte/semrel/internal/config"
	"github.com/thomas-vilte/semrel/internal/i18n"
	"github.com/thomas-vilte/semrel/internal/models"
	"github.com/thomas-vilte/semrel/internal/pipeline"
	"github.com/thomas-vilte/semrel/internal/services"
	"github.com/thomas-vilte/semrel/internal/ui"
)

// Service runs the release pipeline.
type Service interface {
	Run(ctx context.Context, opts services.RunOptions) (*pipeline.Report, error)
}

// ServiceProvider builds a Service for the effective configuration.
type ServiceProvider func(ctx context.Context, config *cfg.Config) (Service, error)

type ReleaseCommandFactory struct {
	provider ServiceProvider
	dir      string
}

// NewReleaseCommandFactory creates the release command. dir is the
// repository root used to resolve a --config path.
func NewReleaseCommandFactory(provider ServiceProvider, dir string) *ReleaseCommandFactory {
	return &ReleaseCommandFactory{provider: provider, dir: dir}
}

func (r *ReleaseCommandFactory) CreateCommand(t *i18n.Translations, config *cfg.Config) *cli.Command {
	return &cli.Command{
		Name:    "release",
		Aliases: []string{"r"},
		Usage:   t.GetMessage("release_description", 0, nil),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "branch",
				Aliases: []string{"b"},
				Usage:   t.GetMessage("flag_branch", 0, nil),
				Sources: cli.EnvVars("SEMREL_BRANCH", "GITHUB_REF_NAME"),
			},
		},
		Commands: []*cli.Command{
			r.newRunCommand(t, config),
			r.newAnalyzeCommand(t, config),
			r.newNotesCommand(t, config),
		},
	}
}

func (r *ReleaseCommandFactory) newRunCommand(t *i18n.Translations, config *cfg.Config) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: t.GetMessage("release_run_description", 0, nil),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   t.GetMessage("flag_dry_run", 0, nil),
				Sources: cli.EnvVars("SEMREL_DRY_RUN"),
			},
		},
		ShellComplete: completion_helper.DefaultFlagComplete,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			report, err := r.run(ctx, cmd, config, services.RunOptions{DryRun: cmd.Bool("dry-run")})
			if report != nil {
				ui.PrintReport(stdout(cmd), report, t)
			}
			return err
		},
	}
}

func (r *ReleaseCommandFactory) newAnalyzeCommand(t *i18n.Translations, config *cfg.Config) *cli.Command {
	return &cli.Command{
		Name:          "analyze",
		Usage:         t.GetMessage("release_analyze_description", 0, nil),
		ShellComplete: completion_helper.DefaultFlagComplete,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			report, err := r.run(ctx, cmd, config, services.RunOptions{
				DryRun:    true,
				StopAfter: pipeline.StageAnalyzeCommits,
			})
			if report == nil {
				return err
			}
			w := stdout(cmd)
			rc := report.Context
			if len(rc.Commits) > 0 {
				ui.PrintInfo(w, t.GetMessage("commits_analyzed", len(rc.Commits), map[string]interface{}{"Count": len(rc.Commits)}))
			}
			if skipped := skippedCommits(rc.Decision); skipped > 0 {
				ui.PrintWarning(w, t.GetMessage("commits_skipped", skipped, map[string]interface{}{"Count": skipped}))
			}
			if err == nil && !report.NoRelease {
				ui.PrintSuccess(w, t.GetMessage("next_version", 0, map[string]interface{}{
					"Version": rc.Version,
					"Bump":    rc.Bump().String(),
				}))
				return nil
			}
			ui.PrintReport(w, report, t)
			return err
		},
	}
}

func (r *ReleaseCommandFactory) newNotesCommand(t *i18n.Translations, config *cfg.Config) *cli.Command {
	return &cli.Command{
		Name:          "notes",
		Usage:         t.GetMessage("release_notes_description", 0, nil),
		ShellComplete: completion_helper.DefaultFlagComplete,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			report, err := r.run(ctx, cmd, config, services.RunOptions{
				DryRun:    true,
				StopAfter: pipeline.StageGenerateNotes,
			})
			if report == nil {
				return err
			}
			// notes go to stdout alone so they can be piped
			if doc := report.Context.Document; err == nil && doc != nil {
				_, _ = io.WriteString(stdout(cmd), doc.String())
				return nil
			}
			ui.PrintReport(stderr(cmd), report, t)
			return err
		},
	}
}

func (r *ReleaseCommandFactory) run(ctx context.Context, cmd *cli.Command, config *cfg.Config, opts services.RunOptions) (*pipeline.Report, error) {
	effective, err := cfg.Reload(config, cmd.String("config"), r.dir)
	if err != nil {
		return nil, err
	}
	svc, err := r.provider(ctx, effective)
	if err != nil {
		return nil, err
	}
	opts.Branch = cmd.String("branch")
	return svc.Run(ctx, opts)
}

func skippedCommits(d *models.ReleaseDecision) int {
	if d == nil {
		return 0
	}
	return len(d.Skipped)
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func stderr(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}

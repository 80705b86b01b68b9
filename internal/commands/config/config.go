package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/semrel/internal/commands/completion_helper"
	"github.com/thomas-vilte/semrel/internal/config"
	"github.com/thomas-vilte/semrel/internal/i18n"
	"github.com/thomas-vilte/semrel/internal/ui"
)

type ConfigCommandFactory struct {
	dir string
}

// NewConfigCommandFactory manages the configuration file of the repository
// rooted at dir.
func NewConfigCommandFactory(dir string) *ConfigCommandFactory {
	return &ConfigCommandFactory{dir: dir}
}

func (c *ConfigCommandFactory) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: t.GetMessage("config_description", 0, nil),
		Commands: []*cli.Command{
			c.newInitCommand(t),
			c.newShowCommand(t, cfg),
		},
	}
}

func formatFlag(t *i18n.Translations) cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   t.GetMessage("flag_format", 0, nil),
		Value:   "toml",
		Validator: func(s string) error {
			if s != "toml" && s != "yaml" {
				return fmt.Errorf("unsupported format %q", s)
			}
			return nil
		},
	}
}

func (c *ConfigCommandFactory) newInitCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: t.GetMessage("config_init_description", 0, nil),
		Flags: []cli.Flag{
			formatFlag(t),
			&cli.BoolFlag{
				Name:  "force",
				Usage: t.GetMessage("flag_force", 0, nil),
			},
		},
		ShellComplete: completion_helper.DefaultFlagComplete,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := filepath.Join(c.dir, ".semrel."+cmd.String("format"))
			if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
				return fmt.Errorf("%s", t.GetMessage("config_exists", 0, map[string]interface{}{"Path": path}))
			}

			cfg := config.Default()
			cfg.PathFile = path
			if err := config.SaveConfig(cfg); err != nil {
				return err
			}
			ui.PrintSuccess(writer(cmd), t.GetMessage("config_created", 0, map[string]interface{}{"Path": path}))
			return nil
		},
	}
}

func (c *ConfigCommandFactory) newShowCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:          "show",
		Usage:         t.GetMessage("config_show_description", 0, nil),
		Flags:         []cli.Flag{formatFlag(t)},
		ShellComplete: completion_helper.DefaultFlagComplete,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			effective, err := config.Reload(cfg, cmd.String("config"), c.dir)
			if err != nil {
				return err
			}

			w := writer(cmd)
			if effective.PathFile == "" {
				ui.PrintInfo(w, t.GetMessage("config_defaults", 0, nil))
			} else {
				ui.PrintKeyValue(w, "file", effective.PathFile)
			}

			data, err := config.Marshal(effective, "config."+cmd.String("format"))
			if err != nil {
				return err
			}
			_, err = w.Write(data)
			return err
		},
	}
}

func writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

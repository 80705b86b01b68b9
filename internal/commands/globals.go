package commands

import (
	"context"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/semrel/internal/i18n"
	"github.com/thomas-vilte/semrel/internal/logger"
	"github.com/thomas-vilte/semrel/internal/metrics"
)

// Globals are the flags shared by every command.
type Globals struct {
	ConfigPath  string
	LogLevel    string
	LogJSON     bool
	MetricsFile string
}

func (g *Globals) Flags(t *i18n.Translations) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       t.GetMessage("flag_config", 0, nil),
			Destination: &g.ConfigPath,
			Sources:     cli.EnvVars("SEMREL_CONFIG"),
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       t.GetMessage("flag_log_level", 0, nil),
			Value:       "info",
			Destination: &g.LogLevel,
			Sources:     cli.EnvVars("SEMREL_LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Name:        "log-json",
			Usage:       t.GetMessage("flag_log_json", 0, nil),
			Destination: &g.LogJSON,
			Sources:     cli.EnvVars("SEMREL_LOG_JSON"),
		},
		&cli.StringFlag{
			Name:        "metrics-file",
			Usage:       t.GetMessage("flag_metrics_file", 0, nil),
			Destination: &g.MetricsFile,
			Sources:     cli.EnvVars("SEMREL_METRICS_FILE"),
		},
	}
}

// Configure installs the process logger and returns a context carrying it.
func (g *Globals) Configure(ctx context.Context, w io.Writer) context.Context {
	l := logger.Initialize(logger.Options{Level: g.LogLevel, JSON: g.LogJSON, Output: w})
	return logger.WithLogger(ctx, l)
}

// Flush writes the collected metrics when a metrics file was requested.
func (g *Globals) Flush(ctx context.Context, rec *metrics.PrometheusRecorder) error {
	if g.MetricsFile == "" || rec == nil {
		return nil
	}
	if err := rec.WriteToTextfile(g.MetricsFile); err != nil {
		return err
	}
	logger.Debug(ctx, "metrics written", "file", g.MetricsFile)
	return nil
}

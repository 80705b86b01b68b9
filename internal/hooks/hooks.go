// Package hooks runs the user-configured shell commands of the pipeline.
package hooks

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"text/template"

	"github.com/alessio/shellescape"

	"github.com/thomas-vilte/semrel/internal/errors"
	"github.com/thomas-vilte/semrel/internal/logger"
)

// Data is exposed to command templates and, as SEMREL_* variables, to the
// command environment. Hook commands see every value shell-quoted; the notes
// are best read from SEMREL_NOTES.
type Data struct {
	Version     string
	Tag         string
	PreviousTag string
	Channel     string
	Branch      string
	Notes       string
}

func (d Data) env() []string {
	return []string{
		"SEMREL_VERSION=" + d.Version,
		"SEMREL_TAG=" + d.Tag,
		"SEMREL_PREVIOUS_TAG=" + d.PreviousTag,
		"SEMREL_CHANNEL=" + d.Channel,
		"SEMREL_BRANCH=" + d.Branch,
		"SEMREL_NOTES=" + d.Notes,
	}
}

func (d Data) quoted() Data {
	return Data{
		Version:     shellescape.Quote(d.Version),
		Tag:         shellescape.Quote(d.Tag),
		PreviousTag: shellescape.Quote(d.PreviousTag),
		Channel:     shellescape.Quote(d.Channel),
		Branch:      shellescape.Quote(d.Branch),
		Notes:       shellescape.Quote(d.Notes),
	}
}

// Runner executes hook commands with `sh -c` in a fixed directory.
type Runner struct {
	dir   string
	shell string
}

func NewRunner(dir string) *Runner {
	return &Runner{dir: dir, shell: "sh"}
}

// Render expands a command template.
func Render(command string, data Data) (string, error) {
	tmpl, err := template.New("hook").Option("missingkey=error").Parse(command)
	if err != nil {
		return "", errors.ErrTemplateInvalid.WithError(err).WithContext("command", command)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.ErrTemplateInvalid.WithError(err).WithContext("command", command)
	}
	return buf.String(), nil
}

// Run renders and executes command. An empty command is a no-op. Output is
// returned trimmed; on failure stderr is attached to the error.
func (r *Runner) Run(ctx context.Context, name, command string, data Data) (string, error) {
	if strings.TrimSpace(command) == "" {
		return "", nil
	}
	rendered, err := Render(command, data.quoted())
	if err != nil {
		return "", err
	}

	log := logger.FromContext(ctx).With("hook", name)
	log.Info("running hook", "cmd", rendered)

	cmd := exec.CommandContext(ctx, r.shell, "-c", rendered)
	cmd.Dir = r.dir
	cmd.Env = append(os.Environ(), data.env()...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", errors.ErrHookFailed.WithError(err).
			WithContext("hook", name).
			WithContext("cmd", rendered).
			WithContext("stderr", strings.TrimSpace(stderr.String()))
	}

	out := strings.TrimSpace(stdout.String())
	if out != "" {
		log.Debug("hook output", "output", out)
	}
	return out, nil
}

// Tool returns the executable a command starts with, for PATH checks.
func Tool(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

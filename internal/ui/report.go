package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/thomas-vilte/semrel/internal/i18n"
	"github.com/thomas-vilte/semrel/internal/pipeline"
)

var (
	stageNameStyle = lipgloss.NewStyle().Width(20)
	stateStyles    = map[pipeline.StageState]lipgloss.Style{
		pipeline.StateSucceeded: lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD787")).Width(11),
		pipeline.StateSkipped:   lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Width(11),
		pipeline.StateFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true).Width(11),
		pipeline.StatePending:   lipgloss.NewStyle().Foreground(lipgloss.Color("#444444")).Width(11),
		pipeline.StateRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Width(11),
	}
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
)

var stateIcons = map[pipeline.StageState]string{
	pipeline.StateSucceeded: "✔",
	pipeline.StateSkipped:   "↷",
	pipeline.StateFailed:    "✖",
	pipeline.StatePending:   "·",
	pipeline.StateRunning:   "…",
}

// StageLine renders one row of the stage report.
func StageLine(s pipeline.StageReport) string {
	detail := s.Detail
	switch s.State {
	case pipeline.StateSucceeded:
		detail = s.Duration.Round(time.Millisecond).String()
	case pipeline.StateFailed:
		if s.Err != nil {
			detail = s.Err.Error()
		}
		if s.BestEffort {
			detail += " (best-effort)"
		}
	}
	style := stateStyles[s.State]
	return strings.TrimRight(fmt.Sprintf("  %s %s %s %s",
		stateIcons[s.State],
		stageNameStyle.Render(string(s.Name)),
		style.Render(string(s.State)),
		detailStyle.Render(detail),
	), " ")
}

// PrintReport writes the per-stage table followed by a one-line summary.
func PrintReport(w io.Writer, r *pipeline.Report, t *i18n.Translations) {
	PrintSectionBanner(w, label(t, "stage_report_title", "Stages"))
	for _, s := range r.Stages {
		_, _ = fmt.Fprintln(w, StageLine(s))
	}
	_, _ = fmt.Fprintln(w)

	rc := r.Context
	msg := func(id, fallback string, data map[string]interface{}) string {
		if t == nil {
			return fallback
		}
		return t.GetMessage(id, 0, data)
	}

	switch {
	case r.Outcome == pipeline.OutcomeAborted:
		var stageErr *pipeline.StageError
		stage := ""
		if errors.As(r.Err, &stageErr) {
			stage = string(stageErr.Stage)
		}
		PrintError(w, msg("release_aborted", "Release aborted in stage "+stage, map[string]interface{}{"Stage": stage}))
		if stageErr != nil && stageErr.Retryable {
			PrintInfo(w, msg("retry_hint", "The failure is retryable", nil))
		}
	case r.NoRelease:
		if rc.PreviousTag == "" {
			PrintInfo(w, msg("nothing_to_release_initial", "Nothing to release: no release-worthy commits found", nil))
		} else {
			PrintInfo(w, msg("nothing_to_release", "Nothing to release since "+rc.PreviousTag,
				map[string]interface{}{"PreviousTag": rc.PreviousTag}))
		}
	case r.DryRun:
		PrintInfo(w, msg("release_dry_run", "Dry run: "+rc.Tag()+" would be released",
			map[string]interface{}{"Tag": rc.Tag()}))
	default:
		if rc.Resumed {
			PrintInfo(w, msg("release_resumed", "Resumed the unfinished release "+rc.Tag(), map[string]interface{}{"Tag": rc.Tag()}))
		}
		PrintSuccess(w, msg("release_completed", "Released "+rc.Tag(), map[string]interface{}{"Tag": rc.Tag()}))
		if rc.Published != nil && rc.Published.URL != "" {
			PrintKeyValue(w, "url", rc.Published.URL)
		}
	}
}

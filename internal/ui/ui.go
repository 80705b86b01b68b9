package ui

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	domainErrors "github.com/thomas-vilte/semrel/internal/errors"
	"github.com/thomas-vilte/semrel/internal/i18n"
)

var (
	// Colors for different message types
	Success = color.New(color.FgGreen, color.Bold)
	Error   = color.New(color.FgRed, color.Bold)
	Warning = color.New(color.FgYellow, color.Bold)
	Info    = color.New(color.FgCyan, color.Bold)
	Accent  = color.New(color.FgMagenta, color.Bold)
	Dim     = color.New(color.FgHiBlack)
)

func PrintSuccess(w io.Writer, msg string) {
	_, _ = Success.Fprintf(w, "✔ %s\n", msg)
}

func PrintError(w io.Writer, msg string) {
	_, _ = Error.Fprintf(w, "✖ %s\n", msg)
}

func PrintWarning(w io.Writer, msg string) {
	_, _ = Warning.Fprintf(w, "! %s\n", msg)
}

func PrintInfo(w io.Writer, msg string) {
	_, _ = Info.Fprintf(w, "› %s\n", msg)
}

func PrintSectionBanner(w io.Writer, title string) {
	_, _ = fmt.Fprintln(w)
	_, _ = Accent.Fprintln(w, title)
	_, _ = Dim.Fprintln(w, strings.Repeat("─", len([]rune(title))))
}

func PrintKeyValue(w io.Writer, key, value string) {
	keyColored := Dim.Sprint(key + ":")
	valueColored := color.New(color.FgWhite, color.Bold).Sprint(value)
	_, _ = fmt.Fprintf(w, "   %s %s\n", keyColored, valueColored)
}

func label(t *i18n.Translations, id, fallback string) string {
	if t == nil {
		return fallback
	}
	return t.GetMessage(id, 0, nil)
}

// HandleAppError prints err with its type, details, context and suggestion
// when it wraps an AppError, and as a plain error line otherwise.
func HandleAppError(w io.Writer, err error, t *i18n.Translations) {
	if err == nil {
		return
	}

	var appErr *domainErrors.AppError
	if !errors.As(err, &appErr) {
		PrintError(w, err.Error())
		return
	}

	_, _ = fmt.Fprintln(w)
	if _, direct := err.(*domainErrors.AppError); direct {
		_, _ = Error.Fprintf(w, "✖ %s: %s\n", appErr.Type, appErr.Message)
	} else {
		// wrapped, e.g. by a stage error
		_, _ = Error.Fprintf(w, "✖ %s\n", err.Error())
	}

	if appErr.Err != nil {
		_, _ = Dim.Fprintf(w, "   %s: %v\n", label(t, "details_label", "Details"), appErr.Err)
	}

	keys := make([]string, 0, len(appErr.Context))
	for k := range appErr.Context {
		if k != "stderr" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = Dim.Fprintf(w, "   %s=%v\n", k, appErr.Context[k])
	}

	if appErr.Suggestion != "" {
		_, _ = fmt.Fprintln(w)
		_, _ = Info.Fprintf(w, "%s: ", label(t, "suggestion_label", "Suggestion"))
		lines := strings.Split(appErr.Suggestion, "\n")
		for i, line := range lines {
			if i == 0 {
				_, _ = fmt.Fprintln(w, line)
			} else {
				_, _ = fmt.Fprintf(w, "   %s\n", line)
			}
		}
	}
	_, _ = fmt.Fprintln(w)
}

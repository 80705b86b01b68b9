package models

import "strings"

// RenderedSection is a non-hidden section with its rendered entry lines.
type RenderedSection struct {
	Title   string
	Entries []string
}

// ReleaseDocument is the rendered release notes.
type ReleaseDocument struct {
	Header        string
	Sections      []RenderedSection
	BreakingNotes []string
}

const breakingTitle = "BREAKING CHANGES"

// String renders the document as Markdown. The output depends only on the
// document fields.
func (d *ReleaseDocument) String() string {
	if d == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(d.Header, "\n"))
	sb.WriteString("\n")

	for _, s := range d.Sections {
		sb.WriteString("\n### ")
		sb.WriteString(s.Title)
		sb.WriteString("\n\n")
		for _, e := range s.Entries {
			sb.WriteString("* ")
			sb.WriteString(e)
			sb.WriteString("\n")
		}
	}

	if len(d.BreakingNotes) > 0 {
		sb.WriteString("\n### ")
		sb.WriteString(breakingTitle)
		sb.WriteString("\n\n")
		for _, n := range d.BreakingNotes {
			sb.WriteString("* ")
			sb.WriteString(n)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// Empty reports whether the document has no rendered entries.
func (d *ReleaseDocument) Empty() bool {
	return d == nil || (len(d.Sections) == 0 && len(d.BreakingNotes) == 0)
}

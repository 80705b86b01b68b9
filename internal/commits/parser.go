// Package commits turns raw git log output into conventional-commit records.
package commits

import (
	"strings"

	"github.com/thomas-vilte/semrel/internal/models"
	"github.com/thomas-vilte/semrel/internal/regex"
)

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// LogFormat is the git log --format value understood by ParseLog.
const LogFormat = "%H%x1f%an%x1f%B%x1e"

// ParseLog splits `git log --format=LogFormat` output into records, keeping
// git's order (newest first).
func ParseLog(out string) []models.CommitRecord {
	var records []models.CommitRecord
	for _, chunk := range strings.Split(out, recordSep) {
		chunk = strings.TrimLeft(chunk, "\r\n")
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		fields := strings.SplitN(chunk, fieldSep, 3)
		for len(fields) < 3 {
			fields = append(fields, "")
		}
		records = append(records, Parse(strings.TrimSpace(fields[0]), fields[1], fields[2]))
	}
	return records
}

// Parse builds a CommitRecord from one commit message. Headers that do not
// follow the conventional format keep an empty type and use the whole header
// as subject.
func Parse(hash, author, message string) models.CommitRecord {
	message = strings.ReplaceAll(message, "\r\n", "\n")
	message = strings.Trim(message, "\n")

	header, rest, _ := strings.Cut(message, "\n")
	header = strings.TrimSpace(header)

	c := models.CommitRecord{
		Hash:    hash,
		Header:  header,
		Subject: header,
		Author:  strings.TrimSpace(author),
	}
	if len(hash) >= models.ShortHashLength {
		c.ShortHash = hash[:models.ShortHashLength]
	} else {
		c.ShortHash = hash
	}

	bang := false
	if m := regex.ConventionalCommit.FindStringSubmatch(header); m != nil {
		c.Type = m[1]
		c.Scope = strings.TrimSpace(m[3])
		bang = m[4] == "!"
		c.Subject = strings.TrimSpace(m[5])
	}

	c.Body, c.Footer = splitFooter(rest)
	c.Notes = extractNotes(c.Footer)

	if bang && len(c.BreakingNotes()) == 0 {
		c.Notes = append(c.Notes, models.Note{Title: models.NoteBreakingChange, Text: c.Subject})
	}
	c.Breaking = bang || len(c.BreakingNotes()) > 0

	return c
}

// splitFooter separates the trailer paragraph from the body. The footer is
// the last paragraph when its first line is a git trailer or a breaking
// change marker.
func splitFooter(rest string) (body, footer string) {
	rest = strings.Trim(rest, "\n")
	if rest == "" {
		return "", ""
	}
	paragraphs := strings.Split(rest, "\n\n")

	cut := len(paragraphs)
	for i := len(paragraphs) - 1; i >= 0; i-- {
		first, _, _ := strings.Cut(strings.TrimSpace(paragraphs[i]), "\n")
		if regex.FooterToken.MatchString(first) || regex.BreakingChange.MatchString(first) {
			cut = i
			continue
		}
		break
	}

	body = strings.TrimSpace(strings.Join(paragraphs[:cut], "\n\n"))
	footer = strings.TrimSpace(strings.Join(paragraphs[cut:], "\n\n"))
	return body, footer
}

func extractNotes(footer string) []models.Note {
	if footer == "" {
		return nil
	}
	var notes []models.Note
	current := -1
	for _, line := range strings.Split(footer, "\n") {
		if m := regex.BreakingChange.FindStringSubmatch(line); m != nil {
			notes = append(notes, models.Note{Title: models.NoteBreakingChange, Text: strings.TrimSpace(m[1])})
			current = len(notes) - 1
			continue
		}
		if regex.FooterToken.MatchString(line) {
			current = -1
			continue
		}
		if current >= 0 && strings.TrimSpace(line) != "" {
			if notes[current].Text != "" {
				notes[current].Text += " "
			}
			notes[current].Text += strings.TrimSpace(line)
		}
	}
	return notes
}

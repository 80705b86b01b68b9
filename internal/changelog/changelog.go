// Package changelog maintains the CHANGELOG file: new release notes go on
// top, below the document title.
package changelog

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/thomas-vilte/semrel/internal/errors"
	"github.com/thomas-vilte/semrel/internal/logger"
)

const DefaultHeader = "# Changelog\n\nAll notable changes to this project will be documented in this file.\n\n"

// Writer updates a changelog file below root.
type Writer struct {
	root string
	path string
}

func NewWriter(root, path string) *Writer {
	return &Writer{root: root, path: path}
}

// Path is the configured, repository-relative path.
func (w *Writer) Path() string { return w.path }

func (w *Writer) fullPath() string {
	if filepath.IsAbs(w.path) {
		return w.path
	}
	return filepath.Join(w.root, w.path)
}

// Prepend adds notes on top of the changelog unless a heading for version is
// already present. It reports whether the file was written.
func (w *Writer) Prepend(ctx context.Context, version, notes string) (bool, error) {
	log := logger.FromContext(ctx).With("file", w.path)

	full := w.fullPath()
	content, err := os.ReadFile(full)
	if err != nil && !os.IsNotExist(err) {
		return false, errors.ErrChangelog.WithError(err).WithContext("file", w.path)
	}

	var updated string
	if os.IsNotExist(err) {
		updated = DefaultHeader + strings.TrimSpace(notes) + "\n"
	} else {
		if HasVersion(content, version) {
			log.Info("changelog already contains version, skipping", "version", version)
			return false, nil
		}
		updated = Insert(string(content), notes)
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return false, errors.ErrChangelog.WithError(err).WithContext("file", w.path)
	}
	if err := os.WriteFile(full, []byte(updated), 0644); err != nil {
		return false, errors.ErrChangelog.WithError(err).WithContext("file", w.path)
	}
	log.Info("changelog updated", "version", version)
	return true, nil
}

// Insert places notes before the first release heading, keeping any title
// and preamble in front of it.
func Insert(current, notes string) string {
	notes = strings.TrimSpace(notes)
	var sb strings.Builder

	if idx := strings.Index(current, "\n## "); idx != -1 {
		sb.WriteString(strings.TrimSpace(current[:idx]))
		sb.WriteString("\n\n")
		sb.WriteString(notes)
		sb.WriteString("\n")
		sb.WriteString(current[idx:])
		return sb.String()
	}

	switch {
	case strings.TrimSpace(current) == "":
		sb.WriteString(notes)
		sb.WriteString("\n")
	case strings.HasPrefix(current, "# "):
		sb.WriteString(strings.TrimSpace(current))
		sb.WriteString("\n\n")
		sb.WriteString(notes)
		sb.WriteString("\n")
	default:
		sb.WriteString(notes)
		sb.WriteString("\n\n")
		sb.WriteString(strings.TrimSpace(current))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Versions lists the versions named by level 1 and 2 headings, in document
// order. A heading names a version when its first word, stripped of a "v"
// prefix, starts with a digit.
func Versions(content []byte) []string {
	root := goldmark.New().Parser().Parse(text.NewReader(content))

	var versions []string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		heading, ok := n.(*gmast.Heading)
		if !ok {
			return gmast.WalkContinue, nil
		}
		if heading.Level <= 2 {
			if v := headingVersion(headingText(heading, content)); v != "" {
				versions = append(versions, v)
			}
		}
		return gmast.WalkSkipChildren, nil
	})
	return versions
}

// HasVersion reports whether a release heading for version exists.
func HasVersion(content []byte, version string) bool {
	version = strings.TrimPrefix(version, "v")
	for _, v := range Versions(content) {
		if v == version {
			return true
		}
	}
	return false
}

func headingText(n gmast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if t, ok := c.(*gmast.Text); ok {
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		}
		return gmast.WalkContinue, nil
	})
	return buf.String()
}

func headingVersion(title string) string {
	fields := strings.Fields(title)
	if len(fields) == 0 {
		return ""
	}
	v := strings.TrimPrefix(strings.Trim(fields[0], "[]"), "v")
	if v == "" || v[0] < '0' || v[0] > '9' {
		return ""
	}
	return v
}

package changelog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const existing = `# Changelog

All notable changes to this project will be documented in this file.

## [1.1.0](https://github.com/vyfor/cord.nvim/compare/v1.0.0...v1.1.0) (2026-09-01)

### Features

* add idle status (1a2b3c4)

## 1.0.0 (2026-08-01)

* initial release
`

const notes = `## [1.2.0](https://github.com/vyfor/cord.nvim/compare/v1.1.0...v1.2.0) (2026-10-19)

### Bug Fixes

* **server:** handle broken pipe (abcdef1)
`

func TestVersions(t *testing.T) {
	assert.Equal(t, []string{"1.1.0", "1.0.0"}, Versions([]byte(existing)))
	assert.Equal(t, []string{"2.0.0-beta.1"}, Versions([]byte("# v2.0.0-beta.1\n\n## Unreleased\n\n### 3.0.0\n")))
	assert.Empty(t, Versions([]byte("no headings, 1.2.0 in text\n")))
}

func TestHasVersion(t *testing.T) {
	assert.True(t, HasVersion([]byte(existing), "1.1.0"))
	assert.True(t, HasVersion([]byte(existing), "v1.0.0"))
	assert.False(t, HasVersion([]byte(existing), "1.2.0"))
	assert.False(t, HasVersion([]byte(existing), "1.1"))
}

func TestInsert(t *testing.T) {
	tests := []struct {
		name    string
		current string
		want    string
	}{
		{
			name:    "before the first release heading",
			current: "# Changelog\n\nIntro.\n\n## 1.0.0\n\n* first\n",
			want:    "# Changelog\n\nIntro.\n\n## 1.1.0\n\n* new\n\n## 1.0.0\n\n* first\n",
		},
		{
			name:    "title only",
			current: "# Changelog\n",
			want:    "# Changelog\n\n## 1.1.0\n\n* new\n",
		},
		{
			name:    "no title",
			current: "old notes\n",
			want:    "## 1.1.0\n\n* new\n\nold notes\n",
		},
		{
			name:    "empty file",
			current: "",
			want:    "## 1.1.0\n\n* new\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Insert(tt.current, "## 1.1.0\n\n* new\n"))
		})
	}
}

func TestWriter_Prepend(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the file with a header", func(t *testing.T) {
		dir := t.TempDir()
		w := NewWriter(dir, "CHANGELOG.md")

		written, err := w.Prepend(ctx, "1.2.0", notes)
		require.NoError(t, err)
		assert.True(t, written)

		content, err := os.ReadFile(filepath.Join(dir, "CHANGELOG.md"))
		require.NoError(t, err)
		assert.Equal(t, DefaultHeader+notes, string(content))
	})

	t.Run("prepends above older releases", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "CHANGELOG.md"), []byte(existing), 0644))
		w := NewWriter(dir, "CHANGELOG.md")

		written, err := w.Prepend(ctx, "1.2.0", notes)
		require.NoError(t, err)
		assert.True(t, written)

		content, err := os.ReadFile(filepath.Join(dir, "CHANGELOG.md"))
		require.NoError(t, err)
		assert.Equal(t, []string{"1.2.0", "1.1.0", "1.0.0"}, Versions(content))
	})

	t.Run("existing version heading is left alone", func(t *testing.T) {
		dir := t.TempDir()
		w := NewWriter(dir, "CHANGELOG.md")

		_, err := w.Prepend(ctx, "1.2.0", notes)
		require.NoError(t, err)
		written, err := w.Prepend(ctx, "1.2.0", notes)
		require.NoError(t, err)
		assert.False(t, written)

		content, err := os.ReadFile(filepath.Join(dir, "CHANGELOG.md"))
		require.NoError(t, err)
		assert.Equal(t, []string{"1.2.0"}, Versions(content))
	})
}

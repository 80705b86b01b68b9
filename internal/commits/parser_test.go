package commits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomas-vilte/semrel/internal/models"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected models.CommitRecord
	}{
		{
			name:    "type and subject",
			message: "fix: handle empty presence",
			expected: models.CommitRecord{
				Type: "fix", Subject: "handle empty presence",
			},
		},
		{
			name:    "scope is extracted",
			message: "feat(server): add idle timeout",
			expected: models.CommitRecord{
				Type: "feat", Scope: "server", Subject: "add idle timeout",
			},
		},
		{
			name:    "bang marks breaking and creates a note from the subject",
			message: "refactor(api)!: drop v1 endpoints",
			expected: models.CommitRecord{
				Type: "refactor", Scope: "api", Subject: "drop v1 endpoints", Breaking: true,
				Notes: []models.Note{{Title: models.NoteBreakingChange, Text: "drop v1 endpoints"}},
			},
		},
		{
			name:    "breaking change footer with continuation",
			message: "feat: new config loader\n\nReads toml and yaml.\n\nBREAKING CHANGE: the json format\nis no longer read\nRefs: #12",
			expected: models.CommitRecord{
				Type: "feat", Subject: "new config loader", Breaking: true,
				Body:   "Reads toml and yaml.",
				Footer: "BREAKING CHANGE: the json format\nis no longer read\nRefs: #12",
				Notes:  []models.Note{{Title: models.NoteBreakingChange, Text: "the json format is no longer read"}},
			},
		},
		{
			name:    "non conventional header",
			message: "Merge branch 'master' into client-server",
			expected: models.CommitRecord{
				Subject: "Merge branch 'master' into client-server",
			},
		},
		{
			name:    "custom type tokens are accepted",
			message: "server-build: bump toolchain",
			expected: models.CommitRecord{
				Type: "server-build", Subject: "bump toolchain",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse("0123456789abcdef", "Jane", tt.message)

			assert.Equal(t, "0123456789abcdef", got.Hash)
			assert.Equal(t, "0123456", got.ShortHash)
			assert.Equal(t, "Jane", got.Author)
			assert.Equal(t, tt.expected.Type, got.Type)
			assert.Equal(t, tt.expected.Scope, got.Scope)
			assert.Equal(t, tt.expected.Subject, got.Subject)
			assert.Equal(t, tt.expected.Body, got.Body)
			assert.Equal(t, tt.expected.Footer, got.Footer)
			assert.Equal(t, tt.expected.Breaking, got.Breaking)
			assert.Equal(t, tt.expected.Notes, got.Notes)
		})
	}
}

func TestParse_ShortHash(t *testing.T) {
	assert.Equal(t, "abc", Parse("abc", "", "fix: x").ShortHash)
}

func TestParseLog(t *testing.T) {
	out := "aaaaaaaaaa\x1fAna\x1ffeat: one\n\nbody\n\x1e\n" +
		"bbbbbbbbbb\x1fBo\x1ffix(ui): two\n\x1e\n"

	records := ParseLog(out)

	require.Len(t, records, 2)
	assert.Equal(t, "feat", records[0].Type)
	assert.Equal(t, "body", records[0].Body)
	assert.Equal(t, "aaaaaaaaaa", records[0].Hash)
	assert.Equal(t, "ui", records[1].Scope)
	assert.Equal(t, "Bo", records[1].Author)

	assert.Empty(t, ParseLog(""))
	assert.Empty(t, ParseLog("\n"))
}

package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Annotations is the cross-stage key/value store of a run. Boolean flags are
// stored as "true".
type Annotations map[string]string

func (a Annotations) Get(key string) string { return a[key] }

func (a Annotations) Set(key, value string) { a[key] = value }

func (a Annotations) Flag(key string) bool { return a[key] == "true" }

func (a Annotations) SetFlag(key string) { a[key] = "true" }

// Keys returns the keys in sorted order.
func (a Annotations) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ReleaseContext is the state shared by every stage of one run. It is
// created at pipeline start, passed by pointer and discarded at the end.
type ReleaseContext struct {
	RunID         uuid.UUID
	Branch        string
	Channel       string
	Prerelease    string
	RepositoryURL string
	Timestamp     time.Time

	PreviousTag string
	Version     string
	// Resumed is set when Version comes from a tag an earlier run created
	// but did not finish releasing.
	Resumed bool

	Commits     []CommitRecord
	Annotations Annotations
	Decision    *ReleaseDecision
	Document    *ReleaseDocument
	Published   *PublishedRelease

	// Files written by prepare that commit-changelog must stage.
	ChangedFiles []string
}

func NewReleaseContext(branch BranchSpec, repositoryURL string, now time.Time) *ReleaseContext {
	return &ReleaseContext{
		RunID:         uuid.New(),
		Branch:        branch.Name,
		Channel:       branch.Channel,
		Prerelease:    branch.Prerelease,
		RepositoryURL: repositoryURL,
		Timestamp:     now.UTC(),
		Annotations:   Annotations{},
	}
}

// Tag is the git tag for the resolved version.
func (c *ReleaseContext) Tag() string {
	if c.Version == "" {
		return ""
	}
	return "v" + c.Version
}

// Bump returns the decided bump, or none before analysis.
func (c *ReleaseContext) Bump() Bump {
	if c.Decision == nil {
		return BumpNone
	}
	return c.Decision.Bump
}

package models

import (
	"fmt"
	"strings"
)

// Bump is the semantic-version increment chosen for a release.
type Bump int

const (
	BumpNone Bump = iota
	BumpPatch
	BumpMinor
	BumpMajor
)

func (b Bump) String() string {
	switch b {
	case BumpPatch:
		return "patch"
	case BumpMinor:
		return "minor"
	case BumpMajor:
		return "major"
	default:
		return "none"
	}
}

// Severity orders bumps: major > minor > patch > none.
func (b Bump) Severity() int {
	return int(b)
}

// MaxBump returns the higher-severity bump.
func MaxBump(a, b Bump) Bump {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}

// Outcome is what a single rule decides for a single commit.
type Outcome string

const (
	OutcomeMajor      Outcome = "major"
	OutcomeMinor      Outcome = "minor"
	OutcomePatch      Outcome = "patch"
	OutcomeSuppressed Outcome = "suppressed"
	OutcomeNone       Outcome = "none"
)

// Bump converts an outcome to its contribution to the aggregate bump.
// Suppressed and none both contribute nothing.
func (o Outcome) Bump() Bump {
	switch o {
	case OutcomeMajor:
		return BumpMajor
	case OutcomeMinor:
		return BumpMinor
	case OutcomePatch:
		return BumpPatch
	default:
		return BumpNone
	}
}

// ValidRuleOutcome reports whether o may be used as a rule's release value.
func (o Outcome) ValidRuleOutcome() bool {
	switch o {
	case OutcomeMajor, OutcomeMinor, OutcomePatch, OutcomeSuppressed:
		return true
	}
	return false
}

// ReleaseRule matches commits on type, scope, breaking flag and a subject
// pattern. Empty fields are wildcards.
type ReleaseRule struct {
	Type     string  `toml:"type,omitempty" yaml:"type,omitempty"`
	Scope    string  `toml:"scope,omitempty" yaml:"scope,omitempty"`
	Breaking *bool   `toml:"breaking,omitempty" yaml:"breaking,omitempty"`
	Subject  string  `toml:"subject,omitempty" yaml:"subject,omitempty"`
	Release  Outcome `toml:"release" yaml:"release"`
}

func (r ReleaseRule) String() string {
	var parts []string
	if r.Type != "" {
		parts = append(parts, "type="+r.Type)
	}
	if r.Scope != "" {
		parts = append(parts, "scope="+r.Scope)
	}
	if r.Breaking != nil {
		parts = append(parts, fmt.Sprintf("breaking=%t", *r.Breaking))
	}
	if r.Subject != "" {
		parts = append(parts, "subject=/"+r.Subject+"/")
	}
	if len(parts) == 0 {
		parts = append(parts, "*")
	}
	return fmt.Sprintf("{%s} -> %s", strings.Join(parts, " "), r.Release)
}

// CommitOutcome is the per-commit classification result. RuleIndex is -1
// when no rule matched.
type CommitOutcome struct {
	Commit    CommitRecord
	Outcome   Outcome
	RuleIndex int
}

// ReleaseDecision aggregates the outcomes of one pending release.
type ReleaseDecision struct {
	Bump     Bump
	Outcomes []CommitOutcome
	Skipped  []error
}

// Section groups commits of the listed types under a title in the notes.
type Section struct {
	Title  string   `toml:"title" yaml:"title"`
	Types  []string `toml:"types" yaml:"types"`
	Hidden bool     `toml:"hidden,omitempty" yaml:"hidden,omitempty"`
	Order  int      `toml:"order,omitempty" yaml:"order,omitempty"`
}

// AnnotationRule sets Annotations[Key] when any commit of the batch matches.
// Marker is rendered in the notes header for flagged keys.
type AnnotationRule struct {
	Key     string `toml:"key" yaml:"key"`
	Type    string `toml:"type,omitempty" yaml:"type,omitempty"`
	Scope   string `toml:"scope,omitempty" yaml:"scope,omitempty"`
	Subject string `toml:"subject,omitempty" yaml:"subject,omitempty"`
	Marker  string `toml:"marker,omitempty" yaml:"marker,omitempty"`
}

// BranchSpec declares a branch allowed to release and, for prerelease
// branches, the identifier and distribution channel.
type BranchSpec struct {
	Name       string `toml:"name" yaml:"name"`
	Prerelease string `toml:"prerelease,omitempty" yaml:"prerelease,omitempty"`
	Channel    string `toml:"channel,omitempty" yaml:"channel,omitempty"`
}

// PublishedRelease is what the publisher sink returns.
type PublishedRelease struct {
	Tag            string
	URL            string
	Assets         []string
	AlreadyExisted bool
}

// Asset is a resolved release file with its checksum.
type Asset struct {
	Path   string
	Name   string
	Size   int64
	SHA256 string
}

// VersionFile is a file whose version field is rewritten on release. Pattern
// is an optional regexp whose first group holds the version.
type VersionFile struct {
	Path    string `toml:"path" yaml:"path"`
	Pattern string `toml:"pattern,omitempty" yaml:"pattern,omitempty"`
}

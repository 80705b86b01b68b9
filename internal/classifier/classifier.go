// Package classifier decides the release bump from an ordered rule list.
package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/thomas-vilte/semrel/internal/errors"
	"github.com/thomas-vilte/semrel/internal/models"
)

// Rule is a ReleaseRule with its subject pattern compiled.
type Rule struct {
	models.ReleaseRule
	subject *regexp.Regexp
}

// Rules is an ordered, compiled rule list. Order is significant: the first
// matching rule decides a commit's outcome.
type Rules []Rule

// Compile validates and compiles rules, preserving their order.
func Compile(rules []models.ReleaseRule) (Rules, error) {
	out := make(Rules, 0, len(rules))
	for i, r := range rules {
		if !r.Release.ValidRuleOutcome() {
			return nil, errors.ErrInvalidRule.
				WithError(fmt.Errorf("unknown release value %q", r.Release)).
				WithContext("rule", i)
		}
		cr := Rule{ReleaseRule: r}
		if r.Subject != "" {
			re, err := regexp.Compile(r.Subject)
			if err != nil {
				return nil, errors.ErrInvalidRule.WithError(err).WithContext("rule", i)
			}
			cr.subject = re
		}
		out = append(out, cr)
	}
	return out, nil
}

// MustCompile is Compile for rule lists known to be valid.
func MustCompile(rules []models.ReleaseRule) Rules {
	compiled, err := Compile(rules)
	if err != nil {
		panic(err)
	}
	return compiled
}

// Matches reports whether every non-empty criterion of the rule holds for c.
func (r Rule) Matches(c models.CommitRecord) bool {
	if r.Type != "" && r.Type != c.Type {
		return false
	}
	if r.Scope != "" && r.Scope != c.Scope {
		return false
	}
	if r.Breaking != nil && *r.Breaking != c.Breaking {
		return false
	}
	if r.subject != nil && !r.subject.MatchString(c.Subject) {
		return false
	}
	return true
}

// ClassifyCommit returns the outcome of the first matching rule and its
// index, or (none, -1) when nothing matches.
func ClassifyCommit(c models.CommitRecord, rules Rules) (models.Outcome, int) {
	for i, r := range rules {
		if r.Matches(c) {
			return r.Release, i
		}
	}
	return models.OutcomeNone, -1
}

// Classify is a pure function of its inputs. Malformed commits are left out
// of the outcomes and reported in Skipped. The aggregate bump is the highest
// severity over all outcomes, so commit order never changes it.
func Classify(commits []models.CommitRecord, rules Rules) models.ReleaseDecision {
	decision := models.ReleaseDecision{Bump: models.BumpNone}

	for _, c := range commits {
		if err := Validate(c); err != nil {
			decision.Skipped = append(decision.Skipped, err)
			continue
		}
		outcome, idx := ClassifyCommit(c, rules)
		decision.Outcomes = append(decision.Outcomes, models.CommitOutcome{
			Commit:    c,
			Outcome:   outcome,
			RuleIndex: idx,
		})
		decision.Bump = models.MaxBump(decision.Bump, outcome.Bump())
	}

	return decision
}

// Validate reports a classification error for commits that cannot be
// classified safely.
func Validate(c models.CommitRecord) error {
	var reason string
	switch {
	case strings.TrimSpace(c.Hash) == "":
		reason = "empty hash"
	case strings.TrimSpace(c.Subject) == "":
		reason = "empty subject"
	case strings.ContainsAny(c.Type, " \t\n"):
		reason = "type contains whitespace"
	default:
		return nil
	}
	return errors.ErrMalformedCommit.
		WithError(fmt.Errorf("%s", reason)).
		WithContext("hash", c.Hash).
		WithContext("header", c.Header)
}

// DefaultRules mirror the conventional-commit analyzer. The breaking rule
// sits ahead of the type fallbacks so breaking commits are at least minor.
func DefaultRules() []models.ReleaseRule {
	breaking := true
	return []models.ReleaseRule{
		{Scope: "no-release", Release: models.OutcomeSuppressed},
		{Breaking: &breaking, Release: models.OutcomeMinor},
		{Type: "feat", Release: models.OutcomeMinor},
		{Type: "fix", Release: models.OutcomePatch},
		{Type: "perf", Release: models.OutcomePatch},
		{Type: "revert", Release: models.OutcomePatch},
	}
}

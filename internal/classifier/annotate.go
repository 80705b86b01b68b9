package classifier

import (
	"regexp"

	"github.com/thomas-vilte/semrel/internal/errors"
	"github.com/thomas-vilte/semrel/internal/models"
)

// Annotator is a compiled AnnotationRule.
type Annotator struct {
	models.AnnotationRule
	subject *regexp.Regexp
}

func CompileAnnotations(rules []models.AnnotationRule) ([]Annotator, error) {
	out := make([]Annotator, 0, len(rules))
	for i, r := range rules {
		if r.Key == "" {
			return nil, errors.ErrInvalidRule.WithContext("annotation", i).
				WithSuggestion("Every annotation needs a key")
		}
		a := Annotator{AnnotationRule: r}
		if r.Subject != "" {
			re, err := regexp.Compile(r.Subject)
			if err != nil {
				return nil, errors.ErrInvalidRule.WithError(err).WithContext("annotation", i)
			}
			a.subject = re
		}
		out = append(out, a)
	}
	return out, nil
}

func (a Annotator) Matches(c models.CommitRecord) bool {
	if a.Type != "" && a.Type != c.Type {
		return false
	}
	if a.Scope != "" && a.Scope != c.Scope {
		return false
	}
	if a.subject != nil && !a.subject.MatchString(c.Subject) {
		return false
	}
	return true
}

// Annotate flags every annotation key matched by at least one commit.
func Annotate(commits []models.CommitRecord, annotators []Annotator, annotations models.Annotations) {
	for _, a := range annotators {
		for _, c := range commits {
			if a.Matches(c) {
				annotations.SetFlag(a.Key)
				break
			}
		}
	}
}

// Markers returns the markers of flagged annotations in rule order.
func Markers(annotators []Annotator, annotations models.Annotations) []string {
	var out []string
	for _, a := range annotators {
		if a.Marker != "" && annotations.Flag(a.Key) {
			out = append(out, a.Marker)
		}
	}
	return out
}

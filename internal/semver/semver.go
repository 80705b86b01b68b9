// Package semver computes release versions from the previous tag and a bump.
package semver

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/thomas-vilte/semrel/internal/errors"
	"github.com/thomas-vilte/semrel/internal/models"
	"github.com/thomas-vilte/semrel/internal/regex"
)

// BaseTag is the implicit previous tag of a repository without releases.
const BaseTag = "v0.0.0"

type version struct {
	major, minor, patch int
	preID               string
	preN                int
}

func parse(tag string) (version, error) {
	if !strings.HasPrefix(tag, "v") {
		tag = "v" + tag
	}
	if !semver.IsValid(tag) {
		return version{}, errors.ErrInvalidTagFormat.WithContext("tag", tag)
	}
	m := regex.SemVer.FindStringSubmatch(tag)
	v := version{}
	v.major, _ = strconv.Atoi(m[1])
	v.minor, _ = strconv.Atoi(m[2])
	v.patch, _ = strconv.Atoi(m[3])

	if pre := strings.TrimPrefix(semver.Prerelease(tag), "-"); pre != "" {
		if pm := regex.PrereleaseID.FindStringSubmatch(pre); pm != nil {
			v.preID = pm[1]
			v.preN, _ = strconv.Atoi(pm[2])
		} else {
			v.preID = pre
		}
	}
	return v, nil
}

func (v version) core() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

func (v version) bump(b models.Bump) version {
	switch b {
	case models.BumpMajor:
		return version{major: v.major + 1}
	case models.BumpMinor:
		return version{major: v.major, minor: v.minor + 1}
	case models.BumpPatch:
		return version{major: v.major, minor: v.minor, patch: v.patch + 1}
	}
	return version{major: v.major, minor: v.minor, patch: v.patch}
}

// covers reports whether the core of a prerelease already includes a bump
// of severity b relative to its predecessor.
func (v version) covers(b models.Bump) bool {
	level := models.BumpPatch
	switch {
	case v.minor == 0 && v.patch == 0:
		level = models.BumpMajor
	case v.patch == 0:
		level = models.BumpMinor
	}
	return level.Severity() >= b.Severity()
}

// Next returns the version (without the "v" prefix) that follows
// previousTag for the given bump. An empty previousTag starts from BaseTag.
// With a prerelease identifier the result is "X.Y.Z-<id>.N".
func Next(previousTag string, bump models.Bump, prerelease string) (string, error) {
	if bump == models.BumpNone {
		return "", fmt.Errorf("no version follows a %s bump", bump)
	}
	if previousTag == "" {
		previousTag = BaseTag
	}
	prev, err := parse(previousTag)
	if err != nil {
		return "", err
	}

	if prerelease == "" {
		if prev.preID != "" && prev.covers(bump) {
			return prev.core(), nil
		}
		return prev.bump(bump).core(), nil
	}

	if prev.preID == prerelease && prev.covers(bump) {
		return fmt.Sprintf("%s-%s.%d", prev.core(), prerelease, prev.preN+1), nil
	}
	if prev.preID != "" && prev.covers(bump) {
		// another channel's prerelease of the same core
		return fmt.Sprintf("%s-%s.1", prev.core(), prerelease), nil
	}
	return fmt.Sprintf("%s-%s.1", prev.bump(bump).core(), prerelease), nil
}

// Latest picks the highest version among tags visible to a channel. Stable
// channels only see stable tags; a prerelease channel also sees its own
// prerelease tags. Tags that are not valid versions are ignored.
func Latest(tags []string, prerelease string) string {
	best := ""
	for _, tag := range tags {
		if !semver.IsValid(tag) {
			continue
		}
		if pre := semver.Prerelease(tag); pre != "" {
			if prerelease == "" || !strings.HasPrefix(pre, "-"+prerelease+".") {
				continue
			}
		}
		if best == "" || semver.Compare(tag, best) > 0 {
			best = tag
		}
	}
	return best
}

// Tag formats a version as a git tag.
func Tag(version string) string {
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}

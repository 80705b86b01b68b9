// Package manifest rewrites the version field of project manifests.
package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/thomas-vilte/semrel/internal/errors"
	"github.com/thomas-vilte/semrel/internal/logger"
	"github.com/thomas-vilte/semrel/internal/models"
	"github.com/thomas-vilte/semrel/internal/regex"
)

var packageJSONVersion = regexp.MustCompile(`("version"\s*:\s*")[^"]*(")`)

// Updater writes versions into files below root.
type Updater struct {
	root string
}

func NewUpdater(root string) *Updater {
	return &Updater{root: root}
}

// PrepareVersionFiles rewrites every configured file and returns the paths
// whose content changed. Files already at the version are left untouched.
func (u *Updater) PrepareVersionFiles(ctx context.Context, files []models.VersionFile, version string) ([]string, error) {
	log := logger.FromContext(ctx)
	version = strings.TrimPrefix(version, "v")

	var changed []string
	for _, f := range files {
		full := f.Path
		if !filepath.IsAbs(full) {
			full = filepath.Join(u.root, f.Path)
		}
		content, err := os.ReadFile(full)
		if err != nil {
			return changed, errors.ErrPrepareVersionFile.WithError(err).WithContext("file", f.Path)
		}

		updated, err := Rewrite(f, string(content), version)
		if err != nil {
			return changed, err
		}
		if updated == string(content) {
			log.Debug("version file already up to date", "file", f.Path, "version", version)
			continue
		}
		if err := os.WriteFile(full, []byte(updated), 0644); err != nil {
			return changed, errors.ErrPrepareVersionFile.WithError(err).WithContext("file", f.Path)
		}
		log.Info("version file updated", "file", f.Path, "version", version)
		changed = append(changed, f.Path)
	}
	return changed, nil
}

// Rewrite returns content with the version replaced, picking the strategy
// from the pattern or the file name.
func Rewrite(f models.VersionFile, content, version string) (string, error) {
	if f.Pattern != "" {
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			return "", errors.ErrPrepareVersionFile.WithError(err).WithContext("pattern", f.Pattern)
		}
		return replaceGroup(f, re, content, version)
	}

	base := filepath.Base(f.Path)
	switch {
	case base == "Cargo.toml":
		return rewriteCargo(f, content, version)
	case base == "package.json":
		return replaceFirst(f, packageJSONVersion, content, version)
	case filepath.Ext(base) == ".go":
		return replaceFirst(f, regex.GoVersionConst, content, version)
	}
	return "", errors.ErrPrepareVersionFile.
		WithError(fmt.Errorf("unknown manifest type")).
		WithContext("file", f.Path).
		WithSuggestion("Set `pattern` for this version file")
}

func notFound(f models.VersionFile) error {
	return errors.ErrPrepareVersionFile.
		WithError(fmt.Errorf("version field not found")).
		WithContext("file", f.Path)
}

// replaceFirst rewrites the first match of a pattern shaped as
// (prefix)version(suffix).
func replaceFirst(f models.VersionFile, re *regexp.Regexp, content, version string) (string, error) {
	loc := re.FindStringSubmatchIndex(content)
	if loc == nil {
		return "", notFound(f)
	}
	return content[:loc[3]] + version + content[loc[4]:], nil
}

// replaceGroup rewrites the first capture group of the first match.
func replaceGroup(f models.VersionFile, re *regexp.Regexp, content, version string) (string, error) {
	loc := re.FindStringSubmatchIndex(content)
	if loc == nil || len(loc) < 4 || loc[2] < 0 {
		return "", notFound(f)
	}
	return content[:loc[2]] + version + content[loc[3]:], nil
}

// rewriteCargo updates the version of [package] or [workspace.package] and
// leaves dependency versions alone.
func rewriteCargo(f models.VersionFile, content, version string) (string, error) {
	lines := strings.SplitAfter(content, "\n")
	section := ""
	for i, line := range lines {
		if m := regex.CargoSection.FindStringSubmatch(strings.TrimRight(line, "\r\n")); m != nil {
			section = strings.TrimSpace(m[1])
			continue
		}
		if section != "package" && section != "workspace.package" {
			continue
		}
		if loc := regex.CargoVersion.FindStringSubmatchIndex(line); loc != nil {
			lines[i] = line[:loc[3]] + version + line[loc[4]:]
			return strings.Join(lines, ""), nil
		}
	}
	return "", notFound(f)
}

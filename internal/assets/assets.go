// Package assets resolves release asset globs and checksums the matches.
package assets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/thomas-vilte/semrel/internal/errors"
	"github.com/thomas-vilte/semrel/internal/logger"
	"github.com/thomas-vilte/semrel/internal/models"
)

const maxConcurrentHashes = 4

// Resolver expands asset patterns relative to a root directory.
type Resolver struct {
	root string
}

func NewResolver(root string) *Resolver {
	return &Resolver{root: root}
}

func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

// Resolve expands patterns and hashes every matched regular file. A glob
// that matches nothing is logged and ignored; a literal path that does not
// exist is an error. Results are sorted by name and deduplicated.
func (r *Resolver) Resolve(ctx context.Context, patterns []string) ([]models.Asset, error) {
	log := logger.FromContext(ctx)

	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		full := pattern
		if !filepath.IsAbs(full) {
			full = filepath.Join(r.root, pattern)
		}
		matches, err := filepath.Glob(full)
		if err != nil {
			return nil, errors.ErrAssetNotFound.WithError(err).WithContext("pattern", pattern)
		}
		if len(matches) == 0 {
			if !isGlob(pattern) {
				return nil, errors.ErrAssetNotFound.WithContext("pattern", pattern)
			}
			log.Warn("asset pattern matched no files", "pattern", pattern)
			continue
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || !info.Mode().IsRegular() || seen[m] {
				continue
			}
			seen[m] = true
			paths = append(paths, m)
		}
	}

	out := make([]models.Asset, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentHashes)

	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			asset, err := hashFile(p)
			if err != nil {
				return errors.ErrAssetNotFound.WithError(err).WithContext("path", p)
			}
			out[i] = asset
			log.Debug("asset resolved", "asset", asset.Name, "size", asset.Size)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func hashFile(path string) (models.Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Asset{}, err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return models.Asset{}, err
	}
	return models.Asset{
		Path:   path,
		Name:   filepath.Base(path),
		Size:   n,
		SHA256: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// Checksums renders assets in sha256sum format.
func Checksums(assets []models.Asset) string {
	var sb strings.Builder
	for _, a := range assets {
		fmt.Fprintf(&sb, "%s  %s\n", a.SHA256, a.Name)
	}
	return sb.String()
}

package git

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/thomas-vilte/semrel/internal/errors"
)

// TreeInspector reads committed trees through go-git, without spawning git.
type TreeInspector struct {
	dir string
}

func NewTreeInspector(dir string) *TreeInspector {
	if dir == "" {
		dir = "."
	}
	return &TreeInspector{dir: dir}
}

func (t *TreeInspector) open() (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(t.dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.ErrOpenRepository.WithError(err).WithContext("dir", t.dir)
	}
	return repo, nil
}

func treeAt(repo *git.Repository, rev string) (*object.Tree, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, errors.ErrResolveRevision.WithError(err).WithContext("revision", rev)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, errors.ErrResolveRevision.WithError(err).WithContext("revision", rev)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, errors.ErrResolveRevision.WithError(err).WithContext("revision", rev)
	}
	return tree, nil
}

// pathEntries lists "path:objecthash" for each configured path. The object
// hash of a directory is its tree hash, so any change below it shows up.
// Paths missing at the revision are recorded as such.
func pathEntries(tree *object.Tree, paths []string) []string {
	if len(paths) == 0 {
		return []string{".:" + tree.Hash.String()}
	}
	entries := make([]string, 0, len(paths))
	for _, p := range paths {
		p = strings.Trim(path.Clean(p), "/")
		if p == "." || p == "" {
			entries = append(entries, ".:"+tree.Hash.String())
			continue
		}
		entry, err := tree.FindEntry(p)
		if err != nil {
			entries = append(entries, p+":missing")
			continue
		}
		entries = append(entries, fmt.Sprintf("%s:%s", p, entry.Hash.String()))
	}
	sort.Strings(entries)
	return entries
}

// DiffPaths reports whether anything under paths differs between two
// revisions. An empty from revision always counts as changed.
func (t *TreeInspector) DiffPaths(ctx context.Context, from, to string, paths []string) (bool, error) {
	if from == "" {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	repo, err := t.open()
	if err != nil {
		return false, err
	}
	fromTree, err := treeAt(repo, from)
	if err != nil {
		return false, err
	}
	toTree, err := treeAt(repo, to)
	if err != nil {
		return false, err
	}

	a := pathEntries(fromTree, paths)
	b := pathEntries(toTree, paths)
	if len(a) != len(b) {
		return true, nil
	}
	for i := range a {
		if a[i] != b[i] {
			return true, nil
		}
	}
	return false, nil
}

// PathsHash is a content hash of paths at rev. It does not include the
// commit id, so unchanged content hashes the same across commits.
func (t *TreeInspector) PathsHash(ctx context.Context, rev string, paths []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	repo, err := t.open()
	if err != nil {
		return "", err
	}
	tree, err := treeAt(repo, rev)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	for _, e := range pathEntries(tree, paths) {
		h.Write([]byte(e))
		h.Write([]byte("\n"))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

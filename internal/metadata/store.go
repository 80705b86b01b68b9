// Package metadata persists the "<version>|<auxiliary>" record and applies
// the carry-forward rule when the tracked paths did not change.
package metadata

import (
	"context"
	"os"
	"path/filepath"

	"github.com/thomas-vilte/semrel/internal/errors"
	"github.com/thomas-vilte/semrel/internal/logger"
	"github.com/thomas-vilte/semrel/internal/models"
)

const headRevision = "HEAD"

// TreeInspector answers path-restricted questions about committed trees.
type TreeInspector interface {
	DiffPaths(ctx context.Context, from, to string, paths []string) (bool, error)
	PathsHash(ctx context.Context, rev string, paths []string) (string, error)
}

// AuxiliaryFunc computes a fresh auxiliary value.
type AuxiliaryFunc func(ctx context.Context) (string, error)

type Option func(*Store)

// WithAuxiliary replaces the default auxiliary value (content hash of the
// tracked paths at HEAD) with fn.
func WithAuxiliary(fn AuxiliaryFunc) Option {
	return func(s *Store) {
		s.aux = fn
	}
}

// Store reads and writes the record at a repository-relative path.
type Store struct {
	root  string
	path  string
	paths []string
	tree  TreeInspector
	aux   AuxiliaryFunc
}

func NewStore(root, path string, paths []string, tree TreeInspector, opts ...Option) *Store {
	s := &Store{root: root, path: path, paths: paths, tree: tree}
	for _, opt := range opts {
		opt(s)
	}
	if s.aux == nil {
		s.aux = func(ctx context.Context) (string, error) {
			return s.tree.PathsHash(ctx, headRevision, s.paths)
		}
	}
	return s
}

// Path is the repository-relative location of the record.
func (s *Store) Path() string { return s.path }

func (s *Store) fullPath() string {
	if filepath.IsAbs(s.path) {
		return s.path
	}
	return filepath.Join(s.root, s.path)
}

// Read returns the stored record, or nil when none exists.
func (s *Store) Read(ctx context.Context) (*models.MetadataRecord, error) {
	content, err := os.ReadFile(s.fullPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.ErrMetadataRecord.WithError(err).WithContext("file", s.path)
	}
	rec, err := models.ParseMetadataRecord(string(content))
	if err != nil {
		logger.Warn(ctx, "ignoring unreadable metadata record", "file", s.path, "error", err)
		return nil, nil
	}
	return &rec, nil
}

func (s *Store) Write(rec models.MetadataRecord) error {
	full := s.fullPath()
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return errors.ErrMetadataRecord.WithError(err).WithContext("file", s.path)
	}
	if err := os.WriteFile(full, []byte(rec.String()+"\n"), 0644); err != nil {
		return errors.ErrMetadataRecord.WithError(err).WithContext("file", s.path)
	}
	return nil
}

// Result describes what Refresh did.
type Result struct {
	Record         models.MetadataRecord
	CarriedForward bool
	Written        bool
}

// Refresh advances the record to version. When a previous record exists and
// nothing under the tracked paths changed since previousTag, the previous
// auxiliary value is kept; otherwise it is recomputed. The version field
// always advances. Identical content is not rewritten.
func (s *Store) Refresh(ctx context.Context, previousTag, version string) (Result, error) {
	log := logger.FromContext(ctx).With("file", s.path)

	prev, err := s.Read(ctx)
	if err != nil {
		return Result{}, err
	}

	var res Result
	changed := true
	if prev != nil && previousTag != "" {
		changed, err = s.tree.DiffPaths(ctx, previousTag, headRevision, s.paths)
		if err != nil {
			return Result{}, errors.ErrMetadataRecord.WithError(err).WithContext("from", previousTag)
		}
	}

	if changed {
		aux, err := s.aux(ctx)
		if err != nil {
			return Result{}, errors.ErrMetadataRecord.WithError(err).WithContext("file", s.path)
		}
		res.Record = models.MetadataRecord{Version: version, Auxiliary: aux}
		log.Info("tracked paths changed, auxiliary value recomputed", "version", version)
	} else {
		res.Record = models.MetadataRecord{Version: version, Auxiliary: prev.Auxiliary}
		res.CarriedForward = true
		log.Info("tracked paths unchanged, auxiliary value carried forward", "version", version, "previous_tag", previousTag)
	}

	if prev != nil && *prev == res.Record {
		log.Debug("metadata record already up to date")
		return res, nil
	}
	if err := s.Write(res.Record); err != nil {
		return Result{}, err
	}
	res.Written = true
	return res, nil
}

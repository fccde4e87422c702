// Package cas implements the content-addressed plan cache.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/brewplan/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	dirPerm  = 0o750
	filePerm = 0o644
)

// Store implements ports.PlanStore using one JSON file per plan key.
type Store struct{}

// NewStore creates a new plan store.
func NewStore() *Store {
	return &Store{}
}

// Get retrieves the plan stored under key in root.
func (s *Store) Get(root, key string) (*domain.BuildPlan, error) {
	filename, err := s.filename(root, key)
	if err != nil {
		return nil, err
	}
	//nolint:gosec // Path is constructed from the cache directory and a validated key
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, domain.ErrPlanStoreReadFailed.Error())
	}

	var plan domain.BuildPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, zerr.Wrap(err, domain.ErrPlanStoreUnmarshalFailed.Error())
	}
	return &plan, nil
}

// Put stores the plan under key in root. The file is replaced atomically so
// concurrent resolutions never observe a partial plan.
func (s *Store) Put(root, key string, plan *domain.BuildPlan) error {
	filename, err := s.filename(root, key)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrPlanStoreWriteFailed.Error())
	}

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrPlanStoreWriteFailed.Error())
	}

	tmp, err := os.CreateTemp(dir, key+".*.tmp")
	if err != nil {
		return zerr.Wrap(err, domain.ErrPlanStoreWriteFailed.Error())
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, domain.ErrPlanStoreWriteFailed.Error())
	}
	if err := tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, domain.ErrPlanStoreWriteFailed.Error())
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, domain.ErrPlanStoreWriteFailed.Error())
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return zerr.Wrap(err, domain.ErrPlanStoreWriteFailed.Error())
	}
	return nil
}

func (s *Store) filename(root, key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", zerr.With(domain.ErrInvalidPlanKey, "key", key)
	}
	return filepath.Join(root, "plans", key+".json"), nil
}

package subaru

import (
	"os"
	"path/filepath"
	"strings"
)

// DependentsStore persists the reverse-dependency graph: for each dependee,
// index/<full>/dependents lists the full names of packages depending on it,
// one per line. Records outlive the dependents themselves and are dropped
// only when the dependee's own installed state is removed.
type DependentsStore struct {
	indexDir string
}

func NewDependentsStore(s *Settings) *DependentsStore {
	return &DependentsStore{indexDir: s.IndexDir}
}

func (ds *DependentsStore) path(dependee string) string {
	return filepath.Join(ds.indexDir, dependee, "dependents")
}

// Record appends dependent to dependee's record unless already present.
// A package never lists itself as its own dependent.
func (ds *DependentsStore) Record(dependee, dependent string) error {
	if dependee == dependent {
		return nil
	}

	// 1. Read existing record
	content, err := os.ReadFile(ds.path(dependee))
	// It's okay if file doesn't exist yet
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	lines := strings.Split(string(content), "\n")
	for _, line := range lines {
		if strings.TrimSpace(line) == dependent {
			return nil // Already recorded
		}
	}

	// 2. Append new dependent
	if err := os.MkdirAll(filepath.Dir(ds.path(dependee)), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(ds.path(dependee), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(dependent + "\n"); err != nil {
		return err
	}
	return nil
}

// List returns the recorded dependents of dependee.
func (ds *DependentsStore) List(dependee string) ([]string, error) {
	content, err := os.ReadFile(ds.path(dependee))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dependents []string
	for _, line := range strings.Split(string(content), "\n") {
		if t := strings.TrimSpace(line); t != "" {
			dependents = append(dependents, t)
		}
	}
	return dependents, nil
}

// RemoveFor drops fullName's own dependents record.
func (ds *DependentsStore) RemoveFor(fullName string) error {
	if err := os.Remove(ds.path(fullName)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

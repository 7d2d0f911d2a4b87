package subaru

import (
	"fmt"
	"os"
	"path/filepath"
)

// IndexStore reads the package index tree: one directory per full package
// name, each holding a desc record. os.ReadDir returns entries sorted by
// name, so listing order is stable across runs; for several entries of the
// same package the highest version sorts last.
type IndexStore struct {
	dir    string
	prefix string
}

func NewIndexStore(s *Settings) *IndexStore {
	return &IndexStore{dir: s.IndexDir, prefix: s.Prefix}
}

// Ready reports whether an index has been populated.
func (ix *IndexStore) Ready() bool {
	entries, err := os.ReadDir(ix.dir)
	return err == nil && len(entries) > 0
}

// ListAll returns every full package name in the index, in listing order.
// A missing or empty index means update has never run.
func (ix *IndexStore) ListAll() ([]string, error) {
	entries, err := os.ReadDir(ix.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errIndexMissing
		}
		return nil, fmt.Errorf("failed to read package index: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, errIndexMissing
	}
	return names, nil
}

// Lookup parses the description record of an exact full package name.
func (ix *IndexStore) Lookup(fullName string) (*PackageRecord, error) {
	data, err := os.ReadFile(filepath.Join(ix.dir, fullName, "desc"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", fullName, errPackageNotFound)
		}
		return nil, fmt.Errorf("failed to read description for %s: %w", fullName, err)
	}
	return parseDesc(fullName, ix.prefix, data)
}

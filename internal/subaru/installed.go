package subaru

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InstalledStore tracks installed packages: one directory per full package
// name under installed/, each holding a files manifest (one absolute path
// per line, in archive creation order).
type InstalledStore struct {
	dir    string
	prefix string
}

func NewInstalledStore(s *Settings) *InstalledStore {
	return &InstalledStore{dir: s.InstalledDir, prefix: s.Prefix}
}

// IsInstalled is directory presence, independent of whether the index still
// carries this exact version.
func (st *InstalledStore) IsInstalled(fullName string) bool {
	info, err := os.Stat(filepath.Join(st.dir, fullName))
	return err == nil && info.IsDir()
}

// List returns all installed full package names.
func (st *InstalledStore) List() ([]string, error) {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read installed state: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Record marks fullName as installed with its ordered file manifest.
func (st *InstalledStore) Record(fullName string, files []string) error {
	dir := filepath.Join(st.dir, fullName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	var b strings.Builder
	for _, f := range files {
		b.WriteString(f)
		b.WriteString("\n")
	}
	return os.WriteFile(filepath.Join(dir, "files"), []byte(b.String()), 0644)
}

// ManifestFiles returns the recorded file list in recorded order. An
// installed package without a manifest is corrupt state.
func (st *InstalledStore) ManifestFiles(fullName string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(st.dir, fullName, "files"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("installed package %s has no files manifest, state may be corrupt", fullName)
		}
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(string(data), "\n") {
		if t := strings.TrimSpace(line); t != "" {
			files = append(files, t)
		}
	}
	return files, nil
}

// Remove drops fullName's installed state.
func (st *InstalledStore) Remove(fullName string) error {
	return os.RemoveAll(filepath.Join(st.dir, fullName))
}

// conflictAliases maps package names to equivalently named packages from
// the host toolchain. Best-effort equivalence table, not a solver.
var conflictAliases = map[string][]string{
	"gcc":         {"toolchain"},
	"binutils":    {"toolchain"},
	"crt":         {"crt-git"},
	"headers":     {"headers-git"},
	"winpthreads": {"libwinpthread-git"},
}

func aliasMatch(a, b string) bool {
	for _, alt := range conflictAliases[a] {
		if alt == b {
			return true
		}
	}
	for _, alt := range conflictAliases[b] {
		if alt == a {
			return true
		}
	}
	return false
}

// FindConflicting returns the installed full names matching a conflict
// name, which may be given with or without the family prefix.
func (st *InstalledStore) FindConflicting(name string) ([]string, error) {
	installed, err := st.List()
	if err != nil {
		return nil, err
	}
	short := shortName(name, st.prefix)

	var hits []string
	for _, full := range installed {
		parsed, err := parseFullName(full)
		if err != nil {
			continue
		}
		instShort := shortName(parsed.Name, st.prefix)
		if parsed.Name == name || instShort == short || aliasMatch(short, instShort) {
			hits = append(hits, full)
		}
	}
	return hits, nil
}

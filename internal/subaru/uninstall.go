package subaru

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Uninstaller removes an installed package: manifest-driven file removal in
// reverse extraction order, then the package's own state records.
type Uninstaller struct {
	settings   *Settings
	installed  *InstalledStore
	dependents *DependentsStore
	resolver   *Resolver
}

func NewUninstaller(s *Settings, inst *InstalledStore, deps *DependentsStore, res *Resolver) *Uninstaller {
	return &Uninstaller{settings: s, installed: inst, dependents: deps, resolver: res}
}

// Run uninstalls the package named by query. Queries resolve against the
// installed set, so short names work without the platform prefix.
func (un *Uninstaller) Run(query string) error {
	// 1. Resolve the query against installed packages
	names, err := un.installed.List()
	if err != nil {
		return err
	}
	full, err := un.resolver.resolveAmong(names, query)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) && len(nf.Hints) == 0 {
			return fmt.Errorf("package %s is not installed: %w", query, errNotInstalled)
		}
		return err
	}

	// 2. Refuse while other installed packages depend on it. Recorded
	// dependents that are no longer installed do not count.
	recorded, err := un.dependents.List(full)
	if err != nil {
		return err
	}
	var active []string
	for _, dep := range recorded {
		if un.installed.IsInstalled(dep) {
			active = append(active, dep)
		}
	}
	if len(active) > 0 {
		return fmt.Errorf("cannot uninstall %s: required by %s: %w",
			full, strings.Join(active, ", "), errBlockedByDependents)
	}

	// 3. Load the manifest and confirm
	manifest, err := un.installed.ManifestFiles(full)
	if err != nil {
		return err
	}
	fileCount := 0
	for _, entry := range manifest {
		if !strings.HasSuffix(entry, "/") {
			fileCount++
		}
	}
	if !askForConfirmation(colError, "About to remove package %s and %d file(s). Continue?", full, fileCount) {
		cPrintln(colNote, "Uninstall aborted.")
		return nil
	}

	// Set to CRITICAL (1) while files and state are being removed.
	isCriticalAtomic.Store(1)
	defer isCriticalAtomic.Store(0)

	// 4. Walk the manifest in reverse so files go before their directories.
	// Directories are only removed when empty; a shared directory stays.
	root := filepath.Clean(un.settings.RootDir)
	var failed []string
	removed := 0
	for i := len(manifest) - 1; i >= 0; i-- {
		entry := manifest[i]
		isDir := strings.HasSuffix(entry, "/")
		clean := filepath.Clean(entry)

		if clean == "/" || clean == root {
			failed = append(failed, fmt.Sprintf("%s: refused to remove root", entry))
			continue
		}

		if isDir {
			if err := os.Remove(clean); err != nil {
				// Not empty or already gone, either way it stays.
				debugf("Keeping directory %s: %v\n", clean, err)
				continue
			}
			debugf("Removed empty directory %s\n", clean)
			continue
		}

		if err := os.Remove(clean); err != nil {
			if os.IsNotExist(err) {
				debugf("File %s already gone, skipping\n", clean)
				continue
			}
			failed = append(failed, fmt.Sprintf("%s: %v", clean, err))
			continue
		}
		removed++
	}
	colArrow.Print("-> ")
	colSuccess.Printf("Removed %d file(s)\n", removed)

	// 5. Drop the package's installed state and its dependents record
	if err := un.installed.Remove(full); err != nil {
		failed = append(failed, fmt.Sprintf("failed to remove state for %s: %v", full, err))
	}
	if err := un.dependents.RemoveFor(full); err != nil {
		failed = append(failed, fmt.Sprintf("failed to remove dependents record for %s: %v", full, err))
	}

	if len(failed) > 0 {
		return fmt.Errorf("some removals failed:\n%s", strings.Join(failed, "\n"))
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Package ")
	colNote.Printf("%s", full)
	colSuccess.Printf(" uninstalled successfully.\n")
	return nil
}

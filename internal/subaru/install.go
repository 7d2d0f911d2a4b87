package subaru

import (
	"fmt"
	"os"
	"strings"
)

// PackageFetcher downloads a package archive and returns its local path.
type PackageFetcher interface {
	FetchPackage(filename string) (string, error)
}

// Installer drives the install flow: resolve the target, collect its
// closure, gate on conflicts, confirm, commit dependents edges, then fetch
// and extract each missing package one at a time.
type Installer struct {
	settings   *Settings
	index      *IndexStore
	installed  *InstalledStore
	dependents *DependentsStore
	resolver   *Resolver
	fetcher    PackageFetcher
}

func NewInstaller(s *Settings, ix *IndexStore, inst *InstalledStore, deps *DependentsStore, res *Resolver, fetch PackageFetcher) *Installer {
	return &Installer{
		settings:   s,
		index:      ix,
		installed:  inst,
		dependents: deps,
		resolver:   res,
		fetcher:    fetch,
	}
}

// Run installs the package named by query plus its missing dependencies.
// Per-package fetch or extract failures are reported and the loop continues;
// the returned error then reports how many packages failed.
func (in *Installer) Run(query string) error {
	// 1. Resolve the target
	target, err := in.resolver.Resolve(query)
	if err != nil {
		return err
	}

	// 2. Collect the dependency closure
	closure, err := in.resolver.CollectClosure(target)
	if err != nil {
		return err
	}

	for _, host := range closure.HostDeps {
		colArrow.Print("-> ")
		colWarn.Printf("Dependency %s is provided by the host package manager, skipping.\n", host)
	}

	// 3. Check declared conflicts against installed packages. Proceeding
	// over a conflict needs an explicit yes.
	var conflictHits []string
	hitSeen := make(map[string]bool)
	for _, name := range closure.Conflicts {
		hits, err := in.installed.FindConflicting(name)
		if err != nil {
			return err
		}
		for _, hit := range hits {
			if !hitSeen[hit] {
				hitSeen[hit] = true
				conflictHits = append(conflictHits, hit)
			}
		}
	}
	if len(conflictHits) > 0 {
		colArrow.Print("-> ")
		colWarn.Printf("Installed packages conflict with %s: %s\n", target, strings.Join(conflictHits, ", "))
		if !askToOverride(colWarn, "Install %s anyway?", target) {
			cPrintln(colNote, "Install aborted.")
			return nil
		}
	}

	// 4. Split the closure into already-installed and missing
	var missing, already []string
	for _, full := range closure.Order {
		if in.installed.IsInstalled(full) {
			already = append(already, full)
		} else {
			missing = append(missing, full)
		}
	}
	if len(already) > 0 {
		colArrow.Print("-> ")
		colSuccess.Printf("Already installed: ")
		colNote.Printf("%s\n", strings.Join(already, " "))
	}
	if len(missing) == 0 {
		colArrow.Print("-> ")
		colSuccess.Println("All packages and dependencies are already installed.")
		return nil
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Packages to install: ")
	colNote.Printf("%s\n", strings.Join(missing, " "))
	if !askForConfirmation(colSuccess, "Install %d package(s)?", len(missing)) {
		cPrintln(colNote, "Install aborted.")
		return nil
	}

	// 5. Commit the dependents edges discovered during resolution
	for _, e := range closure.Edges {
		if err := in.dependents.Record(e.Dependee, e.Dependent); err != nil {
			return fmt.Errorf("failed to record dependent %s of %s: %w", e.Dependent, e.Dependee, err)
		}
	}

	// 6. Fetch and extract one package at a time, dependencies first.
	// Set to CRITICAL (1) for the extraction loop.
	isCriticalAtomic.Store(1)
	defer isCriticalAtomic.Store(0)

	failed := 0
	for i, full := range missing {
		colArrow.Print("-> ")
		colSuccess.Printf("Installing:")
		colNote.Printf(" %s (%d/%d)\n", full, i+1, len(missing))

		if err := in.installOne(full); err != nil {
			fmt.Fprintln(os.Stderr,
				colArrow.Sprint("->"),
				colError.Sprintf("Error installing package"),
				colNote.Sprintf(" %s", full),
				fmt.Sprintf("%v", err),
			)
			failed++
			continue
		}

		colArrow.Print("-> ")
		colSuccess.Printf("Package ")
		colNote.Printf("%s", full)
		colSuccess.Printf(" installed successfully.\n")
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d package(s) failed to install", failed, len(missing))
	}
	return nil
}

func (in *Installer) installOne(full string) error {
	rec, err := in.index.Lookup(full)
	if err != nil {
		return err
	}

	archivePath, err := in.fetcher.FetchPackage(rec.ArchiveFilename)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(in.settings.RootDir, 0o755); err != nil {
		return fmt.Errorf("failed to create install root: %w", err)
	}
	files, err := extractArchive(archivePath, in.settings.RootDir, true)
	if err != nil {
		return err
	}

	return in.installed.Record(full, files)
}

package subaru

import (
	"fmt"
	"os"
	"path/filepath"
)

// IndexFetcher downloads the repository database archive and returns its
// local path.
type IndexFetcher interface {
	FetchIndexDB(dbName string) (string, error)
}

// Updater refreshes the local package index from the mirror and reports
// installed packages that have newer versions available. The new index is
// extracted next to the live one and swapped in with a rename, so a failed
// download or extraction never leaves a half-written index behind.
type Updater struct {
	settings  *Settings
	index     *IndexStore
	installed *InstalledStore
	fetcher   IndexFetcher
}

func NewUpdater(s *Settings, ix *IndexStore, inst *InstalledStore, fetch IndexFetcher) *Updater {
	return &Updater{settings: s, index: ix, installed: inst, fetcher: fetch}
}

func (up *Updater) Run() error {
	colArrow.Print("-> ")
	colSuccess.Printf("Updating package index from ")
	colNote.Printf("%s\n", up.settings.Mirror)

	// 1. Download the database archive
	dbPath, err := up.fetcher.FetchIndexDB(up.settings.DBName)
	if err != nil {
		return fmt.Errorf("failed to fetch index database: %w", err)
	}

	// 2. Extract it wholesale into a staging tree; each entry in the
	// archive is already a <name>-<version>-<release>/ directory.
	stagingDir := up.settings.IndexDir + ".new"
	if err := os.RemoveAll(stagingDir); err != nil {
		return fmt.Errorf("failed to clear index staging dir: %w", err)
	}
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return fmt.Errorf("failed to create index staging dir: %w", err)
	}
	if _, err := extractArchive(dbPath, stagingDir, false); err != nil {
		return fmt.Errorf("failed to extract index database: %w", err)
	}
	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		return err
	}
	pkgCount := 0
	for _, e := range entries {
		if e.IsDir() {
			pkgCount++
		}
	}
	if pkgCount == 0 {
		return fmt.Errorf("index database %s contained no package entries", filepath.Base(dbPath))
	}

	// 3. Dependents records live inside the index tree, so carry them over
	// for every package name that survives the refresh.
	carried := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(up.settings.IndexDir, e.Name(), "dependents"))
		if err != nil {
			continue
		}
		dest := filepath.Join(stagingDir, e.Name(), "dependents")
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("failed to carry dependents record for %s: %w", e.Name(), err)
		}
		carried++
	}
	debugf("Carried dependents records for %d package(s)\n", carried)

	// 4. Swap the new index into place. Set to CRITICAL (1) so an
	// interrupt cannot land between the two renames.
	isCriticalAtomic.Store(1)
	defer isCriticalAtomic.Store(0)

	oldDir := up.settings.IndexDir + ".old"
	if err := os.RemoveAll(oldDir); err != nil {
		return fmt.Errorf("failed to clear stale index backup: %w", err)
	}
	if _, err := os.Stat(up.settings.IndexDir); err == nil {
		if err := os.Rename(up.settings.IndexDir, oldDir); err != nil {
			return fmt.Errorf("failed to move old index aside: %w", err)
		}
	}
	if err := os.Rename(stagingDir, up.settings.IndexDir); err != nil {
		_ = os.Rename(oldDir, up.settings.IndexDir)
		return fmt.Errorf("failed to activate new index: %w", err)
	}
	_ = os.RemoveAll(oldDir)

	colArrow.Print("-> ")
	colSuccess.Printf("Index updated, ")
	colNote.Printf("%d packages available.\n", pkgCount)

	return up.reportUpgrades()
}

// reportUpgrades compares installed packages against the refreshed index and
// lists the ones with a newer version available. Nothing is installed here;
// picking up an upgrade is a normal install of the package.
func (up *Updater) reportUpgrades() error {
	installed, err := up.installed.List()
	if err != nil {
		return err
	}
	if len(installed) == 0 {
		return nil
	}

	available, err := up.index.ListAll()
	if err != nil {
		return err
	}
	newest := make(map[string]pkgName)
	for _, full := range available {
		parsed, err := parseFullName(full)
		if err != nil {
			debugf("Skipping unparsable index entry %s: %v\n", full, err)
			continue
		}
		if cur, ok := newest[parsed.Name]; !ok || isNewer(parsed, cur) {
			newest[parsed.Name] = parsed
		}
	}

	type upgrade struct {
		short    string
		from, to pkgName
	}
	var upgrades []upgrade
	for _, full := range installed {
		cur, err := parseFullName(full)
		if err != nil {
			debugf("Skipping unparsable installed entry %s: %v\n", full, err)
			continue
		}
		remote, ok := newest[cur.Name]
		if !ok {
			continue
		}
		if isNewer(remote, cur) {
			upgrades = append(upgrades, upgrade{
				short: shortName(cur.Name, up.settings.Prefix),
				from:  cur,
				to:    remote,
			})
		}
	}

	if len(upgrades) == 0 {
		colArrow.Print("-> ")
		colSuccess.Println("All installed packages are up to date.")
		return nil
	}

	cPrintf(colInfo, "\n--- %d Package(s) with Upgrades Available ---\n", len(upgrades))
	for _, u := range upgrades {
		cPrintf(colInfo, "  - %s: %s-%s -> %s-%s\n",
			u.short,
			u.from.Version, u.from.Release,
			u.to.Version, u.to.Release)
	}
	cPrintln(colNote, "Run 'subaru install <name>' to pick up an upgrade.")
	return nil
}

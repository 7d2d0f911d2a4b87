package subaru

import (
	"fmt"
	"strings"
	"time"
)

// Queries implements the read-only commands: list, search, info and url.
type Queries struct {
	settings   *Settings
	index      *IndexStore
	installed  *InstalledStore
	dependents *DependentsStore
	resolver   *Resolver
}

func NewQueries(s *Settings, ix *IndexStore, inst *InstalledStore, deps *DependentsStore, res *Resolver) *Queries {
	return &Queries{settings: s, index: ix, installed: inst, dependents: deps, resolver: res}
}

// List prints every installed package with its version.
func (q *Queries) List() error {
	installed, err := q.installed.List()
	if err != nil {
		return err
	}
	if len(installed) == 0 {
		fmt.Println("No packages installed.")
		return nil
	}

	for _, full := range installed {
		parsed, err := parseFullName(full)
		if err != nil {
			// State directories are user-visible; show the odd one raw.
			fmt.Printf("%s %s\n", colArrow.Sprint("->"), full)
			continue
		}
		fmt.Printf("%s %s %s\n",
			colArrow.Sprint("->"),
			colSuccess.Sprintf("%-30s", shortName(parsed.Name, q.settings.Prefix)),
			colNote.Sprintf("%s-%s", parsed.Version, parsed.Release))
	}
	return nil
}

// Search prints index entries whose full name contains term.
func (q *Queries) Search(term string) error {
	available, err := q.index.ListAll()
	if err != nil {
		return err
	}

	foundAny := false
	for _, full := range available {
		if !strings.Contains(full, term) {
			continue
		}
		foundAny = true

		rec, err := q.index.Lookup(full)
		if err != nil {
			fmt.Printf("%s %s\n", colArrow.Sprint("->"), full)
			continue
		}
		fmt.Printf("%s %s %s %s\n",
			colArrow.Sprint("->"),
			colSuccess.Sprintf("%-30s", rec.ShortName),
			colNote.Sprintf("%-15s", fmt.Sprintf("%s-%s", rec.Version, rec.Release)),
			colInfo.Sprint(rec.Description))
	}

	if !foundAny {
		colArrow.Print("-> ")
		colSuccess.Printf("No packages found matching: %s\n", term)
		return errPackageNotFound
	}
	return nil
}

// Info resolves query and prints the full description record.
func (q *Queries) Info(query string) error {
	full, err := q.resolver.Resolve(query)
	if err != nil {
		return err
	}
	rec, err := q.index.Lookup(full)
	if err != nil {
		return err
	}

	colArrow.Print("-> ")
	colSuccess.Printf("%s\n", rec.FullName)

	cPrintf(colInfo, "%-14s %s\n", "Name:", rec.ShortName)
	cPrintf(colInfo, "%-14s %s-%s\n", "Version:", rec.Version, rec.Release)
	if rec.Description != "" {
		cPrintf(colInfo, "%-14s %s\n", "Description:", rec.Description)
	}
	if rec.URL != "" {
		cPrintf(colInfo, "%-14s %s\n", "URL:", rec.URL)
	}
	if len(rec.Licenses) > 0 {
		cPrintf(colInfo, "%-14s %s\n", "Licenses:", strings.Join(rec.Licenses, ", "))
	}
	if rec.BuildDate > 0 {
		cPrintf(colInfo, "%-14s %s\n", "Build date:",
			time.Unix(rec.BuildDate, 0).UTC().Format("2006-01-02 15:04 MST"))
	}
	if rec.ArchiveFilename != "" {
		cPrintf(colInfo, "%-14s %s\n", "Archive:", rec.ArchiveFilename)
	}

	cPrintf(colInfo, "%-14s %s\n", "Depends:", formatDepSpecs(rec.Depends))
	cPrintf(colInfo, "%-14s %s\n", "Conflicts:", formatDepSpecs(rec.Conflicts))

	dependents, err := q.dependents.List(full)
	if err != nil {
		return err
	}
	if len(dependents) > 0 {
		cPrintf(colInfo, "%-14s %s\n", "Required by:", strings.Join(dependents, ", "))
	}

	state := "no"
	if q.installed.IsInstalled(full) {
		state = "yes"
	}
	cPrintf(colInfo, "%-14s %s\n", "Installed:", state)
	return nil
}

// URL resolves query and prints the package's download URL on its own line,
// uncolored, so the output can feed straight into other tools.
func (q *Queries) URL(query string) error {
	full, err := q.resolver.Resolve(query)
	if err != nil {
		return err
	}
	rec, err := q.index.Lookup(full)
	if err != nil {
		return err
	}
	if rec.ArchiveFilename == "" {
		return fmt.Errorf("package %s has no archive filename in its description", full)
	}
	fmt.Printf("%s/%s\n", q.settings.Mirror, rec.ArchiveFilename)
	return nil
}

func formatDepSpecs(specs []DepSpec) string {
	if len(specs) == 0 {
		return "(none)"
	}
	parts := make([]string, len(specs))
	for i, spec := range specs {
		parts[i] = spec.String()
	}
	return strings.Join(parts, ", ")
}

package subaru

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError reports a failed name resolution with disambiguation hints.
type NotFoundError struct {
	Query string
	Hints []string
}

func (e *NotFoundError) Error() string {
	if len(e.Hints) == 0 {
		return fmt.Sprintf("%s: package not found", e.Query)
	}
	return fmt.Sprintf("%s: package not found, close matches: %s", e.Query, strings.Join(e.Hints, ", "))
}

// Is lets errors.Is(err, errPackageNotFound) hold for resolution misses.
func (e *NotFoundError) Is(target error) bool { return target == errPackageNotFound }

// DependentsEdge records the fact that Dependent depends on Dependee.
type DependentsEdge struct {
	Dependee  string
	Dependent string
}

// Closure is the result of resolving a package's dependency tree.
// Order lists full names dependency-first; Conflicts holds the bare conflict
// names collected across the whole traversal; Edges are the reverse-
// dependency facts discovered on the way; HostDeps are dependency names left
// to the host package manager.
type Closure struct {
	Order     []string
	Conflicts []string
	Edges     []DependentsEdge
	HostDeps  []string
}

// Resolver matches user queries and dependency specs against the index.
type Resolver struct {
	index    *IndexStore
	prefix   string
	hostDeps map[string]bool
}

func NewResolver(index *IndexStore, s *Settings) *Resolver {
	return &Resolver{index: index, prefix: s.Prefix, hostDeps: s.HostDeps}
}

// Resolve matches query against the index keys.
func (r *Resolver) Resolve(query string) (string, error) {
	keys, err := r.index.ListAll()
	if err != nil {
		return "", err
	}
	return r.resolveAmong(keys, query)
}

// resolveAmong matches query against candidate keys: an optional family
// prefix, the query itself, an optional -git suffix, and at most two more
// hyphen-delimited segments. When several keys match, the last one in
// listing order wins. A miss returns a NotFoundError carrying substring
// hints, deduplicated by short name.
func (r *Resolver) resolveAmong(keys []string, query string) (string, error) {
	re := queryPattern(r.prefix, query)
	match := ""
	for _, key := range keys {
		if re.MatchString(key) {
			match = key
		}
	}
	if match != "" {
		return match, nil
	}

	seen := make(map[string]bool)
	var hints []string
	for _, key := range keys {
		if !strings.Contains(key, query) {
			continue
		}
		parsed, err := parseFullName(key)
		if err != nil {
			continue
		}
		short := shortName(parsed.Name, r.prefix)
		if seen[short] {
			continue
		}
		seen[short] = true
		hints = append(hints, short)
	}
	return "", &NotFoundError{Query: query, Hints: hints}
}

// CollectClosure walks fullName's dependency tree and returns the install
// closure. Resolution is read-only: dependents edges are returned for the
// caller to commit once the user has confirmed the install.
func (r *Resolver) CollectClosure(fullName string) (*Closure, error) {
	keys, err := r.index.ListAll()
	if err != nil {
		return nil, err
	}

	c := &Closure{}
	visited := make(map[string]bool)
	conflictSeen := make(map[string]bool)
	hostSeen := make(map[string]bool)

	var walk func(pkg string) error
	walk = func(pkg string) error {
		// 1. Cycle guard: a package already in this traversal is not
		// re-visited, which also terminates dependency cycles.
		if visited[pkg] {
			return nil
		}
		visited[pkg] = true

		rec, err := r.index.Lookup(pkg)
		if err != nil {
			if errors.Is(err, errPackageNotFound) {
				return fmt.Errorf("index entry %s is listed but has no description record, index may be corrupt", pkg)
			}
			return err
		}

		// 2. Conflicts are collected flatly as bare names, no recursion
		for _, spec := range rec.Conflicts {
			if !conflictSeen[spec.Name] {
				conflictSeen[spec.Name] = true
				c.Conflicts = append(c.Conflicts, spec.Name)
			}
		}

		// 3. Recurse into each dependency
		for _, dep := range rec.Depends {
			if r.hostDeps[dep.Name] {
				if !hostSeen[dep.Name] {
					hostSeen[dep.Name] = true
					c.HostDeps = append(c.HostDeps, dep.Name)
				}
				continue
			}

			// Only an exact-version pin narrows the resolve query
			q := dep.Name
			if dep.Op == "=" {
				q = dep.Name + "-" + dep.Version
			}
			resolved, err := r.resolveAmong(keys, q)
			if err != nil {
				return fmt.Errorf("cannot resolve dependency %s of %s: %w", dep.Name, pkg, err)
			}

			c.Edges = append(c.Edges, DependentsEdge{Dependee: resolved, Dependent: pkg})

			if err := walk(resolved); err != nil {
				return err
			}
		}

		// 4. Post-order append: dependencies precede their dependents
		c.Order = append(c.Order, pkg)
		return nil
	}

	if err := walk(fullName); err != nil {
		return nil, err
	}
	return c, nil
}

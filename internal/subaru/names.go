package subaru

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// pkgName holds the components of a full package name
// <name>-<version>-<release>; the name part may itself contain hyphens.
type pkgName struct {
	Name    string
	Version string
	Release string
}

func (n pkgName) String() string {
	return n.Name + "-" + n.Version + "-" + n.Release
}

// parseFullName splits a full package name on its last two hyphens.
func parseFullName(full string) (pkgName, error) {
	last := strings.LastIndex(full, "-")
	if last <= 0 {
		return pkgName{}, fmt.Errorf("malformed package name %q: want <name>-<version>-<release>", full)
	}
	release := full[last+1:]
	rest := full[:last]
	mid := strings.LastIndex(rest, "-")
	if mid <= 0 {
		return pkgName{}, fmt.Errorf("malformed package name %q: want <name>-<version>-<release>", full)
	}
	version := rest[mid+1:]
	name := rest[:mid]
	if version == "" || release == "" {
		return pkgName{}, fmt.Errorf("malformed package name %q: want <name>-<version>-<release>", full)
	}
	return pkgName{Name: name, Version: version, Release: release}, nil
}

// shortName strips the arch family prefix when present.
func shortName(name, prefix string) string {
	return strings.TrimPrefix(name, prefix)
}

// DepSpec is a single parsed dependency or conflict token.
type DepSpec struct {
	Name    string
	Op      string // one of <= >= = < >, or empty for an unversioned token
	Version string
}

func (d DepSpec) String() string {
	return d.Name + d.Op + d.Version
}

// Two-character operators must be scanned before their one-character prefixes.
var depOps = []string{"<=", ">=", "=", "<", ">"}

// parseDepSpec parses tokens like "pkg" or "pkg>=1.2.3". A token with an
// operator but no name or no version is malformed and rejected.
func parseDepSpec(token string) (DepSpec, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return DepSpec{}, fmt.Errorf("empty dependency token")
	}
	for _, op := range depOps {
		idx := strings.Index(token, op)
		if idx == -1 {
			continue
		}
		name := strings.TrimSpace(token[:idx])
		ver := strings.TrimSpace(token[idx+len(op):])
		if name == "" {
			return DepSpec{}, fmt.Errorf("dependency token %q has no package name", token)
		}
		if ver == "" {
			return DepSpec{}, fmt.Errorf("dependency token %q has operator %q but no version", token, op)
		}
		return DepSpec{Name: name, Op: op, Version: ver}, nil
	}
	return DepSpec{Name: token}, nil
}

// queryPattern compiles the resolution pattern for a user query: an optional
// family prefix, the query itself, an optional -git suffix, and at most two
// further hyphen-delimited segments (version and release).
func queryPattern(prefix, query string) *regexp.Regexp {
	pattern := fmt.Sprintf(`^(?:%s)?%s(?:-git)?(?:-[^-]+){0,2}$`,
		regexp.QuoteMeta(prefix), regexp.QuoteMeta(query))
	return regexp.MustCompile(pattern)
}

// compareVersions compares two version strings split by dots. Numeric segments are compared numerically; non-numeric fall back to lexicographic.
// Returns -1 if a<b, 0 if equal, 1 if a>b.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var av, bv string
		if i < len(as) {
			av = as[i]
		} else {
			av = "0"
		}
		if i < len(bs) {
			bv = bs[i]
		} else {
			bv = "0"
		}

		// Try numeric compare
		ai, aerr := strconv.Atoi(av)
		bi, berr := strconv.Atoi(bv)
		if aerr == nil && berr == nil {
			if ai < bi {
				return -1
			}
			if ai > bi {
				return 1
			}
			continue
		}
		// Fallback string compare
		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
	}
	return 0
}

// isNewer reports whether a is a newer version-release than b.
func isNewer(a, b pkgName) bool {
	cmp := compareVersions(a.Version, b.Version)
	if cmp > 0 {
		return true
	}
	if cmp < 0 {
		return false
	}
	// Releases
	ar, _ := strconv.Atoi(a.Release)
	br, _ := strconv.Atoi(b.Release)
	return ar > br
}

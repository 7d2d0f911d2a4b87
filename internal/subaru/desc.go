package subaru

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// PackageRecord is one parsed index entry. Immutable once parsed; an index
// update replaces records wholesale.
type PackageRecord struct {
	FullName        string
	Name            string // package name including the family prefix
	ShortName       string // Name with the family prefix stripped
	Version         string
	Release         string
	Description     string
	URL             string
	Licenses        []string
	BuildDate       int64 // epoch seconds
	ArchiveFilename string
	Depends         []DepSpec
	Conflicts       []DepSpec
}

// parseDesc parses a description record. A %HEADER% line opens a section
// collecting the following non-blank lines until the next header; unknown
// headers are ignored and absent ones leave zero values. Dependency and
// conflict tokens must parse: one malformed token fails the whole record.
func parseDesc(fullName, prefix string, data []byte) (*PackageRecord, error) {
	rec := &PackageRecord{FullName: fullName}

	// The directory name is authoritative for the key; NAME/VERSION
	// sections override the derived fields when present.
	if parsed, err := parseFullName(fullName); err == nil {
		rec.Name = parsed.Name
		rec.Version = parsed.Version
		rec.Release = parsed.Release
	} else {
		rec.Name = fullName
	}

	sections := make(map[string][]string)
	var current string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if len(line) > 2 && strings.HasPrefix(line, "%") && strings.HasSuffix(line, "%") {
			current = strings.Trim(line, "%")
			continue
		}
		if current == "" {
			// Junk before the first header
			continue
		}
		sections[current] = append(sections[current], line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read description for %s: %w", fullName, err)
	}

	if name := firstLine(sections["NAME"]); name != "" {
		rec.Name = name
	}
	if ver := firstLine(sections["VERSION"]); ver != "" {
		rec.Version = ver
		rec.Release = ""
		if idx := strings.LastIndex(ver, "-"); idx > 0 {
			rec.Version = ver[:idx]
			rec.Release = ver[idx+1:]
		}
	}
	rec.ShortName = shortName(rec.Name, prefix)
	rec.Description = strings.Join(sections["DESC"], " ")
	rec.URL = firstLine(sections["URL"])
	rec.Licenses = sections["LICENSE"]
	if bd := firstLine(sections["BUILDDATE"]); bd != "" {
		if secs, err := strconv.ParseInt(bd, 10, 64); err == nil {
			rec.BuildDate = secs
		}
	}
	rec.ArchiveFilename = firstLine(sections["FILENAME"])

	for _, token := range sections["DEPENDS"] {
		spec, err := parseDepSpec(token)
		if err != nil {
			return nil, fmt.Errorf("%s: bad DEPENDS entry: %w", fullName, err)
		}
		rec.Depends = append(rec.Depends, spec)
	}
	for _, token := range sections["CONFLICTS"] {
		spec, err := parseDepSpec(token)
		if err != nil {
			return nil, fmt.Errorf("%s: bad CONFLICTS entry: %w", fullName, err)
		}
		rec.Conflicts = append(rec.Conflicts, spec)
	}

	return rec, nil
}

func firstLine(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return lines[0]
}

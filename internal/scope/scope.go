// Package scope maps caller-supplied target locations to canonical folder
// paths and the scope keys that tag remote entities created for them.
package scope

import (
	"path"
	"strings"

	"github.com/ynput/ayon-jira/pkg/logging"
)

// Target is one normalized location.
type Target struct {
	// Key is the leaf container name. It disambiguates custom IDs that are
	// reused across locations. Empty when the location was empty.
	Key string
	// Location is the canonical folder path inside the project, without the
	// project name and without leading or trailing separators.
	Location string
	// Raw is the location as supplied by the caller.
	Raw string
}

// Empty reports whether the location normalized to nothing.
func (t Target) Empty() bool {
	return t.Key == ""
}

// Normalize canonicalizes raw locations in order. Empty and duplicate
// locations are preserved so callers decide how to treat them.
func Normalize(projectName string, raw []string) []Target {
	targets := make([]Target, 0, len(raw))
	for _, location := range raw {
		canonical := Canonical(projectName, location)
		targets = append(targets, Target{
			Key:      Key(canonical),
			Location: canonical,
			Raw:      location,
		})
	}

	for _, dup := range Duplicates(targets) {
		logging.Warn("Scope", "Location %q is targeted more than once", dup)
	}
	return targets
}

// Canonical cleans a location and strips a leading project-name segment.
func Canonical(projectName, location string) string {
	location = strings.TrimSpace(strings.ReplaceAll(location, `\`, "/"))
	if location == "" {
		return ""
	}
	location = strings.Trim(path.Clean("/"+location), "/")

	if projectName != "" {
		if location == projectName {
			return ""
		}
		location = strings.TrimPrefix(location, projectName+"/")
	}
	return location
}

// Key returns the scope key of a canonical location: its last segment.
func Key(canonical string) string {
	if canonical == "" {
		return ""
	}
	return path.Base(canonical)
}

// Duplicates returns canonical locations that appear more than once, in order
// of their second appearance.
func Duplicates(targets []Target) []string {
	seen := make(map[string]int, len(targets))
	var dups []string
	for _, t := range targets {
		if t.Empty() {
			continue
		}
		seen[t.Location]++
		if seen[t.Location] == 2 {
			dups = append(dups, t.Location)
		}
	}
	return dups
}

// Keys returns the distinct non-empty scope keys of targets in order.
func Keys(targets []Target) []string {
	seen := make(map[string]bool, len(targets))
	var keys []string
	for _, t := range targets {
		if t.Empty() || seen[t.Key] {
			continue
		}
		seen[t.Key] = true
		keys = append(keys, t.Key)
	}
	return keys
}

// Package pathrules implements the pure basename/pattern predicate that
// decides whether a path participates in synchronization at all.
package pathrules

import (
	"bufio"
	"path"
	"regexp"
	"strings"
)

// StopSentinel is the marker file whose presence in the sync root requests
// cooperative shutdown.
const StopSentinel = "subsyncit.stop"

// ExcludedPatternsFile is the remote path, relative to the sync root, that
// holds one regex per line describing additional basenames to exclude.
const ExcludedPatternsFile = ".subsyncit-excluded-filename-patterns"

// clashMarker appears in the name of every clash sidecar this client ever
// creates; any path containing it is itself excluded from sync so clash
// files never get uploaded or clobbered by a GET.
const clashMarker = ".clash_"

// List holds the compiled exclusion patterns loaded once at boot from the
// remote exclusion-patterns file.
type List struct {
	patterns []*regexp.Regexp
}

// New returns an empty List — equivalent to "no remote patterns loaded yet".
func New() *List {
	return &List{}
}

// Load compiles one *regexp.Regexp per non-empty line of r, replacing any
// previously loaded patterns. Invalid lines are skipped rather than
// aborting the whole load, since a single bad line in an otherwise
// reasonable file shouldn't leave every client runs with zero exclusions.
func (l *List) Load(lines []string) (skipped int) {
	compiled := make([]*regexp.Regexp, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		re, err := regexp.Compile(line)
		if err != nil {
			skipped++
			continue
		}
		compiled = append(compiled, re)
	}
	l.patterns = compiled
	return skipped
}

// ParseLines splits the raw contents of an exclusion-patterns file into
// candidate regex lines, skipping blank lines.
func ParseLines(contents string) []string {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(contents))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// Excluded reports whether p (a sync-root-relative, "/"-separated path,
// file or directory) should be left out of synchronization entirely: never
// scanned, never watched, never PUT, never GET'd.
func (l *List) Excluded(p string) bool {
	if p == "" {
		return true
	}

	base := path.Base(strings.TrimSuffix(p, "/"))

	if strings.HasPrefix(base, ".") {
		return true
	}
	if base == StopSentinel {
		return true
	}
	if strings.Contains(p, clashMarker) {
		return true
	}

	for _, re := range l.patterns {
		if re.MatchString(base) {
			return true
		}
	}

	return false
}

// Package boundary classifies changed files against safety patterns.
//
// Two pattern lists drive classification: never-touch patterns forbid any
// change to matching files, and require-review patterns flag matching files
// for human review without failing anything. A file may match both lists
// independently; never-touch takes precedence for pass/fail purposes.
//
// Patterns use doublestar glob syntax, so "db/**" covers nested paths and
// "**/*.sql" matches by extension anywhere in the tree.
package boundary

import (
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Violation records a single file that matched a never-touch pattern.
type Violation struct {
	// File is the changed file path.
	File string

	// Pattern is the never-touch pattern it matched.
	Pattern string
}

// Classification is the result of screening a changed-file set.
type Classification struct {
	// Violations lists every never-touch match, sorted by file path.
	// Any entry fails the task.
	Violations []Violation

	// Caution lists files matching a require-review pattern, sorted by
	// path. Metadata only; caution matches never fail a task.
	Caution []string
}

// Matcher screens file paths against configured boundary patterns.
type Matcher struct {
	neverTouch    []string
	requireReview []string
}

// NewMatcher creates a Matcher from the configured pattern lists.
func NewMatcher(neverTouch, requireReview []string) *Matcher {
	return &Matcher{
		neverTouch:    append([]string(nil), neverTouch...),
		requireReview: append([]string(nil), requireReview...),
	}
}

// Matches reports whether the file path matches the glob pattern.
// Paths are normalized to forward slashes before matching. A malformed
// pattern matches nothing.
func Matches(filePath, pattern string) bool {
	ok, err := doublestar.Match(pattern, filepath.ToSlash(filePath))
	return err == nil && ok
}

// Classify partitions changed files into never-touch violations and
// caution files. Every violating file is reported with the first pattern
// it matched, in configuration order.
func (m *Matcher) Classify(changedFiles []string) Classification {
	var c Classification

	for _, file := range changedFiles {
		for _, pattern := range m.neverTouch {
			if Matches(file, pattern) {
				c.Violations = append(c.Violations, Violation{File: file, Pattern: pattern})
				break
			}
		}
		for _, pattern := range m.requireReview {
			if Matches(file, pattern) {
				c.Caution = append(c.Caution, file)
				break
			}
		}
	}

	sort.Slice(c.Violations, func(i, j int) bool { return c.Violations[i].File < c.Violations[j].File })
	sort.Strings(c.Caution)
	return c
}

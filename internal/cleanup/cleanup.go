// Package cleanup implements pruning of old saved interview reports.
package cleanup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// reportTimestampLayout is the UTC format used for report file names.
const reportTimestampLayout = "20060102-150405"

const reportExt = ".md"

// reportTime parses a report file name, reporting false for other files.
func reportTime(name string) (time.Time, bool) {
	if !strings.HasSuffix(name, reportExt) {
		return time.Time{}, false
	}
	t, err := time.Parse(reportTimestampLayout, strings.TrimSuffix(name, reportExt))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// reports lists report file names in dir, oldest first.
func reports(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading reports directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := reportTime(entry.Name()); ok {
			names = append(names, entry.Name())
		}
	}

	// Timestamp names sort chronologically.
	sort.Strings(names)
	return names, nil
}

// PruneByAge removes reports older than maxAgeDays.
// If dryRun is true, no files are deleted; the function only returns
// the names that would be removed. Returns the list of pruned file names.
func PruneByAge(dir string, maxAgeDays int, dryRun bool) ([]string, error) {
	names, err := reports(dir)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)
	var pruned []string

	for _, name := range names {
		t, _ := reportTime(name)
		if !t.Before(cutoff) {
			continue
		}
		if !dryRun {
			if err := os.Remove(filepath.Join(dir, name)); err != nil {
				return pruned, fmt.Errorf("removing %s: %w", name, err)
			}
		}
		pruned = append(pruned, name)
	}

	return pruned, nil
}

// PruneKeepRecent removes all reports except the most recent keep.
// If dryRun is true, no files are deleted. Returns the list of pruned names.
func PruneKeepRecent(dir string, keep int, dryRun bool) ([]string, error) {
	names, err := reports(dir)
	if err != nil {
		return nil, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(names) <= keep {
		return nil, nil
	}

	toRemove := names[:len(names)-keep]
	var pruned []string

	for _, name := range toRemove {
		if !dryRun {
			if err := os.Remove(filepath.Join(dir, name)); err != nil {
				return pruned, fmt.Errorf("removing %s: %w", name, err)
			}
		}
		pruned = append(pruned, name)
	}

	return pruned, nil
}

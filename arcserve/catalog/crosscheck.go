package catalog

import (
	"sort"
	"strings"
)

// ArchiveLister is the narrow view of a produced archive the cross-check
// routine needs: every entry's full path and its size in bytes.
type ArchiveLister interface {
	Entries() map[string]int64
}

// Status classifies one catalog entry against the produced archive.
type Status int

const (
	StatusRecovered Status = iota
	StatusDamaged
	StatusMissing
)

func (s Status) String() string {
	switch s {
	case StatusRecovered:
		return "recovered"
	case StatusDamaged:
		return "damaged"
	case StatusMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// Result is one entry's cross-check outcome.
type Result struct {
	Entry        Entry
	Status       Status
	ActualSize   int64
	DamagedBytes int64 // actual recovered size, when damaged (spec section 4.5.8's example: 80-byte file reported as damaged-bytes=80)
}

// Report summarises a full cross-check run.
type Report struct {
	Results  []Result
	Recovered int
	Damaged   int
	Missing   int
}

// normalizePath applies spec section 4.5.8's normalisation rules so a
// catalog path and a ZIP path can be compared regardless of separator
// style or UNC server prefix.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "/", "\\")
	if idx := strings.Index(p, ":\\"); idx > 0 {
		// Strip everything before a drive letter, e.g. \\SERVER\D:\X -> D:\X
		driveStart := idx - 1
		p = p[driveStart:]
	}
	return p
}

func normalizedVariants(p string, isDir bool) []string {
	n := normalizePath(p)
	if !isDir {
		return []string{n}
	}
	trimmed := strings.TrimSuffix(n, "\\")
	return []string{trimmed, trimmed + "\\"}
}

// CrossCheck classifies every entry against the archive's listing.
func CrossCheck(entries []Entry, archive ArchiveLister) Report {
	listing := archive.Entries()
	normalized := make(map[string]int64, len(listing))
	for path, size := range listing {
		normalized[normalizePath(path)] = size
	}

	var report Report
	for _, e := range entries {
		isDir := !e.IsFile()

		var found bool
		var actualSize int64
		for _, variant := range normalizedVariants(e.FullPath, isDir) {
			if size, ok := normalized[variant]; ok {
				found = true
				actualSize = size
				break
			}
		}

		result := Result{Entry: e}
		switch {
		case !found:
			result.Status = StatusMissing
			report.Missing++
		case !isDir && actualSize != e.Size:
			result.Status = StatusDamaged
			result.ActualSize = actualSize
			result.DamagedBytes = actualSize
			report.Damaged++
		default:
			result.Status = StatusRecovered
			result.ActualSize = actualSize
			report.Recovered++
		}

		report.Results = append(report.Results, result)
	}

	sort.Slice(report.Results, func(i, j int) bool {
		return report.Results[i].Entry.FullPath < report.Results[j].Entry.FullPath
	})

	return report
}

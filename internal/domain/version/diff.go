package version

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Checksum is the content-addressed hash over a version's stored
// bytes: SHA-256, hex encoded.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Diff summarizes the line-level difference from previous to current.
// A deletion directly followed by an insertion counts as modifications
// for the overlapping lines. For a first version pass nil as previous:
// every line counts as an addition.
func Diff(previous, current []byte) ChangesSummary {
	if len(previous) == 0 {
		return ChangesSummary{Additions: countLines(string(current))}
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(string(previous), string(current))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var summary ChangesSummary
	pendingDeletes := 0
	for _, d := range diffs {
		lines := countLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			summary.Deletions += pendingDeletes
			pendingDeletes = 0
		case diffmatchpatch.DiffDelete:
			summary.Deletions += pendingDeletes
			pendingDeletes = lines
		case diffmatchpatch.DiffInsert:
			if pendingDeletes > 0 {
				modified := min(pendingDeletes, lines)
				summary.Modifications += modified
				summary.Deletions += pendingDeletes - modified
				summary.Additions += lines - modified
				pendingDeletes = 0
			} else {
				summary.Additions += lines
			}
		}
	}
	summary.Deletions += pendingDeletes
	return summary
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

package diff

import (
	"strings"

	"github.com/documint/pdfcore/extractor"
)

// Align computes a longest-common-subsequence alignment of two block
// lists. Block texts are compared case-insensitively. Concatenating the
// Old side of Equal and Delete ops reproduces old; the New side of Equal
// and Insert ops reproduces new.
func Align(old, new []extractor.TextBlock) []Op {
	m, n := len(old), len(new)
	oldLower := make([]string, m)
	for i, b := range old {
		oldLower[i] = strings.ToLower(b.Text)
	}
	newLower := make([]string, n)
	for j, b := range new {
		newLower[j] = strings.ToLower(b.Text)
	}

	// lcs[i][j] is the LCS length of old[:i] and new[:j].
	lcs := make([][]int, m+1)
	for i := range lcs {
		lcs[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if oldLower[i-1] == newLower[j-1] {
				lcs[i][j] = lcs[i-1][j-1] + 1
			} else if lcs[i-1][j] >= lcs[i][j-1] {
				lcs[i][j] = lcs[i-1][j]
			} else {
				lcs[i][j] = lcs[i][j-1]
			}
		}
	}

	// Backtrack from the far corner. On ties an Insert is emitted before
	// a Delete; repeated words make ties common and output order must be
	// deterministic.
	var ops []Op
	i, j := m, n
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && oldLower[i-1] == newLower[j-1]:
			ops = append(ops, Op{Kind: OpEqual, Old: &old[i-1], New: &new[j-1]})
			i--
			j--
		case j > 0 && (i == 0 || lcs[i][j-1] >= lcs[i-1][j]):
			ops = append(ops, Op{Kind: OpInsert, New: &new[j-1]})
			j--
		default:
			ops = append(ops, Op{Kind: OpDelete, Old: &old[i-1]})
			i--
		}
	}
	for a, b := 0, len(ops)-1; a < b; a, b = a+1, b-1 {
		ops[a], ops[b] = ops[b], ops[a]
	}
	return ops
}

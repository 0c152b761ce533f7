package exec

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CanonicalSQL normalizes statement text for logging: NFC normalization,
// lines trimmed, blank lines dropped, remaining lines joined with a single
// space. Two call sites that format the same statement differently produce
// the same logged text, which keeps golden traces and log aggregation stable.
//
// This is a display canonicalization only; the statement sent to the driver
// is never rewritten.
func CanonicalSQL(sql string) string {
	sql = norm.NFC.String(sql)
	lines := strings.Split(sql, "\n")
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}

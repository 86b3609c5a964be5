// Package descriptor parses data-grid descriptor texts: a small,
// non-procedural format carrying a retrieve-SQL, an optional update base
// table, and a list of columns with source-table hints.
package descriptor

import (
	"path/filepath"
	"regexp"
	"strings"
)

// ParsedDataWindow is the result of parsing one descriptor text.
type ParsedDataWindow struct {
	ObjectName string
	DWName     string
	BaseTable  string // empty when absent
	SqlSelect  string // empty when absent
}

var (
	releaseMarkerRe  = regexp.MustCompile(`(?i)\brelease\s+\d+\s*;`)
	datawindowMarkRe = regexp.MustCompile(`(?i)\bdatawindow\s*\(`)
	retrieveRe       = regexp.MustCompile(`(?is)retrieve\s*=\s*"((?:[^"]|"")*)"`)
	updateRe         = regexp.MustCompile(`(?is)update\s*=\s*"((?:[^"]|"")*)"`)
)

// IsDescriptor reports whether text looks like a data-grid descriptor,
// distinguished by a leading "release N;" or "datawindow(...)" marker. The
// caller is expected to additionally gate on file extension; this function
// only inspects content.
func IsDescriptor(text string) bool {
	head := text
	if len(head) > 2048 {
		head = head[:2048]
	}
	return releaseMarkerRe.MatchString(head) || datawindowMarkRe.MatchString(head)
}

// Parse extracts the retrieve SQL, the update base table, and derives the
// implicit DataGrid object name from the file stem. Quote escaping is by
// doubling, same as the lexer's string handling.
func Parse(sourcePath, text string) ParsedDataWindow {
	name := stem(sourcePath)
	pdw := ParsedDataWindow{ObjectName: name, DWName: name}

	if m := retrieveRe.FindStringSubmatch(text); m != nil {
		pdw.SqlSelect = unescapeQuotes(m[1])
	}
	if m := updateRe.FindStringSubmatch(text); m != nil {
		pdw.BaseTable = unescapeQuotes(m[1])
	}

	return pdw
}

func unescapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

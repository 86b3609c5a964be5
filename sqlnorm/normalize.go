// Package sqlnorm normalizes an embedded SQL statement's text and derives
// its kind and the set of (table, read/write) references it makes. It
// performs no I/O.
package sqlnorm

import (
	"regexp"
	"strings"

	"github.com/donseok/pbtm-project/ir"
)

var (
	lineCommentRe  = regexp.MustCompile(`--[^\n]*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	hostVarRe      = regexp.MustCompile(`:[A-Za-z_][A-Za-z0-9_]*`)
	stringLitRe    = regexp.MustCompile(`'(?:[^']|'')*'`)
)

// Normalize strips comments, collapses whitespace, uppercases tokens
// outside string literals, replaces host-variable references with ":?",
// and trims a trailing semicolon.
//
// Round-trip property: Normalize(Normalize(s)) == Normalize(s), because
// every step is idempotent on its own output — there are no comments,
// excess whitespace, lower-case keywords, or host variables left to
// re-process.
func Normalize(sql string) string {
	s := lineCommentRe.ReplaceAllString(sql, "")
	s = blockCommentRe.ReplaceAllString(s, "")

	s = replaceOutsideStrings(s, func(segment string) string {
		segment = hostVarRe.ReplaceAllString(segment, ":?")
		return strings.ToUpper(segment)
	})

	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ";")
	s = strings.TrimSpace(s)
	return s
}

// replaceOutsideStrings applies fn to every segment of s that falls outside
// a single-quoted string literal, leaving literals themselves untouched.
func replaceOutsideStrings(s string, fn func(string) string) string {
	var out strings.Builder
	last := 0
	for _, loc := range stringLitRe.FindAllStringIndex(s, -1) {
		out.WriteString(fn(s[last:loc[0]]))
		out.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	out.WriteString(fn(s[last:]))
	return out.String()
}

var kindByFirstWord = map[string]ir.SQLKind{
	"SELECT": ir.KindSelect,
	"INSERT": ir.KindInsert,
	"UPDATE": ir.KindUpdate,
	"DELETE": ir.KindDelete,
	"MERGE":  ir.KindMerge,
}

// Kind infers the statement kind from the first keyword of an
// already-normalized statement.
func Kind(normalized string) ir.SQLKind {
	fields := strings.Fields(normalized)
	if len(fields) == 0 {
		return ir.KindOther
	}
	if k, ok := kindByFirstWord[fields[0]]; ok {
		return k
	}
	return ir.KindOther
}

package sqlnorm

import (
	"regexp"
	"strings"

	"github.com/donseok/pbtm-project/ir"
)

var wordRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_.]*|'(?:[^']|'')*'|[(),;]`)

// TableRef is one (table, read/write) reference extracted from a statement.
type TableRef struct {
	TableName string
	RWType    ir.RWType
}

var clauseEnders = map[string]bool{
	"WHERE": true, "GROUP": true, "ORDER": true, "HAVING": true,
	"UNION": true, "INTERSECT": true, "EXCEPT": true,
}

// ExtractTables performs per-kind table extraction over an
// already-normalized statement. Table identifiers are normalized to
// lower-case and their bare name (schema prefixes stripped); names in
// exceptions are suppressed entirely.
func ExtractTables(kind ir.SQLKind, normalized string, exceptions []string) []TableRef {
	tokens := wordRe.FindAllString(normalized, -1)
	suppressed := toSuppressSet(exceptions)

	var refs []TableRef
	add := func(name string, rw ir.RWType) {
		name = bareName(name)
		if name == "" || suppressed[name] {
			return
		}
		refs = append(refs, TableRef{TableName: name, RWType: rw})
	}

	switch kind {
	case ir.KindSelect:
		for _, t := range fromJoinTables(tokens) {
			add(t, ir.Read)
		}

	case ir.KindInsert:
		if t, ok := afterKeyword(tokens, "INTO"); ok {
			add(t, ir.Write)
		}
		for _, t := range fromJoinTables(tokens) {
			add(t, ir.Read)
		}

	case ir.KindUpdate:
		if t, ok := afterKeyword(tokens, "UPDATE"); ok {
			add(t, ir.Write)
		}
		for _, t := range fromJoinTables(tokens) {
			add(t, ir.Read)
		}

	case ir.KindDelete:
		if t, ok := afterKeyword(tokens, "FROM"); ok {
			add(t, ir.Write)
		}

	case ir.KindMerge:
		if t, ok := afterPhrase(tokens, "MERGE", "INTO"); ok {
			add(t, ir.Write)
		}
		if t, ok := afterKeyword(tokens, "USING"); ok {
			add(t, ir.Read)
		}
		for _, t := range fromJoinTables(tokens) {
			add(t, ir.Read)
		}

	case ir.KindOther:
		// no tables
	}

	return dedup(refs)
}

// fromJoinTables returns every table identifier immediately following a
// FROM or JOIN token, plus any comma-separated siblings, stopping the
// search for that occurrence at the next clause keyword, a closing paren,
// or a statement terminator.
func fromJoinTables(tokens []string) []string {
	var tables []string
	for i := 0; i < len(tokens); i++ {
		if tokens[i] != "FROM" && tokens[i] != "JOIN" {
			continue
		}
		j := i + 1
		for j < len(tokens) {
			if isIdent(tokens[j]) {
				tables = append(tables, tokens[j])
				j++
				if j < len(tokens) && tokens[j] == "," {
					j++
					continue
				}
			}
			break
		}
	}
	return tables
}

func afterKeyword(tokens []string, kw string) (string, bool) {
	for i, t := range tokens {
		if t == kw && i+1 < len(tokens) && isIdent(tokens[i+1]) {
			return tokens[i+1], true
		}
	}
	return "", false
}

func afterPhrase(tokens []string, first, second string) (string, bool) {
	for i := 0; i+2 < len(tokens); i++ {
		if tokens[i] == first && tokens[i+1] == second && isIdent(tokens[i+2]) {
			return tokens[i+2], true
		}
	}
	return "", false
}

func peek(tokens []string, i int) string {
	if i < 0 || i >= len(tokens) {
		return ""
	}
	return tokens[i]
}

func isIdent(tok string) bool {
	if tok == "" {
		return false
	}
	if !(tok[0] == '_' || (tok[0] >= 'A' && tok[0] <= 'Z') || (tok[0] >= 'a' && tok[0] <= 'z')) {
		return false
	}
	return !isSQLKeyword(tok)
}

var sqlKeywords = map[string]bool{
	"SELECT": true, "FROM": true, "JOIN": true, "INNER": true, "LEFT": true,
	"RIGHT": true, "OUTER": true, "FULL": true, "ON": true, "WHERE": true,
	"GROUP": true, "BY": true, "ORDER": true, "HAVING": true, "UNION": true,
	"INTERSECT": true, "EXCEPT": true, "INSERT": true, "INTO": true,
	"VALUES": true, "UPDATE": true, "SET": true, "DELETE": true,
	"MERGE": true, "USING": true, "AS": true, "AND": true, "OR": true, "NOT": true,
}

func isSQLKeyword(tok string) bool { return sqlKeywords[strings.ToUpper(tok)] }

// bareName lower-cases a (possibly schema-qualified) identifier and strips
// everything up to and including the last ".".
func bareName(name string) string {
	name = strings.ToLower(name)
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

func toSuppressSet(exceptions []string) map[string]bool {
	set := make(map[string]bool, len(exceptions))
	for _, e := range exceptions {
		set[strings.ToLower(e)] = true
	}
	return set
}

func dedup(refs []TableRef) []TableRef {
	seen := make(map[TableRef]bool, len(refs))
	out := refs[:0]
	for _, r := range refs {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

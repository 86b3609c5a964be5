// Package parser turns a lexer.Token stream into a ParsedFile: a shallow
// syntactic model of declared objects, their events and functions, the
// embedded SQL they contain, and the call sites inside them. It never
// aborts on a malformed file — recoverable errors are collected on the
// ParsedFile and scanning resumes at the next statement boundary.
package parser

import (
	"path/filepath"
	"strings"

	"github.com/donseok/pbtm-project/ir"
	"github.com/donseok/pbtm-project/lexer"
)

// ParseError is one recovered parse failure.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

// Event is a named handler attached to the file's Object.
type Event struct {
	Name string
	Body []lexer.Token
}

// Function is a named callable attached to the file's Object.
type Function struct {
	Name      string
	Signature string
	Body      []lexer.Token
}

// CallKind enumerates the recognized call-site shapes.
type CallKind string

const (
	FunctionCall CallKind = "function-call"
	ScreenOpen   CallKind = "screen-open"
	EventTrigger CallKind = "event-trigger"
	DataGridUse  CallKind = "data-grid-use"
)

// CallSite is a candidate call discovered inside an event or function body.
// Caller is the enclosing event/function name; Kind is determined
// syntactically here, final resolution against the run-wide directory is
// the analyzer's job.
type CallSite struct {
	Caller     string
	CalleeName string
	Kind       CallKind
}

// EmbeddedSql is one SQL statement recovered from an event or function body.
type EmbeddedSql struct {
	OwnerName     string // the event or function name the statement was found in
	StatementText string
}

// ParsedFile is the shallow model the analyzer consumes.
type ParsedFile struct {
	Type         ir.ObjectType
	Name         string
	SourcePath   string
	Events       []Event
	Functions    []Function
	EmbeddedSql  []EmbeddedSql
	CallSites    []CallSite
	Errors       []ParseError
	Abandoned    bool
	MojibakeRisk float64
}

// extByType maps the file-extension convention this corpus uses to the
// declared object kind. A leading "forward type X from Y" preamble (typical
// of user-object sources) additionally confirms UserObject when present.
var extByType = map[string]ir.ObjectType{
	".win": ir.Screen,
	".uo":  ir.UserObject,
	".mnu": ir.Menu,
	".fun": ir.FunctionObject,
	".scr": ir.Script,
	".lib": ir.Library,
}

// opensBlock is the set of keywords that require a matching "end" before the
// enclosing event/function body is considered complete.
var opensBlock = map[string]bool{
	"if": true, "for": true, "while": true, "choose": true, "case": true,
}

// ParseFile scans a source file's text into a ParsedFile. sourcePath is
// used only to infer the declared object's type and name; text must already
// be decoded (see lexer.Decode).
func ParseFile(sourcePath, text string, maxErrorsPerFile int) ParsedFile {
	pf := ParsedFile{
		SourcePath: sourcePath,
		Name:       stem(sourcePath),
		Type:       objectTypeFor(sourcePath),
	}
	pf.MojibakeRisk = lexer.MojibakeRatio(text)

	tokens := lexer.New(text).Tokens()
	if hasForwardTypePreamble(tokens) {
		pf.Type = ir.UserObject
	}

	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		switch {
		case tok.Kind == lexer.Keyword && (tok.Text == "event" || tok.Text == "on"):
			ev, next, errs := parseEvent(tokens, i)
			pf.Events = append(pf.Events, ev)
			pf.CallSites = append(pf.CallSites, detectCallSites(ev.Name, ev.Body)...)
			pf.EmbeddedSql = append(pf.EmbeddedSql, detectEmbeddedSql(ev.Name, ev.Body)...)
			pf.Errors = append(pf.Errors, errs...)
			i = next

		case tok.Kind == lexer.Keyword && (tok.Text == "function" || tok.Text == "subroutine"):
			fn, next, errs := parseFunction(tokens, i)
			pf.Functions = append(pf.Functions, fn)
			pf.CallSites = append(pf.CallSites, detectCallSites(fn.Name, fn.Body)...)
			pf.EmbeddedSql = append(pf.EmbeddedSql, detectEmbeddedSql(fn.Name, fn.Body)...)
			pf.Errors = append(pf.Errors, errs...)
			i = next

		default:
			i++
		}

		if len(pf.Errors) > maxErrorsPerFile {
			pf.Abandoned = true
			return pf
		}
	}

	return pf
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func objectTypeFor(path string) ir.ObjectType {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := extByType[ext]; ok {
		return t
	}
	return ir.Script
}

func hasForwardTypePreamble(tokens []Token) bool {
	for i := 0; i+3 < len(tokens); i++ {
		if tokens[i].Kind == lexer.Keyword && tokens[i].Text == "forward" &&
			tokens[i+1].Kind == lexer.Keyword && tokens[i+1].Text == "type" {
			for j := i + 2; j < len(tokens) && j < i+10; j++ {
				if tokens[j].Kind == lexer.Keyword && tokens[j].Text == "from" {
					return true
				}
			}
		}
	}
	return false
}

// Token is a re-export so callers of this package don't need to import
// lexer directly just to read a body span.
type Token = lexer.Token

// parseEvent consumes an "event"/"on" declaration starting at tokens[start]
// and returns the Event, the index following its closing "end", and any
// recovered errors. A missing closing "end" is recorded as an error and the
// body is cut off at the next top-level declaration or at EOF (fail-soft).
func parseEvent(tokens []Token, start int) (Event, int, []ParseError) {
	name, i := readDeclName(tokens, start+1)
	bodyStart := i
	end, recovered, errs := scanToMatchingEnd(tokens, bodyStart)
	next := end
	if !recovered {
		next = skipEndKeyword(tokens, end)
	}
	return Event{Name: name, Body: tokens[bodyStart:end]}, next, errs
}

func parseFunction(tokens []Token, start int) (Function, int, []ParseError) {
	name, i := readDeclName(tokens, start+1)
	bodyStart := i
	end, recovered, errs := scanToMatchingEnd(tokens, bodyStart)
	next := end
	if !recovered {
		next = skipEndKeyword(tokens, end)
	}
	return Function{Name: name, Signature: name, Body: tokens[bodyStart:end]}, next, errs
}

// readDeclName returns the next identifier-like token's text as the
// declared name, skipping over intervening return-type identifiers; it
// takes the LAST identifier before "(" or newline, which is the common
// declaration shape `<returntype> name ( args )`.
func readDeclName(tokens []Token, i int) (string, int) {
	name := ""
	for i < len(tokens) {
		tok := tokens[i]
		if tok.Kind == lexer.Newline {
			// No parameter list: the declaration line is already consumed.
			return name, i + 1
		}
		if tok.Kind == lexer.Punct && tok.Text == "(" {
			break
		}
		if tok.Kind == lexer.Identifier || tok.Kind == lexer.Keyword {
			name = tok.Text
		}
		i++
	}
	// Skip past the parameter list, if any, to the end of the declaration line.
	depth := 0
	for i < len(tokens) {
		tok := tokens[i]
		if tok.Kind == lexer.Punct && tok.Text == "(" {
			depth++
		} else if tok.Kind == lexer.Punct && tok.Text == ")" {
			if depth > 0 {
				depth--
			}
		} else if tok.Kind == lexer.Newline && depth == 0 {
			i++
			break
		}
		i++
	}
	return name, i
}

// topLevelDecl is the set of keywords that open a new event/function
// declaration; encountering one of these at depth zero while still looking
// for a closing "end" means the current body was left unterminated.
var topLevelDecl = map[string]bool{
	"event": true, "on": true, "function": true, "subroutine": true,
}

// scanToMatchingEnd finds the index of the "end" keyword that closes the
// block opened by the declaration at the caller's position, tracking
// nested if/for/while/choose blocks. If no matching "end" is found before
// either EOF or the next top-level declaration, recovered is true, the
// returned index is the recovery boundary (not consumed), and a ParseError
// is recorded — this is the "advance to the next statement boundary"
// recovery policy that keeps one malformed declaration from swallowing the
// rest of the file.
func scanToMatchingEnd(tokens []Token, start int) (boundary int, recovered bool, errs []ParseError) {
	depth := 0
	for i := start; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Kind != lexer.Keyword {
			continue
		}
		switch {
		case depth == 0 && topLevelDecl[tok.Text]:
			return i, true, []ParseError{{
				Line:    tokens[start].Line,
				Column:  tokens[start].Column,
				Message: "unterminated event/function body: missing end",
			}}
		case opensBlock[tok.Text]:
			depth++
		case tok.Text == "end":
			if depth == 0 {
				return i, false, nil
			}
			depth--
		}
	}
	// A declaration on the last line leaves start past the final token.
	at := tokens[len(tokens)-1]
	if start < len(tokens) {
		at = tokens[start]
	}
	return len(tokens), true, []ParseError{{
		Line:    at.Line,
		Column:  at.Column,
		Message: "unterminated event/function body: missing end",
	}}
}

func skipEndKeyword(tokens []Token, end int) int {
	i := end
	for i < len(tokens) && tokens[i].Kind != lexer.Newline {
		i++
	}
	return i + 1
}

package lexer

// Kind identifies the category of a scanned Token.
type Kind int

const (
	Eof Kind = iota
	Newline

	Comment
	String
	Identifier
	Keyword
	Number
	Punct
)

func (k Kind) String() string {
	switch k {
	case Eof:
		return "EOF"
	case Newline:
		return "NEWLINE"
	case Comment:
		return "COMMENT"
	case String:
		return "STRING"
	case Identifier:
		return "IDENTIFIER"
	case Keyword:
		return "KEYWORD"
	case Number:
		return "NUMBER"
	case Punct:
		return "PUNCT"
	default:
		return "UNKNOWN"
	}
}

// Token is one lexical unit. Text is the canonical (lower-cased for
// identifiers/keywords) form; Raw preserves the source bytes for spans that
// must be reassembled verbatim (strings, SQL blocks).
type Token struct {
	Kind   Kind
	Text   string
	Raw    string
	Line   int
	Column int
}

// keywords is the fixed control-word set: conditional,
// iteration, function/event declaration, trigger, open-screen,
// assignment-target markers, plus the embedded-SQL boundary markers that
// double as statement-starting keywords.
var keywords = map[string]bool{
	"if": true, "then": true, "else": true, "elseif": true, "end": true,
	"for": true, "to": true, "next": true, "do": true, "while": true,
	"loop": true, "choose": true, "case": true,
	"function": true, "subroutine": true, "event": true, "on": true,
	"global": true, "forward": true, "type": true, "from": true,
	"triggerevent": true, "posteevent": true,
	"open": true, "openwithparm": true, "openuserobject": true,
	"return": true, "call": true,

	"select": true, "insert": true, "update": true, "delete": true,
	"merge": true, "declare": true, "fetch": true, "close": true,
	"commit": true, "rollback": true,
}

// sqlBoundaryKeywords is the subset of keywords that opens an embedded SQL
// block.
var sqlBoundaryKeywords = map[string]bool{
	"select": true, "insert": true, "update": true, "delete": true,
	"merge": true, "declare": true, "open": true, "fetch": true,
	"close": true, "commit": true, "rollback": true,
}

// IsKeyword reports whether the canonical (lower-case) form of s is one of
// the fixed control words.
func IsKeyword(s string) bool { return keywords[s] }

// IsSqlBoundary reports whether the canonical form of s opens an embedded
// SQL block.
func IsSqlBoundary(s string) bool { return sqlBoundaryKeywords[s] }

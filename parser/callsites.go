package parser

import (
	"strings"

	"github.com/donseok/pbtm-project/lexer"
)

// detectCallSites scans a single event/function body for the four
// recognized call shapes. Matching
// is case-insensitive, but tokens arrive already canonicalized to
// lower-case by the lexer.
func detectCallSites(owner string, body []Token) []CallSite {
	var sites []CallSite

	for i := 0; i < len(body); i++ {
		tok := body[i]
		if tok.Kind != lexer.Identifier && tok.Kind != lexer.Keyword {
			continue
		}

		switch {
		case tok.Text == "open" && isCall(body, i):
			if callee, ok := firstArgIdent(body, i); ok {
				sites = append(sites, CallSite{Caller: owner, CalleeName: callee, Kind: ScreenOpen})
			}

		case tok.Text == "openwithparm" && isCall(body, i):
			if callee, ok := firstArgIdent(body, i); ok {
				sites = append(sites, CallSite{Caller: owner, CalleeName: callee, Kind: ScreenOpen})
			}

		case tok.Text == "triggerevent" && isCall(body, i):
			if callee, ok := triggerEventName(body, i); ok {
				sites = append(sites, CallSite{Caller: owner, CalleeName: callee, Kind: EventTrigger})
			}

		case tok.Kind == lexer.Identifier && isDataWindowControl(tok.Text) && isDotAccess(body, i):
			sites = append(sites, CallSite{Caller: owner, CalleeName: tok.Text, Kind: DataGridUse})

		case tok.Kind == lexer.Identifier && isCall(body, i) && !reservedCallTarget(tok.Text):
			sites = append(sites, CallSite{Caller: owner, CalleeName: tok.Text, Kind: FunctionCall})
		}
	}

	return sites
}

func isCall(body []Token, i int) bool {
	return i+1 < len(body) && body[i+1].Kind == lexer.Punct && body[i+1].Text == "("
}

func isDotAccess(body []Token, i int) bool {
	return i+1 < len(body) && body[i+1].Kind == lexer.Punct && body[i+1].Text == "."
}

func isDataWindowControl(name string) bool {
	return strings.HasPrefix(name, "dw_")
}

func reservedCallTarget(name string) bool {
	switch name {
	case "open", "openwithparm", "triggerevent":
		return true
	}
	return false
}

// firstArgIdent returns the first identifier inside the parenthesized
// argument list following a call token at index i.
func firstArgIdent(body []Token, i int) (string, bool) {
	depth := 0
	for j := i + 1; j < len(body); j++ {
		tok := body[j]
		if tok.Kind == lexer.Punct && tok.Text == "(" {
			depth++
			continue
		}
		if tok.Kind == lexer.Punct && tok.Text == ")" {
			depth--
			if depth == 0 {
				break
			}
			continue
		}
		if depth == 1 && (tok.Kind == lexer.Identifier || tok.Kind == lexer.Keyword) {
			return tok.Text, true
		}
	}
	return "", false
}

// triggerEventName returns the quoted event name argument to TriggerEvent,
// whether it appears as the sole argument or as the second argument of the
// two-argument form.
func triggerEventName(body []Token, i int) (string, bool) {
	depth := 0
	for j := i + 1; j < len(body); j++ {
		tok := body[j]
		if tok.Kind == lexer.Punct && tok.Text == "(" {
			depth++
			continue
		}
		if tok.Kind == lexer.Punct && tok.Text == ")" {
			depth--
			if depth == 0 {
				break
			}
			continue
		}
		if depth == 1 && tok.Kind == lexer.String {
			return tok.Text, true
		}
	}
	return "", false
}

// detectEmbeddedSql re-scans a body span for SQL blocks via lexer.ExtractSqlBlocks
// and attaches the enclosing event/function name as owner.
func detectEmbeddedSql(owner string, body []Token) []EmbeddedSql {
	blocks := lexer.ExtractSqlBlocks(body)
	out := make([]EmbeddedSql, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, EmbeddedSql{OwnerName: owner, StatementText: b.Text})
	}
	return out
}

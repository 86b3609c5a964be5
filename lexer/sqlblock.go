package lexer

import "strings"

// SqlBlock is one contiguous embedded SQL statement recovered from a token
// span, with its text reassembled from tokens using canonical whitespace.
type SqlBlock struct {
	Text       string
	StartLine  int
	StartToken int
	EndToken   int // exclusive
}

// ExtractSqlBlocks re-scans a token span for embedded SQL: a block opens at
// a Keyword token satisfying IsSqlBoundary and runs until a Punct ";" seen
// at nesting depth zero, outside of any string literal — semicolons inside
// strings or parentheses never terminate a statement.
func ExtractSqlBlocks(tokens []Token) []SqlBlock {
	var blocks []SqlBlock

	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		if tok.Kind == Keyword && IsSqlBoundary(tok.Text) && !isScreenOpenCall(tokens, i) {
			block, next := scanOneBlock(tokens, i)
			blocks = append(blocks, block)
			i = next
			continue
		}
		i++
	}
	return blocks
}

// isScreenOpenCall disambiguates the "open" keyword, which this domain
// overloads for both a cursor-OPEN SQL statement and the `open(window)`
// navigation call: a literal "(" immediately following "open" is the
// navigation call, never a cursor open (those take a bare cursor name).
func isScreenOpenCall(tokens []Token, i int) bool {
	if tokens[i].Text != "open" {
		return false
	}
	return i+1 < len(tokens) && tokens[i+1].Kind == Punct && tokens[i+1].Text == "("
}

func scanOneBlock(tokens []Token, start int) (SqlBlock, int) {
	depth := 0
	var words []string
	i := start
	for i < len(tokens) {
		tok := tokens[i]
		switch tok.Kind {
		case Punct:
			switch tok.Text {
			case "(":
				depth++
			case ")":
				if depth > 0 {
					depth--
				}
			case ";":
				if depth == 0 {
					i++
					return SqlBlock{
						Text:       strings.Join(words, " "),
						StartLine:  tokens[start].Line,
						StartToken: start,
						EndToken:   i,
					}, i
				}
			}
			words = append(words, tok.Text)
		case String:
			words = append(words, tok.Raw)
		case Newline, Comment:
			// dropped: canonical whitespace collapses these away
		default:
			words = append(words, tok.Text)
		}
		i++
	}
	// Unterminated block: the enclosing event/function body ended first.
	// Fail-soft: still yield what was collected.
	return SqlBlock{
		Text:       strings.Join(words, " "),
		StartLine:  tokens[start].Line,
		StartToken: start,
		EndToken:   i,
	}, i
}

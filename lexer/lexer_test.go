package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexerIdentifiersAreCaseInsensitive(t *testing.T) {
	tokens := New("Open(w_main)").Tokens()
	require.GreaterOrEqual(t, len(tokens), 4)
	assert.Equal(t, Keyword, tokens[0].Kind)
	assert.Equal(t, "open", tokens[0].Text)
	assert.Equal(t, Identifier, tokens[2].Kind)
	assert.Equal(t, "w_main", tokens[2].Text)
}

func TestLexerStringEscapeByDoubling(t *testing.T) {
	tokens := New(`'it''s fine'`).Tokens()
	require.Len(t, tokens, 2) // string + eof
	assert.Equal(t, String, tokens[0].Kind)
	assert.Equal(t, "it's fine", tokens[0].Text)
}

func TestLexerLineAndBlockComments(t *testing.T) {
	tokens := New("// a comment\n/* block \n comment */").Tokens()
	var kinds []Kind
	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []Kind{Comment, Newline, Comment, Eof}, kinds)
}

func TestLexerNumberLiterals(t *testing.T) {
	tokens := New("12 3.14").Tokens()
	require.GreaterOrEqual(t, len(tokens), 2)
	assert.Equal(t, Number, tokens[0].Kind)
	assert.Equal(t, "12", tokens[0].Text)
	assert.Equal(t, Number, tokens[1].Kind)
	assert.Equal(t, "3.14", tokens[1].Text)
}

func TestExtractSqlBlocksIgnoresSemicolonInsideString(t *testing.T) {
	tokens := New(`UPDATE tb_x SET a = "a;b" WHERE k = 1;`).Tokens()
	blocks := ExtractSqlBlocks(tokens)
	require.Len(t, blocks, 1)
	assert.Contains(t, blocks[0].Text, "a;b")
}

func TestExtractSqlBlocksStopsAtStatementLevelSemicolon(t *testing.T) {
	tokens := New(`INSERT INTO tb_y(a) VALUES(1); select 1 from tb_x;`).Tokens()
	blocks := ExtractSqlBlocks(tokens)
	require.Len(t, blocks, 2)
	assert.Contains(t, blocks[0].Text, "insert")
	assert.Contains(t, blocks[1].Text, "select")
}

func TestDecodeAdoptsUTF8WhenValid(t *testing.T) {
	text, codepage := Decode([]byte("select * from tb_a"))
	assert.Equal(t, "utf-8", codepage)
	assert.Equal(t, "select * from tb_a", text)
}

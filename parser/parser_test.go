package parser

import (
	"testing"

	"github.com/donseok/pbtm-project/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFileRecoversEmbeddedSqlAndCallSites(t *testing.T) {
	src := `
event save()
	UPDATE tb_x SET a = 1 WHERE k = :k;
	INSERT INTO tb_y(a) VALUES(1);
	open(s2)
	triggerevent("ue_save")
end event
`
	pf := ParseFile("s1.win", src, 100)
	require.False(t, pf.Abandoned)
	assert.Equal(t, ir.Screen, pf.Type)
	assert.Equal(t, "s1", pf.Name)
	require.Len(t, pf.Events, 1)
	assert.Equal(t, "save", pf.Events[0].Name)

	require.Len(t, pf.EmbeddedSql, 2)
	assert.Contains(t, pf.EmbeddedSql[0].StatementText, "update")
	assert.Contains(t, pf.EmbeddedSql[1].StatementText, "insert")

	var kinds []CallKind
	for _, cs := range pf.CallSites {
		kinds = append(kinds, cs.Kind)
	}
	assert.Contains(t, kinds, ScreenOpen)
	assert.Contains(t, kinds, EventTrigger)
}

func TestParseFileFunctionCallCandidate(t *testing.T) {
	src := `
function of_compute(integer ai_x)
	of_helper(ai_x)
end function
`
	pf := ParseFile("uo_math.uo", src, 100)
	require.Len(t, pf.Functions, 1)
	assert.Equal(t, "of_compute", pf.Functions[0].Name)
	require.Len(t, pf.CallSites, 1)
	assert.Equal(t, FunctionCall, pf.CallSites[0].Kind)
	assert.Equal(t, "of_helper", pf.CallSites[0].CalleeName)
}

func TestParseFileDataGridUse(t *testing.T) {
	src := `
event ue_retrieve()
	dw_1.Retrieve()
end event
`
	pf := ParseFile("w_main.win", src, 100)
	require.Len(t, pf.CallSites, 2) // dw_1 use + the Retrieve() call candidate
	var kinds []CallKind
	for _, cs := range pf.CallSites {
		kinds = append(kinds, cs.Kind)
	}
	assert.Contains(t, kinds, DataGridUse)
}

func TestParseFileAbandonsAfterMaxErrors(t *testing.T) {
	src := "event a()\nevent b()\nevent c()\n"
	pf := ParseFile("w_broken.win", src, 1)
	assert.True(t, pf.Abandoned)
}

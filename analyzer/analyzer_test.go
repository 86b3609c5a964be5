package analyzer

import (
	"testing"

	"github.com/donseok/pbtm-project/config"
	"github.com/donseok/pbtm-project/descriptor"
	"github.com/donseok/pbtm-project/ir"
	"github.com/donseok/pbtm-project/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func relationsOfType(rs []ir.Relation, t ir.RelationType) []ir.Relation {
	var out []ir.Relation
	for _, r := range rs {
		if r.RelationType == t {
			out = append(out, r)
		}
	}
	return out
}

func TestAnalyzeScreenOpensScreenResolvesUnambiguously(t *testing.T) {
	cfg := config.Default()
	files := []parser.ParsedFile{
		{
			Type: ir.Screen, Name: "w_main", SourcePath: "w_main.win",
			Events: []parser.Event{{Name: "open"}},
			CallSites: []parser.CallSite{
				{Caller: "open", CalleeName: "w_detail", Kind: parser.ScreenOpen},
			},
		},
		{Type: ir.Screen, Name: "w_detail", SourcePath: "w_detail.win"},
	}

	res := Analyze(cfg, files, nil)
	opens := relationsOfType(res.Relations, ir.Opens)
	require.Len(t, opens, 1)
	assert.Equal(t, 0.95, opens[0].Confidence)
	assert.Empty(t, res.Unresolved)
}

func TestAnalyzeAmbiguousFunctionSplitsConfidence(t *testing.T) {
	cfg := config.Default()
	files := []parser.ParsedFile{
		{
			Type: ir.UserObject, Name: "uo_a", SourcePath: "uo_a.uo",
			Functions: []parser.Function{{Name: "f"}},
		},
		{
			Type: ir.UserObject, Name: "uo_b", SourcePath: "uo_b.uo",
			Functions: []parser.Function{{Name: "f"}},
		},
		{
			Type: ir.Screen, Name: "w_main", SourcePath: "w_main.win",
			Events: []parser.Event{{Name: "open"}},
			CallSites: []parser.CallSite{
				{Caller: "open", CalleeName: "f", Kind: parser.FunctionCall},
			},
		},
	}

	res := Analyze(cfg, files, nil)
	calls := relationsOfType(res.Relations, ir.Calls)
	require.Len(t, calls, 2)
	for _, c := range calls {
		assert.InDelta(t, 0.425, c.Confidence, 1e-9)
	}
}

func TestAnalyzeUnresolvedCalleeProducesNoRelation(t *testing.T) {
	cfg := config.Default()
	files := []parser.ParsedFile{
		{
			Type: ir.Screen, Name: "w_main", SourcePath: "w_main.win",
			Events: []parser.Event{{Name: "open"}},
			CallSites: []parser.CallSite{
				{Caller: "open", CalleeName: "of_does_not_exist", Kind: parser.FunctionCall},
			},
		},
	}

	res := Analyze(cfg, files, nil)
	assert.Empty(t, res.Relations)
	require.Len(t, res.Unresolved, 1)
	assert.Equal(t, "of_does_not_exist", res.Unresolved[0].CalleeName)
}

func TestAnalyzeEventTriggerResolvesToOwningObject(t *testing.T) {
	cfg := config.Default()
	files := []parser.ParsedFile{
		{
			Type: ir.Screen, Name: "w_main", SourcePath: "w_main.win",
			Events: []parser.Event{
				{Name: "open"},
				{Name: "ue_save"},
			},
			CallSites: []parser.CallSite{
				{Caller: "open", CalleeName: "ue_save", Kind: parser.EventTrigger},
			},
		},
	}

	res := Analyze(cfg, files, nil)
	triggers := relationsOfType(res.Relations, ir.TriggersEvent)
	require.Len(t, triggers, 1)
	assert.Equal(t, triggers[0].SrcID, triggers[0].DstID) // self-trigger: same owning Object
}

func TestAnalyzeEmbeddedSqlProducesStatementTableRefsAndRelations(t *testing.T) {
	cfg := config.Default()
	files := []parser.ParsedFile{
		{
			Type: ir.UserObject, Name: "uo_orders", SourcePath: "uo_orders.uo",
			Functions: []parser.Function{{Name: "of_load"}},
			EmbeddedSql: []parser.EmbeddedSql{
				{OwnerName: "of_load", StatementText: "SELECT id FROM tb_orders WHERE id = :id"},
			},
		},
	}

	res := Analyze(cfg, files, nil)
	require.Len(t, res.SqlStatements, 1)
	assert.Equal(t, ir.KindSelect, res.SqlStatements[0].SqlKind)

	require.Len(t, res.SqlTables, 1)
	assert.Equal(t, "tb_orders", res.SqlTables[0].TableName)
	assert.Equal(t, ir.Read, res.SqlTables[0].RWType)

	reads := relationsOfType(res.Relations, ir.ReadsTable)
	require.Len(t, reads, 1)

	var tableObj ir.Object
	for _, o := range res.Objects {
		if o.Type == ir.Table {
			tableObj = o
		}
	}
	assert.Equal(t, "tb_orders", tableObj.Name)
	assert.Equal(t, tableObj.ID, reads[0].DstID)
}

func TestAnalyzeDataGridUseResolvesToDataGridObjectAndEmitsUsesDW(t *testing.T) {
	cfg := config.Default()
	files := []parser.ParsedFile{
		{
			Type: ir.Screen, Name: "w_main", SourcePath: "w_main.win",
			Events: []parser.Event{{Name: "open"}},
			CallSites: []parser.CallSite{
				{Caller: "open", CalleeName: "dw_1", Kind: parser.DataGridUse},
			},
		},
	}
	dws := []descriptor.ParsedDataWindow{
		{ObjectName: "dw_1", DWName: "dw_1", BaseTable: "tb_orders", SqlSelect: "SELECT id FROM tb_orders"},
	}

	res := Analyze(cfg, files, dws)
	uses := relationsOfType(res.Relations, ir.UsesDW)
	require.Len(t, uses, 1)
	assert.Equal(t, 0.90, uses[0].Confidence)

	writes := relationsOfType(res.Relations, ir.WritesTable)
	require.Len(t, writes, 1)

	require.Len(t, res.DataWindows, 1)
	assert.Equal(t, "dw_1", res.DataWindows[0].DWName)
	assert.Equal(t, "tb_orders", res.DataWindows[0].BaseTable)
}

func TestAnalyzeDescriptorUpdateWithoutRetrieveStillWritesTable(t *testing.T) {
	cfg := config.Default()
	dws := []descriptor.ParsedDataWindow{
		{ObjectName: "dw_2", DWName: "dw_2", BaseTable: "tb_audit"},
	}

	res := Analyze(cfg, nil, dws)
	writes := relationsOfType(res.Relations, ir.WritesTable)
	require.Len(t, writes, 1)

	var sawWriteRow bool
	for _, st := range res.SqlTables {
		if st.TableName == "tb_audit" && st.RWType == ir.Write {
			sawWriteRow = true
		}
	}
	assert.True(t, sawWriteRow, "a writes_table relation requires a matching SqlTable WRITE row in the same run")
}

func TestAnalyzeTableNameExceptionSuppressesDescriptorWrite(t *testing.T) {
	cfg := config.Default()
	cfg.TableNameExceptions = []string{"dual"}
	dws := []descriptor.ParsedDataWindow{
		{ObjectName: "dw_3", DWName: "dw_3", BaseTable: "DUAL"},
	}

	res := Analyze(cfg, nil, dws)
	assert.Empty(t, relationsOfType(res.Relations, ir.WritesTable))
}

func TestAnalyzeRelationDedupKeepsMaxConfidence(t *testing.T) {
	cfg := config.Default()
	files := []parser.ParsedFile{
		{
			Type: ir.UserObject, Name: "uo_a", SourcePath: "uo_a.uo",
			Functions: []parser.Function{{Name: "f"}},
		},
		{
			Type: ir.Screen, Name: "w_main", SourcePath: "w_main.win",
			Events: []parser.Event{{Name: "open"}},
			CallSites: []parser.CallSite{
				{Caller: "open", CalleeName: "f", Kind: parser.FunctionCall},
				{Caller: "open", CalleeName: "f", Kind: parser.FunctionCall},
			},
		},
	}

	res := Analyze(cfg, files, nil)
	calls := relationsOfType(res.Relations, ir.Calls)
	require.Len(t, calls, 1)
	assert.Equal(t, 0.85, calls[0].Confidence)
}

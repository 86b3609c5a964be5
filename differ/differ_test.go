package differ

import (
	"testing"

	"github.com/donseok/pbtm-project/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffObjectsAddedRemovedAndChanged(t *testing.T) {
	older := ObjectSnapshot{
		Objects: []ir.Object{
			{ID: 1, Type: ir.Screen, Name: "w_main", SourcePath: "old/w_main.win"},
			{ID: 2, Type: ir.Screen, Name: "w_gone", SourcePath: "old/w_gone.win"},
		},
	}
	newer := ObjectSnapshot{
		Objects: []ir.Object{
			{ID: 11, Type: ir.Screen, Name: "w_main", SourcePath: "new/w_main.win"},
			{ID: 12, Type: ir.Screen, Name: "w_new", SourcePath: "new/w_new.win"},
		},
	}

	d := Diff(older, newer)
	require.Len(t, d.Objects.Added, 1)
	assert.Equal(t, "w_new", d.Objects.Added[0].Name)
	require.Len(t, d.Objects.Removed, 1)
	assert.Equal(t, "w_gone", d.Objects.Removed[0].Name)
	require.Len(t, d.Objects.Changed, 1)
	assert.Equal(t, "source_path", d.Objects.Changed[0].Field)
}

func TestDiffRelationsKeyedByObjectBusinessKeyNotSurrogateID(t *testing.T) {
	older := ObjectSnapshot{
		Objects: []ir.Object{
			{ID: 1, Type: ir.Screen, Name: "w_main"},
			{ID: 2, Type: ir.Table, Name: "tb_orders"},
		},
		Relations: []ir.Relation{
			{ID: 100, SrcID: 1, DstID: 2, RelationType: ir.ReadsTable, Confidence: 0.9},
		},
	}
	// A fresh run assigns unrelated surrogate IDs to the same business keys.
	newer := ObjectSnapshot{
		Objects: []ir.Object{
			{ID: 55, Type: ir.Screen, Name: "w_main"},
			{ID: 56, Type: ir.Table, Name: "tb_orders"},
		},
		Relations: []ir.Relation{
			{ID: 900, SrcID: 55, DstID: 56, RelationType: ir.ReadsTable, Confidence: 0.9},
		},
	}

	d := Diff(older, newer)
	assert.Empty(t, d.Relations.Added)
	assert.Empty(t, d.Relations.Removed)
	assert.Empty(t, d.Relations.Changed)
}

func TestDiffRelationsDetectsConfidenceChange(t *testing.T) {
	objs := []ir.Object{
		{ID: 1, Type: ir.Screen, Name: "w_main"},
		{ID: 2, Type: ir.Table, Name: "tb_orders"},
	}
	older := ObjectSnapshot{
		Objects:   objs,
		Relations: []ir.Relation{{ID: 1, SrcID: 1, DstID: 2, RelationType: ir.ReadsTable, Confidence: 0.9}},
	}
	newer := ObjectSnapshot{
		Objects:   objs,
		Relations: []ir.Relation{{ID: 1, SrcID: 1, DstID: 2, RelationType: ir.ReadsTable, Confidence: 0.45}},
	}

	d := Diff(older, newer)
	require.Len(t, d.Relations.Changed, 1)
	assert.Equal(t, "confidence", d.Relations.Changed[0].Field)
}

func TestDiffDataWindowsKeyedByOwnerNameNotSurrogateObjectID(t *testing.T) {
	older := ObjectSnapshot{
		Objects: []ir.Object{
			{ID: 1, Type: ir.DataGrid, Name: "dw_orders"},
		},
		DataWindows: []ir.DataWindow{
			{ID: 1, ObjectID: 1, DWName: "dw_orders", BaseTable: "tb_orders", SqlSelect: "SELECT id FROM tb_orders"},
		},
	}
	// A newer run adds an unrelated object ahead of dw_orders in surrogate-ID
	// allocation order (e.g. a new screen s3), shifting every later object's
	// id even though dw_orders itself is unchanged.
	newer := ObjectSnapshot{
		Objects: []ir.Object{
			{ID: 1, Type: ir.Screen, Name: "s3"},
			{ID: 2, Type: ir.DataGrid, Name: "dw_orders"},
		},
		DataWindows: []ir.DataWindow{
			{ID: 1, ObjectID: 2, DWName: "dw_orders", BaseTable: "tb_orders", SqlSelect: "SELECT id FROM tb_orders"},
		},
	}

	d := Diff(older, newer)
	assert.Empty(t, d.DataWindows.Added)
	assert.Empty(t, d.DataWindows.Removed)
	assert.Empty(t, d.DataWindows.Changed)
}

func TestDiffDataWindowsDetectsSqlSelectChange(t *testing.T) {
	objs := []ir.Object{{ID: 1, Type: ir.DataGrid, Name: "dw_orders"}}
	older := ObjectSnapshot{
		Objects:     objs,
		DataWindows: []ir.DataWindow{{ID: 1, ObjectID: 1, DWName: "dw_orders", BaseTable: "tb_orders", SqlSelect: "SELECT id FROM tb_orders"}},
	}
	newer := ObjectSnapshot{
		Objects:     objs,
		DataWindows: []ir.DataWindow{{ID: 1, ObjectID: 1, DWName: "dw_orders", BaseTable: "tb_orders", SqlSelect: "SELECT id, status FROM tb_orders"}},
	}

	d := Diff(older, newer)
	require.Len(t, d.DataWindows.Changed, 1)
	assert.Equal(t, "sql_select", d.DataWindows.Changed[0].Field)
}

func TestSummarizeCounts(t *testing.T) {
	d := RunDiff{
		Objects:   SetDiff[ir.Object]{Added: []ir.Object{{}}, Removed: []ir.Object{{}, {}}},
		Relations: SetDiff[ir.Relation]{Changed: []Change{{}}},
	}
	s := Summarize(d)
	assert.Equal(t, 1, s.ObjectsAdded)
	assert.Equal(t, 2, s.ObjectsRemoved)
	assert.Equal(t, 1, s.RelationsChanged)
}

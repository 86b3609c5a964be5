package store

import (
	"context"
	"testing"

	"github.com/donseok/pbtm-project/analyzer"
	"github.com/donseok/pbtm-project/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult() (ir.Run, analyzer.Result) {
	run := ir.Run{RunID: "run-1", StartedAt: 1, FinishedAt: 2, Status: ir.RunOK, SourceVersion: "v1"}
	result := analyzer.Result{
		Objects: []ir.Object{
			{ID: 1, Type: ir.Screen, Name: "w_main", SourcePath: "w_main.win"},
			{ID: 2, Type: ir.Table, Name: "tb_orders"},
		},
		Relations: []ir.Relation{
			{ID: 1, SrcID: 1, DstID: 2, RelationType: ir.ReadsTable, Confidence: 0.9},
		},
		SqlStatements: []ir.SqlStatement{
			{ID: 1, OwnerID: 1, SqlKind: ir.KindSelect, SqlTextNorm: "SELECT 1 FROM TB_ORDERS"},
		},
		SqlTables: []ir.SqlTable{
			{ID: 1, SqlID: 1, TableName: "tb_orders", RWType: ir.Read},
		},
	}
	return run, result
}

func TestPersistWritesFullRun(t *testing.T) {
	s := openTestStore(t)
	run, result := sampleResult()

	require.NoError(t, s.Persist(context.Background(), run, result))

	var objCount, relCount int
	require.NoError(t, s.DB().QueryRow(`SELECT count(*) FROM objects WHERE run_id = ?`, string(run.RunID)).Scan(&objCount))
	require.NoError(t, s.DB().QueryRow(`SELECT count(*) FROM relations WHERE run_id = ?`, string(run.RunID)).Scan(&relCount))
	assert.Equal(t, 2, objCount)
	assert.Equal(t, 1, relCount)
}

func TestPersistRejectsInvalidConfidence(t *testing.T) {
	s := openTestStore(t)
	run, result := sampleResult()
	result.Relations[0].Confidence = 1.5

	err := s.Persist(context.Background(), run, result)
	require.Error(t, err)

	var runCount int
	require.NoError(t, s.DB().QueryRow(`SELECT count(*) FROM runs WHERE run_id = ?`, string(run.RunID)).Scan(&runCount))
	assert.Equal(t, 0, runCount, "a rejected run must not leave a partial row behind")
}

func TestPersistRejectsDuplicateObjectKey(t *testing.T) {
	s := openTestStore(t)
	run, result := sampleResult()
	result.Objects = append(result.Objects, ir.Object{ID: 3, Type: ir.Screen, Name: "w_main", SourcePath: "dup.win"})

	err := s.Persist(context.Background(), run, result)
	assert.Error(t, err)
}

func TestPersistRejectsInvalidSqlKind(t *testing.T) {
	s := openTestStore(t)
	run, result := sampleResult()
	result.SqlStatements[0].SqlKind = "NONSENSE"

	err := s.Persist(context.Background(), run, result)
	assert.Error(t, err)
}

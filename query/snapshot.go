package query

import (
	"context"
	"fmt"

	"github.com/donseok/pbtm-project/differ"
	"github.com/donseok/pbtm-project/ir"
)

// Snapshot reloads one run's full Objects/Relations/SqlStatements/
// DataWindows from the store, in the shape differ.Diff consumes. There is
// no row limit here: a diff needs the complete run, not a paginated report.
func (s *Surface) Snapshot(ctx context.Context, runID ir.RunID) (differ.ObjectSnapshot, error) {
	var snap differ.ObjectSnapshot

	objRows, err := s.db.QueryContext(ctx, `SELECT id, type, name, module, source_path FROM objects WHERE run_id = ?`, string(runID))
	if err != nil {
		return snap, fmt.Errorf("query: snapshot objects: %w", err)
	}
	for objRows.Next() {
		var o ir.Object
		if err := objRows.Scan(&o.ID, &o.Type, &o.Name, &o.Module, &o.SourcePath); err != nil {
			objRows.Close()
			return snap, fmt.Errorf("query: snapshot objects: scanning row: %w", err)
		}
		o.RunID = runID
		snap.Objects = append(snap.Objects, o)
	}
	objRows.Close()
	if err := objRows.Err(); err != nil {
		return snap, err
	}

	relRows, err := s.db.QueryContext(ctx, `SELECT id, src_id, dst_id, relation_type, confidence FROM relations WHERE run_id = ?`, string(runID))
	if err != nil {
		return snap, fmt.Errorf("query: snapshot relations: %w", err)
	}
	for relRows.Next() {
		var r ir.Relation
		if err := relRows.Scan(&r.ID, &r.SrcID, &r.DstID, &r.RelationType, &r.Confidence); err != nil {
			relRows.Close()
			return snap, fmt.Errorf("query: snapshot relations: scanning row: %w", err)
		}
		r.RunID = runID
		snap.Relations = append(snap.Relations, r)
	}
	relRows.Close()
	if err := relRows.Err(); err != nil {
		return snap, err
	}

	sqlRows, err := s.db.QueryContext(ctx, `SELECT id, owner_id, sql_kind, sql_text_norm FROM sql_statements WHERE run_id = ?`, string(runID))
	if err != nil {
		return snap, fmt.Errorf("query: snapshot sql_statements: %w", err)
	}
	for sqlRows.Next() {
		var st ir.SqlStatement
		if err := sqlRows.Scan(&st.ID, &st.OwnerID, &st.SqlKind, &st.SqlTextNorm); err != nil {
			sqlRows.Close()
			return snap, fmt.Errorf("query: snapshot sql_statements: scanning row: %w", err)
		}
		st.RunID = runID
		snap.SqlStatements = append(snap.SqlStatements, st)
	}
	sqlRows.Close()
	if err := sqlRows.Err(); err != nil {
		return snap, err
	}

	dwRows, err := s.db.QueryContext(ctx, `SELECT id, object_id, dw_name, base_table, sql_select FROM data_windows WHERE run_id = ?`, string(runID))
	if err != nil {
		return snap, fmt.Errorf("query: snapshot data_windows: %w", err)
	}
	for dwRows.Next() {
		var d ir.DataWindow
		if err := dwRows.Scan(&d.ID, &d.ObjectID, &d.DWName, &d.BaseTable, &d.SqlSelect); err != nil {
			dwRows.Close()
			return snap, fmt.Errorf("query: snapshot data_windows: scanning row: %w", err)
		}
		d.RunID = runID
		snap.DataWindows = append(snap.DataWindows, d)
	}
	dwRows.Close()
	if err := dwRows.Err(); err != nil {
		return snap, err
	}

	return snap, nil
}

// Package query implements the read-only IR query surface: parameterized
// SQL against the store's sqlite schema. Each report query is bounded by the
// configured report row limit; Snapshot, which reloads a whole run for a
// diff, is not. No query mutates state.
package query

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/donseok/pbtm-project/config"
	"github.com/donseok/pbtm-project/ir"
)

// Surface wraps a *sql.DB (as produced by store.Store.DB()) with the
// named queries the CLI's --report subcommands dispatch to.
type Surface struct {
	db  *sql.DB
	cfg config.Config
}

func New(db *sql.DB, cfg config.Config) *Surface {
	return &Surface{db: db, cfg: cfg}
}

// ObjectRow is one row of list_objects.
type ObjectRow struct {
	ID         ir.ObjectID
	Type       ir.ObjectType
	Name       string
	SourcePath string
}

// ListObjects returns every Object in run_id, optionally restricted to
// objType (empty means unrestricted), ordered by name, capped at limit.
func (s *Surface) ListObjects(ctx context.Context, runID ir.RunID, objType string, limit int) ([]ObjectRow, error) {
	limit = s.cfg.ClampRowLimit(limit)

	query := `SELECT id, type, name, source_path FROM objects WHERE run_id = ?`
	args := []any{string(runID)}
	if objType != "" {
		query += ` AND type = ?`
		args = append(args, objType)
	}
	query += ` ORDER BY name LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: list_objects: %w", err)
	}
	defer rows.Close()

	var out []ObjectRow
	for rows.Next() {
		var r ObjectRow
		if err := rows.Scan(&r.ID, &r.Type, &r.Name, &r.SourcePath); err != nil {
			return nil, fmt.Errorf("query: list_objects: scanning row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EventFunctionRow is one row of event_function_map: an Object's declared
// events and functions side by side with their declaring Object name.
type EventFunctionRow struct {
	ObjectName string
	Kind       string // "event" or "function"
	Name       string
}

func (s *Surface) EventFunctionMap(ctx context.Context, runID ir.RunID, limit int) ([]EventFunctionRow, error) {
	limit = s.cfg.ClampRowLimit(limit)

	const q = `
		SELECT o.name, 'event', e.event_name FROM events e JOIN objects o ON o.run_id = e.run_id AND o.id = e.object_id WHERE e.run_id = ?
		UNION ALL
		SELECT o.name, 'function', f.function_name FROM functions f JOIN objects o ON o.run_id = f.run_id AND o.id = f.object_id WHERE f.run_id = ?
		ORDER BY 1, 2, 3
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, string(runID), string(runID), limit)
	if err != nil {
		return nil, fmt.Errorf("query: event_function_map: %w", err)
	}
	defer rows.Close()

	var out []EventFunctionRow
	for rows.Next() {
		var r EventFunctionRow
		if err := rows.Scan(&r.ObjectName, &r.Kind, &r.Name); err != nil {
			return nil, fmt.Errorf("query: event_function_map: scanning row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TableImpactRow is one row of table_impact: an Object that reads or writes
// a named table, with the relation's confidence.
type TableImpactRow struct {
	ObjectName string
	RWType     ir.RWType
	Confidence float64
}

func (s *Surface) TableImpact(ctx context.Context, runID ir.RunID, tableName string, limit int) ([]TableImpactRow, error) {
	limit = s.cfg.ClampRowLimit(limit)

	const q = `
		SELECT src.name,
		       CASE r.relation_type WHEN 'reads_table' THEN 'READ' ELSE 'WRITE' END,
		       r.confidence
		FROM relations r
		JOIN objects src ON src.run_id = r.run_id AND src.id = r.src_id
		JOIN objects dst ON dst.run_id = r.run_id AND dst.id = r.dst_id
		WHERE r.run_id = ? AND dst.type = 'Table' AND dst.name = ?
		  AND r.relation_type IN ('reads_table', 'writes_table')
		ORDER BY src.name
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, string(runID), tableName, limit)
	if err != nil {
		return nil, fmt.Errorf("query: table_impact: %w", err)
	}
	defer rows.Close()

	var out []TableImpactRow
	for rows.Next() {
		var r TableImpactRow
		if err := rows.Scan(&r.ObjectName, &r.RWType, &r.Confidence); err != nil {
			return nil, fmt.Errorf("query: table_impact: scanning row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CallGraphEdge is one row of screen_call_graph: a directed edge between
// two Objects of any relation type that models calling behavior.
type CallGraphEdge struct {
	SrcName      string
	DstName      string
	RelationType ir.RelationType
	Confidence   float64
}

func (s *Surface) ScreenCallGraph(ctx context.Context, runID ir.RunID, rootObjectName string, limit int) ([]CallGraphEdge, error) {
	limit = s.cfg.ClampRowLimit(limit)

	const q = `
		SELECT src.name, dst.name, r.relation_type, r.confidence
		FROM relations r
		JOIN objects src ON src.run_id = r.run_id AND src.id = r.src_id
		JOIN objects dst ON dst.run_id = r.run_id AND dst.id = r.dst_id
		WHERE r.run_id = ? AND r.relation_type IN ('calls', 'opens', 'triggers_event', 'uses_dw')
		  AND (? = '' OR src.name = ? OR dst.name = ?)
		ORDER BY src.name, dst.name
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, string(runID), rootObjectName, rootObjectName, rootObjectName, limit)
	if err != nil {
		return nil, fmt.Errorf("query: screen_call_graph: %w", err)
	}
	defer rows.Close()

	var out []CallGraphEdge
	for rows.Next() {
		var e CallGraphEdge
		if err := rows.Scan(&e.SrcName, &e.DstName, &e.RelationType, &e.Confidence); err != nil {
			return nil, fmt.Errorf("query: screen_call_graph: scanning row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UnusedObjectCandidate is one row of unused_object_candidates: a Screen,
// UserObject, Menu, or DataGrid that declares no function and is never the
// dst of any relation — i.e.
// nothing in the run opens it, calls into it, or triggers one of its
// events. A candidate, not a certainty: dynamic dispatch can make a real
// caller invisible to static analysis.
type UnusedObjectCandidate struct {
	ObjectName string
	ObjectType ir.ObjectType
}

func (s *Surface) UnusedObjectCandidates(ctx context.Context, runID ir.RunID, limit int) ([]UnusedObjectCandidate, error) {
	limit = s.cfg.ClampRowLimit(limit)

	const q = `
		SELECT o.name, o.type
		FROM objects o
		WHERE o.run_id = ? AND o.type IN ('Screen', 'UserObject', 'Menu', 'DataGrid')
		  AND NOT EXISTS (
		      SELECT 1 FROM relations r WHERE r.run_id = o.run_id AND r.dst_id = o.id
		  )
		  AND NOT EXISTS (
		      SELECT 1 FROM functions f WHERE f.run_id = o.run_id AND f.object_id = o.id
		  )
		ORDER BY o.name
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, string(runID), limit)
	if err != nil {
		return nil, fmt.Errorf("query: unused_object_candidates: %w", err)
	}
	defer rows.Close()

	var out []UnusedObjectCandidate
	for rows.Next() {
		var r UnusedObjectCandidate
		if err := rows.Scan(&r.ObjectName, &r.ObjectType); err != nil {
			return nil, fmt.Errorf("query: unused_object_candidates: scanning row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DataWindowRow is one row of data_windows.
type DataWindowRow struct {
	ObjectName string
	DWName     string
	BaseTable  string
	SqlSelect  string
}

func (s *Surface) DataWindows(ctx context.Context, runID ir.RunID, limit int) ([]DataWindowRow, error) {
	limit = s.cfg.ClampRowLimit(limit)

	const q = `
		SELECT o.name, d.dw_name, d.base_table, d.sql_select
		FROM data_windows d
		JOIN objects o ON o.run_id = d.run_id AND o.id = d.object_id
		WHERE d.run_id = ?
		ORDER BY o.name
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, string(runID), limit)
	if err != nil {
		return nil, fmt.Errorf("query: data_windows: %w", err)
	}
	defer rows.Close()

	var out []DataWindowRow
	for rows.Next() {
		var r DataWindowRow
		if err := rows.Scan(&r.ObjectName, &r.DWName, &r.BaseTable, &r.SqlSelect); err != nil {
			return nil, fmt.Errorf("query: data_windows: scanning row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunRow is one row of runs.
type RunRow struct {
	RunID         ir.RunID
	StartedAt     int64
	FinishedAt    int64
	Status        ir.RunStatus
	SourceVersion string
}

func (s *Surface) Runs(ctx context.Context, limit int) ([]RunRow, error) {
	limit = s.cfg.ClampRowLimit(limit)

	const q = `SELECT run_id, started_at, finished_at, status, source_version FROM runs ORDER BY started_at DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query: runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.RunID, &r.StartedAt, &r.FinishedAt, &r.Status, &r.SourceVersion); err != nil {
			return nil, fmt.Errorf("query: runs: scanning row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Package store persists one run's Objects, Relations, SqlStatements,
// SqlTables, and DataWindows atomically to an embedded database. A run is
// written in exactly one transaction: readers never observe a
// partially-written run.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/donseok/pbtm-project/analyzer"
	"github.com/donseok/pbtm-project/ir"
)

// Store wraps the embedded database handle used for both writes (Persist)
// and reads (the query package).
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite file at path and applies the
// schema. The returned Store is safe for concurrent reads; writes are
// serialized by Persist's single transaction per run.
//
// foreign_keys is turned on via the connection DSN (modernc.org/sqlite
// leaves it off by default) rather than a one-off PRAGMA Exec, so that
// every pooled connection enforces the objects/events/functions/
// data_windows/sql_statements/sql_tables/relations REFERENCES the schema
// declares, not just whichever connection happened to run Open.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", withForeignKeysPragma(path))
	if err != nil {
		return nil, fmt.Errorf("store: opening %q: %w", path, err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

func withForeignKeysPragma(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(ON)"
}

// DB exposes the underlying handle to the query package.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

// Persist writes run plus the full analyzer.Result in one transaction, in
// dependency order (runs -> objects -> events/functions/data_windows ->
// sql_statements -> sql_tables -> relations), and rejects the whole run on
// the first invariant violation or constraint failure.
func (s *Store) Persist(ctx context.Context, run ir.Run, result analyzer.Result) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, status, source_version) VALUES (?, ?, ?, ?, ?)`,
		string(run.RunID), run.StartedAt, run.FinishedAt, string(run.Status), run.SourceVersion,
	); err != nil {
		return fmt.Errorf("store: inserting run: %w", err)
	}

	for _, o := range result.Objects {
		if !o.Type.Valid() {
			return fmt.Errorf("store: object %q: invalid type %q", o.Name, o.Type)
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO objects (id, run_id, type, name, module, source_path) VALUES (?, ?, ?, ?, ?, ?)`,
			o.ID, string(run.RunID), string(o.Type), o.Name, o.Module, o.SourcePath,
		); err != nil {
			return fmt.Errorf("store: inserting object %q: %w", o.Name, err)
		}
	}

	for _, e := range result.Events {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO events (id, run_id, object_id, event_name, script_ref) VALUES (?, ?, ?, ?, ?)`,
			e.ID, string(run.RunID), e.ObjectID, e.EventName, e.ScriptRef,
		); err != nil {
			return fmt.Errorf("store: inserting event %q: %w", e.EventName, err)
		}
	}

	for _, f := range result.Functions {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO functions (id, run_id, object_id, function_name, signature) VALUES (?, ?, ?, ?, ?)`,
			f.ID, string(run.RunID), f.ObjectID, f.FunctionName, f.Signature,
		); err != nil {
			return fmt.Errorf("store: inserting function %q: %w", f.FunctionName, err)
		}
	}

	for _, d := range result.DataWindows {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO data_windows (id, run_id, object_id, dw_name, base_table, sql_select) VALUES (?, ?, ?, ?, ?, ?)`,
			d.ID, string(run.RunID), d.ObjectID, d.DWName, d.BaseTable, d.SqlSelect,
		); err != nil {
			return fmt.Errorf("store: inserting data_window %q: %w", d.DWName, err)
		}
	}

	for _, st := range result.SqlStatements {
		if !st.SqlKind.Valid() {
			return fmt.Errorf("store: sql_statement %d: invalid sql_kind %q", st.ID, st.SqlKind)
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO sql_statements (id, run_id, owner_id, sql_kind, sql_text_norm) VALUES (?, ?, ?, ?, ?)`,
			st.ID, string(run.RunID), st.OwnerID, string(st.SqlKind), st.SqlTextNorm,
		); err != nil {
			return fmt.Errorf("store: inserting sql_statement %d: %w", st.ID, err)
		}
	}

	for _, t := range result.SqlTables {
		if !t.RWType.Valid() {
			return fmt.Errorf("store: sql_table %d: invalid rw_type %q", t.ID, t.RWType)
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO sql_tables (id, run_id, sql_id, table_name, rw_type) VALUES (?, ?, ?, ?, ?)`,
			t.ID, string(run.RunID), t.SqlID, t.TableName, string(t.RWType),
		); err != nil {
			return fmt.Errorf("store: inserting sql_table %d: %w", t.ID, err)
		}
	}

	for _, r := range result.Relations {
		if verr := r.Validate(); verr != nil {
			return fmt.Errorf("store: relation %d: %w", r.ID, verr)
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO relations (id, run_id, src_id, dst_id, relation_type, confidence) VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, string(run.RunID), r.SrcID, r.DstID, string(r.RelationType), r.Confidence,
		); err != nil {
			return fmt.Errorf("store: inserting relation %d: %w", r.ID, err)
		}
	}

	return nil
}

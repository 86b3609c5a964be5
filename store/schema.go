package store

// schemaDDL is applied once per opened database, idempotently (CREATE TABLE
// IF NOT EXISTS): every run shares one physical file, scoped by run_id.
// CHECK constraints enforce the enum and range invariants on every row;
// application code never has to re-validate them on read.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS runs (
	run_id         TEXT PRIMARY KEY,
	started_at     INTEGER NOT NULL,
	finished_at    INTEGER NOT NULL DEFAULT 0,
	status         TEXT NOT NULL CHECK (status IN ('running','ok','partial','failed')),
	source_version TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS objects (
	id          INTEGER NOT NULL,
	run_id      TEXT NOT NULL REFERENCES runs(run_id),
	type        TEXT NOT NULL CHECK (type IN ('Screen','UserObject','Menu','DataGrid','Function','Script','Library','Sql','Table')),
	name        TEXT NOT NULL,
	module      TEXT NOT NULL DEFAULT '',
	source_path TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, id),
	UNIQUE (run_id, type, name)
);

CREATE TABLE IF NOT EXISTS events (
	id         INTEGER NOT NULL,
	run_id     TEXT NOT NULL REFERENCES runs(run_id),
	object_id  INTEGER NOT NULL,
	event_name TEXT NOT NULL,
	script_ref TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, id),
	FOREIGN KEY (run_id, object_id) REFERENCES objects(run_id, id)
);

CREATE TABLE IF NOT EXISTS functions (
	id            INTEGER NOT NULL,
	run_id        TEXT NOT NULL REFERENCES runs(run_id),
	object_id     INTEGER NOT NULL,
	function_name TEXT NOT NULL,
	signature     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, id),
	FOREIGN KEY (run_id, object_id) REFERENCES objects(run_id, id)
);

CREATE TABLE IF NOT EXISTS data_windows (
	id         INTEGER NOT NULL,
	run_id     TEXT NOT NULL REFERENCES runs(run_id),
	object_id  INTEGER NOT NULL,
	dw_name    TEXT NOT NULL,
	base_table TEXT NOT NULL DEFAULT '',
	sql_select TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, id),
	UNIQUE (run_id, object_id, dw_name),
	FOREIGN KEY (run_id, object_id) REFERENCES objects(run_id, id)
);

CREATE TABLE IF NOT EXISTS sql_statements (
	id            INTEGER NOT NULL,
	run_id        TEXT NOT NULL REFERENCES runs(run_id),
	owner_id      INTEGER NOT NULL,
	sql_kind      TEXT NOT NULL CHECK (sql_kind IN ('SELECT','INSERT','UPDATE','DELETE','MERGE','OTHER')),
	sql_text_norm TEXT NOT NULL,
	PRIMARY KEY (run_id, id),
	FOREIGN KEY (run_id, owner_id) REFERENCES objects(run_id, id)
);

CREATE TABLE IF NOT EXISTS sql_tables (
	id         INTEGER NOT NULL,
	run_id     TEXT NOT NULL REFERENCES runs(run_id),
	sql_id     INTEGER NOT NULL,
	table_name TEXT NOT NULL,
	rw_type    TEXT NOT NULL CHECK (rw_type IN ('READ','WRITE')),
	PRIMARY KEY (run_id, id),
	FOREIGN KEY (run_id, sql_id) REFERENCES sql_statements(run_id, id)
);

CREATE TABLE IF NOT EXISTS relations (
	id            INTEGER NOT NULL,
	run_id        TEXT NOT NULL REFERENCES runs(run_id),
	src_id        INTEGER NOT NULL,
	dst_id        INTEGER NOT NULL,
	relation_type TEXT NOT NULL CHECK (relation_type IN ('calls','opens','uses_dw','reads_table','writes_table','triggers_event')),
	confidence    REAL NOT NULL CHECK (confidence >= 0.0 AND confidence <= 1.0),
	PRIMARY KEY (run_id, id),
	FOREIGN KEY (run_id, src_id) REFERENCES objects(run_id, id),
	FOREIGN KEY (run_id, dst_id) REFERENCES objects(run_id, id)
);

CREATE INDEX IF NOT EXISTS idx_objects_type_name ON objects(run_id, type, name);
CREATE INDEX IF NOT EXISTS idx_relations_src ON relations(run_id, src_id, relation_type);
CREATE INDEX IF NOT EXISTS idx_relations_dst ON relations(run_id, dst_id, relation_type);
CREATE INDEX IF NOT EXISTS idx_sql_tables_table ON sql_tables(run_id, table_name);
CREATE INDEX IF NOT EXISTS idx_events_object ON events(run_id, object_id);
CREATE INDEX IF NOT EXISTS idx_functions_object ON functions(run_id, object_id);
`

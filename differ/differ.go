// Package differ compares two runs' persisted IR by business key rather than
// surrogate ID: two runs of the same corpus assign unrelated surrogate IDs,
// so an ID-keyed diff would report every record as both removed and added.
package differ

import (
	"strconv"

	"github.com/donseok/pbtm-project/ir"
)

// Change is one field-level difference between an old and new record that
// share the same business key.
type Change struct {
	Key   string
	Field string
	Old   string
	New   string
}

// SetDiff is the {added, removed, changed} shape every diffed collection
// produces.
type SetDiff[T any] struct {
	Added   []T
	Removed []T
	Changed []Change
}

// ObjectSnapshot is the subset of a run's records the differ needs; Objects
// are keyed by (type, name) via ir.Object.Key().
type ObjectSnapshot struct {
	Objects       []ir.Object
	Relations     []ir.Relation
	SqlStatements []ir.SqlStatement
	DataWindows   []ir.DataWindow
}

// RunDiff is the full diff between two runs' snapshots.
type RunDiff struct {
	Objects       SetDiff[ir.Object]
	Relations     SetDiff[ir.Relation]
	SqlStatements SetDiff[ir.SqlStatement]
	DataWindows   SetDiff[ir.DataWindow]
}

// relationKey, sqlKey, and dataWindowKey are synthetic business keys:
// Relations, SqlStatements, and DataWindows have no run-independent name of
// their own, so their key is built from the business keys of the records
// they connect. In particular a DataWindow's key must not involve its
// surrogate ObjectID — that id is allocated per run in sorted-path order,
// so it shifts whenever any object is added or removed elsewhere in the
// run, which would make every unchanged DataWindow look both removed and
// added. The owning object's name stands in for it instead.
func relationKey(objByID map[ir.ObjectID]ir.Object, r ir.Relation) string {
	return objByID[r.SrcID].Key() + "\x00" + objByID[r.DstID].Key() + "\x00" + string(r.RelationType)
}

func sqlKey(objByID map[ir.ObjectID]ir.Object, st ir.SqlStatement) string {
	return objByID[st.OwnerID].Key() + "\x00" + st.SqlTextNorm
}

func dataWindowKey(objByID map[ir.ObjectID]ir.Object, dw ir.DataWindow) string {
	return objByID[dw.ObjectID].Name + "\x00" + dw.DWName + "\x00" + dw.BaseTable
}

// Diff compares an older and a newer snapshot, reporting added/removed
// records by business key and changed fields (Object source_path, Relation
// confidence, DataWindow sql_select) for keys present in both.
func Diff(older, newer ObjectSnapshot) RunDiff {
	oldByID := indexByID(older.Objects)
	newByID := indexByID(newer.Objects)

	return RunDiff{
		Objects:       diffObjects(older.Objects, newer.Objects),
		Relations:     diffRelations(older.Relations, newer.Relations, oldByID, newByID),
		SqlStatements: diffSqlStatements(older.SqlStatements, newer.SqlStatements, oldByID, newByID),
		DataWindows:   diffDataWindows(older.DataWindows, newer.DataWindows, oldByID, newByID),
	}
}

func indexByID(objs []ir.Object) map[ir.ObjectID]ir.Object {
	m := make(map[ir.ObjectID]ir.Object, len(objs))
	for _, o := range objs {
		m[o.ID] = o
	}
	return m
}

func diffObjects(older, newer []ir.Object) SetDiff[ir.Object] {
	oldByKey := make(map[string]ir.Object, len(older))
	for _, o := range older {
		oldByKey[o.Key()] = o
	}
	newByKey := make(map[string]ir.Object, len(newer))
	for _, o := range newer {
		newByKey[o.Key()] = o
	}

	var d SetDiff[ir.Object]
	for k, o := range newByKey {
		if _, ok := oldByKey[k]; !ok {
			d.Added = append(d.Added, o)
		}
	}
	for k, o := range oldByKey {
		if _, ok := newByKey[k]; !ok {
			d.Removed = append(d.Removed, o)
		}
	}
	for k, newObj := range newByKey {
		if oldObj, ok := oldByKey[k]; ok && oldObj.SourcePath != newObj.SourcePath {
			d.Changed = append(d.Changed, Change{Key: k, Field: "source_path", Old: oldObj.SourcePath, New: newObj.SourcePath})
		}
	}
	return d
}

func diffRelations(older, newer []ir.Relation, oldByID, newByID map[ir.ObjectID]ir.Object) SetDiff[ir.Relation] {
	oldByKey := make(map[string]ir.Relation, len(older))
	for _, r := range older {
		oldByKey[relationKey(oldByID, r)] = r
	}
	newByKey := make(map[string]ir.Relation, len(newer))
	for _, r := range newer {
		newByKey[relationKey(newByID, r)] = r
	}

	var d SetDiff[ir.Relation]
	for k, r := range newByKey {
		if _, ok := oldByKey[k]; !ok {
			d.Added = append(d.Added, r)
		}
	}
	for k, r := range oldByKey {
		if _, ok := newByKey[k]; !ok {
			d.Removed = append(d.Removed, r)
		}
	}
	for k, newRel := range newByKey {
		if oldRel, ok := oldByKey[k]; ok && oldRel.Confidence != newRel.Confidence {
			d.Changed = append(d.Changed, Change{
				Key: k, Field: "confidence",
				Old: formatConfidence(oldRel.Confidence),
				New: formatConfidence(newRel.Confidence),
			})
		}
	}
	return d
}

func diffSqlStatements(older, newer []ir.SqlStatement, oldByID, newByID map[ir.ObjectID]ir.Object) SetDiff[ir.SqlStatement] {
	oldByKey := make(map[string]ir.SqlStatement, len(older))
	for _, s := range older {
		oldByKey[sqlKey(oldByID, s)] = s
	}
	newByKey := make(map[string]ir.SqlStatement, len(newer))
	for _, s := range newer {
		newByKey[sqlKey(newByID, s)] = s
	}

	var d SetDiff[ir.SqlStatement]
	for k, s := range newByKey {
		if _, ok := oldByKey[k]; !ok {
			d.Added = append(d.Added, s)
		}
	}
	for k, s := range oldByKey {
		if _, ok := newByKey[k]; !ok {
			d.Removed = append(d.Removed, s)
		}
	}
	return d
}

func diffDataWindows(older, newer []ir.DataWindow, oldByID, newByID map[ir.ObjectID]ir.Object) SetDiff[ir.DataWindow] {
	oldByKey := make(map[string]ir.DataWindow, len(older))
	for _, d := range older {
		oldByKey[dataWindowKey(oldByID, d)] = d
	}
	newByKey := make(map[string]ir.DataWindow, len(newer))
	for _, d := range newer {
		newByKey[dataWindowKey(newByID, d)] = d
	}

	var d SetDiff[ir.DataWindow]
	for k, dw := range newByKey {
		if _, ok := oldByKey[k]; !ok {
			d.Added = append(d.Added, dw)
		}
	}
	for k, dw := range oldByKey {
		if _, ok := newByKey[k]; !ok {
			d.Removed = append(d.Removed, dw)
		}
	}
	for k, newDW := range newByKey {
		if oldDW, ok := oldByKey[k]; ok && oldDW.SqlSelect != newDW.SqlSelect {
			d.Changed = append(d.Changed, Change{Key: k, Field: "sql_select", Old: oldDW.SqlSelect, New: newDW.SqlSelect})
		}
	}
	return d
}

func formatConfidence(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64)
}

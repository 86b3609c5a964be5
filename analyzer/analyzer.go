// Package analyzer walks a run's parsed files and data-grid descriptors and
// derives the typed relations, SQL statements, and table references. It is
// single-tasked: the run's global function/object/event directories must be
// built from the union of every parsed file before any call site can be
// resolved.
package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/donseok/pbtm-project/config"
	"github.com/donseok/pbtm-project/descriptor"
	"github.com/donseok/pbtm-project/ir"
	"github.com/donseok/pbtm-project/parser"
	"github.com/donseok/pbtm-project/sqlnorm"
	"github.com/donseok/pbtm-project/util"
)

// UnresolvedCallee is a diagnostic-only record: a CallSite whose callee
// could not be matched in the run-wide directory. No Relation is emitted
// for it.
type UnresolvedCallee struct {
	CallerObject string
	CalleeName   string
	Kind         parser.CallKind
}

// Result is everything the analyzer derives for one run, still carrying
// run-scoped surrogate IDs but no run_id field yet — the caller (the
// orchestrator) stamps run_id when handing this to the store.
type Result struct {
	Objects       []ir.Object
	Events        []ir.Event
	Functions     []ir.Function
	Relations     []ir.Relation
	SqlStatements []ir.SqlStatement
	SqlTables     []ir.SqlTable
	DataWindows   []ir.DataWindow
	Unresolved    []UnresolvedCallee
}

// idAllocator hands out sequential surrogate IDs, deterministic for a given
// processing order.
type idAllocator struct{ next int64 }

func (a *idAllocator) next1() int64 { a.next++; return a.next }

// builder accumulates a Result while walking the run's input.
type builder struct {
	cfg config.Config

	objID   idAllocator
	evID    idAllocator
	fnID    idAllocator
	relID   idAllocator
	sqlID   idAllocator
	stID    idAllocator
	dwID    idAllocator

	objects     []ir.Object
	objectByKey map[string]ir.ObjectID // (type,name) -> id, for exact lookups and to avoid duplicates

	events    []ir.Event
	functions []ir.Function

	sqlStatements []ir.SqlStatement
	sqlTables     []ir.SqlTable
	dataWindows   []ir.DataWindow

	// relation tie-breaking: (src,dst,type) -> best confidence seen
	relBest map[string]ir.Relation

	objectDirectory   map[string][]ir.ObjectID // screens/datagrids/userobjects/menus, by lower(name)
	functionDirectory map[string][]ir.ObjectID // by lower(function_name)
	eventDirectory    map[string][]ir.ObjectID // by lower(event_name)

	tableObjects map[string]ir.ObjectID // bare table name -> Table object id

	unresolved []UnresolvedCallee
}

// Analyze derives the full Result for one run from its parsed files and
// data-grid descriptors. Order of files is not significant to the result:
// the directories are built from the union of all files before any
// relation is resolved, and relation dedup is key-based.
func Analyze(cfg config.Config, files []parser.ParsedFile, dws []descriptor.ParsedDataWindow) Result {
	b := &builder{
		cfg:               cfg,
		objectByKey:       map[string]ir.ObjectID{},
		relBest:           map[string]ir.Relation{},
		objectDirectory:   map[string][]ir.ObjectID{},
		functionDirectory: map[string][]ir.ObjectID{},
		eventDirectory:    map[string][]ir.ObjectID{},
		tableObjects:      map[string]ir.ObjectID{},
	}

	// Process files and descriptors in name order so surrogate IDs (and
	// therefore every test fixture and golden file) are reproducible.
	sortedFiles := append([]parser.ParsedFile(nil), files...)
	sort.Slice(sortedFiles, func(i, j int) bool { return sortedFiles[i].SourcePath < sortedFiles[j].SourcePath })

	sortedDWs := append([]descriptor.ParsedDataWindow(nil), dws...)
	sort.Slice(sortedDWs, func(i, j int) bool { return sortedDWs[i].ObjectName < sortedDWs[j].ObjectName })

	fileObjectID := make(map[string]ir.ObjectID, len(sortedFiles)) // by SourcePath
	for _, pf := range sortedFiles {
		id := b.internObject(pf.Type, pf.Name, pf.SourcePath)
		fileObjectID[pf.SourcePath] = id
	}

	dwObjectID := make(map[string]ir.ObjectID, len(sortedDWs))
	for _, pdw := range sortedDWs {
		id := b.internObject(ir.DataGrid, pdw.ObjectName, "")
		dwObjectID[pdw.ObjectName] = id
	}

	// Pass 1: build the global directories from every file's declared
	// events and functions before resolving any call site.
	for _, pf := range sortedFiles {
		ownerID := fileObjectID[pf.SourcePath]
		for _, ev := range pf.Events {
			b.addEvent(ownerID, ev.Name)
		}
		for _, fn := range pf.Functions {
			b.addFunction(ownerID, fn.Name, fn.Signature)
		}
	}
	// Pass 2: embedded SQL -> SqlStatement/SqlTable/reads|writes_table relations.
	for _, pf := range sortedFiles {
		ownerID := fileObjectID[pf.SourcePath]
		for _, es := range pf.EmbeddedSql {
			b.addSqlAndTableRelations(ownerID, es.StatementText)
		}
	}

	// Pass 3: data-grid descriptors' own SQL pipeline.
	for _, pdw := range sortedDWs {
		ownerID := dwObjectID[pdw.ObjectName]
		if pdw.SqlSelect != "" {
			b.addSqlAndTableRelations(ownerID, pdw.SqlSelect)
		}
		if pdw.BaseTable != "" {
			b.addDescriptorUpdateTarget(ownerID, pdw.BaseTable)
		}
		b.dataWindows = append(b.dataWindows, ir.DataWindow{
			ID:        ir.DataWindowID(b.dwID.next1()),
			ObjectID:  ownerID,
			DWName:    pdw.DWName,
			BaseTable: pdw.BaseTable,
			SqlSelect: pdw.SqlSelect,
		})
	}

	// Pass 4: resolve call sites against the now-complete directories.
	for _, pf := range sortedFiles {
		ownerID := fileObjectID[pf.SourcePath]
		for _, cs := range pf.CallSites {
			b.resolveCallSite(ownerID, cs)
		}
	}

	return b.result()
}

func (b *builder) internObject(t ir.ObjectType, name, sourcePath string) ir.ObjectID {
	key := string(t) + "\x00" + name
	if id, ok := b.objectByKey[key]; ok {
		return id
	}
	id := ir.ObjectID(b.objID.next1())
	b.objects = append(b.objects, ir.Object{
		ID:         id,
		Type:       t,
		Name:       name,
		SourcePath: sourcePath,
	})
	b.objectByKey[key] = id

	switch t {
	case ir.Screen, ir.UserObject, ir.Menu, ir.DataGrid:
		lname := strings.ToLower(name)
		b.objectDirectory[lname] = append(b.objectDirectory[lname], id)
	}
	return id
}

func (b *builder) addEvent(ownerID ir.ObjectID, name string) {
	id := ir.EventID(b.evID.next1())
	b.events = append(b.events, ir.Event{ID: id, ObjectID: ownerID, EventName: name})
	lname := strings.ToLower(name)
	b.eventDirectory[lname] = append(b.eventDirectory[lname], ownerID)
}

func (b *builder) addFunction(ownerID ir.ObjectID, name, signature string) {
	id := ir.FunctionID(b.fnID.next1())
	b.functions = append(b.functions, ir.Function{ID: id, ObjectID: ownerID, FunctionName: name, Signature: signature})
	lname := strings.ToLower(name)
	b.functionDirectory[lname] = append(b.functionDirectory[lname], ownerID)
}

func (b *builder) tableObjectID(name string) ir.ObjectID {
	if id, ok := b.tableObjects[name]; ok {
		return id
	}
	id := b.internObject(ir.Table, name, "")
	b.tableObjects[name] = id
	return id
}

func (b *builder) addSqlAndTableRelations(ownerID ir.ObjectID, rawSQL string) {
	normalized := sqlnorm.Normalize(rawSQL)
	kind := sqlnorm.Kind(normalized)

	sqlID := ir.SqlID(b.sqlID.next1())
	b.sqlStatements = append(b.sqlStatements, ir.SqlStatement{
		ID:          sqlID,
		OwnerID:     ownerID,
		SqlKind:     kind,
		SqlTextNorm: normalized,
	})

	refs := sqlnorm.ExtractTables(kind, normalized, b.cfg.TableNameExceptions)
	confidence := b.cfg.DefaultConfidence["table-io"]
	for _, ref := range refs {
		tableID := b.tableObjectID(ref.TableName)
		b.sqlTables = append(b.sqlTables, ir.SqlTable{
			ID:        ir.SqlTableID(b.stID.next1()),
			SqlID:     sqlID,
			TableName: ref.TableName,
			RWType:    ref.RWType,
		})

		relType := ir.ReadsTable
		if ref.RWType == ir.Write {
			relType = ir.WritesTable
		}
		b.addRelation(ownerID, tableID, relType, confidence)
	}
}

// addDescriptorUpdateTarget synthesizes the SqlStatement/SqlTable pair that
// justifies the writes_table relation a descriptor's update= attribute
// implies: a writes_table relation requires a same-run SqlStatement with a
// matching WRITE row, but there is no literal UPDATE text in a descriptor —
// only the base table name — so one is synthesized in the shape DataWindow
// update= actually produces at runtime.
func (b *builder) addDescriptorUpdateTarget(ownerID ir.ObjectID, baseTable string) {
	name := strings.ToLower(baseTable)
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	for _, exc := range b.cfg.TableNameExceptions {
		if strings.EqualFold(exc, name) {
			return
		}
	}

	sqlID := ir.SqlID(b.sqlID.next1())
	normalized := fmt.Sprintf("UPDATE %s SET :? -- derived from descriptor update=", strings.ToUpper(name))
	b.sqlStatements = append(b.sqlStatements, ir.SqlStatement{
		ID:          sqlID,
		OwnerID:     ownerID,
		SqlKind:     ir.KindUpdate,
		SqlTextNorm: normalized,
	})

	tableID := b.tableObjectID(name)
	b.sqlTables = append(b.sqlTables, ir.SqlTable{
		ID:        ir.SqlTableID(b.stID.next1()),
		SqlID:     sqlID,
		TableName: name,
		RWType:    ir.Write,
	})

	b.addRelation(ownerID, tableID, ir.WritesTable, b.cfg.DefaultConfidence["table-io"])
}

func (b *builder) addRelation(src, dst ir.ObjectID, relType ir.RelationType, confidence float64) {
	key := fmt.Sprintf("%d\x00%d\x00%s", src, dst, relType)
	if existing, ok := b.relBest[key]; ok {
		if confidence > existing.Confidence {
			existing.Confidence = confidence
			b.relBest[key] = existing
		}
		return
	}
	b.relBest[key] = ir.Relation{
		ID:           ir.RelationID(b.relID.next1()),
		SrcID:        src,
		DstID:        dst,
		RelationType: relType,
		Confidence:   confidence,
	}
}

func (b *builder) result() Result {
	// Range over relBest in sorted-key order rather than Go's randomized map
	// order, so relation emission is reproducible across runs independent of
	// the final ID-based sort below.
	relations := make([]ir.Relation, 0, len(b.relBest))
	for _, r := range util.SortedKeys(b.relBest) {
		relations = append(relations, r)
	}
	sort.Slice(relations, func(i, j int) bool { return relations[i].ID < relations[j].ID })

	return Result{
		Objects:       b.objects,
		Events:        b.events,
		Functions:     b.functions,
		Relations:     relations,
		SqlStatements: b.sqlStatements,
		SqlTables:     b.sqlTables,
		DataWindows:   b.dataWindows,
		Unresolved:    b.unresolved,
	}
}

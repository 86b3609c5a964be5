package analyzer

import (
	"strings"

	"github.com/donseok/pbtm-project/ir"
	"github.com/donseok/pbtm-project/parser"
)

// resolveCallSite matches a CallSite against the run-wide directory
// appropriate to its Kind, following a three-step resolution rule: exact
// match, ambiguity confidence-splitting, or an unresolved diagnostic.
func (b *builder) resolveCallSite(ownerID ir.ObjectID, cs parser.CallSite) {
	lname := strings.ToLower(cs.CalleeName)

	var candidates []ir.ObjectID
	var relType ir.RelationType
	var confidenceKey string

	switch cs.Kind {
	case parser.FunctionCall:
		candidates = b.functionDirectory[lname]
		relType = ir.Calls
		confidenceKey = "function-call"

	case parser.ScreenOpen:
		candidates = b.objectDirectory[lname]
		relType = ir.Opens
		confidenceKey = "screen-open"

	case parser.EventTrigger:
		candidates = b.eventDirectory[lname]
		relType = ir.TriggersEvent
		confidenceKey = "event-trigger"

	case parser.DataGridUse:
		candidates = filterByType(b.objectsByID(b.objectDirectory[lname]), ir.DataGrid)
		relType = ir.UsesDW
		confidenceKey = "data-grid-use"

	default:
		return
	}

	if len(candidates) == 0 {
		b.unresolved = append(b.unresolved, UnresolvedCallee{
			CallerObject: b.nameOf(ownerID),
			CalleeName:   cs.CalleeName,
			Kind:         cs.Kind,
		})
		return
	}

	confidence := b.cfg.DefaultConfidence[confidenceKey]
	if len(candidates) > 1 {
		confidence = confidence / float64(len(candidates))
	}
	for _, dst := range candidates {
		// A self-reference (a recursive function, an object re-opening
		// itself) is still a real edge and is kept.
		b.addRelation(ownerID, dst, relType, confidence)
	}
}

// objectsByID resolves a slice of ObjectIDs back to their full Object
// records so data-grid-use candidates can be filtered by type: the object
// directory is shared by screens, user-objects, menus, and data grids, but
// a data-grid-use call site can only ever resolve to a DataGrid.
func (b *builder) objectsByID(ids []ir.ObjectID) []ir.Object {
	if len(ids) == 0 {
		return nil
	}
	byID := make(map[ir.ObjectID]ir.Object, len(b.objects))
	for _, o := range b.objects {
		byID[o.ID] = o
	}
	out := make([]ir.Object, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}
	return out
}

func filterByType(objs []ir.Object, t ir.ObjectType) []ir.ObjectID {
	var out []ir.ObjectID
	for _, o := range objs {
		if o.Type == t {
			out = append(out, o.ID)
		}
	}
	return out
}

func (b *builder) nameOf(id ir.ObjectID) string {
	for _, o := range b.objects {
		if o.ID == id {
			return o.Name
		}
	}
	return ""
}

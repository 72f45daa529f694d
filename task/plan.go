package task

import (
	"github.com/cisco-open/sastre-engine/graph"
	"github.com/cisco-open/sastre-engine/model"
)

// PlanAction is the disposition restore assigns one source item during
// push-plan computation (spec.md §4.E.2 step 3-4).
type PlanAction int

const (
	ActionSkip PlanAction = iota
	ActionUpdateIfDifferent
	ActionCreate
	ActionCreateAsNonDefault
)

// PlanEntry is one source item's push-plan row.
type PlanEntry struct {
	Key    model.Key
	Item   *model.Item
	Action PlanAction

	// TargetID is the existing target item's id, set when Action is
	// ActionSkip or ActionUpdateIfDifferent (the (kind,name) match found
	// on the target controller).
	TargetID string
}

// Plan is the ordered push plan restore executes: entries walked in
// topo_kinds/topo_items order, referenced-first (spec.md §4.E.2 step 3).
//
// The main/candidate split in the teacher's datastore.go inspired keeping
// the plan as one forward-only accumulating structure computed before any
// write happens, rather than interleaving planning and execution.
// Plan's IDMap is a graph.MapIDMapping (not a plain map alias) so it can
// be passed directly to graph.Rewrite, which takes a graph.IDMapping.
type Plan struct {
	Entries []PlanEntry
	IDMap   graph.MapIDMapping
}

func newPlan() *Plan {
	return &Plan{IDMap: graph.MapIDMapping{}}
}

func (p *Plan) add(e PlanEntry) { p.Entries = append(p.Entries, e) }

func (p *Plan) mapSourceToTarget(kind, srcID, tgtID string) {
	if srcID == "" {
		return
	}
	p.IDMap.Set(kind, srcID, tgtID)
}

// targetIndexByName builds a (kind,name) -> IndexEntry lookup from a
// target controller index, the key restore uses for identity matching
// (spec.md §3 "Identity & mapping").
func targetIndexByName(idx model.Index) map[string]model.IndexEntry {
	out := make(map[string]model.IndexEntry, len(idx.Entries))
	for _, e := range idx.Entries {
		out[e.Name] = e
	}
	return out
}

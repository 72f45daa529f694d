// Package graph is the Reference Graph (spec.md §4.D): an in-memory graph
// of items and their cross-references, topological ordering, and
// reference ID rewriting.
//
// The staged "compute a snapshot, then derive order" shape is inspired by
// the teacher's datastore/datastore.go main/candidate split (a candidate
// is forked from main, accumulates changes, and only then is walked) —
// generalized here from a config tree fork to a plain item-graph
// snapshot, since the hierarchical ctree data model (XPath tries) had no
// analogue for a flat kind/id/name graph and was not reused
// (see DESIGN.md).
package graph

import (
	"fmt"
	"sort"

	"github.com/cisco-open/sastre-engine/catalog"
	"github.com/cisco-open/sastre-engine/model"
	"github.com/cisco-open/sastre-engine/store"
)

// Graph is a snapshot of items (from a store or a controller fetch) plus
// the edges derived from catalog dependency declarations and runtime
// reference scanning.
type Graph struct {
	reg   *catalog.Registry
	items map[model.Key]*model.Item
	byID  map[string]model.Key // global id -> key, for wildcard ref resolution

	// edges[x] = set of y such that x depends on y (x references y, y
	// must exist/be pushed before x).
	edges map[model.Key]map[model.Key]bool
}

// New builds an empty graph bound to reg; call AddItem for every item in
// the snapshot, then Build to compute edges.
func New(reg *catalog.Registry) *Graph {
	return &Graph{
		reg:   reg,
		items: map[model.Key]*model.Item{},
		byID:  map[string]model.Key{},
		edges: map[model.Key]map[model.Key]bool{},
	}
}

// AddItem registers it in the graph snapshot.
func (g *Graph) AddItem(it *model.Item) {
	k := it.Key()
	g.items[k] = it
	if it.ID != "" {
		g.byID[it.ID] = k
	}
}

// Item returns the item for k, if present in the snapshot.
func (g *Graph) Item(k model.Key) (*model.Item, bool) {
	it, ok := g.items[k]
	return it, ok
}

// Items returns all items of kind, ordered by filesystem-safe name
// ascending (spec.md §4.D "Tie-breaking ... by filesystem-safe name").
func (g *Graph) Items(kind string) []*model.Item {
	var out []*model.Item
	for k, it := range g.items {
		if k.Kind == kind {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return store.SafeName(out[i].Name) < store.SafeName(out[j].Name)
	})
	return out
}

// Build derives edges from each item's scanned references (catalog-declared
// DependsOn kinds are applied at kind level by TopoKinds, not here),
// resolving wildcard reference kinds (catalog
// RefSite.Kind values ending in ".") against the global ID index, since
// controller IDs are unique across the whole controller (spec.md §3
// "Item... id... globally unique on a controller").
func (g *Graph) Build() []error {
	var warnings []error
	for k, it := range g.items {
		d, ok := g.reg.GetUnfiltered(k.Kind)
		if !ok {
			continue
		}
		refs, err := d.ExtractReferences(it.Body)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("%s/%s: extract references: %w", k.Kind, k.Name, err))
			continue
		}
		it.References = refs
		for _, ref := range refs {
			targetKey, resolved := g.resolveReference(ref)
			if !resolved {
				// Referential integrity violation (spec.md §3 invariant 2):
				// log and continue, do not fail the whole graph build.
				warnings = append(warnings, fmt.Errorf("%s/%s: reference to %s/%s not found in snapshot", k.Kind, k.Name, ref.Kind, ref.ID))
				continue
			}
			g.addEdge(k, targetKey)
		}
	}
	return warnings
}

// resolveReference maps a (possibly wildcard-kind) reference to a concrete
// item key present in the snapshot. Reference extraction only ever yields
// an ID, never a name, so resolution always goes through the global ID
// index; for a non-wildcard RefSite the resolved kind is additionally
// checked against the declared one.
func (g *Graph) resolveReference(ref model.Reference) (model.Key, bool) {
	resolvedKey, ok := g.byID[ref.ID]
	if !ok {
		return model.Key{}, false
	}
	if !isWildcard(ref.Kind) && resolvedKey.Kind != ref.Kind {
		return model.Key{}, false
	}
	return resolvedKey, true
}

func isWildcard(kind string) bool {
	return len(kind) > 0 && kind[len(kind)-1] == '.'
}

func (g *Graph) addEdge(from, to model.Key) {
	if from == to {
		return // self-reference, not a real dependency
	}
	set, ok := g.edges[from]
	if !ok {
		set = map[model.Key]bool{}
		g.edges[from] = set
	}
	set[to] = true
}

// DependsOn returns the items from references directly depended on by k.
func (g *Graph) DependsOn(k model.Key) []model.Key {
	set := g.edges[k]
	out := make([]model.Key, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sortKeys(out)
	return out
}

// DependedBy returns items that directly depend on k.
func (g *Graph) DependedBy(k model.Key) []model.Key {
	var out []model.Key
	for from, set := range g.edges {
		if set[k] {
			out = append(out, from)
		}
	}
	sortKeys(out)
	return out
}

// TransitivelyDependedBy returns every item that depends on k, directly or
// transitively, used by update-triggered re-attach (spec.md §4.E.6).
func (g *Graph) TransitivelyDependedBy(k model.Key) []model.Key {
	seen := map[model.Key]bool{}
	var walk func(model.Key)
	walk = func(cur model.Key) {
		for _, from := range g.DependedBy(cur) {
			if !seen[from] {
				seen[from] = true
				walk(from)
			}
		}
	}
	walk(k)
	out := make([]model.Key, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sortKeys(out)
	return out
}

func sortKeys(keys []model.Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return store.SafeName(keys[i].Name) < store.SafeName(keys[j].Name)
	})
}

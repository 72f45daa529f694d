package graph

import (
	"sort"

	"github.com/cisco-open/sastre-engine/model"
)

// TopoKinds returns kinds in a dependency-valid order, referenced kinds
// first (spec.md §4.D "topo_kinds()"), honoring both catalog-declared
// DependsOn and runtime-observed cross-kind edges from Build(). Ties break
// by kind name ascending for reproducibility.
func (g *Graph) TopoKinds() []string {
	kindSet := map[string]bool{}
	for k := range g.items {
		kindSet[k.Kind] = true
	}
	kindDeps := map[string]map[string]bool{}
	for k := range kindSet {
		kindDeps[k] = map[string]bool{}
		for _, dep := range g.reg.DependsOn(k) {
			if kindSet[dep] {
				kindDeps[k][dep] = true
			}
		}
	}
	for from, set := range g.edges {
		for to := range set {
			if from.Kind != to.Kind {
				kindDeps[from.Kind][to.Kind] = true
			}
		}
	}
	return kahnStrings(kindDeps)
}

// kahnStrings runs Kahn's algorithm over a dependency map (node -> set of
// nodes it depends on, i.e. must come after), breaking ties by name and
// breaking any residual cycle by picking the lowest-named remaining node
// (spec.md §9 "breaks the cycle by lowest filesystem-safe-name").
func kahnStrings(deps map[string]map[string]bool) []string {
	remaining := map[string]bool{}
	for n := range deps {
		remaining[n] = true
	}
	var order []string
	for len(remaining) > 0 {
		var ready []string
		for n := range remaining {
			ok := true
			for dep := range deps[n] {
				if remaining[dep] {
					ok = false
					break
				}
			}
			if ok {
				ready = append(ready, n)
			}
		}
		if len(ready) == 0 {
			// Cycle: break it by removing the lowest-named remaining node's
			// outstanding dependencies so progress can continue (spec.md §9).
			var rest []string
			for n := range remaining {
				rest = append(rest, n)
			}
			sort.Strings(rest)
			ready = []string{rest[0]}
		}
		sort.Strings(ready)
		for _, n := range ready {
			order = append(order, n)
			delete(remaining, n)
		}
	}
	return order
}

// TopoItems returns items of kind in reference order: among siblings,
// ascending filesystem-safe name after honoring any intra-kind reference
// edges discovered at runtime (spec.md §4.D "topo_items(kind)").
func (g *Graph) TopoItems(kind string) []*model.Item {
	items := g.Items(kind)
	byKey := map[model.Key]*model.Item{}
	deps := map[model.Key]map[model.Key]bool{}
	for _, it := range items {
		k := it.Key()
		byKey[k] = it
		deps[k] = map[model.Key]bool{}
		for to := range g.edges[k] {
			if to.Kind == kind {
				deps[k][to] = true
			}
		}
	}
	order := kahnKeys(deps)
	out := make([]*model.Item, 0, len(order))
	for _, k := range order {
		out = append(out, byKey[k])
	}
	return out
}

func kahnKeys(deps map[model.Key]map[model.Key]bool) []model.Key {
	remaining := map[model.Key]bool{}
	for n := range deps {
		remaining[n] = true
	}
	var order []model.Key
	for len(remaining) > 0 {
		var ready []model.Key
		for n := range remaining {
			ok := true
			for dep := range deps[n] {
				if remaining[dep] {
					ok = false
					break
				}
			}
			if ok {
				ready = append(ready, n)
			}
		}
		if len(ready) == 0 {
			var rest []model.Key
			for n := range remaining {
				rest = append(rest, n)
			}
			sortKeys(rest)
			ready = []model.Key{rest[0]}
		}
		sortKeys(ready)
		for _, n := range ready {
			order = append(order, n)
			delete(remaining, n)
		}
	}
	return order
}

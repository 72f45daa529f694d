package graph

import (
	"encoding/json"

	"github.com/cisco-open/sastre-engine/catalog"
	"github.com/cisco-open/sastre-engine/model"
)

// IDMapping resolves a source (kind, id) pair to the corresponding target
// controller id, populated by the Task Orchestrator as items are
// pushed/matched during restore/transform (spec.md §4.D "rewrite(body,
// mapping)", §4.E.2 "id_map").
type IDMapping interface {
	Resolve(kind, id string) (string, bool)
}

// MapIDMapping is the straightforward map-backed IDMapping used by task.Plan.
type MapIDMapping map[model.Reference]string

func (m MapIDMapping) Resolve(kind, id string) (string, bool) {
	v, ok := m[model.Reference{Kind: kind, ID: id}]
	return v, ok
}

func (m MapIDMapping) Set(kind, id, newID string) {
	m[model.Reference{Kind: kind, ID: id}] = newID
}

// Rewrite returns a copy of body with every embedded reference rewritten
// through mapping. For a wildcard RefSite, the concrete kind is the kind
// under which g's snapshot holds the original ID; an ID absent from the
// snapshot is left unchanged.
func Rewrite(reg *catalog.Registry, kind string, body json.RawMessage, g *Graph, mapping IDMapping) (json.RawMessage, error) {
	d, ok := reg.GetUnfiltered(kind)
	if !ok {
		return body, nil
	}
	return d.RewriteReferences(body, func(refKind, id string) (string, bool) {
		concreteKind := refKind
		if isWildcard(refKind) {
			if key, ok := g.byID[id]; ok {
				concreteKind = key.Kind
			} else {
				return "", false
			}
		}
		return mapping.Resolve(concreteKind, id)
	})
}

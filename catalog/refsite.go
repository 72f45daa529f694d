package catalog

import (
	"encoding/json"

	"github.com/cisco-open/sastre-engine/model"
)

// navigate walks obj following path, returning the container and final key
// once the path's parent is reached. "*" in path means "every element of
// the current array"; navigate then calls visit once per element.
func navigate(obj interface{}, path []string, visit func(parent map[string]interface{}, key string)) {
	cur := obj
	for i, p := range path {
		last := i == len(path)-1
		if p == "*" {
			arr, ok := cur.([]interface{})
			if !ok {
				return
			}
			rest := path[i+1:]
			for _, e := range arr {
				navigate(e, rest, visit)
			}
			return
		}
		m, ok := cur.(map[string]interface{})
		if !ok {
			return
		}
		if last {
			visit(m, p)
			return
		}
		cur, ok = m[p]
		if !ok {
			return
		}
	}
}

// ExtractReferences walks body according to d's RefSites and returns the
// (kind, id) edges found (spec.md §4.B "reference extraction ... use only
// these descriptors; no kind-specific code is required").
func (d Descriptor) ExtractReferences(body json.RawMessage) ([]model.Reference, error) {
	if len(body) == 0 || len(d.RefSites) == 0 {
		return nil, nil
	}
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	var refs []model.Reference
	for _, site := range d.RefSites {
		switch site.Shape {
		case ShapeScalar:
			navigate(v, site.Path, func(parent map[string]interface{}, key string) {
				if s, ok := parent[key].(string); ok && s != "" {
					refs = append(refs, model.Reference{Kind: site.Kind, ID: s})
				}
			})
		case ShapeList:
			navigate(v, site.Path, func(parent map[string]interface{}, key string) {
				arr, ok := parent[key].([]interface{})
				if !ok {
					return
				}
				for _, e := range arr {
					if s, ok := e.(string); ok && s != "" {
						refs = append(refs, model.Reference{Kind: site.Kind, ID: s})
					}
				}
			})
		case ShapeNestedList:
			navigate(v, site.Path, func(parent map[string]interface{}, key string) {
				arr, ok := parent[key].([]interface{})
				if !ok {
					return
				}
				for _, e := range arr {
					obj, ok := e.(map[string]interface{})
					if !ok {
						continue
					}
					if s, ok := obj[site.IDField].(string); ok && s != "" {
						refs = append(refs, model.Reference{Kind: site.Kind, ID: s})
					}
				}
			})
		}
	}
	return refs, nil
}

// RewriteReferences returns a copy of body with every embedded reference ID
// rewritten through mapping (spec.md §4.D "rewrite(body, mapping)"). IDs not
// present in mapping are left unchanged (caller surfaces
// DependencyUnresolved if that leaves a dangling reference).
func (d Descriptor) RewriteReferences(body json.RawMessage, mapping func(kind, id string) (string, bool)) (json.RawMessage, error) {
	if len(body) == 0 || len(d.RefSites) == 0 {
		return body, nil
	}
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	for _, site := range d.RefSites {
		switch site.Shape {
		case ShapeScalar:
			navigate(v, site.Path, func(parent map[string]interface{}, key string) {
				if s, ok := parent[key].(string); ok && s != "" {
					if nid, ok := mapping(site.Kind, s); ok {
						parent[key] = nid
					}
				}
			})
		case ShapeList:
			navigate(v, site.Path, func(parent map[string]interface{}, key string) {
				arr, ok := parent[key].([]interface{})
				if !ok {
					return
				}
				for i, e := range arr {
					if s, ok := e.(string); ok && s != "" {
						if nid, ok := mapping(site.Kind, s); ok {
							arr[i] = nid
						}
					}
				}
			})
		case ShapeNestedList:
			navigate(v, site.Path, func(parent map[string]interface{}, key string) {
				arr, ok := parent[key].([]interface{})
				if !ok {
					return
				}
				for _, e := range arr {
					obj, ok := e.(map[string]interface{})
					if !ok {
						continue
					}
					if s, ok := obj[site.IDField].(string); ok && s != "" {
						if nid, ok := mapping(site.Kind, s); ok {
							obj[site.IDField] = nid
						}
					}
				}
			})
		}
	}
	return json.Marshal(v)
}

// fieldString reads a dotted/array-agnostic identity path (IDPath, NamePath,
// FactoryDefaultPath) out of a decoded body. Identity fields are always
// scalar and never cross an array boundary.
func fieldString(v interface{}, path []string) (string, bool) {
	cur := v
	for _, p := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return "", false
		}
		cur, ok = m[p]
		if !ok {
			return "", false
		}
	}
	s, ok := cur.(string)
	return s, ok
}

func fieldBool(v interface{}, path []string) (bool, bool) {
	cur := v
	for _, p := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return false, false
		}
		cur, ok = m[p]
		if !ok {
			return false, false
		}
	}
	b, ok := cur.(bool)
	return b, ok
}

// SetFactoryDefault returns a copy of body with the factory-default field
// set to value; restore's factory-default conversion passes false (spec.md
// §4.E.2 step 4).
func (d Descriptor) SetFactoryDefault(body json.RawMessage, value bool) (json.RawMessage, error) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	path := d.FactoryDefaultPath
	navigate(v, path, func(parent map[string]interface{}, key string) {
		parent[key] = value
	})
	return json.Marshal(v)
}

// Identity extracts (id, name, factoryDefault) from a decoded body using
// d's identity paths.
func (d Descriptor) Identity(body json.RawMessage) (id, name string, factoryDefault bool, err error) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return "", "", false, err
	}
	id, _ = fieldString(v, d.IDPath)
	name, _ = fieldString(v, d.NamePath)
	factoryDefault, _ = fieldBool(v, d.FactoryDefaultPath)
	return id, name, factoryDefault, nil
}

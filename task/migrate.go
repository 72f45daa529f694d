package task

import (
	"context"
	"encoding/json"

	log "github.com/sirupsen/logrus"

	"github.com/cisco-open/sastre-engine/catalog"
	"github.com/cisco-open/sastre-engine/graph"
	"github.com/cisco-open/sastre-engine/model"
	"github.com/cisco-open/sastre-engine/nametemplate"
	"github.com/cisco-open/sastre-engine/restclient"
	"github.com/cisco-open/sastre-engine/store"
)

// FieldRule is one declarative per-kind per-field value mapping applied
// during migration (spec.md §4.E.4 "declarative recipe set that maps
// per-kind per-field values").
type FieldRule struct {
	Kind  string
	Path  []string
	OldTo map[string]string // old scalar value -> new scalar value
}

// MigrateOptions mirrors spec.md §4.E.4's inputs. Source is either a live
// controller session (Sess != nil) or an existing workdir (Src != nil);
// exactly one must be set.
type MigrateOptions struct {
	Sess *restclient.Session
	Src  store.Store

	Rules []FieldRule

	// NameRecipe renames migrated items via the Name Transformer; nil
	// means names pass through unchanged.
	NameRecipe *nametemplate.Recipe
}

// Migrate implements spec.md §4.E.4: translate an older snapshot into a
// 20.1-compatible one by applying declarative field rules, renaming via
// the Name Transformer, and writing to a fresh dst workdir. Attachments
// and attachment values are not migrated.
func Migrate(ctx context.Context, reg *catalog.Registry, opts MigrateOptions, dst store.Store, logger *log.Entry) (*Report, error) {
	report := &Report{}

	var resolver *nametemplate.Resolver
	if opts.NameRecipe != nil {
		r, err := nametemplate.NewResolver(opts.NameRecipe)
		if err != nil {
			return report, err
		}
		resolver = r
	}

	rulesByKind := map[string][]FieldRule{}
	for _, r := range opts.Rules {
		rulesByKind[r.Kind] = append(rulesByKind[r.Kind], r)
	}

	g := graph.New(reg)
	kinds := reg.Kinds()
	if opts.Src != nil {
		var err error
		kinds, err = opts.Src.Kinds()
		if err != nil {
			return report, err
		}
	}

	for _, kind := range kinds {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		d, ok := reg.Get(kind)
		if !ok {
			continue
		}
		var idx model.Index
		bodies := map[string]json.RawMessage{}
		if opts.Sess != nil {
			var warnings []error
			idx, bodies, warnings = listKind(ctx, opts.Sess, d)
			for _, w := range warnings {
				logger.Warn(w)
			}
		} else {
			var err error
			idx, err = opts.Src.ReadIndex(kind)
			if err != nil {
				if _, ok := err.(*store.ErrNotFound); ok {
					continue
				}
				return report, err
			}
			for _, e := range idx.Entries {
				if e.Omitted {
					continue
				}
				body, err := opts.Src.ReadItemBody(kind, e.Name, e.ID)
				if err != nil {
					logger.WithField("kind", kind).WithField("name", e.Name).WithError(err).Warn("read item body")
					continue
				}
				bodies[e.ID] = body
			}
		}
		for _, e := range idx.Entries {
			if e.Omitted {
				continue
			}
			body, ok := bodies[e.ID]
			if !ok {
				continue
			}
			g.AddItem(&model.Item{Kind: kind, ID: e.ID, Name: e.Name, FactoryDefault: e.FactoryDefault, Body: body})
		}
	}
	if warnings := g.Build(); len(warnings) > 0 {
		for _, w := range warnings {
			logger.Warn(w)
		}
	}

	for _, kind := range g.TopoKinds() {
		if _, ok := reg.Get(kind); !ok {
			continue
		}
		var idx model.Index
		for _, it := range g.Items(kind) {
			body, err := applyFieldRules(it.Body, rulesByKind[kind])
			if err != nil {
				report.Failed(kind, it.Name, err)
				continue
			}
			outName := it.Name
			if resolver != nil {
				outName = resolver.Rename(it.Name)
			}
			if err := dst.WriteItemBody(kind, outName, it.ID, body); err != nil {
				report.Failed(kind, outName, err)
				continue
			}
			idx.Entries = append(idx.Entries, model.IndexEntry{ID: it.ID, Name: outName, FactoryDefault: it.FactoryDefault})
			report.Created(kind, outName)
		}
		idx.Kind = kind
		if len(idx.Entries) > 0 {
			if err := dst.WriteIndex(kind, idx); err != nil {
				return report, err
			}
		}
	}

	return report, nil
}

// applyFieldRules applies every matching FieldRule's old->new scalar
// value substitution to body, used to translate per-kind fields whose
// enumerated values changed between controller release lines (spec.md
// §4.E.4).
func applyFieldRules(body json.RawMessage, rules []FieldRule) (json.RawMessage, error) {
	if len(rules) == 0 {
		return body, nil
	}
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	for _, rule := range rules {
		applyFieldRule(v, rule.Path, rule.OldTo)
	}
	return json.Marshal(v)
}

func applyFieldRule(v interface{}, path []string, oldTo map[string]string) {
	cur := v
	for i, p := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return
		}
		if i == len(path)-1 {
			if s, ok := m[p].(string); ok {
				if newVal, ok := oldTo[s]; ok {
					m[p] = newVal
				}
			}
			return
		}
		cur, ok = m[p]
		if !ok {
			return
		}
	}
}

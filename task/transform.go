package task

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/cisco-open/sastre-engine/catalog"
	"github.com/cisco-open/sastre-engine/graph"
	"github.com/cisco-open/sastre-engine/internal/errs"
	"github.com/cisco-open/sastre-engine/model"
	"github.com/cisco-open/sastre-engine/nametemplate"
	"github.com/cisco-open/sastre-engine/store"
)

// Transform implements spec.md §4.E.5: read a snapshot, rename (or copy
// and rename) items of the recipe's tag scope via the Name Transformer,
// rewrite every reference to a renamed item, and write the result to
// dst. Items outside the recipe's tag scope pass through unchanged,
// including as reference targets (SPEC_FULL.md §3.5).
//
// Renaming an item does not change its id, so references to it need no
// body rewriting. Copying does: a copy gets a synthetic id, and
// referencing items that are themselves in the recipe's tag scope are
// relinked to point at the copy (SPEC_FULL.md §3.5); referencing items
// outside the scope keep pointing at the original.
func Transform(ctx context.Context, reg *catalog.Registry, src store.Store, dst store.Store, recipe *nametemplate.Recipe, logger *log.Entry) (*Report, error) {
	report := &Report{}

	resolver, err := nametemplate.NewResolver(recipe)
	if err != nil {
		return report, errs.New(errs.InvalidRecipe, "", err)
	}

	scope, err := reg.Expand([]string{recipe.Tag})
	if err != nil {
		return report, err
	}
	inScope := make(map[string]bool, len(scope))
	for _, k := range scope {
		inScope[k] = true
	}

	kinds, err := src.Kinds()
	if err != nil {
		return report, err
	}

	g := graph.New(reg)
	renames := map[model.Key]string{} // old key -> new name, in-scope items only
	for _, kind := range kinds {
		idx, err := src.ReadIndex(kind)
		if err != nil {
			if _, ok := err.(*store.ErrNotFound); ok {
				continue
			}
			return report, err
		}
		if inScope[kind] {
			names := make([]string, 0, len(idx.Entries))
			for _, e := range idx.Entries {
				names = append(names, e.Name)
			}
			renamed, err := resolver.CollisionSet(kind, names)
			if err != nil {
				return report, err
			}
			for old, newName := range renamed {
				if old != newName {
					renames[model.Key{Kind: kind, Name: old}] = newName
				}
			}
		}
		for _, e := range idx.Entries {
			if e.Omitted {
				continue
			}
			body, err := src.ReadItemBody(kind, e.Name, e.ID)
			if err != nil {
				logger.WithField("kind", kind).WithField("name", e.Name).WithError(err).Warn("read item body")
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

	copyIDMap := graph.MapIDMapping{}
	copies := map[model.Key]*model.Item{} // new (kind, newName) -> duplicated item
	if recipe.Copy {
		for oldKey, newName := range renames {
			orig, ok := g.Item(oldKey)
			if !ok {
				continue
			}
			dup := &model.Item{
				Kind: orig.Kind, ID: orig.ID + "~copy", Name: newName,
				FactoryDefault: orig.FactoryDefault, Body: orig.Body,
			}
			copies[oldKey] = dup
			copyIDMap.Set(orig.Kind, orig.ID, dup.ID)
		}
	}

	indexes := map[string]*model.Index{}
	indexFor := func(kind string) *model.Index {
		idx, ok := indexes[kind]
		if !ok {
			idx = &model.Index{Kind: kind}
			indexes[kind] = idx
		}
		return idx
	}

	for _, kind := range g.TopoKinds() {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		for _, it := range g.Items(kind) {
			// With copy:true the original keeps its name (spec.md §6 "rename
			// in place" is the non-copy behavior); the rename only takes
			// effect on the item written out under the new name, which is
			// either this same item (no copy) or its duplicate (copy).
			outName := it.Name
			renamed := false
			if newName, ok := renames[it.Key()]; !recipe.Copy && ok {
				outName = newName
				renamed = true
			}

			body := it.Body
			if inScope[kind] {
				// Referencing items inside the recipe's scope relink to a
				// copy when one exists for the referenced id; outside the
				// scope, references are left untouched per SPEC_FULL.md §3.5.
				rewritten, err := graph.Rewrite(reg, kind, body, g, copyIDMap)
				if err != nil {
					report.Failed(kind, outName, err)
					continue
				}
				body = rewritten
			}

			if err := dst.WriteItemBody(kind, outName, it.ID, body); err != nil {
				report.Failed(kind, outName, err)
				continue
			}
			indexFor(kind).Entries = append(indexFor(kind).Entries, model.IndexEntry{ID: it.ID, Name: outName, FactoryDefault: it.FactoryDefault})
			if renamed {
				report.Updated(kind, outName)
			} else {
				report.Skipped(kind, outName)
			}

			if dup, ok := copies[it.Key()]; ok {
				if err := dst.WriteItemBody(kind, dup.Name, dup.ID, dup.Body); err != nil {
					report.Failed(kind, dup.Name, err)
					continue
				}
				indexFor(kind).Entries = append(indexFor(kind).Entries, model.IndexEntry{ID: dup.ID, Name: dup.Name, FactoryDefault: dup.FactoryDefault})
				report.Created(kind, dup.Name)
			}
		}
	}

	for kind, idx := range indexes {
		if err := dst.WriteIndex(kind, *idx); err != nil {
			return report, err
		}
	}

	return report, nil
}

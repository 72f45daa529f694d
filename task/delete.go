package task

import (
	"context"
	"regexp"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cisco-open/sastre-engine/action"
	"github.com/cisco-open/sastre-engine/catalog"
	"github.com/cisco-open/sastre-engine/graph"
	"github.com/cisco-open/sastre-engine/internal/errs"
	"github.com/cisco-open/sastre-engine/model"
	"github.com/cisco-open/sastre-engine/restclient"
)

type DeleteOptions struct {
	Tags             []string
	Include, Exclude *regexp.Regexp
	Detach           bool
	DryRun           bool
}

// Delete implements spec.md §4.E.3: walk kinds in reverse topological
// order (referencing items first), optionally detaching/deactivating via the
// Async Action Engine first, then DELETE each selected item. A 409
// (in-use) is logged and the item is skipped, not fatal.
func Delete(ctx context.Context, sess *restclient.Session, reg *catalog.Registry, opts DeleteOptions, logger *log.Entry) (*Report, error) {
	report := &Report{}

	kinds, err := reg.Expand(opts.Tags)
	if err != nil {
		return report, err
	}

	g := graph.New(reg)
	for _, kind := range kinds {
		d, ok := reg.Get(kind)
		if !ok {
			continue
		}
		idx, bodies, warnings := listKind(ctx, sess, d)
		for _, w := range warnings {
			logger.Warn(w)
		}
		for _, e := range idx.Entries {
			if e.Omitted || !nameAllowed(BackupOptions{Include: opts.Include, Exclude: opts.Exclude}, e.Name) {
				continue
			}
			body := bodies[e.ID]
			g.AddItem(&model.Item{Kind: kind, ID: e.ID, Name: e.Name, FactoryDefault: e.FactoryDefault, Body: body})
		}
	}
	if warnings := g.Build(); len(warnings) > 0 {
		for _, w := range warnings {
			logger.Warn(w)
		}
	}

	if opts.Detach && !opts.DryRun {
		runDetachPipeline(ctx, sess, reg, g, logger)
	}

	order := g.TopoKinds()
	reverseStrings(order)

	protected := map[model.Key]bool{}
	for _, kind := range order {
		d, ok := reg.Get(kind)
		if !ok {
			continue
		}
		for _, it := range reverseItems(g.TopoItems(kind)) {
			k := it.Key()
			if len(g.DependedBy(k)) > 0 {
				protected[k] = true
				report.Skipped(kind, it.Name)
				continue
			}
			if opts.DryRun {
				report.Deleted(kind, it.Name)
				continue
			}
			if err := deleteItem(ctx, sess, d, it.ID); err != nil {
				if e, ok := err.(*errs.Error); ok && e.Kind == errs.Conflict {
					logger.WithField("kind", kind).WithField("name", it.Name).Warn("delete conflict (409, in-use), skipping")
					report.Skipped(kind, it.Name)
					continue
				}
				report.Failed(kind, it.Name, err)
				continue
			}
			report.Deleted(kind, it.Name)
		}
	}

	for k := range protected {
		logger.WithField("kind", k.Kind).WithField("name", k.Name).
			Warn("item still referenced; not deleted")
	}

	return report, nil
}

func reverseStrings(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseItems(items []*model.Item) []*model.Item {
	out := make([]*model.Item, len(items))
	for i, it := range items {
		out[len(items)-1-i] = it
	}
	return out
}

// collectDeviceTemplateIDs returns the ids of every template_device item
// in g, for the delete path's detach-before-delete request (spec.md
// §4.E.3 "--detach"), which targets whole templates rather than
// individual devices.
func collectDeviceTemplateIDs(g *graph.Graph) []string {
	var ids []string
	for _, it := range g.Items("template_device") {
		ids = append(ids, it.ID)
	}
	return ids
}

// runDetachPipeline runs action.DetachOrder over every device template in
// g: deactivate of any active vSmart policy, then detach of vSmart
// templates, then detach of WAN-edge templates (spec.md §4.E.3 "--detach").
func runDetachPipeline(ctx context.Context, sess *restclient.Session, reg *catalog.Registry, g *graph.Graph, logger *log.Entry) {
	devices := collectDeviceTemplateIDs(g)
	if len(devices) == 0 {
		return
	}
	results, err := action.Sequence(action.DetachOrder, func(cat action.Category) (action.CategoryResult, error) {
		endpoint := categoryEndpoint(cat)
		eng := &action.Engine{
			ChunkN:   deviceTemplateChunkSize(reg),
			Timeout:  20 * time.Minute,
			Interval: 10 * time.Second,
			Log:      logger,
			Submit: func(ctx context.Context, devs []string) (string, error) {
				var resp struct {
					ID string `json:"id"`
				}
				err := sess.PostJSON(ctx, endpoint, map[string]interface{}{"deviceTemplateList": devs}, &resp)
				return resp.ID, err
			},
			Poll: pollFunc(sess),
		}
		return eng.Run(ctx, cat, devices)
	})
	if err != nil {
		logger.WithError(err).Warn("detach pipeline aborted")
		return
	}
	for _, r := range results {
		if r.Outcome() != action.OutcomeSuccess {
			logger.WithField("category", r.Category).WithField("outcome", r.Outcome()).
				Warn("detach category finished with non-success outcome")
		}
	}
}

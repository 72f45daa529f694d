package task

import (
	"context"
	"regexp"
	"time"

	"github.com/kylelemons/godebug/pretty"
	log "github.com/sirupsen/logrus"

	"github.com/cisco-open/sastre-engine/action"
	"github.com/cisco-open/sastre-engine/catalog"
	"github.com/cisco-open/sastre-engine/graph"
	"github.com/cisco-open/sastre-engine/model"
	"github.com/cisco-open/sastre-engine/restclient"
	"github.com/cisco-open/sastre-engine/store"
)

// RestoreMode selects restore's write behavior for items that already
// exist on the target by (kind, name) (spec.md §4.E.2).
type RestoreMode int

const (
	ModeCreateOnly RestoreMode = iota
	ModeUpdate
)

type RestoreOptions struct {
	Tags                      []string
	Include, Exclude          *regexp.Regexp
	Mode                      RestoreMode
	Attach                    bool
	DryRun                    bool
	ForceFactoryDefaultConvert bool
}

// Restore implements spec.md §4.E.2: load the source snapshot, compute a
// push plan against the target controller's indexes, execute it in
// topo_kinds/topo_items order, and (if Attach) hand device templates with
// captured attachments to the Async Action Engine for WAN-edge attach.
func Restore(ctx context.Context, sess *restclient.Session, reg *catalog.Registry, src store.Store, opts RestoreOptions, logger *log.Entry) (*Report, error) {
	report := &Report{}

	kinds, err := reg.Expand(opts.Tags)
	if err != nil {
		return report, err
	}

	g := graph.New(reg)
	for _, kind := range kinds {
		idx, err := src.ReadIndex(kind)
		if err != nil {
			if _, ok := err.(*store.ErrNotFound); ok {
				continue
			}
			return report, err
		}
		for _, e := range idx.Entries {
			if e.Omitted || !nameAllowed(BackupOptions{Include: opts.Include, Exclude: opts.Exclude}, e.Name) {
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

	plan := newPlan()
	vbondOK := true
	if opts.Attach {
		vbondOK, err = sess.VBondConfigured(ctx)
		if err != nil {
			return report, err
		}
	}

	for _, kind := range g.TopoKinds() {
		d, ok := reg.Get(kind)
		if !ok {
			continue
		}
		if d.IsDeviceTemplate && opts.Attach && !vbondOK {
			logger.WithField("kind", kind).Warn("no vBond configured on target; skipping device templates")
			for _, it := range g.TopoItems(kind) {
				report.Skipped(kind, it.Name)
			}
			continue
		}

		tgtIdx, _, warnings := listKind(ctx, sess, d)
		for _, w := range warnings {
			logger.Warn(w)
		}
		byName := targetIndexByName(tgtIdx)

		for _, it := range g.TopoItems(kind) {
			entry := PlanEntry{Key: it.Key(), Item: it}
			if existing, ok := byName[it.Name]; ok {
				entry.TargetID = existing.ID
				plan.mapSourceToTarget(kind, it.ID, existing.ID)
				if opts.Mode == ModeUpdate {
					entry.Action = ActionUpdateIfDifferent
				} else {
					entry.Action = ActionSkip
				}
			} else if it.FactoryDefault && !opts.ForceFactoryDefaultConvert {
				entry.Action = ActionCreate
			} else if it.FactoryDefault {
				entry.Action = ActionCreateAsNonDefault
			} else {
				entry.Action = ActionCreate
			}
			plan.add(entry)
		}
	}

	rs := newReattachSet()
	executeRestorePlan(ctx, sess, reg, g, plan, opts, report, logger, rs)

	if !opts.DryRun {
		targetIDs := map[model.Key]string{}
		for _, e := range plan.Entries {
			if e.TargetID != "" {
				targetIDs[e.Key] = e.TargetID
			}
		}
		runReattachPipeline(ctx, sess, reg, rs, targetIDs, report, logger)
	}

	if opts.Attach && !opts.DryRun {
		runAttachPipeline(ctx, sess, reg, src, plan, report, logger)
	}

	return report, nil
}

func executeRestorePlan(ctx context.Context, sess *restclient.Session, reg *catalog.Registry, g *graph.Graph, plan *Plan, opts RestoreOptions, report *Report, logger *log.Entry, rs *reattachSet) {
	for i := range plan.Entries {
		entry := &plan.Entries[i]
		d, ok := reg.Get(entry.Key.Kind)
		if !ok {
			report.Failed(entry.Key.Kind, entry.Key.Name, errUnknownKind(entry.Key.Kind))
			continue
		}

		switch entry.Action {
		case ActionSkip:
			report.Skipped(entry.Key.Kind, entry.Key.Name)
			continue
		case ActionCreate, ActionCreateAsNonDefault:
			if opts.DryRun {
				report.Created(entry.Key.Kind, entry.Key.Name)
				continue
			}
			body, err := graph.Rewrite(reg, entry.Key.Kind, entry.Item.Body, g, plan.IDMap)
			if err != nil {
				report.Failed(entry.Key.Kind, entry.Key.Name, err)
				continue
			}
			if entry.Action == ActionCreateAsNonDefault {
				body, err = d.SetFactoryDefault(body, false)
				if err != nil {
					report.Failed(entry.Key.Kind, entry.Key.Name, err)
					continue
				}
				logger.WithField("kind", entry.Key.Kind).WithField("name", entry.Key.Name).
					Warn("factory-default item converted to non-default on create")
			}
			newID, err := createItem(ctx, sess, d, body)
			if err != nil {
				logger.WithField("kind", entry.Key.Kind).WithField("name", entry.Key.Name).
					WithField("body_digest", restclient.BodyDigest(body)).Error("create failed")
				report.Failed(entry.Key.Kind, entry.Key.Name, err)
				continue
			}
			plan.mapSourceToTarget(entry.Key.Kind, entry.Item.ID, newID)
			report.Created(entry.Key.Kind, entry.Key.Name)

		case ActionUpdateIfDifferent:
			if !d.SupportsUpdate {
				report.Skipped(entry.Key.Kind, entry.Key.Name)
				continue
			}
			body, err := graph.Rewrite(reg, entry.Key.Kind, entry.Item.Body, g, plan.IDMap)
			if err != nil {
				report.Failed(entry.Key.Kind, entry.Key.Name, err)
				continue
			}
			if opts.DryRun {
				report.Updated(entry.Key.Kind, entry.Key.Name)
				continue
			}
			existing, err := getItemBody(ctx, sess, d, entry.TargetID)
			if err != nil {
				report.Failed(entry.Key.Kind, entry.Key.Name, err)
				continue
			}
			same, err := bodiesEqual(body, existing, logger)
			if err != nil {
				report.Failed(entry.Key.Kind, entry.Key.Name, err)
				continue
			}
			if same {
				report.Skipped(entry.Key.Kind, entry.Key.Name)
				continue
			}
			if err := updateItem(ctx, sess, d, entry.TargetID, body); err != nil {
				logger.WithField("kind", entry.Key.Kind).WithField("name", entry.Key.Name).
					WithField("body_digest", restclient.BodyDigest(body)).Error("update failed")
				report.Failed(entry.Key.Kind, entry.Key.Name, err)
				continue
			}
			rs.noteUpdate(reg, g, entry.Key)
			report.Updated(entry.Key.Kind, entry.Key.Name)
		}
	}
}

func bodiesEqual(a, b []byte, logger *log.Entry) (bool, error) {
	ca, err := model.CanonicalJSON(a)
	if err != nil {
		return false, err
	}
	cb, err := model.CanonicalJSON(b)
	if err != nil {
		return false, err
	}
	if string(ca) == string(cb) {
		return true, nil
	}
	if logger != nil {
		logger.WithField("diff", pretty.Compare(string(ca), string(cb))).Debug("needed-only-update: bodies differ")
	}
	return false, nil
}

type unknownKindError struct{ kind string }

func (e unknownKindError) Error() string { return "unknown kind: " + e.kind }
func errUnknownKind(kind string) error   { return unknownKindError{kind: kind} }

// categoryEndpoint names the controller endpoint that submits a chunk for
// one action.Category (spec.md §4.F.6 category ordering; §6 "device-
// template attach (POST), vSmart template attach/detach, vSmart policy
// activate/deactivate").
func categoryEndpoint(cat action.Category) string {
	switch cat {
	case action.AttachWANEdge:
		return "/template/device/config/attachfeature"
	case action.AttachVSmartTemplate:
		return "/template/device/config/attachcli"
	case action.ActivateVSmartPolicy:
		return "/template/policy/vsmart/activate"
	case action.DeactivateVSmartPolicy:
		return "/template/policy/vsmart/deactivate"
	case action.DetachVSmartTemplate:
		return "/template/device/config/detachcli"
	case action.DetachWANEdge:
		return "/template/device/config/detachfeature"
	case action.CertificateSync:
		return "/certificate/vedge/list"
	default:
		return ""
	}
}

// pollFunc adapts restclient.Session.PollAction to action.Poller.
func pollFunc(sess *restclient.Session) action.Poller {
	return func(ctx context.Context, actionID string, timeout, interval time.Duration) (string, string, bool, error) {
		status, err := sess.PollAction(ctx, actionID, timeout, interval)
		if status == nil {
			return "", "", false, err
		}
		return status.Status, "", status.TimedOut, err
	}
}

// attachTemplate is one device template's step-8 attach job: its target
// id and the persisted per-device attachment values captured at backup
// time (spec.md §4.E.2 step 8, §3 "Attachment").
type attachTemplate struct {
	key       model.Key
	targetID  string
	deviceIDs []string
	values    map[string]map[string]string
}

// runAttachPipeline hands each device template gathered by
// collectAttachTemplates to the Async Action Engine, one attach per
// template, using the attachment variable values captured at backup time
// (spec.md §4.E.2 step 8). Only this WAN-edge attach is submitted; no
// vSmart template attach or vSmart policy activation follows it.
func runAttachPipeline(ctx context.Context, sess *restclient.Session, reg *catalog.Registry, src store.Store, plan *Plan, report *Report, logger *log.Entry) {
	templates := collectAttachTemplates(reg, src, plan, logger)
	if len(templates) == 0 {
		return
	}

	for _, t := range templates {
		values := t.values
		targetID := t.targetID
		eng := &action.Engine{
			ChunkN:   deviceTemplateChunkSize(reg),
			Timeout:  20 * time.Minute,
			Interval: 10 * time.Second,
			Log:      logger,
			Submit: func(ctx context.Context, devs []string) (string, error) {
				devices := make([]map[string]interface{}, 0, len(devs))
				for _, id := range devs {
					devices = append(devices, map[string]interface{}{"deviceId": id, "variables": values[id]})
				}
				var resp struct {
					ID string `json:"id"`
				}
				err := sess.PostJSON(ctx, categoryEndpoint(action.AttachWANEdge), map[string]interface{}{
					"deviceTemplateList": []map[string]interface{}{
						{"templateId": targetID, "device": devices},
					},
				}, &resp)
				return resp.ID, err
			},
			Poll: pollFunc(sess),
		}
		result, err := eng.Run(ctx, action.AttachWANEdge, t.deviceIDs)
		if err != nil {
			report.Failed(t.key.Kind, t.key.Name, err)
			continue
		}
		if result.Outcome() == action.OutcomeSuccess {
			report.Updated(t.key.Kind, t.key.Name)
			continue
		}
		logger.WithField("template", t.key.Name).WithField("outcome", result.Outcome()).
			Warn("attach finished with non-success outcome; a variable may be missing a value")
		report.add(t.key.Kind, t.key.Name, OutcomeFailed, "attach: "+string(result.Outcome()))
	}
}

// collectAttachTemplates gathers device templates that this plan just
// created or updated (Action != ActionSkip) and that carry a persisted
// attachment record, resolving each to its target id via plan.IDMap
// (spec.md §4.E.2 step 8: "device templates that have persisted
// attachment records and that have just been created or updated").
func collectAttachTemplates(reg *catalog.Registry, src store.Store, plan *Plan, logger *log.Entry) []attachTemplate {
	var out []attachTemplate
	for _, e := range plan.Entries {
		if e.Action == ActionSkip {
			continue
		}
		d, ok := reg.Get(e.Key.Kind)
		if !ok || !d.IsDeviceTemplate {
			continue
		}

		targetID, ok := plan.IDMap.Resolve(e.Key.Kind, e.Item.ID)
		if !ok {
			targetID = e.TargetID
		}
		if targetID == "" {
			continue
		}

		set, err := src.ReadAttachments(e.Key.Name)
		if err != nil {
			if _, notFound := err.(*store.ErrNotFound); notFound {
				continue
			}
			logger.WithField("template", e.Key.Name).WithError(err).Warn("read persisted attachments")
			continue
		}
		if len(set.Attachments) == 0 {
			continue
		}

		t := attachTemplate{
			key:      e.Key,
			targetID: targetID,
			values:   make(map[string]map[string]string, len(set.Attachments)),
		}
		for _, a := range set.Attachments {
			t.deviceIDs = append(t.deviceIDs, a.DeviceID)
			t.values[a.DeviceID] = a.Values
		}
		out = append(out, t)
	}
	return out
}

package task

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cisco-open/sastre-engine/action"
	"github.com/cisco-open/sastre-engine/catalog"
	"github.com/cisco-open/sastre-engine/graph"
	"github.com/cisco-open/sastre-engine/model"
	"github.com/cisco-open/sastre-engine/restclient"
)

// reattachSet accumulates the device templates and vSmart policies that
// need a re-attach / re-activate because one of their dependencies was
// updated during restore --update (spec.md §4.E.6).
type reattachSet struct {
	deviceTemplates map[model.Key]bool
	vsmartPolicies  map[model.Key]bool
}

func newReattachSet() *reattachSet {
	return &reattachSet{deviceTemplates: map[model.Key]bool{}, vsmartPolicies: map[model.Key]bool{}}
}

// noteUpdate records that key's body changed on the target, scheduling a
// re-attach for every device template that transitively depends on it and
// a re-activate for every vSmart policy that transitively depends on it
// (spec.md §4.E.6 "any transitive dependency change").
func (rs *reattachSet) noteUpdate(reg *catalog.Registry, g *graph.Graph, key model.Key) {
	for _, dep := range g.TransitivelyDependedBy(key) {
		d, ok := reg.GetUnfiltered(dep.Kind)
		if !ok {
			continue
		}
		if d.IsDeviceTemplate {
			rs.deviceTemplates[dep] = true
		}
		if d.IsVSmartPolicy {
			rs.vsmartPolicies[dep] = true
		}
	}
}

func (rs *reattachSet) empty() bool {
	return len(rs.deviceTemplates) == 0 && len(rs.vsmartPolicies) == 0
}

// runReattachPipeline executes the re-attach/re-activate schedule rs
// built up during plan execution, after every write in the current plan
// has completed (spec.md §4.E.6). targetID maps a source item's (kind,
// name) key to the id it resolved to on the target controller, sourced
// from the push plan's own identity matches.
func runReattachPipeline(ctx context.Context, sess *restclient.Session, reg *catalog.Registry, rs *reattachSet, targetID map[model.Key]string, report *Report, logger *log.Entry) {
	if rs.empty() {
		return
	}
	for key := range rs.deviceTemplates {
		tgtID, ok := targetID[key]
		if !ok {
			continue
		}
		reattachDeviceTemplate(ctx, sess, reg, key, tgtID, report, logger)
	}
	for key := range rs.vsmartPolicies {
		tgtID, ok := targetID[key]
		if !ok {
			continue
		}
		reactivateVSmartPolicy(ctx, sess, key, tgtID, report, logger)
	}
}

// reattachDeviceTemplate re-attaches every device currently attached to
// the target's device template at targetID, using the existing
// attachment variable values the target controller already has — the
// authoritative, possibly hand-edited source (spec.md §4.E.6 "Re-attach
// uses the existing attachment variable values from the target
// controller").
func reattachDeviceTemplate(ctx context.Context, sess *restclient.Session, reg *catalog.Registry, key model.Key, targetID string, report *Report, logger *log.Entry) {
	var resp struct {
		Data []struct {
			UUID   string            `json:"uuid"`
			Values map[string]string `json:"variables"`
		} `json:"data"`
	}
	if err := sess.GetJSON(ctx, "/template/device/config/attached/"+targetID, &resp); err != nil {
		logger.WithField("template", key.Name).WithError(err).Warn("fetch current attachments for re-attach")
		report.Failed(key.Kind, key.Name, err)
		return
	}
	if len(resp.Data) == 0 {
		return
	}

	values := make(map[string]map[string]string, len(resp.Data))
	ids := make([]string, 0, len(resp.Data))
	for _, a := range resp.Data {
		values[a.UUID] = a.Values
		ids = append(ids, a.UUID)
	}

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
			var postResp struct {
				ID string `json:"id"`
			}
			err := sess.PostJSON(ctx, "/template/device/config/attachfeature", map[string]interface{}{
				"deviceTemplateList": []map[string]interface{}{
					{"templateId": targetID, "device": devices},
				},
			}, &postResp)
			return postResp.ID, err
		},
		Poll: pollFunc(sess),
	}
	result, err := eng.Run(ctx, action.AttachWANEdge, ids)
	if err != nil {
		report.Failed(key.Kind, key.Name, err)
		return
	}
	if result.Outcome() == action.OutcomeSuccess {
		report.Updated(key.Kind, key.Name)
		return
	}
	// A newly-added variable with no recorded value on the target makes
	// the controller-side attach fail for that device; surfaced here as a
	// WARNING-level outcome rather than aborting the rest of the plan
	// (spec.md §4.E.6, §4.F.5).
	logger.WithField("template", key.Name).WithField("outcome", result.Outcome()).
		Warn("re-attach finished with non-success outcome; a newly-added variable may be missing a value")
	report.add(key.Kind, key.Name, OutcomeFailed, "re-attach: "+string(result.Outcome()))
}

// reactivateVSmartPolicy re-submits activation for targetID only if the
// policy is currently active on the target (spec.md §4.E.6 "re-activate
// only if the vSmart policy is currently active").
func reactivateVSmartPolicy(ctx context.Context, sess *restclient.Session, key model.Key, targetID string, report *Report, logger *log.Entry) {
	active, err := vsmartPolicyActive(ctx, sess, targetID)
	if err != nil {
		logger.WithField("policy", key.Name).WithError(err).Warn("check vsmart policy active state for re-activate")
		return
	}
	if !active {
		return
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := sess.PostJSON(ctx, "/template/policy/vsmart/activate/"+targetID, map[string]interface{}{}, &resp); err != nil {
		report.Failed(key.Kind, key.Name, err)
		return
	}
	if resp.ID == "" {
		report.Updated(key.Kind, key.Name)
		return
	}
	status, err := sess.PollAction(ctx, resp.ID, 20*time.Minute, 10*time.Second)
	if err != nil || status.Status != "Success" && status.Status != "Done" {
		logger.WithField("policy", key.Name).Warn("re-activate finished with non-success outcome")
		report.add(key.Kind, key.Name, OutcomeFailed, "re-activate")
		return
	}
	report.Updated(key.Kind, key.Name)
}

func vsmartPolicyActive(ctx context.Context, sess *restclient.Session, id string) (bool, error) {
	var resp struct {
		Data []struct {
			ID          string `json:"policyId"`
			IsActivated bool   `json:"isActivated"`
		} `json:"data"`
	}
	if err := sess.GetJSON(ctx, "/template/policy/vsmart", &resp); err != nil {
		return false, err
	}
	for _, p := range resp.Data {
		if p.ID == id {
			return p.IsActivated, nil
		}
	}
	return false, nil
}

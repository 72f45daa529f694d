package task

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cisco-open/sastre-engine/action"
	"github.com/cisco-open/sastre-engine/catalog"
	"github.com/cisco-open/sastre-engine/restclient"
)

// Attach exposes the Async Action Engine directly, for operators who
// want to re-attach device templates without pushing item bodies
// (SPEC_FULL.md §3.4 "attach-only task"). devices are device ids.
func Attach(ctx context.Context, sess *restclient.Session, reg *catalog.Registry, devices []string, logger *log.Entry) (*Report, error) {
	return runOrderedCategories(ctx, sess, reg, action.AttachOrder, devices, logger)
}

// Detach is Attach's inverse: detach WAN-edge and vSmart templates and
// deactivate any active vSmart policy, without touching item bodies.
func Detach(ctx context.Context, sess *restclient.Session, reg *catalog.Registry, devices []string, logger *log.Entry) (*Report, error) {
	return runOrderedCategories(ctx, sess, reg, action.DetachOrder, devices, logger)
}

func runOrderedCategories(ctx context.Context, sess *restclient.Session, reg *catalog.Registry, order []action.Category, devices []string, logger *log.Entry) (*Report, error) {
	report := &Report{}
	if len(devices) == 0 {
		return report, nil
	}
	results, err := action.Sequence(order, func(cat action.Category) (action.CategoryResult, error) {
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
		return report, err
	}
	for _, r := range results {
		outcome := r.Outcome()
		for _, chunk := range r.Chunks {
			for _, d := range chunk.Devices {
				if outcome == action.OutcomeSuccess {
					report.add("device", d, OutcomeUpdated, r.Category.String())
				} else {
					report.add("device", d, OutcomeFailed, chunk.Detail)
				}
			}
		}
	}
	return report, nil
}

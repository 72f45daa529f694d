package task

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cisco-open/sastre-engine/restclient"
	"github.com/cisco-open/sastre-engine/store"
)

// CertSync pushes the WAN-edge certificate validity list from src to the
// target controller and polls the resulting action, following backup's
// read-then-push shape with a single async action in place of a push plan
// (SPEC_FULL.md §3.4 "certificate sync task").
func CertSync(ctx context.Context, sess *restclient.Session, src store.Store, logger *log.Entry) (*Report, error) {
	report := &Report{}

	raw, err := src.ReadCertificates()
	if err != nil {
		return report, err
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := sess.PostJSON(ctx, "/certificate/vedge/list", raw, &resp); err != nil {
		return report, err
	}
	if resp.ID == "" {
		report.BackedUp("certificates", "wan_edge_list")
		return report, nil
	}

	status, err := sess.PollAction(ctx, resp.ID, 20*time.Minute, 10*time.Second)
	if err != nil {
		report.Failed("certificates", "wan_edge_list", err)
		return report, err
	}
	if status.Status == "Success" || status.Status == "Done" {
		report.Updated("certificates", "wan_edge_list")
	} else {
		report.add("certificates", "wan_edge_list", OutcomeFailed, status.Status)
	}
	return report, nil
}

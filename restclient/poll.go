package restclient

import (
	"context"
	"time"

	"github.com/cisco-open/sastre-engine/internal/errs"
)

// SubTaskStatus is one member sub-task's terminal or in-progress state
// within a long-running controller action.
type SubTaskStatus struct {
	ActivityID string `json:"activity"`
	DeviceID   string `json:"uuid"`
	Status     string `json:"status"` // "Success", "Failure", "Done", "In Progress", ...
	Message    string `json:"statusId"`
}

// ActionStatus is the aggregate result of PollAction.
type ActionStatus struct {
	ActionID  string
	Status    string // "Success", "Failure", "Done", "Partial Success"
	SubTasks  []SubTaskStatus
	TimedOut  bool
}

var terminalStatuses = map[string]bool{"Success": true, "Failure": true, "Done": true}

const (
	defaultPollInterval = 10 * time.Second
	defaultPollTimeout  = 20 * time.Minute
)

type actionStatusResponse struct {
	Data []SubTaskStatus `json:"data"`
}

// PollAction polls the controller's action-status endpoint every interval
// (default 10s) until every sub-task reaches a terminal status or timeout
// (default 20m) expires (spec.md §4.A poll_action).
func (s *Session) PollAction(ctx context.Context, actionID string, timeout, interval time.Duration) (*ActionStatus, error) {
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}
	deadline := time.Now().Add(timeout)
	agg := &ActionStatus{ActionID: actionID}

	for {
		if ctx.Err() != nil {
			return agg, ctx.Err()
		}
		var resp actionStatusResponse
		if err := s.GetJSON(ctx, "/device/action/status/"+actionID, &resp); err != nil {
			return agg, errs.New(errs.ConnectionError, actionID, err)
		}
		agg.SubTasks = resp.Data

		if allTerminal(resp.Data) {
			agg.Status = aggregateStatus(resp.Data)
			return agg, nil
		}

		if time.Now().After(deadline) {
			agg.TimedOut = true
			agg.Status = aggregateStatus(resp.Data)
			return agg, errs.New(errs.ActionTimeout, actionID, nil)
		}

		select {
		case <-ctx.Done():
			return agg, ctx.Err()
		case <-time.After(interval):
		}
	}
}

func allTerminal(subs []SubTaskStatus) bool {
	if len(subs) == 0 {
		return false
	}
	for _, s := range subs {
		if !terminalStatuses[s.Status] {
			return false
		}
	}
	return true
}

// aggregateStatus follows spec.md §4.F.5: all sub-tasks succeeding gives
// "Success", some succeeding gives "Partial Success" (surfaced as WARN by
// the caller), and none succeeding gives "Failure"; a chunk/action with any
// sub-task failure is never "Success."
func aggregateStatus(subs []SubTaskStatus) string {
	if len(subs) == 0 {
		return "Done"
	}
	allSuccess, anySuccess := true, false
	for _, s := range subs {
		if s.Status == "Success" || s.Status == "Done" {
			anySuccess = true
		} else {
			allSuccess = false
		}
	}
	switch {
	case allSuccess:
		return "Success"
	case anySuccess:
		return "Partial Success"
	default:
		return "Failure"
	}
}

package action

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/cisco-open/sastre-engine/internal/errs"
	"github.com/cisco-open/sastre-engine/metrics"
)

const pollerPoolSize = 10 // spec.md §4.F.3, §5 "bounded pool of 10"

// Submitter issues one chunk request to the controller and returns the
// action ID the controller assigned. Implemented by restclient callers in
// task/ (kept as an interface here so action has no restclient import
// cycle and is independently testable).
type Submitter func(ctx context.Context, devices []string) (actionID string, err error)

// Poller polls one action ID to a terminal aggregate status.
type Poller func(ctx context.Context, actionID string, timeout, interval time.Duration) (status string, detail string, timedOut bool, err error)

// Engine runs one Category's chunked submit-then-poll lifecycle.
type Engine struct {
	Submit   Submitter
	Poll     Poller
	ChunkN   int
	Timeout  time.Duration
	Interval time.Duration
	Log      *log.Entry
}

// Run partitions devices into chunks, submits each, and polls all
// resulting action IDs concurrently through a bounded pool of 10
// (spec.md §4.F.1-4).
func (e *Engine) Run(ctx context.Context, category Category, devices []string) (CategoryResult, error) {
	start := time.Now()
	result, err := e.run(ctx, category, devices)
	metrics.ActionDuration.WithLabelValues(category.String(), string(result.Outcome())).Observe(time.Since(start).Seconds())
	return result, err
}

func (e *Engine) run(ctx context.Context, category Category, devices []string) (CategoryResult, error) {
	sorted := SortedBySystemIP(devices)
	chunks := Chunk(sorted, e.ChunkN)
	result := CategoryResult{Category: category}

	sem := semaphore.NewWeighted(pollerPoolSize)
	resultsCh := make(chan ChunkResult, len(chunks))

	for _, chunk := range chunks {
		chunk := chunk
		if err := sem.Acquire(ctx, 1); err != nil {
			return result, err
		}
		go func() {
			defer sem.Release(1)
			resultsCh <- e.runChunk(ctx, chunk)
		}()
	}

	for i := 0; i < len(chunks); i++ {
		select {
		case r := <-resultsCh:
			result.Chunks = append(result.Chunks, r)
		case <-ctx.Done():
			return result, ctx.Err()
		}
	}
	return result, nil
}

func (e *Engine) runChunk(ctx context.Context, devices []string) ChunkResult {
	actionID, err := e.Submit(ctx, devices)
	if err != nil {
		if e.Log != nil {
			e.Log.WithError(err).WithField("devices", len(devices)).Warn("chunk submit failed")
		}
		return ChunkResult{Devices: devices, Outcome: OutcomeFailure, Detail: err.Error()}
	}

	status, detail, timedOut, err := e.Poll(ctx, actionID, e.Timeout, e.Interval)
	cr := ChunkResult{ActionID: actionID, Devices: devices, Detail: detail}
	switch {
	case err != nil && !timedOut:
		cr.Outcome = OutcomeFailure
		cr.Detail = err.Error()
	case timedOut:
		cr.Outcome = OutcomeTimeout
	case status == "Success" || status == "Done":
		cr.Outcome = OutcomeSuccess
	case status == "Partial Success":
		cr.Outcome = OutcomePartialFailure
	default:
		cr.Outcome = OutcomeFailure
	}
	return cr
}

// ErrActionTimeout wraps errs.ActionTimeout for callers that need to
// distinguish a timed-out category from a failed one while still
// reporting it as WARN, not a task-aborting error (spec.md §7
// ActionTimeout).
func ErrActionTimeout(actionID string) error { return errs.New(errs.ActionTimeout, actionID, nil) }

// Package task is the Task Orchestrator (spec.md §4.E): Backup, Restore,
// Delete, Migrate, Transform, plus the attach-only and certificate-sync
// operations supplementing them (SPEC_FULL.md §3.4), implemented as
// pipelines over catalog/store/graph, using restclient for I/O and action
// for long-running controller operations.
package task

import (
	"fmt"
	"sort"

	"github.com/cisco-open/sastre-engine/metrics"
)

// ItemOutcome is one item's disposition within a task run.
type ItemOutcome string

const (
	OutcomeCreated  ItemOutcome = "created"
	OutcomeUpdated  ItemOutcome = "updated"
	OutcomeSkipped  ItemOutcome = "skipped"
	OutcomeDeleted  ItemOutcome = "deleted"
	OutcomeFailed   ItemOutcome = "failed"
	OutcomeBackedUp ItemOutcome = "backed_up"
)

// ItemResult is one line of a Report: what happened to one (kind, name).
type ItemResult struct {
	Kind    string
	Name    string
	Outcome ItemOutcome
	Detail  string // error text for Failed, empty otherwise
}

// Report is the structured result every task operation returns
// (SPEC_FULL.md §3.4 "task.Report"): per-kind counts plus the full list
// of item-local results, so cmd/ can render a summary without the
// engine owning any rendering logic itself.
type Report struct {
	Items []ItemResult
}

func (r *Report) add(kind, name string, outcome ItemOutcome, detail string) {
	r.Items = append(r.Items, ItemResult{Kind: kind, Name: name, Outcome: outcome, Detail: detail})
	metrics.ItemOutcomes.WithLabelValues(kind, string(outcome)).Inc()
}

func (r *Report) Created(kind, name string) { r.add(kind, name, OutcomeCreated, "") }
func (r *Report) Updated(kind, name string) { r.add(kind, name, OutcomeUpdated, "") }
func (r *Report) Skipped(kind, name string) { r.add(kind, name, OutcomeSkipped, "") }
func (r *Report) Deleted(kind, name string)  { r.add(kind, name, OutcomeDeleted, "") }
func (r *Report) BackedUp(kind, name string) { r.add(kind, name, OutcomeBackedUp, "") }
func (r *Report) Failed(kind, name string, err error) {
	r.add(kind, name, OutcomeFailed, err.Error())
}

// CountsByKind summarizes outcome counts per kind, sorted by kind, for
// cmd/'s table rendering.
func (r *Report) CountsByKind() []KindCounts {
	byKind := map[string]*KindCounts{}
	var order []string
	for _, it := range r.Items {
		kc, ok := byKind[it.Kind]
		if !ok {
			kc = &KindCounts{Kind: it.Kind}
			byKind[it.Kind] = kc
			order = append(order, it.Kind)
		}
		switch it.Outcome {
		case OutcomeCreated:
			kc.Created++
		case OutcomeUpdated:
			kc.Updated++
		case OutcomeSkipped:
			kc.Skipped++
		case OutcomeDeleted:
			kc.Deleted++
		case OutcomeFailed:
			kc.Failed++
		case OutcomeBackedUp:
			kc.BackedUp++
		}
	}
	sort.Strings(order)
	out := make([]KindCounts, 0, len(order))
	for _, k := range order {
		out = append(out, *byKind[k])
	}
	return out
}

type KindCounts struct {
	Kind                                                 string
	Created, Updated, Skipped, Deleted, Failed, BackedUp int
}

func (kc KindCounts) String() string {
	return fmt.Sprintf("%s: created=%d updated=%d skipped=%d deleted=%d failed=%d backed_up=%d",
		kc.Kind, kc.Created, kc.Updated, kc.Skipped, kc.Deleted, kc.Failed, kc.BackedUp)
}

// HasFailures reports whether any item failed, used by cmd/ to pick an
// exit code (spec.md §6 "exit codes").
func (r *Report) HasFailures() bool {
	for _, it := range r.Items {
		if it.Outcome == OutcomeFailed {
			return true
		}
	}
	return false
}

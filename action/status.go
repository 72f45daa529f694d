package action

// Category identifies the action categories whose relative order is
// enforced (spec.md §4.F.6): attach WAN-edge before attach vSmart
// template before activate vSmart policy; detach/deactivate is the
// reverse.
type Category int

const (
	AttachWANEdge Category = iota
	AttachVSmartTemplate
	ActivateVSmartPolicy
	DeactivateVSmartPolicy
	DetachVSmartTemplate
	DetachWANEdge
	CertificateSync
)

var categoryNames = map[Category]string{
	AttachWANEdge:          "attach_wan_edge",
	AttachVSmartTemplate:   "attach_vsmart_template",
	ActivateVSmartPolicy:   "activate_vsmart_policy",
	DeactivateVSmartPolicy: "deactivate_vsmart_policy",
	DetachVSmartTemplate:   "detach_vsmart_template",
	DetachWANEdge:          "detach_wan_edge",
	CertificateSync:        "certificate_sync",
}

func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return "unknown"
}

// Outcome is the result of running one Category's chunk set to
// completion.
type Outcome string

const (
	OutcomeSuccess        Outcome = "Success"
	OutcomePartialFailure Outcome = "PartialFailure"
	OutcomeFailure        Outcome = "Failure"
	OutcomeTimeout        Outcome = "Timeout"
)

// ChunkResult is one chunk's aggregate outcome plus per-device detail.
type ChunkResult struct {
	ActionID string
	Devices  []string
	Outcome  Outcome
	Detail   string
}

// CategoryResult aggregates every chunk submitted for one Category.
type CategoryResult struct {
	Category Category
	Chunks   []ChunkResult
}

// Outcome rolls chunk outcomes up to a single category-level verdict: any
// chunk failure or partial failure makes the category outcome at best
// PartialFailure (spec.md §4.F.5 "a chunk's failure does not abort the
// other chunks... surfaces as a WARNING-level outcome").
func (r CategoryResult) Outcome() Outcome {
	sawFailure, sawPartial, sawTimeout := false, false, false
	for _, c := range r.Chunks {
		switch c.Outcome {
		case OutcomeFailure:
			sawFailure = true
		case OutcomePartialFailure:
			sawPartial = true
		case OutcomeTimeout:
			sawTimeout = true
		}
	}
	switch {
	case sawTimeout:
		return OutcomeTimeout
	case sawFailure && sawPartial:
		return OutcomePartialFailure
	case sawFailure:
		if len(r.Chunks) > 1 {
			return OutcomePartialFailure
		}
		return OutcomeFailure
	case sawPartial:
		return OutcomePartialFailure
	default:
		return OutcomeSuccess
	}
}

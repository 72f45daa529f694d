package action

// AttachOrder and DetachOrder are the category sequences whose relative
// order the engine guarantees end to end (spec.md §4.F.6, §5): every
// attach category finishes before the next one starts, and a whole
// attach sequence finishes before any activate is submitted. Detach
// runs the mirror sequence.
var AttachOrder = []Category{AttachWANEdge, AttachVSmartTemplate, ActivateVSmartPolicy}

var DetachOrder = []Category{DeactivateVSmartPolicy, DetachVSmartTemplate, DetachWANEdge}

type RunFunc func(category Category) (CategoryResult, error)

// Sequence runs engines for each category in order, stopping before the
// next category only after the previous one has fully drained (spec.md §5
// "the engine only guarantees that all attaches complete before any
// policy activation is submitted"). It does not stop the whole sequence
// on a non-fatal category outcome (Failure/PartialFailure/Timeout);
// those accumulate into the returned results and the caller's task
// report decides whether to continue.
func Sequence(order []Category, run RunFunc) ([]CategoryResult, error) {
	results := make([]CategoryResult, 0, len(order))
	for _, cat := range order {
		r, err := run(cat)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

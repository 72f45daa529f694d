package catalog

import (
	"fmt"
	"sort"

	"github.com/cisco-open/sastre-engine/model"
)

// Registry is the filtered, queryable catalog: the full descriptor table
// intersected with what the target controller's reported version supports
// (spec.md §4.B).
type Registry struct {
	all      map[string]Descriptor
	targetV  model.Version
	filtered map[string]Descriptor // subset of all gated by targetV
	order    []string              // insertion order, for deterministic iteration before topo sort
}

// New builds a Registry from the static descriptor table, filtered by the
// target controller's version. A zero Version disables filtering (used by
// tools that only read a store, e.g. Transform/Migrate operating offline).
func New(targetVersion model.Version) *Registry {
	r := &Registry{
		all:      map[string]Descriptor{},
		targetV:  targetVersion,
		filtered: map[string]Descriptor{},
	}
	for _, d := range allDescriptors {
		d = withIdentityDefaults(d)
		r.all[d.Kind] = d
		r.order = append(r.order, d.Kind)
		if targetVersion.Raw == "" || targetVersion.AtLeast(d.MinVersion) {
			r.filtered[d.Kind] = d
		}
	}
	return r
}

// Get returns the descriptor for kind, only if it survived version
// filtering. ok is false for both "unknown kind" and "VersionUnsupported".
func (r *Registry) Get(kind string) (Descriptor, bool) {
	d, ok := r.filtered[kind]
	return d, ok
}

// GetUnfiltered returns a descriptor regardless of version gating, used by
// Delete to recognize kinds even if the target no longer/doesn't yet
// support them (an item-local VersionUnsupported, not an unknown-kind
// error).
func (r *Registry) GetUnfiltered(kind string) (Descriptor, bool) {
	d, ok := r.all[kind]
	return d, ok
}

// Kinds returns all available (version-filtered) kind tags, sorted for
// reproducibility.
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.filtered))
	for k := range r.filtered {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DependsOn returns the (version-filtered) dependency kinds declared for
// kind.
func (r *Registry) DependsOn(kind string) []string {
	d, ok := r.filtered[kind]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(d.DependsOn))
	for _, dep := range d.DependsOn {
		if _, ok := r.filtered[dep]; ok {
			out = append(out, dep)
		}
	}
	return out
}

// DependedBy derives the reverse edges of DependsOn across the whole
// filtered catalog (spec.md §3 "depended_by (derived)").
func (r *Registry) DependedBy(kind string) []string {
	var out []string
	for k, d := range r.filtered {
		for _, dep := range d.DependsOn {
			if dep == kind {
				out = append(out, k)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

func (r *Registry) String() string {
	return fmt.Sprintf("catalog.Registry{kinds=%d, target=%s}", len(r.filtered), r.targetV)
}

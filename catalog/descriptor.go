// Package catalog is the Item Catalog (spec.md §4.B): a declarative,
// table-driven registry mapping a kind tag to per-kind metadata. It
// replaces the original's class-hierarchy registration (one Python class
// per kind, registered by decorator) with a data table, per spec.md §9
// "remove polymorphism in favor of data."
package catalog

import "github.com/cisco-open/sastre-engine/model"

// Shape describes how a reference site's ID(s) sit inside a JSON body
// (SPEC_FULL.md §3.3).
type Shape int

const (
	// ShapeScalar: Path points directly at a single ID string.
	ShapeScalar Shape = iota
	// ShapeList: Path points at an array of ID strings.
	ShapeList
	// ShapeNestedList: Path points at an array of objects; IDField names
	// the field inside each object holding the ID.
	ShapeNestedList
)

// RefSite identifies where inside a kind's body an ID of another kind
// appears.
type RefSite struct {
	// Path is a sequence of JSON object keys (and, for array traversal,
	// the literal "*") from the body root to the reference.
	Path []string
	// IDField is only used when Shape == ShapeNestedList: the key inside
	// each array element holding the referenced ID.
	IDField string
	// Kind is the kind tag of the referenced item.
	Kind  string
	Shape Shape
}

// Endpoints holds the REST paths for one kind's CRUD operations. {id} is
// substituted by the client at call time.
type Endpoints struct {
	List   string // GET -> index
	Get    string // GET {id} -> body; empty if the index already carries full bodies
	Create string // POST
	Update string // PUT {id}
	Delete string // DELETE {id}
}

// Descriptor is the per-kind catalog entry (spec.md §3 "Catalog Entry").
type Descriptor struct {
	Kind  string
	Group string // report/log grouping only: "policy", "template", "config_group", "certificate"

	Endpoints Endpoints

	// IDPath / NamePath / FactoryDefaultPath locate identity fields
	// inside a body, expressed the same way as RefSite.Path.
	IDPath             []string
	NamePath           []string
	FactoryDefaultPath []string

	// DependsOn lists kinds whose items may appear as references from
	// this kind's bodies (static, catalog-declared edges). Runtime
	// reference scanning may discover additional edges not listed here;
	// both contribute to the graph (spec.md §4.D).
	DependsOn []string

	// RefSites drives the generic reference extractor/rewriter
	// (spec.md §4.B: "no kind-specific code is required").
	RefSites []RefSite

	// MinVersion gates availability: kinds whose MinVersion exceeds the
	// target controller's reported version are silently unavailable
	// (spec.md §4.B).
	MinVersion model.Version

	// RootDir defaults to Kind (withIdentityDefaults). DirStore and
	// ZipStore name a kind's directory after Kind itself and do not read
	// RootDir.
	RootDir string

	// SupportsUpdate is false for kinds the controller never allows PUT
	// on (e.g. some read-only certificate-adjacent resources).
	SupportsUpdate bool

	// IsDeviceTemplate / IsVSmartPolicy / IsVSmartTemplate mark the kinds
	// the Task Orchestrator and Async Action Engine special-case
	// (attach/detach/activate orchestration, spec.md §4.E.8, §4.F.6).
	IsDeviceTemplate bool
	IsVSmartPolicy   bool
	IsVSmartTemplate bool

	// ChunkOverride overrides action.DefaultChunkSize for this kind's
	// async actions, nil meaning "use the default" (spec.md §4.F.1
	// "default N=10, configurable"). A pointer rather than an int so the
	// zero value stays distinguishable from an explicit "chunk size 0."
	ChunkOverride *int
}

// Chunk returns d's configured chunk size, or action.DefaultChunkSize's
// value (10) when unset.
func (d Descriptor) Chunk() int {
	if d.ChunkOverride != nil {
		return *d.ChunkOverride
	}
	return 10
}

// withIdentityDefaults fills IDPath/NamePath/FactoryDefaultPath when unset
// (most kinds use the controller's conventional field names) and sets
// RootDir to Kind when unset.
func withIdentityDefaults(d Descriptor) Descriptor {
	if len(d.IDPath) == 0 {
		d.IDPath = []string{"id"}
	}
	if len(d.NamePath) == 0 {
		d.NamePath = []string{"name"}
	}
	if len(d.FactoryDefaultPath) == 0 {
		d.FactoryDefaultPath = []string{"factoryDefault"}
	}
	if d.RootDir == "" {
		d.RootDir = d.Kind
	}
	return d
}

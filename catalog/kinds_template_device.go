package catalog

import "github.com/AlekSi/pointer"

// Device templates attach a stack of feature templates (generalTemplates,
// any feature template sub-kind) and optionally a device-facing policy.
// This is the kind Backup additionally fetches attachments/values for
// (spec.md §4.E.1 step 4) and the kind Restore's attach mode pushes
// through the Async Action Engine (spec.md §4.E.2 step 8).
var templateDeviceKinds = []Descriptor{
	{
		Kind:  "template_device",
		Group: "template",
		Endpoints: Endpoints{
			List:   "/template/device",
			Create: "/template/device/feature",
			Update: "/template/device/feature/{id}",
			Delete: "/template/device/{id}",
		},
		RefSites: []RefSite{
			{
				Path:    []string{"generalTemplates"},
				IDField: "templateId",
				Kind:    "template_feature.",
				Shape:   ShapeNestedList,
			},
			{
				Path:  []string{"policyId"},
				Kind:  "policy_vsmart.central",
				Shape: ShapeScalar,
			},
		},
		IsDeviceTemplate: true,
		// Attach/detach of a device template pushes a full config render
		// per device; smaller chunks than the default keep one slow
		// render from holding up the whole category.
		ChunkOverride: pointer.ToInt(5),
	},
}

package catalog

// The vSmart "central policy" item itself (distinct from the
// policy_definition.vsmart *definition* kind it wraps): a named policy
// that bundles one or more approved policy definitions and carries the
// controller's "isActivated" flag. The Async Action Engine's activate/
// deactivate category (spec.md §4.F.6) operates on this kind.
var policyCentralKinds = []Descriptor{
	{
		Kind:  "policy_vsmart.central",
		Group: "policy",
		Endpoints: Endpoints{
			List:   "/template/policy/vsmart",
			Create: "/template/policy/vsmart",
			Update: "/template/policy/vsmart/{id}",
			Delete: "/template/policy/vsmart/{id}",
		},
		DependsOn: []string{"policy_definition.vsmart"},
		RefSites: []RefSite{{
			Path:  []string{"policyDefinition"},
			Kind:  "policy_definition.vsmart",
			Shape: ShapeScalar,
		}},
		IsVSmartPolicy: true,
	},
}

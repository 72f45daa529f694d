package catalog

import "github.com/cisco-open/sastre-engine/model"

func mustVersion(s string) model.Version {
	v, err := model.ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// allDescriptors is the static catalog table. Real Sastre carries 80+
// kinds via per-class registration (spec.md §1); this table covers one
// representative descriptor per kind family the Task Orchestrator and
// Async Action Engine special-case, plus enough breadth across policy
// lists/definitions/templates/config-groups to exercise the scalar and
// nested-list reference shapes of the generic walker (catalog/refsite.go);
// no kind in the table uses ShapeList. Additional kinds
// are added the same way: append a Descriptor, no other code changes.
var allDescriptors = buildAllDescriptors()

func buildAllDescriptors() []Descriptor {
	var all []Descriptor
	all = append(all, policyListKinds...)
	all = append(all, policyDefinitionKinds...)
	all = append(all, policyCentralKinds...)
	all = append(all, templateFeatureKinds...)
	all = append(all, templateDeviceKinds...)
	all = append(all, configGroupKinds...)
	all = append(all, featureProfileKinds...)
	return all
}

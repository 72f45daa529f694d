package catalog

// Feature profiles are the 20.x leaf building blocks composed by
// configuration groups, replacing feature templates for that item family.
var featureProfileKinds = []Descriptor{
	newFeatureProfile("feature_profile.system"),
	newFeatureProfile("feature_profile.transport"),
	newFeatureProfile("feature_profile.service"),
	newFeatureProfile("feature_profile.cli"),
	newFeatureProfile("feature_profile.policy_object"),
	newFeatureProfile("feature_profile.dns_security"),
}

func newFeatureProfile(kind string) Descriptor {
	typeSuffix := kind[len("feature_profile."):]
	base := "/v1/feature-profile/sdwan/" + typeSuffix
	return Descriptor{
		Kind:  kind,
		Group: "config_group",
		Endpoints: Endpoints{
			List:   base,
			Create: base,
			Update: base + "/{id}",
			Delete: base + "/{id}",
		},
		MinVersion: mustVersion("20.1"),
	}
}

package catalog

// Configuration groups are the 20.x replacement for device templates,
// composing feature profiles instead of feature templates. They gate on a
// newer minimum version than the device-template family.
var configGroupKinds = []Descriptor{
	{
		Kind:  "config_group",
		Group: "config_group",
		Endpoints: Endpoints{
			List:   "/v1/config-group",
			Create: "/v1/config-group",
			Update: "/v1/config-group/{id}",
			Delete: "/v1/config-group/{id}",
		},
		RefSites: []RefSite{{
			Path:    []string{"profiles"},
			IDField: "id",
			Kind:    "feature_profile.",
			Shape:   ShapeNestedList,
		}},
		MinVersion: mustVersion("20.1"),
	},
}

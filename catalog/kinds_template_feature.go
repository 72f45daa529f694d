package catalog

// Feature templates: the leaf-level device configuration building blocks
// attached (by reference, via device templates' generalTemplates array) to
// device templates. Most feature templates carry no outbound references;
// a few (e.g. VPN-interface templates attaching an access list) reference
// policy lists.
var templateFeatureKinds = []Descriptor{
	newFeatureTemplate("template_feature.cisco_system", "cisco_system", nil),
	newFeatureTemplate("template_feature.cisco_vpn", "cisco_vpn", nil),
	newFeatureTemplate("template_feature.cisco_vpn_interface", "cisco_vpn_interface", scalarRef("aclQosGroupListId", "policy_list.")),
	newFeatureTemplate("template_feature.cisco_banner", "cisco_banner", nil),
	newFeatureTemplate("template_feature.cisco_logging", "cisco_logging", nil),
	newFeatureTemplate("template_feature.cisco_ntp", "cisco_ntp", nil),
	newFeatureTemplate("template_feature.cisco_aaa", "cisco_aaa", nil),
	newFeatureTemplate("template_feature.cisco_bgp", "cisco_bgp", nil),
	newFeatureTemplate("template_feature.cisco_ospf", "cisco_ospf", nil),
	newFeatureTemplate("template_feature.cisco_snmp", "cisco_snmp", nil),
	newFeatureTemplate("template_feature.cedge_aaa", "cedge_aaa", nil),
	newFeatureTemplate("template_feature.cedge_global", "cedge_global", nil),
	newFeatureTemplate("template_feature.cisco_security", "cisco_security", nil),
	newFeatureTemplate("template_feature.vpn_vedge_interface", "vpn-vedge-interface", scalarRef("accessList", "policy_list.")),
}

func scalarRef(field, wildcardKind string) []RefSite {
	return []RefSite{{Path: []string{field}, Kind: wildcardKind, Shape: ShapeScalar}}
}

func newFeatureTemplate(kind, endpointSuffix string, refs []RefSite) Descriptor {
	base := "/template/feature"
	return Descriptor{
		Kind:  kind,
		Group: "template",
		Endpoints: Endpoints{
			List:   base + "?templateType=" + endpointSuffix,
			Create: base,
			Update: base + "/{id}",
			Delete: base + "/{id}",
		},
		RefSites: refs,
	}
}

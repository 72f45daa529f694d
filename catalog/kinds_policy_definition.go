package catalog

// Policy definition kinds. Their bodies embed "listId"-style references
// into policy lists, but the controller's wire format does not always
// carry the referenced list's sub-type alongside the ID (e.g. a
// "match/entries[].ref" slot can point at a site list, a VPN list, or a
// prefix list depending on the containing sequence's type, with no type
// tag on the reference itself). Rather than hand-coding a dispatch table
// per sequence type, RefSites here use the "policy_list." wildcard kind:
// Reference Graph resolution (graph.ResolveWildcard) finds the concrete
// kind by looking up the ID across the whole snapshot, relying on
// spec.md §3's "id... globally unique on a controller."
var policyDefinitionKinds = []Descriptor{
	newPolicyDefinition("policy_definition.vedge", "vedge", true, nestedListEntries("policy_list.")),
	newPolicyDefinition("policy_definition.vsmart", "vsmart", true, nestedListEntries("policy_list.")),
	newPolicyDefinition("policy_definition.zonepair", "zonebasedfw", true, nestedListEntries("policy_list.")),
	newPolicyDefinition("policy_definition.hubandspoke", "hubandspoke", true, nestedListEntries("policy_list.")),
	newPolicyDefinition("policy_definition.mesh", "mesh", true, nestedListEntries("policy_list.")),
	newPolicyDefinition("policy_definition.customapp", "approute", false, nil),
	newPolicyDefinition("policy_definition.voice", "dialpeer", false, nil),
	newPolicyDefinition("policy_definition.cflowd", "cflowd", false, nil),
	newPolicyDefinition("policy_definition.control", "control", true, nestedListEntries("policy_list.")),
	newPolicyDefinition("policy_definition.rewriterule", "rewriterule", false, nil),
	newPolicyDefinition("policy_definition.urlfiltering", "urlfiltering", false, nil),
	newPolicyDefinition("policy_definition.qosmap", "qosmap", false, nil),
	newPolicyDefinition("policy_definition.ssl", "ssldecryption", false, nil),
	newPolicyDefinition("policy_definition.ssldecryptionutd", "ssldecryptionutd", false, nil),
	newPolicyDefinition("policy_definition.amp", "amp", false, nil),
	newPolicyDefinition("policy_definition.intrusionprevention", "intrusionprevention", false, nil),
}

func nestedListEntries(wildcardKind string) []RefSite {
	return []RefSite{{
		Path:    []string{"definition", "sequences", "*", "match", "entries"},
		IDField: "ref",
		Kind:    wildcardKind,
		Shape:   ShapeNestedList,
	}}
}

func newPolicyDefinition(kind, endpointSuffix string, dependsOnLists bool, refs []RefSite) Descriptor {
	base := "/template/policy/definition/" + endpointSuffix
	d := Descriptor{
		Kind:  kind,
		Group: "policy",
		Endpoints: Endpoints{
			List:   base,
			Create: base,
			Update: base + "/{id}",
			Delete: base + "/{id}",
		},
		RefSites: refs,
	}
	if dependsOnLists {
		d.DependsOn = []string{
			"policy_list.vpn", "policy_list.site", "policy_list.prefix",
			"policy_list.community", "policy_list.aspath", "policy_list.class",
			"policy_list.color", "policy_list.policer", "policy_list.tloc",
			"policy_list.sla", "policy_list.vedge", "policy_list.zone",
			"policy_list.app", "policy_list.dataprefix", "policy_list.mirror",
			"policy_list.ipv6prefix", "policy_list.vsmart",
		}
	}
	return d
}

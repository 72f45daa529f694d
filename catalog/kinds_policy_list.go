package catalog

// Policy list kinds: small named sets (sites, VPNs, prefixes, ...) referenced
// from policy definitions. Endpoints follow the controller's
// /template/policy/list/{type} convention; identity fields are uniform
// across all list types.
var policyListKinds = []Descriptor{
	newPolicyList("policy_list.vpn", "vpn"),
	newPolicyList("policy_list.site", "site"),
	newPolicyList("policy_list.prefix", "prefix"),
	newPolicyList("policy_list.community", "community"),
	newPolicyList("policy_list.aspath", "aspath"),
	newPolicyList("policy_list.class", "class"),
	newPolicyList("policy_list.color", "color"),
	newPolicyList("policy_list.policer", "policer"),
	newPolicyList("policy_list.tloc", "tloc"),
	newPolicyList("policy_list.sla", "sla"),
	newPolicyList("policy_list.vedge", "vedge"),
	newPolicyList("policy_list.zone", "zone"),
	newPolicyList("policy_list.app", "app"),
	newPolicyList("policy_list.dataprefix", "dataprefix"),
	newPolicyList("policy_list.mirror", "mirror"),
	newPolicyList("policy_list.ipv6prefix", "ipv6prefix"),
	newPolicyList("policy_list.vsmart", "vsmart"),
}

func newPolicyList(kind, endpointSuffix string) Descriptor {
	base := "/template/policy/list/" + endpointSuffix
	return Descriptor{
		Kind:  kind,
		Group: "policy",
		Endpoints: Endpoints{
			List:   base,
			Create: base,
			Update: base + "/{id}",
			Delete: base + "/{id}",
		},
	}
}

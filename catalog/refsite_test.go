package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractReferencesNestedList(t *testing.T) {
	d := Descriptor{
		Kind: "policy_definition.vedge",
		RefSites: []RefSite{{
			Path:    []string{"definition", "sequences", "*", "match", "entries"},
			IDField: "ref",
			Kind:    "policy_list.",
			Shape:   ShapeNestedList,
		}},
	}
	body := json.RawMessage(`{
		"definition": {
			"sequences": [
				{"match": {"entries": [{"field": "siteList", "ref": "site-1"}]}},
				{"match": {"entries": [{"field": "vpnList", "ref": "vpn-1"}, {"field": "other"}]}}
			]
		}
	}`)
	refs, err := d.ExtractReferences(body)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "site-1", refs[0].ID)
	assert.Equal(t, "vpn-1", refs[1].ID)
}

func TestRewriteReferencesScalar(t *testing.T) {
	d := Descriptor{
		Kind: "template_device",
		RefSites: []RefSite{{
			Path:  []string{"policyId"},
			Kind:  "policy_vsmart.central",
			Shape: ShapeScalar,
		}},
	}
	body := json.RawMessage(`{"name":"DT1","policyId":"src-id-1"}`)
	out, err := d.RewriteReferences(body, func(kind, id string) (string, bool) {
		if kind == "policy_vsmart.central" && id == "src-id-1" {
			return "tgt-id-9", true
		}
		return "", false
	})
	require.NoError(t, err)
	var v map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &v))
	assert.Equal(t, "tgt-id-9", v["policyId"])
}

func TestIdentityAndFactoryDefault(t *testing.T) {
	d := withIdentityDefaults(Descriptor{Kind: "policy_list.site"})
	body := json.RawMessage(`{"id":"abc","name":"Default_Site","factoryDefault":true}`)
	id, name, fd, err := d.Identity(body)
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
	assert.Equal(t, "Default_Site", name)
	assert.True(t, fd)

	out, err := d.SetFactoryDefault(body, false)
	require.NoError(t, err)
	_, _, fd2, err := d.Identity(out)
	require.NoError(t, err)
	assert.False(t, fd2)
}

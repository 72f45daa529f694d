package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cisco-open/sastre-engine/catalog"
	"github.com/cisco-open/sastre-engine/model"
)

func indexOf(order []string, s string) int {
	for i, v := range order {
		if v == s {
			return i
		}
	}
	return -1
}

// TestDependencyOrder is the scenario from spec.md §8 #1: policy-list
// DC1, feature-template FT1 referring to DC1, device-template DT1
// referring to FT1. TopoKinds/TopoItems must place DC1 before FT1 before
// DT1.
func TestDependencyOrder(t *testing.T) {
	v, err := model.ParseVersion("20.6")
	require.NoError(t, err)
	reg := catalog.New(v)
	g := New(reg)

	g.AddItem(&model.Item{Kind: "policy_list.site", ID: "dc1-id", Name: "DC1", Body: json.RawMessage(`{}`)})
	g.AddItem(&model.Item{Kind: "template_feature.cisco_vpn_interface", ID: "ft1-id", Name: "FT1",
		Body: json.RawMessage(`{"aclQosGroupListId":"dc1-id"}`)})
	g.AddItem(&model.Item{Kind: "template_device", ID: "dt1-id", Name: "DT1",
		Body: json.RawMessage(`{"generalTemplates":[{"templateId":"ft1-id"}]}`)})

	warnings := g.Build()
	assert.Empty(t, warnings)

	order := g.TopoKinds()
	assert.Less(t, indexOf(order, "policy_list.site"), indexOf(order, "template_feature.cisco_vpn_interface"))
	assert.Less(t, indexOf(order, "template_feature.cisco_vpn_interface"), indexOf(order, "template_device"))
}

func TestTopoItemsTieBreakByName(t *testing.T) {
	v, err := model.ParseVersion("20.6")
	require.NoError(t, err)
	reg := catalog.New(v)
	g := New(reg)
	g.AddItem(&model.Item{Kind: "policy_list.site", ID: "2", Name: "Bravo", Body: json.RawMessage(`{}`)})
	g.AddItem(&model.Item{Kind: "policy_list.site", ID: "1", Name: "Alpha", Body: json.RawMessage(`{}`)})
	g.Build()
	items := g.TopoItems("policy_list.site")
	require.Len(t, items, 2)
	assert.Equal(t, "Alpha", items[0].Name)
	assert.Equal(t, "Bravo", items[1].Name)
}

func TestReferentialIntegrityViolationLogsAndContinues(t *testing.T) {
	v, err := model.ParseVersion("20.6")
	require.NoError(t, err)
	reg := catalog.New(v)
	g := New(reg)
	g.AddItem(&model.Item{Kind: "template_device", ID: "dt1", Name: "DT1",
		Body: json.RawMessage(`{"generalTemplates":[{"templateId":"missing-id"}]}`)})
	warnings := g.Build()
	assert.NotEmpty(t, warnings, "dangling reference should produce a warning, not an error that aborts Build")
}

func TestCycleIsBrokenByLowestName(t *testing.T) {
	deps := map[string]map[string]bool{
		"b": {"a": true},
		"a": {"b": true},
	}
	order := kahnStrings(deps)
	assert.Equal(t, []string{"a", "b"}, order)
}

package catalog

import (
	"testing"

	"github.com/cisco-open/sastre-engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryVersionGating(t *testing.T) {
	old, err := model.ParseVersion("19.2")
	require.NoError(t, err)
	r := New(old)
	_, ok := r.Get("config_group")
	assert.False(t, ok, "config_group requires 20.1, must be unavailable on 19.2")

	_, ok = r.Get("policy_list.site")
	assert.True(t, ok, "policy_list.site has no version gate")
}

func TestRegistryDependsOnFilteredByVersion(t *testing.T) {
	old, err := model.ParseVersion("19.2")
	require.NoError(t, err)
	r := New(old)
	deps := r.DependsOn("template_device")
	for _, d := range deps {
		assert.NotContains(t, d, "feature_profile", "feature_profile kinds are 20.1+, should be filtered")
	}
}

func TestRegistryDependedByIsReverseOfDependsOn(t *testing.T) {
	v, err := model.ParseVersion("20.6")
	require.NoError(t, err)
	r := New(v)
	for _, dep := range r.DependsOn("config_group") {
		assert.Contains(t, r.DependedBy(dep), "config_group")
	}
}

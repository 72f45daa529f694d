package catalog

import (
	"testing"

	"github.com/cisco-open/sastre-engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandInvalidTag(t *testing.T) {
	v, err := model.ParseVersion("20.6")
	require.NoError(t, err)
	r := New(v)
	_, err = r.Expand([]string{"not_a_real_tag"})
	require.Error(t, err)
	var tagErr *ErrInvalidTag
	assert.ErrorAs(t, err, &tagErr)
}

// TestTagExpansionMonotonicity is the property from spec.md §8: for tag
// sets T1 ⊆ T2, the selection for T1 must be a subset of the selection
// for T2.
func TestTagExpansionMonotonicity(t *testing.T) {
	v, err := model.ParseVersion("20.6")
	require.NoError(t, err)
	r := New(v)

	t1, err := r.Expand([]string{"policy_list"})
	require.NoError(t, err)
	t2, err := r.Expand([]string{"policy_list", "template_device"})
	require.NoError(t, err)

	set2 := map[string]bool{}
	for _, k := range t2 {
		set2[k] = true
	}
	for _, k := range t1 {
		assert.True(t, set2[k], "kind %s from T1 missing from T2 selection", k)
	}
}

func TestAllTagIncludesEveryKind(t *testing.T) {
	v, err := model.ParseVersion("20.6")
	require.NoError(t, err)
	r := New(v)
	all, err := r.Expand([]string{"all"})
	require.NoError(t, err)
	assert.ElementsMatch(t, r.Kinds(), all)
}

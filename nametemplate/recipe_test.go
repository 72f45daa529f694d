package nametemplate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cisco-open/sastre-engine/internal/errs"
)

func writeRecipe(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "recipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadRecipeRequiresTagAndOneOfMapOrTemplate(t *testing.T) {
	path := writeRecipe(t, "tag: template_feature\n")
	_, err := LoadRecipe(path)
	require.Error(t, err)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.InvalidRecipe, e.Kind)
}

func TestLoadRecipeWithNameMap(t *testing.T) {
	path := writeRecipe(t, `
tag: template_feature
name_map:
  Logging_Template_cEdge: Logging_Template_v01
`)
	r, err := LoadRecipe(path)
	require.NoError(t, err)
	res, err := NewResolver(r)
	require.NoError(t, err)
	assert.Equal(t, "Logging_Template_v01", res.Rename("Logging_Template_cEdge"))
	assert.Equal(t, "Other", res.Rename("Other"))
}

func TestLoadRecipeWithNameTemplate(t *testing.T) {
	path := writeRecipe(t, `
tag: template_device
name_template:
  name_regex: "{name}_v01"
`)
	r, err := LoadRecipe(path)
	require.NoError(t, err)
	res, err := NewResolver(r)
	require.NoError(t, err)
	assert.Equal(t, "DT1_v01", res.Rename("DT1"))
}

func TestExplicitMapConsultedBeforeTemplate(t *testing.T) {
	r := &Recipe{
		Tag:          "template_feature",
		NameMap:      map[string]string{"A": "Explicit"},
		NameTemplate: &NameTemplateSpec{NameRegex: "{name}_templated"},
	}
	require.NoError(t, r.Validate())
	res, err := NewResolver(r)
	require.NoError(t, err)
	assert.Equal(t, "Explicit", res.Rename("A"))
	assert.Equal(t, "B_templated", res.Rename("B"))
}

// TestNameTemplateRegexGateLeavesNonMatchingNamesUnchanged exercises
// spec.md §6's `regex` gate: only names matching it are spliced through
// name_regex, per the original task's Processor.match.
func TestNameTemplateRegexGateLeavesNonMatchingNamesUnchanged(t *testing.T) {
	r := &Recipe{
		Tag: "template_feature",
		NameTemplate: &NameTemplateSpec{
			Regex:     "^DC_",
			NameRegex: "{name}_v01",
		},
	}
	require.NoError(t, r.Validate())
	res, err := NewResolver(r)
	require.NoError(t, err)
	assert.Equal(t, "DC_BASIC_v01", res.Rename("DC_BASIC"))
	assert.Equal(t, "Other_Template", res.Rename("Other_Template"))
}

// TestNameTemplateNotRegexGate exercises the inverse gate: only names
// that do NOT match not_regex are spliced.
func TestNameTemplateNotRegexGate(t *testing.T) {
	r := &Recipe{
		Tag: "template_feature",
		NameTemplate: &NameTemplateSpec{
			NotRegex:  "^DC_",
			NameRegex: "{name}_v01",
		},
	}
	require.NoError(t, r.Validate())
	res, err := NewResolver(r)
	require.NoError(t, err)
	assert.Equal(t, "DC_BASIC", res.Rename("DC_BASIC"))
	assert.Equal(t, "Other_Template_v01", res.Rename("Other_Template"))
}

func TestCollisionSetReportsOffenders(t *testing.T) {
	r := &Recipe{Tag: "policy_list", NameTemplate: &NameTemplateSpec{NameRegex: "{name (.+)_v[0-9]+}"}}
	res, err := NewResolver(r)
	require.NoError(t, err)
	_, err = res.CollisionSet("policy_list.site", []string{"Site_v1", "Site_v2"})
	require.Error(t, err)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.NameCollision, e.Kind)
}

func TestCollisionSetNoCollision(t *testing.T) {
	r := &Recipe{Tag: "policy_list", NameTemplate: &NameTemplateSpec{NameRegex: "{name}_v01"}}
	res, err := NewResolver(r)
	require.NoError(t, err)
	renamed, err := res.CollisionSet("policy_list.site", []string{"Site1", "Site2"})
	require.NoError(t, err)
	assert.Equal(t, "Site1_v01", renamed["Site1"])
	assert.Equal(t, "Site2_v01", renamed["Site2"])
}

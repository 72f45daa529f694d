package nametemplate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNameTemplateCorrectness is the scenario from spec.md §8: a
// two-substitution template splicing a captured prefix and suffix around
// a literal "_201_".
func TestNameTemplateCorrectness(t *testing.T) {
	tmpl, err := Parse(`{name (G_.+)_184_.+}_201_{name G.+_184_(.+)}`)
	require.NoError(t, err)
	got := tmpl.Expand("G_Branch_184_Single_cE4451-X_2xWAN_DHCP_L2_v01")
	assert.Equal(t, "G_Branch_201_Single_cE4451-X_2xWAN_DHCP_L2_v01", got)
}

func TestNameTemplateNonMatchExpandsEmpty(t *testing.T) {
	tmpl, err := Parse(`prefix-{name NOMATCH(.+)}-suffix`)
	require.NoError(t, err)
	got := tmpl.Expand("anything")
	assert.Equal(t, "prefix--suffix", got)
}

func TestNameTemplateBareNameIsWholeOriginal(t *testing.T) {
	tmpl, err := Parse(`copy_of_{name}`)
	require.NoError(t, err)
	assert.Equal(t, "copy_of_DT1", tmpl.Expand("DT1"))
}

func TestNameTemplateInvalidRegexFailsToParse(t *testing.T) {
	_, err := Parse(`{name (unterminated}`)
	assert.Error(t, err)
}

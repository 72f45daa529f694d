package nametemplate

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v2"

	"github.com/cisco-open/sastre-engine/internal/errs"
)

// Recipe is a Transform recipe document (spec.md §6 "Recipes"): a tag
// scoping which items it applies to, an optional name template, and an
// optional explicit old-name-to-new-name map consulted before the
// template.
type Recipe struct {
	Tag          string            `yaml:"tag"`
	NameTemplate *NameTemplateSpec `yaml:"name_template,omitempty"`
	NameMap      map[string]string `yaml:"name_map,omitempty"`
	Copy         bool              `yaml:"copy,omitempty"`
}

// NameTemplateSpec mirrors the YAML shape from spec.md §6:
// `name_template: { regex, name_regex }`. regex/not_regex gate which
// names get renamed at all; a name that fails the gate passes through
// unchanged. name_regex carries the `{name <regex>}` splicing template
// applied to names that pass the gate.
type NameTemplateSpec struct {
	Regex     string `yaml:"regex,omitempty"`
	NotRegex  string `yaml:"not_regex,omitempty"`
	NameRegex string `yaml:"name_regex"`
}

// LoadRecipe reads and validates a Transform recipe from file. Validation
// failures surface as errs.InvalidRecipe per spec.md §6.
func LoadRecipe(file string) (*Recipe, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errs.New(errs.InvalidRecipe, file, err)
	}
	var r Recipe
	if err := yaml.UnmarshalStrict(data, &r); err != nil {
		return nil, errs.New(errs.InvalidRecipe, file, err)
	}
	if err := r.Validate(); err != nil {
		return nil, errs.New(errs.InvalidRecipe, file, err)
	}
	return &r, nil
}

func (r *Recipe) Validate() error {
	if r.Tag == "" {
		return fmt.Errorf("recipe: tag is required")
	}
	if r.NameTemplate == nil && len(r.NameMap) == 0 {
		return fmt.Errorf("recipe: one of name_template or name_map is required")
	}
	if r.NameTemplate != nil && r.NameTemplate.NameRegex == "" {
		return fmt.Errorf("recipe: name_template.name_regex is required")
	}
	return nil
}

// Resolver evaluates one recipe's renaming rule: explicit map first, then
// the gated template, per spec.md §4.G "on lookup: the explicit map is
// consulted first; on miss, the template is evaluated" — and, per the
// original task's Processor.match, the template only fires for names
// that pass the name_template.regex / not_regex gate.
type Resolver struct {
	recipe   *Recipe
	gate     *regexp.Regexp
	invert   bool
	template *Template
}

func NewResolver(r *Recipe) (*Resolver, error) {
	res := &Resolver{recipe: r}
	if r.NameTemplate == nil {
		return res, nil
	}

	t, err := Parse(r.NameTemplate.NameRegex)
	if err != nil {
		return nil, err
	}
	res.template = t

	pattern, invert := r.NameTemplate.Regex, false
	if pattern == "" && r.NameTemplate.NotRegex != "" {
		pattern, invert = r.NameTemplate.NotRegex, true
	}
	if pattern != "" {
		gate, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		res.gate = gate
		res.invert = invert
	}
	return res, nil
}

// gateMatches reports whether name passes the name_template's regex /
// not_regex filter. A recipe with neither set gates nothing: every name
// is eligible for the template.
func (r *Resolver) gateMatches(name string) bool {
	if r.gate == nil {
		return true
	}
	matched := r.gate.MatchString(name)
	if r.invert {
		return !matched
	}
	return matched
}

// Rename returns the new name for an original name. If no explicit map
// entry exists, the name fails the name_template gate, or no template is
// configured, the name passes through unchanged.
func (r *Resolver) Rename(name string) string {
	if r.recipe.NameMap != nil {
		if v, ok := r.recipe.NameMap[name]; ok {
			return v
		}
	}
	if r.template != nil && r.gateMatches(name) {
		return r.template.Expand(name)
	}
	return name
}

// CollisionSet renames every name in names and returns an error
// enumerating any resulting duplicates within the same kind, per spec.md
// §4.G's collision rule. The kind parameter is informational only, used
// to build the error's Item field.
func (r *Resolver) CollisionSet(kind string, names []string) (map[string]string, error) {
	renamed := make(map[string]string, len(names))
	byNew := make(map[string][]string)
	for _, n := range names {
		nn := r.Rename(n)
		renamed[n] = nn
		byNew[nn] = append(byNew[nn], n)
	}
	var offenders []string
	for nn, olds := range byNew {
		if len(olds) > 1 {
			sort.Strings(olds)
			offenders = append(offenders, fmt.Sprintf("%v -> %q", olds, nn))
		}
	}
	if len(offenders) > 0 {
		sort.Strings(offenders)
		return renamed, errs.New(errs.NameCollision, kind, fmt.Errorf("colliding renames: %v", offenders))
	}
	return renamed, nil
}

package catalog

import (
	"fmt"
	"sort"
)

// tagKindPrefixes maps a tag to the kinds it selects: an entry ending in
// "." selects every kind with that prefix, any other entry selects the kind
// with exactly that name (spec.md §4.B "tags", §6 closed set).
var tagKindPrefixes = map[string][]string{
	"policy_customapp": {"policy_list.app", "policy_definition.customapp"},
	"policy_definition": {"policy_definition."},
	"policy_list":       {"policy_list."},
	"policy_profile":    {"policy_definition.hubandspoke", "policy_definition.mesh"},
	"policy_security":   {"policy_definition.zonepair", "policy_list.zone"},
	"policy_vedge":      {"policy_definition.vedge", "policy_list.vedge"},
	"policy_voice":      {"policy_definition.voice"},
	"policy_vsmart":     {"policy_definition.vsmart", "policy_list.vsmart"},
	"template_device":   {"template_device"},
	"template_feature":  {"template_feature."},
	"config_group":      {"config_group"},
	"feature_profile":   {"feature_profile."},
}

// knownTags is the closed tag set named in spec.md §6. "all" is handled
// specially (expands to every kind plus certificates and running-config,
// both of which are not catalog kinds).
var knownTags = func() map[string]bool {
	m := map[string]bool{"all": true}
	for t := range tagKindPrefixes {
		m[t] = true
	}
	return m
}()

// ErrInvalidTag is returned by Expand for a tag outside the closed set
// (spec.md §6, §7 InvalidTag).
type ErrInvalidTag struct{ Tag string }

func (e *ErrInvalidTag) Error() string { return fmt.Sprintf("invalid tag %q", e.Tag) }

// IsAllTag reports whether tag is the "all" tag, which Backup/Delete use
// to additionally include certificates and (for backup, if requested)
// device running-config alongside every catalog kind (spec.md §4.E.1 step
// 5).
func IsAllTag(tag string) bool { return tag == "all" }

// Expand resolves a set of tags to the (deduplicated, sorted) set of kind
// tags they select, filtered to kinds present in the registry (version
// gating already applied by Registry.New). Unknown tags return
// ErrInvalidTag.
func (r *Registry) Expand(tags []string) ([]string, error) {
	seen := map[string]bool{}
	for _, tag := range tags {
		if !knownTags[tag] {
			return nil, &ErrInvalidTag{Tag: tag}
		}
		if tag == "all" {
			for k := range r.filtered {
				seen[k] = true
			}
			continue
		}
		prefixes := tagKindPrefixes[tag]
		for k := range r.filtered {
			for _, p := range prefixes {
				if k == p || (len(p) > 0 && p[len(p)-1] == '.' && hasPrefix(k, p)) {
					seen[k] = true
					break
				}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

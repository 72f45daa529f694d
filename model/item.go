// Package model defines the data types shared across the item engine:
// Item, Index, Attachment, ServerInfo (spec.md §3).
package model

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Reference is a (kind, id) edge extracted from an item's body (spec.md §3
// "references").
type Reference struct {
	Kind string
	ID   string
}

// Item is a single configuration artifact.
type Item struct {
	Kind           string
	ID             string
	Name           string
	FactoryDefault bool
	Version        string // controller version at creation, optional
	Body           json.RawMessage
	References     []Reference
}

// Key identifies the logical item across controllers: (kind, name).
// Controller IDs are not portable (spec.md "Identity & mapping"). Name is
// the item's name as given, not its filesystem-safe form, so two names that
// differ only in characters store.SafeName replaces are distinct keys.
type Key struct {
	Kind string
	Name string
}

func (it *Item) Key() Key { return Key{Kind: it.Kind, Name: it.Name} }

// CanonicalBody returns Body re-marshaled with sorted object keys and no
// insignificant whitespace, for the needed-only-update comparison (spec.md
// §4.E.2 step 7, §8 "Update is needed-only").
func (it *Item) CanonicalBody() ([]byte, error) {
	return CanonicalJSON(it.Body)
}

// CanonicalJSON renders arbitrary JSON with sorted object keys and compact
// separators, matching the teacher's "UTF-8, sorted keys" persistence
// convention (spec.md §6) generalized to an in-memory comparison.
func CanonicalJSON(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return []byte("null"), nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return marshalSorted(v)
}

func marshalSorted(v interface{}) ([]byte, error) {
	switch t := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := marshalSorted(t[k])
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case []interface{}:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			eb, err := marshalSorted(e)
			if err != nil {
				return nil, err
			}
			buf.Write(eb)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return json.Marshal(t)
	}
}

// PrettyJSON renders raw with sorted keys and 2-space indent, the on-disk
// format spec.md §6 requires for deterministic diffs across backups.
func PrettyJSON(raw json.RawMessage) ([]byte, error) {
	canon, err := CanonicalJSON(raw)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, canon, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

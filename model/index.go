package model

// IndexEntry is one (id, name, factory_default, version) summary as
// persisted by the controller under a kind's list endpoint (spec.md §3
// "Index").
type IndexEntry struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	FactoryDefault bool   `json:"factoryDefault"`
	Version        string `json:"version,omitempty"`

	// Omitted is true when the body GET for this entry failed during
	// backup; the entry is still recorded so restore can tell "fetch
	// failed" apart from "never existed" (SPEC_FULL.md §3.2).
	Omitted bool `json:"omitted,omitempty"`
}

// Index is the full per-kind listing persisted as <kind-dir>/index.json.
type Index struct {
	Kind    string       `json:"kind"`
	Entries []IndexEntry `json:"entries"`
}

// ByName returns the entry with the given name, or nil.
func (idx *Index) ByName(name string) *IndexEntry {
	for i := range idx.Entries {
		if idx.Entries[i].Name == name {
			return &idx.Entries[i]
		}
	}
	return nil
}

// ByID returns the entry with the given id, or nil.
func (idx *Index) ByID(id string) *IndexEntry {
	for i := range idx.Entries {
		if idx.Entries[i].ID == id {
			return &idx.Entries[i]
		}
	}
	return nil
}

// ServerInfo is persisted as server_info.json; Restore compares
// major.minor against the target controller and WARNs on downgrade
// (spec.md §6).
type ServerInfo struct {
	ServerVersion string `json:"server_version"`
	Platform      string `json:"platform,omitempty"`
	BackedUpAt    string `json:"backed_up_at,omitempty"`
}

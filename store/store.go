package store

import (
	"encoding/json"
	"fmt"

	"github.com/cisco-open/sastre-engine/model"
)

// Store is the read/write API the Task Orchestrator uses, implemented by
// both a plain directory (dirstore.go) and a zip archive (zipstore.go).
type Store interface {
	// WriteServerInfo / ReadServerInfo handle workdir-root server_info.json.
	WriteServerInfo(info model.ServerInfo) error
	ReadServerInfo() (model.ServerInfo, error)

	// WriteIndex / ReadIndex handle <kind-dir>/index.json.
	WriteIndex(kind string, idx model.Index) error
	ReadIndex(kind string) (model.Index, error)

	// WriteItemBody / ReadItemBody handle <kind-dir>/<safe-name>.json,
	// falling back to <safe-name>_<id>.json on collision (the store picks
	// that name itself via CollisionName; ReadItemBody tries the
	// id-suffixed form first, then the plain safe-name form).
	WriteItemBody(kind, name, id string, body json.RawMessage) error
	ReadItemBody(kind, name, id string) (json.RawMessage, error)

	// WriteAttachments / ReadAttachments handle the device-template-only
	// <safe-name>_attached.json / <safe-name>_values.json files.
	WriteAttachments(deviceTemplateName string, set model.AttachmentSet) error
	ReadAttachments(deviceTemplateName string) (model.AttachmentSet, error)

	// WriteCertificates / ReadCertificates handle certificates/wan_edge_list.json.
	WriteCertificates(raw json.RawMessage) error
	ReadCertificates() (json.RawMessage, error)

	// WriteDeviceConfig handles device_configs/<hostname>.cfg, written
	// only when save-running was requested (spec.md §4.C). There is no
	// matching reader.
	WriteDeviceConfig(hostname string, cfg []byte) error

	// Kinds lists the kind directories present (used by Restore/Delete/
	// Transform/Migrate when reading an existing workdir without a live
	// catalog to consult).
	Kinds() ([]string, error)

	// Close finalizes the store: for a zip archive this flushes and closes
	// the underlying writer; for a directory it does nothing, since each
	// write takes and releases its per-kind lock itself.
	Close() error
}

// ErrNotFound is returned by ReadIndex/ReadItemBody/etc. for a missing
// file. Task Orchestrator code treats it as "absent," not InvalidBackup;
// InvalidBackup is reserved for present-but-unreadable JSON (spec.md §7).
type ErrNotFound struct{ Path string }

func (e *ErrNotFound) Error() string { return fmt.Sprintf("not found: %s", e.Path) }

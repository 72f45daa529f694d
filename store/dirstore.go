package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cisco-open/sastre-engine/internal/errs"
	"github.com/cisco-open/sastre-engine/model"
)

// DirStore is the plain-directory Store implementation.
type DirStore struct {
	root  string
	locks sync.Map // kind -> *sync.Mutex, approximates spec.md §5's per-kind-directory OS file lock
}

// OpenForWrite prepares root for a fresh backup: if root already exists it
// is rolled over (spec.md §4.C "Rolling backups") unless rollover is
// false, then root is (re)created empty.
func OpenForWrite(root string, rollover bool) (*DirStore, error) {
	if rollover {
		if err := rollOver(root); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &DirStore{root: root}, nil
}

// OpenForRead opens an existing workdir for reading (Restore/Delete/
// Transform/Migrate source).
func OpenForRead(root string) (*DirStore, error) {
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("workdir %s does not exist or is not a directory", root)
	}
	return &DirStore{root: root}, nil
}

// rollOver renames an existing root to root_N for the smallest free N in
// 1..99; if every suffix is taken, the oldest renamed sibling (the least
// recently modified root_N) is deleted first and its suffix reused
// (spec.md §4.C).
func rollOver(root string) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}
	const maxSuffix = 99
	free := -1
	for n := 1; n <= maxSuffix; n++ {
		candidate := fmt.Sprintf("%s_%d", root, n)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			free = n
			break
		}
	}
	if free == -1 {
		var oldestInfo os.FileInfo
		for n := 1; n <= maxSuffix; n++ {
			fi, err := os.Stat(fmt.Sprintf("%s_%d", root, n))
			if err == nil && (oldestInfo == nil || fi.ModTime().Before(oldestInfo.ModTime())) {
				oldestInfo, free = fi, n
			}
		}
		if free == -1 {
			free = maxSuffix
		}
		oldest := fmt.Sprintf("%s_%d", root, free)
		if err := os.RemoveAll(oldest); err != nil {
			return fmt.Errorf("rollover: discard oldest backup %s: %w", oldest, err)
		}
	}
	dest := fmt.Sprintf("%s_%d", root, free)
	return os.Rename(root, dest)
}

func (d *DirStore) kindLock(kind string) *sync.Mutex {
	m, _ := d.locks.LoadOrStore(kind, &sync.Mutex{})
	return m.(*sync.Mutex)
}

func (d *DirStore) kindDir(kind string) string { return filepath.Join(d.root, kind) }

// writeFileAtomic writes data to path via write-temp-then-rename, so an
// interrupted write leaves either the old content or the new content,
// never a half-written file (spec.md §4.C).
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (d *DirStore) WriteServerInfo(info model.ServerInfo) error {
	b, err := marshalPretty(info)
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(d.root, "server_info.json"), b)
}

func (d *DirStore) ReadServerInfo() (model.ServerInfo, error) {
	var info model.ServerInfo
	b, err := readFileOrNotFound(filepath.Join(d.root, "server_info.json"))
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal(b, &info); err != nil {
		return info, errs.New(errs.InvalidBackup, "", err)
	}
	return info, nil
}

func (d *DirStore) WriteIndex(kind string, idx model.Index) error {
	lock := d.kindLock(kind)
	lock.Lock()
	defer lock.Unlock()
	b, err := marshalPretty(idx)
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(d.kindDir(kind), "index.json"), b)
}

func (d *DirStore) ReadIndex(kind string) (model.Index, error) {
	var idx model.Index
	b, err := readFileOrNotFound(filepath.Join(d.kindDir(kind), "index.json"))
	if err != nil {
		return idx, err
	}
	if err := json.Unmarshal(b, &idx); err != nil {
		return idx, errs.New(errs.InvalidBackup, kind, err)
	}
	return idx, nil
}

func (d *DirStore) WriteItemBody(kind, name, id string, body json.RawMessage) error {
	lock := d.kindLock(kind)
	lock.Lock()
	defer lock.Unlock()
	pretty, err := model.PrettyJSON(body)
	if err != nil {
		return err
	}
	path := filepath.Join(d.kindDir(kind), SafeName(name)+".json")
	if pathExistsForOtherID(path, pretty) {
		path = filepath.Join(d.kindDir(kind), CollisionName(name, id)+".json")
	}
	return writeFileAtomic(path, pretty)
}

// pathExistsForOtherID is a best-effort collision probe: if the safe-name
// file already exists, the caller falls back to the id-suffixed name
// rather than silently overwriting a different item that collapsed to the
// same safe name.
func pathExistsForOtherID(path string, newBody []byte) bool {
	existing, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return string(existing) != string(newBody)
}

func (d *DirStore) ReadItemBody(kind, name, id string) (json.RawMessage, error) {
	// The id-suffixed file belongs to this item alone; the plain safe-name
	// file may hold another item whose name collapsed to the same safe name.
	fallback := filepath.Join(d.kindDir(kind), CollisionName(name, id)+".json")
	if b, err := readFileOrNotFound(fallback); err == nil {
		return b, nil
	}
	primary := filepath.Join(d.kindDir(kind), SafeName(name)+".json")
	return readFileOrNotFound(primary)
}

func (d *DirStore) WriteAttachments(deviceTemplateName string, set model.AttachmentSet) error {
	lock := d.kindLock("template_device")
	lock.Lock()
	defer lock.Unlock()
	b, err := marshalPretty(set)
	if err != nil {
		return err
	}
	path := filepath.Join(d.kindDir("template_device"), SafeName(deviceTemplateName)+"_attached.json")
	return writeFileAtomic(path, b)
}

func (d *DirStore) ReadAttachments(deviceTemplateName string) (model.AttachmentSet, error) {
	var set model.AttachmentSet
	path := filepath.Join(d.kindDir("template_device"), SafeName(deviceTemplateName)+"_attached.json")
	b, err := readFileOrNotFound(path)
	if err != nil {
		return set, err
	}
	if err := json.Unmarshal(b, &set); err != nil {
		return set, errs.New(errs.InvalidBackup, deviceTemplateName, err)
	}
	return set, nil
}

func (d *DirStore) WriteCertificates(raw json.RawMessage) error {
	b, err := model.PrettyJSON(raw)
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(d.root, "certificates", "wan_edge_list.json"), b)
}

func (d *DirStore) ReadCertificates() (json.RawMessage, error) {
	return readFileOrNotFound(filepath.Join(d.root, "certificates", "wan_edge_list.json"))
}

func (d *DirStore) WriteDeviceConfig(hostname string, cfg []byte) error {
	return writeFileAtomic(filepath.Join(d.root, "device_configs", hostname+".cfg"), cfg)
}

func (d *DirStore) Kinds() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, err
	}
	var kinds []string
	for _, e := range entries {
		if e.IsDir() && e.Name() != "certificates" && e.Name() != "device_configs" {
			kinds = append(kinds, e.Name())
		}
	}
	return kinds, nil
}

func (d *DirStore) Close() error { return nil }

func readFileOrNotFound(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &ErrNotFound{Path: path}
	}
	return b, err
}

func marshalPretty(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return model.PrettyJSON(raw)
}

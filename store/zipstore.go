package store

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"sync"

	"github.com/cisco-open/sastre-engine/internal/errs"
	"github.com/cisco-open/sastre-engine/model"
)

// ZipStore packages the same internal layout as DirStore inside a single
// zip archive (spec.md §4.C "--archive"). Writes accumulate in memory and
// are flushed to archivePath on Close, since zip's central directory
// cannot be amended file-by-file without rewriting it; this preserves the
// "interrupted write leaves old or new content, never half-written"
// guarantee at the archive-file granularity (the previous archive is
// untouched until the new one is fully written and renamed into place).
type ZipStore struct {
	path   string
	write  bool
	mu     sync.Mutex
	files  map[string][]byte // write buffer, path -> content
	reader *zip.Reader
	raw    []byte // backing bytes for reader, kept alive
}

// OpenZipForWrite prepares a fresh in-memory archive; rollover of an
// existing archivePath follows the same numeric-suffix rule as DirStore.
func OpenZipForWrite(archivePath string, rollover bool) (*ZipStore, error) {
	if rollover {
		if err := rollOver(archivePath); err != nil {
			return nil, err
		}
	}
	return &ZipStore{path: archivePath, write: true, files: map[string][]byte{}}, nil
}

// OpenZipForRead loads an existing archive for reading.
func OpenZipForRead(archivePath string) (*ZipStore, error) {
	raw, err := os.ReadFile(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	r, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("read archive %s: %w", archivePath, err)
	}
	return &ZipStore{path: archivePath, reader: r, raw: raw}, nil
}

func (z *ZipStore) put(p string, data []byte) error {
	if !z.write {
		return fmt.Errorf("store opened for read: cannot write %s", p)
	}
	z.mu.Lock()
	defer z.mu.Unlock()
	z.files[p] = data
	return nil
}

func (z *ZipStore) get(p string) ([]byte, error) {
	if z.write {
		z.mu.Lock()
		b, ok := z.files[p]
		z.mu.Unlock()
		if ok {
			return b, nil
		}
		return nil, &ErrNotFound{Path: p}
	}
	f, err := z.reader.Open(p)
	if err != nil {
		return nil, &ErrNotFound{Path: p}
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (z *ZipStore) WriteServerInfo(info model.ServerInfo) error {
	b, err := marshalPretty(info)
	if err != nil {
		return err
	}
	return z.put("server_info.json", b)
}

func (z *ZipStore) ReadServerInfo() (model.ServerInfo, error) {
	var info model.ServerInfo
	b, err := z.get("server_info.json")
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal(b, &info); err != nil {
		return info, errs.New(errs.InvalidBackup, "", err)
	}
	return info, nil
}

func (z *ZipStore) WriteIndex(kind string, idx model.Index) error {
	b, err := marshalPretty(idx)
	if err != nil {
		return err
	}
	return z.put(path.Join(kind, "index.json"), b)
}

func (z *ZipStore) ReadIndex(kind string) (model.Index, error) {
	var idx model.Index
	b, err := z.get(path.Join(kind, "index.json"))
	if err != nil {
		return idx, err
	}
	if err := json.Unmarshal(b, &idx); err != nil {
		return idx, errs.New(errs.InvalidBackup, kind, err)
	}
	return idx, nil
}

func (z *ZipStore) WriteItemBody(kind, name, id string, body json.RawMessage) error {
	pretty, err := model.PrettyJSON(body)
	if err != nil {
		return err
	}
	p := path.Join(kind, SafeName(name)+".json")
	z.mu.Lock()
	_, collide := z.files[p]
	z.mu.Unlock()
	if collide {
		p = path.Join(kind, CollisionName(name, id)+".json")
	}
	return z.put(p, pretty)
}

func (z *ZipStore) ReadItemBody(kind, name, id string) (json.RawMessage, error) {
	if b, err := z.get(path.Join(kind, CollisionName(name, id)+".json")); err == nil {
		return b, nil
	}
	return z.get(path.Join(kind, SafeName(name)+".json"))
}

func (z *ZipStore) WriteAttachments(deviceTemplateName string, set model.AttachmentSet) error {
	b, err := marshalPretty(set)
	if err != nil {
		return err
	}
	return z.put(path.Join("template_device", SafeName(deviceTemplateName)+"_attached.json"), b)
}

func (z *ZipStore) ReadAttachments(deviceTemplateName string) (model.AttachmentSet, error) {
	var set model.AttachmentSet
	b, err := z.get(path.Join("template_device", SafeName(deviceTemplateName)+"_attached.json"))
	if err != nil {
		return set, err
	}
	if err := json.Unmarshal(b, &set); err != nil {
		return set, errs.New(errs.InvalidBackup, deviceTemplateName, err)
	}
	return set, nil
}

func (z *ZipStore) WriteCertificates(raw json.RawMessage) error {
	b, err := model.PrettyJSON(raw)
	if err != nil {
		return err
	}
	return z.put(path.Join("certificates", "wan_edge_list.json"), b)
}

func (z *ZipStore) ReadCertificates() (json.RawMessage, error) {
	return z.get(path.Join("certificates", "wan_edge_list.json"))
}

func (z *ZipStore) WriteDeviceConfig(hostname string, cfg []byte) error {
	return z.put(path.Join("device_configs", hostname+".cfg"), cfg)
}

func (z *ZipStore) Kinds() ([]string, error) {
	seen := map[string]bool{}
	if z.write {
		for p := range z.files {
			dir := path.Dir(p)
			if dir != "." && dir != "certificates" && dir != "device_configs" {
				seen[dir] = true
			}
		}
	} else {
		for _, f := range z.reader.File {
			dir := path.Dir(f.Name)
			if dir != "." && dir != "certificates" && dir != "device_configs" {
				seen[dir] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	return out, nil
}

// Close flushes the accumulated write buffer to z.path (no-op for a
// read-opened archive).
func (z *ZipStore) Close() error {
	if !z.write {
		return nil
	}
	z.mu.Lock()
	defer z.mu.Unlock()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for p, data := range z.files {
		f, err := w.Create(p)
		if err != nil {
			return err
		}
		if _, err := f.Write(data); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	return writeFileAtomic(z.path, buf.Bytes())
}

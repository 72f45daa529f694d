package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cisco-open/sastre-engine/model"
)

func TestSafeNameRoundTripAndCollisionFallback(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "wd")
	s, err := OpenForWrite(root, false)
	require.NoError(t, err)

	require.NoError(t, s.WriteItemBody("policy_list.site", "My/List!", "id-1", json.RawMessage(`{"a":1}`)))
	require.NoError(t, s.WriteItemBody("policy_list.site", "My_List_", "id-2", json.RawMessage(`{"a":2}`)))

	b1, err := s.ReadItemBody("policy_list.site", "My/List!", "id-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(b1))

	b2, err := s.ReadItemBody("policy_list.site", "My_List_", "id-2")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(b2))
}

func TestNameSafeFilenameStable(t *testing.T) {
	names := []string{"DC1", "DC_BASIC", "Logging_Template_cEdge", "weird name/with\\chars"}
	for _, n := range names {
		s1, s2 := SafeName(n), SafeName(n)
		assert.Equal(t, s1, s2)
		for _, c := range s1 {
			assert.True(t, c == '_' || c == ' ' || c == '-' ||
				(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'))
		}
	}
}

func TestRolloverRenamesToFirstFreeSuffix(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "wd")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "marker"), []byte("v0"), 0o644))

	s, err := OpenForWrite(root, true)
	require.NoError(t, err)
	require.NoError(t, s.WriteServerInfo(model.ServerInfo{ServerVersion: "20.6"}))

	_, err = os.Stat(filepath.Join(dir, "wd_1", "marker"))
	require.NoError(t, err, "previous workdir should have been rolled to wd_1")
}

func TestZipStoreWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "backup.zip")

	zw, err := OpenZipForWrite(archive, false)
	require.NoError(t, err)
	require.NoError(t, zw.WriteIndex("policy_list.site", model.Index{Kind: "policy_list.site", Entries: []model.IndexEntry{{ID: "1", Name: "A"}}}))
	require.NoError(t, zw.WriteItemBody("policy_list.site", "A", "1", json.RawMessage(`{"name":"A"}`)))
	require.NoError(t, zw.Close())

	zr, err := OpenZipForRead(archive)
	require.NoError(t, err)
	idx, err := zr.ReadIndex("policy_list.site")
	require.NoError(t, err)
	require.Len(t, idx.Entries, 1)
	assert.Equal(t, "A", idx.Entries[0].Name)

	body, err := zr.ReadItemBody("policy_list.site", "A", "1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"A"}`, string(body))
}

package task

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/cisco-open/sastre-engine/catalog"
	"github.com/cisco-open/sastre-engine/model"
	"github.com/cisco-open/sastre-engine/store"
)

// seedColdRestoreSource writes a source workdir with one feature template
// and one device template that references it, neither yet present on the
// target (spec.md §8 #1 "cold restore").
func seedColdRestoreSource(t *testing.T) store.Store {
	t.Helper()
	dir := t.TempDir()
	src, err := store.OpenForWrite(dir, false)
	require.NoError(t, err)

	featBody := []byte(`{"id":"FEAT-SRC-1","name":"DC_System","factoryDefault":false}`)
	require.NoError(t, src.WriteIndex("template_feature.cisco_system", model.Index{
		Kind:    "template_feature.cisco_system",
		Entries: []model.IndexEntry{{ID: "FEAT-SRC-1", Name: "DC_System"}},
	}))
	require.NoError(t, src.WriteItemBody("template_feature.cisco_system", "DC_System", "FEAT-SRC-1", featBody))

	devBody := []byte(`{"id":"DEV-SRC-1","name":"DC_Edge","factoryDefault":false,"generalTemplates":[{"templateId":"FEAT-SRC-1"}]}`)
	require.NoError(t, src.WriteIndex("template_device", model.Index{
		Kind:    "template_device",
		Entries: []model.IndexEntry{{ID: "DEV-SRC-1", Name: "DC_Edge"}},
	}))
	require.NoError(t, src.WriteItemBody("template_device", "DC_Edge", "DEV-SRC-1", devBody))

	require.NoError(t, src.Close())

	read, err := store.OpenForRead(dir)
	require.NoError(t, err)
	return read
}

// TestRestoreColdCreatesInDependencyOrder is spec.md §8 #1: a cold
// restore against an empty target must POST the feature template (the
// dependency) before the device template that references it, and the
// device template's create body must carry the feature template's
// target-assigned id, not the stale source id.
func TestRestoreColdCreatesInDependencyOrder(t *testing.T) {
	src := seedColdRestoreSource(t)
	defer src.Close()

	var postOrder []string
	var deviceCreateBody map[string]interface{}

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/dataservice/template/feature":
			w.Write([]byte(`{"data":[]}`))
		case r.Method == http.MethodGet && r.URL.Path == "/dataservice/template/device":
			w.Write([]byte(`{"data":[]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/dataservice/template/feature":
			postOrder = append(postOrder, "template_feature.cisco_system")
			w.Write([]byte(`{"id":"FEAT-TGT-1"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/dataservice/template/device/feature":
			postOrder = append(postOrder, "template_device")
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(body, &deviceCreateBody))
			w.Write([]byte(`{"id":"DEV-TGT-1"}`))
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	sess := newTestSession(t, srv)
	reg := catalog.New(model.Version{})
	logger := log.NewEntry(log.New())

	report, err := Restore(context.Background(), sess, reg, src, RestoreOptions{
		Tags: []string{"template_feature", "template_device"},
		Mode: ModeCreateOnly,
	}, logger)
	require.NoError(t, err)
	require.False(t, report.HasFailures())

	require.Equal(t, []string{"template_feature.cisco_system", "template_device"}, postOrder)

	gt, ok := deviceCreateBody["generalTemplates"].([]interface{})
	require.True(t, ok)
	require.Len(t, gt, 1)
	entry, ok := gt[0].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "FEAT-TGT-1", entry["templateId"])
}

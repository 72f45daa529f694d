package task

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/cisco-open/sastre-engine/catalog"
	"github.com/cisco-open/sastre-engine/model"
)

// TestDeleteReverseItemOrder is spec.md §8 #4's ordering half: within a
// kind, items must be deleted in the reverse of topo_items order (name
// descending when there is no cross-item dependency), per spec.md §4.D's
// tie-break rule applied to a delete walk.
func TestDeleteReverseItemOrder(t *testing.T) {
	var deleteOrder []string

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/dataservice/template/device":
			w.Write([]byte(`{"data":[
				{"id":"DEV-A","name":"A_Edge","factoryDefault":false},
				{"id":"DEV-B","name":"B_Edge","factoryDefault":false}
			]}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/dataservice/template/device/DEV-A":
			deleteOrder = append(deleteOrder, "A_Edge")
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodDelete && r.URL.Path == "/dataservice/template/device/DEV-B":
			deleteOrder = append(deleteOrder, "B_Edge")
			w.WriteHeader(http.StatusOK)
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	sess := newTestSession(t, srv)
	reg := catalog.New(model.Version{})
	logger := log.NewEntry(log.New())

	report, err := Delete(context.Background(), sess, reg, DeleteOptions{Tags: []string{"template_device"}}, logger)
	require.NoError(t, err)
	require.False(t, report.HasFailures())
	require.Equal(t, []string{"B_Edge", "A_Edge"}, deleteOrder)
}

// TestDeleteSkipsDependedOnItem exercises the reverse-kind-order walk
// across a real dependency edge (spec.md §4.E.3): a device template that
// references a feature template is deleted first (device kind comes
// after feature in topo_kinds, so delete visits it first), and the
// feature template it depends on is left alone because something still
// references it.
func TestDeleteSkipsDependedOnItem(t *testing.T) {
	var deletedIDs []string

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/dataservice/template/device":
			w.Write([]byte(`{"data":[
				{"id":"DEV-1","name":"DC_Edge","factoryDefault":false,"generalTemplates":[{"templateId":"FEAT-1"}]}
			]}`))
		case r.Method == http.MethodGet && r.URL.Path == "/dataservice/template/feature" &&
			r.URL.Query().Get("templateType") == "cisco_system":
			w.Write([]byte(`{"data":[{"id":"FEAT-1","name":"DC_System","factoryDefault":false}]}`))
		case r.Method == http.MethodGet && r.URL.Path == "/dataservice/template/feature":
			w.Write([]byte(`{"data":[]}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/dataservice/template/device/DEV-1":
			deletedIDs = append(deletedIDs, "DEV-1")
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodDelete && r.URL.Path == "/dataservice/template/feature/FEAT-1":
			deletedIDs = append(deletedIDs, "FEAT-1")
			w.WriteHeader(http.StatusOK)
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	sess := newTestSession(t, srv)
	reg := catalog.New(model.Version{})
	logger := log.NewEntry(log.New())

	report, err := Delete(context.Background(), sess, reg, DeleteOptions{
		Tags: []string{"template_device", "template_feature"},
	}, logger)
	require.NoError(t, err)
	require.False(t, report.HasFailures())
	require.Equal(t, []string{"DEV-1"}, deletedIDs)

	var deviceOutcome, featureOutcome ItemOutcome
	for _, it := range report.Items {
		switch it.Name {
		case "DC_Edge":
			deviceOutcome = it.Outcome
		case "DC_System":
			featureOutcome = it.Outcome
		}
	}
	require.Equal(t, OutcomeDeleted, deviceOutcome)
	require.Equal(t, OutcomeSkipped, featureOutcome)
}

// TestDeleteConflictSkipsRatherThanFails is spec.md §8 #4 "delete with
// in-use": a 409 from the controller is logged and the item is skipped,
// not treated as a fatal error for the run.
func TestDeleteConflictSkipsRatherThanFails(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/dataservice/template/device":
			w.Write([]byte(`{"data":[{"id":"DEV-1","name":"DC_Edge","factoryDefault":false}]}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/dataservice/template/device/DEV-1":
			w.WriteHeader(http.StatusConflict)
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	sess := newTestSession(t, srv)
	reg := catalog.New(model.Version{})
	logger := log.NewEntry(log.New())

	report, err := Delete(context.Background(), sess, reg, DeleteOptions{Tags: []string{"template_device"}}, logger)
	require.NoError(t, err)
	require.False(t, report.HasFailures())
	require.Len(t, report.Items, 1)
	require.Equal(t, OutcomeSkipped, report.Items[0].Outcome)
}

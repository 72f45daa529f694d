package task

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cisco-open/sastre-engine/action"
	"github.com/cisco-open/sastre-engine/catalog"
	"github.com/cisco-open/sastre-engine/internal/errs"
	"github.com/cisco-open/sastre-engine/model"
	"github.com/cisco-open/sastre-engine/restclient"
)

func substituteID(path, id string) string {
	return strings.ReplaceAll(path, "{id}", id)
}

// deviceTemplateChunkSize returns the Async Action Engine chunk size to use
// for device-template attach/detach/re-attach, honoring the
// template_device descriptor's ChunkOverride (spec.md §4.F.1) when reg is
// non-nil and the kind is known.
func deviceTemplateChunkSize(reg *catalog.Registry) int {
	if reg == nil {
		return action.DefaultChunkSize
	}
	if d, ok := reg.GetUnfiltered("template_device"); ok {
		return d.Chunk()
	}
	return action.DefaultChunkSize
}

// listKind fetches a kind's index from the controller and, for every
// entry, its full body (spec.md §4.E.1 step 2: "GET its index ... GET
// the full body"). A per-item GET failure marks that entry Omitted and
// is otherwise swallowed here; the caller logs the WARNING.
func listKind(ctx context.Context, sess *restclient.Session, d catalog.Descriptor) (model.Index, map[string]json.RawMessage, []error) {
	idx := model.Index{Kind: d.Kind}
	bodies := map[string]json.RawMessage{}
	var warnings []error

	var env restclient.IndexEnvelope
	if err := sess.GetJSON(ctx, d.Endpoints.List, &env); err != nil {
		return idx, bodies, []error{errs.New(errs.ConnectionError, d.Kind, err)}
	}

	for _, raw := range env.Data {
		body, err := json.Marshal(raw)
		if err != nil {
			warnings = append(warnings, err)
			continue
		}
		id, name, factoryDefault, err := d.Identity(body)
		if err != nil || id == "" {
			warnings = append(warnings, errs.New(errs.InvalidBackup, d.Kind, err))
			continue
		}
		entry := model.IndexEntry{ID: id, Name: name, FactoryDefault: factoryDefault}

		full := body
		if d.Endpoints.Get != "" {
			fetched, err := sess.GetRaw(ctx, substituteID(d.Endpoints.Get, id))
			if err != nil {
				entry.Omitted = true
				warnings = append(warnings, errs.New(errs.NotFound, d.Kind+"/"+name, err))
			} else {
				full = fetched
			}
		}
		idx.Entries = append(idx.Entries, entry)
		if !entry.Omitted {
			bodies[id] = full
		}
	}
	return idx, bodies, warnings
}

// createItem POSTs body to d's create endpoint and returns the
// controller-assigned id.
func createItem(ctx context.Context, sess *restclient.Session, d catalog.Descriptor, body json.RawMessage) (string, error) {
	var raw json.RawMessage
	if err := sess.PostJSON(ctx, d.Endpoints.Create, body, &raw); err != nil {
		return "", err
	}
	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(raw, &resp)
	if resp.ID == "" {
		// Some endpoints echo the created body with its assigned id inline
		// instead of in a wrapper; fall back to re-reading identity fields.
		id, _, _, _ := d.Identity(raw)
		return id, nil
	}
	return resp.ID, nil
}

func updateItem(ctx context.Context, sess *restclient.Session, d catalog.Descriptor, id string, body json.RawMessage) error {
	return sess.PutJSON(ctx, substituteID(d.Endpoints.Update, id), body, nil)
}

func deleteItem(ctx context.Context, sess *restclient.Session, d catalog.Descriptor, id string) error {
	return sess.Delete(ctx, substituteID(d.Endpoints.Delete, id))
}

func getItemBody(ctx context.Context, sess *restclient.Session, d catalog.Descriptor, id string) (json.RawMessage, error) {
	if d.Endpoints.Get == "" {
		return nil, errs.New(errs.NotFound, d.Kind, nil)
	}
	return sess.GetRaw(ctx, substituteID(d.Endpoints.Get, id))
}

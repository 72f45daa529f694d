package restclient

import "context"

// ServerInfo is the controller's reported version/platform, from
// /dataservice/client/server/info (spec.md §6 "server info (version)").
type ServerInfo struct {
	ServerVersion string `json:"version"`
	Platform      string `json:"platform,omitempty"`
}

func (s *Session) ServerInfo(ctx context.Context) (*ServerInfo, error) {
	var info ServerInfo
	if err := s.GetJSON(ctx, "/client/server/info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// VBondConfigured reports whether the target controller has a configured
// vBond (spec.md §4.E.2 step 5). Restore runs this pre-check before pushing
// device templates only when attach is requested; without attach, device
// templates are pushed without it.
func (s *Session) VBondConfigured(ctx context.Context) (bool, error) {
	var resp struct {
		Data []struct {
			DeviceIP string `json:"deviceIP"`
		} `json:"data"`
	}
	if err := s.GetJSON(ctx, "/settings/configuration/device", &resp); err != nil {
		return false, err
	}
	for _, d := range resp.Data {
		if d.DeviceIP != "" {
			return true, nil
		}
	}
	return false, nil
}

// Index fetches a kind's index (list) from path and decodes into out,
// which should be a pointer to a value matching the controller's envelope
// (typically {"data": [...]}). Callers in task/ unwrap "data" via the
// generic IndexEnvelope below.
func (s *Session) Index(ctx context.Context, path string, out interface{}) error {
	return s.GetJSON(ctx, path, out)
}

// IndexEnvelope is the common {"data": [...]} shape the controller wraps
// list responses in.
type IndexEnvelope struct {
	Data []map[string]interface{} `json:"data"`
}

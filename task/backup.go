package task

import (
	"bytes"
	"context"
	"encoding/json"
	"regexp"

	"github.com/beevik/etree"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cisco-open/sastre-engine/catalog"
	"github.com/cisco-open/sastre-engine/model"
	"github.com/cisco-open/sastre-engine/restclient"
	"github.com/cisco-open/sastre-engine/store"
)

// fanOutLimit bounds the number of kinds whose index+body GETs are in
// flight against the controller at once (spec.md §5 "backup and show
// paths' fan-out reads use a bounded worker pool of 10").
const fanOutLimit = 10

// kindListing is one kind's fetch result, computed concurrently and then
// applied to the store/report sequentially so store writes stay ordered.
type kindListing struct {
	kind     string
	d        catalog.Descriptor
	idx      model.Index
	bodies   map[string]json.RawMessage
	warnings []error
}

// BackupOptions mirrors spec.md §4.E.1's inputs.
type BackupOptions struct {
	Tags        []string
	Include     *regexp.Regexp // nil means no filter
	Exclude     *regexp.Regexp
	SaveRunning bool
}

func nameAllowed(opts BackupOptions, name string) bool {
	if opts.Include != nil && !opts.Include.MatchString(name) {
		return false
	}
	if opts.Exclude != nil && opts.Exclude.MatchString(name) {
		return false
	}
	return true
}

// Backup implements spec.md §4.E.1: expand tags, pull each kind's index
// and bodies, write them to st, plus device-template attachments and
// (for the "all" tag) certificates and optionally running-config.
func Backup(ctx context.Context, sess *restclient.Session, reg *catalog.Registry, st store.Store, opts BackupOptions, logger *log.Entry) (*Report, error) {
	report := &Report{}

	kinds, err := reg.Expand(opts.Tags)
	if err != nil {
		return report, err
	}

	info, err := sess.ServerInfo(ctx)
	if err != nil {
		return report, err
	}
	if err := st.WriteServerInfo(model.ServerInfo{ServerVersion: info.ServerVersion, Platform: info.Platform}); err != nil {
		return report, err
	}

	listings := make([]kindListing, len(kinds))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(fanOutLimit)
	for i, kind := range kinds {
		i, kind := i, kind
		d, ok := reg.Get(kind)
		if !ok {
			continue
		}
		listings[i].kind = kind
		listings[i].d = d
		eg.Go(func() error {
			idx, bodies, warnings := listKind(egCtx, sess, d)
			listings[i].idx = idx
			listings[i].bodies = bodies
			listings[i].warnings = warnings
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return report, err
	}

	for _, l := range listings {
		if l.kind == "" {
			continue
		}
		for _, w := range l.warnings {
			logger.WithField("kind", l.kind).Warn(w)
		}

		var kept model.Index
		kept.Kind = l.kind
		for _, e := range l.idx.Entries {
			if !nameAllowed(opts, e.Name) {
				continue
			}
			kept.Entries = append(kept.Entries, e)
			if e.Omitted {
				report.add(l.kind, e.Name, OutcomeFailed, "body GET failed, marked omitted")
				continue
			}
			if body, ok := l.bodies[e.ID]; ok {
				if err := st.WriteItemBody(l.kind, e.Name, e.ID, body); err != nil {
					logger.WithField("kind", l.kind).WithField("name", e.Name).WithError(err).Error("write item body")
					report.Failed(l.kind, e.Name, err)
					continue
				}
			}
			report.BackedUp(l.kind, e.Name)
		}
		if err := st.WriteIndex(l.kind, kept); err != nil {
			return report, err
		}

		if l.d.IsDeviceTemplate {
			backupAttachments(ctx, sess, st, kept, logger)
		}
	}

	if hasAllTag(opts.Tags) {
		backupCertificates(ctx, sess, st, logger)
		if opts.SaveRunning {
			backupRunningConfigs(ctx, sess, st, logger)
		}
	}

	return report, nil
}

func hasAllTag(tags []string) bool {
	for _, t := range tags {
		if catalog.IsAllTag(t) {
			return true
		}
	}
	return false
}

func backupAttachments(ctx context.Context, sess *restclient.Session, st store.Store, idx model.Index, logger *log.Entry) {
	for _, e := range idx.Entries {
		var resp struct {
			Data []struct {
				UUID   string            `json:"uuid"`
				Values map[string]string `json:"variables"`
			} `json:"data"`
		}
		if err := sess.GetJSON(ctx, "/template/device/config/attached/"+e.ID, &resp); err != nil {
			logger.WithField("template", e.Name).WithError(err).Warn("fetch attachments")
			continue
		}
		set := model.AttachmentSet{DeviceTemplateName: e.Name}
		for _, a := range resp.Data {
			set.Attachments = append(set.Attachments, model.Attachment{
				DeviceTemplateID: e.ID, DeviceID: a.UUID, Values: a.Values,
			})
		}
		if err := st.WriteAttachments(e.Name, set); err != nil {
			logger.WithField("template", e.Name).WithError(err).Warn("write attachments")
		}
	}
}

func backupCertificates(ctx context.Context, sess *restclient.Session, st store.Store, logger *log.Entry) {
	raw, err := sess.GetRaw(ctx, "/certificate/vedge/list")
	if err != nil {
		logger.WithError(err).Warn("fetch certificates")
		return
	}
	if err := st.WriteCertificates(raw); err != nil {
		logger.WithError(err).Warn("write certificates")
	}
}

// normalizeRunningConfig re-indents cfg when the device returned its
// running-config as XML (NETCONF-capable platforms do; most vEdge/cEdge
// running-configs are plain CLI text and pass through unchanged). A
// malformed XML document is logged and written as-is rather than dropped,
// since a best-effort running-config snapshot is still useful.
func normalizeRunningConfig(hostname string, cfg []byte, logger *log.Entry) []byte {
	trimmed := bytes.TrimSpace(cfg)
	if len(trimmed) == 0 || trimmed[0] != '<' {
		return cfg
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(cfg); err != nil {
		logger.WithField("device", hostname).WithError(err).Warn("running-config looks like XML but failed to parse; saving as-is")
		return cfg
	}
	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		logger.WithField("device", hostname).WithError(err).Warn("re-serialize XML running-config; saving as-is")
		return cfg
	}
	return out
}

func backupRunningConfigs(ctx context.Context, sess *restclient.Session, st store.Store, logger *log.Entry) {
	var resp struct {
		Data []struct {
			Hostname string `json:"host-name"`
			UUID     string `json:"uuid"`
		} `json:"data"`
	}
	if err := sess.GetJSON(ctx, "/device", &resp); err != nil {
		logger.WithError(err).Warn("list devices for running-config backup")
		return
	}
	for _, dev := range resp.Data {
		cfg, err := sess.GetRaw(ctx, "/device/config/running/"+dev.UUID)
		if err != nil {
			logger.WithField("device", dev.Hostname).WithError(err).Warn("fetch running-config")
			continue
		}
		cfg = normalizeRunningConfig(dev.Hostname, cfg, logger)
		if err := st.WriteDeviceConfig(dev.Hostname, cfg); err != nil {
			logger.WithField("device", dev.Hostname).WithError(err).Warn("write running-config")
		}
	}
}

package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cisco-open/sastre-engine/model"
	"github.com/cisco-open/sastre-engine/restclient"
	"github.com/cisco-open/sastre-engine/store"
	"github.com/cisco-open/sastre-engine/task"
)

var (
	restoreTags    []string
	restoreInclude string
	restoreExclude string
	restoreUpdate  bool
	restoreAttach  bool
	restoreDryRun  bool
	restoreForce   bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore <workdir>",
	Short: "push a workdir snapshot onto the target controller",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, reg, logger, err := connect(ctx)
		if err != nil {
			return err
		}

		cfg := loadConfig()
		src, err := openForRead(cfg, args[0])
		if err != nil {
			return err
		}
		defer src.Close()

		opts := task.RestoreOptions{
			Tags:                       restoreTags,
			Attach:                     restoreAttach,
			DryRun:                     restoreDryRun,
			ForceFactoryDefaultConvert: restoreForce,
		}
		if restoreUpdate {
			opts.Mode = task.ModeUpdate
		}
		if opts.Include, err = compileFilter(restoreInclude); err != nil {
			return err
		}
		if opts.Exclude, err = compileFilter(restoreExclude); err != nil {
			return err
		}

		warnOnVersionSkew(ctx, sess, src, logger)

		report, err := task.Restore(ctx, sess, reg, src, opts, logger)
		renderReport(report)
		if err != nil {
			return err
		}
		if report.HasFailures() {
			return errExitOne
		}
		return nil
	},
}

func init() {
	restoreCmd.Flags().StringSliceVar(&restoreTags, "tags", nil, "tags to restore (comma-separated)")
	restoreCmd.Flags().StringVar(&restoreInclude, "regex", "", "only restore items whose name matches this regex")
	restoreCmd.Flags().StringVar(&restoreExclude, "not-regex", "", "exclude items whose name matches this regex")
	restoreCmd.Flags().BoolVar(&restoreUpdate, "update", false, "PUT existing items whose canonical body differs (needed-only)")
	restoreCmd.Flags().BoolVar(&restoreAttach, "attach", false, "attach device templates and activate vSmart policies after push")
	restoreCmd.Flags().BoolVar(&restoreDryRun, "dry-run", false, "compute and report the push plan without writing")
	restoreCmd.Flags().BoolVar(&restoreForce, "force", false, "convert factory-default items to non-default on create when absent from target")
	rootCmd.AddCommand(restoreCmd)
}

// warnOnVersionSkew compares the source snapshot's recorded controller
// version against the target's, WARNing (never failing) on a mismatched
// major.minor (spec.md §6, §9 "treat mismatched major.minor as WARN
// rather than fatal").
func warnOnVersionSkew(ctx context.Context, sess *restclient.Session, src store.Store, logger *log.Entry) {
	srcInfo, err := src.ReadServerInfo()
	if err != nil {
		return
	}
	srcV, err := model.ParseVersion(srcInfo.ServerVersion)
	if err != nil {
		return
	}
	tgtInfo, err := sess.ServerInfo(ctx)
	if err != nil {
		return
	}
	tgtV, err := model.ParseVersion(tgtInfo.ServerVersion)
	if err != nil {
		return
	}
	if srcV.Compare(tgtV) != 0 {
		logger.WithField("source_version", srcV.String()).WithField("target_version", tgtV.String()).
			Warn("source and target controller major.minor differ")
	}
}

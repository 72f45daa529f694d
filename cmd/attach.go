package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cisco-open/sastre-engine/task"
)

var attachDevices []string

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "re-attach device templates / re-activate vSmart policies for the given devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, reg, logger, err := connect(ctx)
		if err != nil {
			return err
		}
		report, err := task.Attach(ctx, sess, reg, attachDevices, logger)
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

var detachCmd = &cobra.Command{
	Use:   "detach",
	Short: "detach device templates / deactivate vSmart policies for the given devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, reg, logger, err := connect(ctx)
		if err != nil {
			return err
		}
		report, err := task.Detach(ctx, sess, reg, attachDevices, logger)
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

var certSyncCmd = &cobra.Command{
	Use:   "certsync <workdir>",
	Short: "push a workdir's saved certificate validity list to the target controller",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, _, logger, err := connect(ctx)
		if err != nil {
			return err
		}
		cfg := loadConfig()
		src, err := openForRead(cfg, args[0])
		if err != nil {
			return err
		}
		defer src.Close()

		report, err := task.CertSync(ctx, sess, src, logger)
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
	attachCmd.Flags().StringSliceVar(&attachDevices, "devices", nil, "device ids (comma-separated)")
	detachCmd.Flags().StringSliceVar(&attachDevices, "devices", nil, "device ids (comma-separated)")
	rootCmd.AddCommand(attachCmd, detachCmd, certSyncCmd)
}

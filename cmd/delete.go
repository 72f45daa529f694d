package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cisco-open/sastre-engine/task"
)

var (
	deleteTags    []string
	deleteInclude string
	deleteExclude string
	deleteDetach  bool
	deleteDryRun  bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "delete items from the target controller, dependents first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, reg, logger, err := connect(ctx)
		if err != nil {
			return err
		}

		opts := task.DeleteOptions{Tags: deleteTags, Detach: deleteDetach, DryRun: deleteDryRun}
		if opts.Include, err = compileFilter(deleteInclude); err != nil {
			return err
		}
		if opts.Exclude, err = compileFilter(deleteExclude); err != nil {
			return err
		}

		report, err := task.Delete(ctx, sess, reg, opts, logger)
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
	deleteCmd.Flags().StringSliceVar(&deleteTags, "tags", nil, "tags to delete (comma-separated)")
	deleteCmd.Flags().StringVar(&deleteInclude, "regex", "", "only delete items whose name matches this regex")
	deleteCmd.Flags().StringVar(&deleteExclude, "not-regex", "", "exclude items whose name matches this regex")
	deleteCmd.Flags().BoolVar(&deleteDetach, "detach", false, "detach/deactivate device templates and vSmart policies before deleting")
	deleteCmd.Flags().BoolVar(&deleteDryRun, "dry-run", false, "report what would be deleted without deleting")
	rootCmd.AddCommand(deleteCmd)
}

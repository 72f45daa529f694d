package cmd

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/cisco-open/sastre-engine/task"
)

var (
	backupTags        []string
	backupInclude     string
	backupExclude     string
	backupSaveRunning bool
	backupRollover    bool
)

var backupCmd = &cobra.Command{
	Use:   "backup <workdir>",
	Short: "pull items from the controller into a workdir snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, reg, logger, err := connect(ctx)
		if err != nil {
			return err
		}

		cfg := loadConfig()
		st, err := openForWrite(cfg, args[0], backupRollover)
		if err != nil {
			return err
		}
		defer st.Close()

		opts := task.BackupOptions{Tags: backupTags, SaveRunning: backupSaveRunning}
		if opts.Include, err = compileFilter(backupInclude); err != nil {
			return err
		}
		if opts.Exclude, err = compileFilter(backupExclude); err != nil {
			return err
		}

		report, err := task.Backup(ctx, sess, reg, st, opts, logger)
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
	backupCmd.Flags().StringSliceVar(&backupTags, "tags", nil, "tags to back up (comma-separated)")
	backupCmd.Flags().StringVar(&backupInclude, "regex", "", "only back up items whose name matches this regex")
	backupCmd.Flags().StringVar(&backupExclude, "not-regex", "", "exclude items whose name matches this regex")
	backupCmd.Flags().BoolVar(&backupSaveRunning, "save-running", false, "also save device running-configs (tag 'all' only)")
	backupCmd.Flags().BoolVar(&backupRollover, "rollover", true, "rotate an existing workdir with the same name before writing")
	rootCmd.AddCommand(backupCmd)
}

func compileFilter(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	return re, nil
}

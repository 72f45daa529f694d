package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/cisco-open/sastre-engine/internal/errs"
	"github.com/cisco-open/sastre-engine/nametemplate"
	"github.com/cisco-open/sastre-engine/task"
)

var (
	migrateSrcWorkdir string
	migrateRulesFile  string
	migrateRecipeFile string
)

// migrateRulesFile's YAML shape: a flat list of per-kind per-field value
// substitutions, applied before the item is written to the destination
// workdir (spec.md §4.E.4).
type migrateRulesDoc struct {
	Rules []struct {
		Kind  string            `yaml:"kind"`
		Path  []string          `yaml:"path"`
		OldTo map[string]string `yaml:"old_to"`
	} `yaml:"rules"`
}

func loadFieldRules(file string) ([]task.FieldRule, error) {
	if file == "" {
		return nil, nil
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, errs.New(errs.InvalidRecipe, file, err)
	}
	var doc migrateRulesDoc
	if err := yaml.UnmarshalStrict(b, &doc); err != nil {
		return nil, errs.New(errs.InvalidRecipe, file, err)
	}
	rules := make([]task.FieldRule, 0, len(doc.Rules))
	for _, r := range doc.Rules {
		rules = append(rules, task.FieldRule{Kind: r.Kind, Path: r.Path, OldTo: r.OldTo})
	}
	return rules, nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate <dst-workdir>",
	Short: "translate a snapshot (live controller or workdir) into the target controller's version line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, reg, logger, err := connect(ctx)
		if err != nil {
			return err
		}

		cfg := loadConfig()
		opts := task.MigrateOptions{Sess: sess}
		if migrateSrcWorkdir != "" {
			src, err := openForRead(cfg, migrateSrcWorkdir)
			if err != nil {
				return err
			}
			defer src.Close()
			opts.Sess = nil
			opts.Src = src
		}

		if opts.Rules, err = loadFieldRules(migrateRulesFile); err != nil {
			return err
		}
		if migrateRecipeFile != "" {
			recipe, err := nametemplate.LoadRecipe(migrateRecipeFile)
			if err != nil {
				return err
			}
			opts.NameRecipe = recipe
		}

		dst, err := openForWrite(cfg, args[0], true)
		if err != nil {
			return err
		}
		defer dst.Close()

		report, err := task.Migrate(ctx, reg, opts, dst, logger)
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
	migrateCmd.Flags().StringVar(&migrateSrcWorkdir, "src", "", "read from this workdir instead of the live controller connection")
	migrateCmd.Flags().StringVar(&migrateRulesFile, "rules", "", "YAML field-rule file (see spec §4.E.4)")
	migrateCmd.Flags().StringVar(&migrateRecipeFile, "rename-recipe", "", "Name Transformer recipe applied to migrated item names")
	rootCmd.AddCommand(migrateCmd)
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cisco-open/sastre-engine/catalog"
	"github.com/cisco-open/sastre-engine/model"
	"github.com/cisco-open/sastre-engine/nametemplate"
	"github.com/cisco-open/sastre-engine/task"
)

var transformRecipeFile string

var transformCmd = &cobra.Command{
	Use:   "transform <src-workdir> <dst-workdir>",
	Short: "rename or copy-and-rename items in a workdir snapshot, relinking references",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger := baseLogger.WithField("task", "transform")

		src, err := openForRead(cfg, args[0])
		if err != nil {
			return err
		}
		defer src.Close()

		recipe, err := nametemplate.LoadRecipe(transformRecipeFile)
		if err != nil {
			return err
		}

		info, err := src.ReadServerInfo()
		if err != nil {
			return err
		}
		var v model.Version
		if parsed, perr := model.ParseVersion(info.ServerVersion); perr == nil {
			v = parsed
		}
		reg := catalog.New(v)

		dst, err := openForWrite(cfg, args[1], true)
		if err != nil {
			return err
		}
		defer dst.Close()

		report, err := task.Transform(cmd.Context(), reg, src, dst, recipe, logger)
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
	transformCmd.Flags().StringVar(&transformRecipeFile, "recipe", "", "Name Transformer recipe YAML file (required)")
	transformCmd.MarkFlagRequired("recipe")
	rootCmd.AddCommand(transformCmd)
}

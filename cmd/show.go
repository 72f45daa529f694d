package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cisco-open/sastre-engine/restclient"
)

var showTags []string

// showCmd is a thin fan-out stub (SPEC_FULL.md §4 Non-goals: "no 'show'
// family beyond a thin cmd/show.go fan-out stub"): it lists the selected
// kinds and their item counts, without rendering per-kind JSON shape.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "list item counts on the target controller for the given tags",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, reg, logger, err := connect(ctx)
		if err != nil {
			return err
		}

		kinds, err := reg.Expand(showTags)
		if err != nil {
			return err
		}
		for _, kind := range kinds {
			d, ok := reg.Get(kind)
			if !ok {
				continue
			}
			var env restclient.IndexEnvelope
			if err := sess.GetJSON(ctx, d.Endpoints.List, &env); err != nil {
				logger.WithField("kind", kind).WithError(err).Warn("list")
				continue
			}
			fmt.Printf("%s: %d items\n", kind, len(env.Data))
		}
		return nil
	},
}

func init() {
	showCmd.Flags().StringSliceVar(&showTags, "tags", []string{"all"}, "tags to list (comma-separated)")
	rootCmd.AddCommand(showCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tanq16/guardl/internal/downloader"
	"github.com/tanq16/guardl/internal/output"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [DIR]",
		Short: "Remove staging files left behind by interrupted downloads",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			removed, err := downloader.CleanStaging(dir)
			for _, path := range removed {
				output.PrintInfo(fmt.Sprintf("%s removed %s", output.StyleSymbols["bullet"], path))
			}
			if err != nil {
				return err
			}
			if len(removed) == 0 {
				output.PrintWarning(fmt.Sprintf("%s no staging files in %s", output.StyleSymbols["warning"], dir))
				return nil
			}
			console.Info(fmt.Sprintf("Removed %d staging file(s) from %s", len(removed), dir))
			return nil
		},
	}
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tanq16/guardl/internal/downloader"
	"github.com/tanq16/guardl/internal/output"
	"github.com/tanq16/guardl/internal/scheduler"
	"github.com/tanq16/guardl/internal/utils"
)

func newBatchCmd() *cobra.Command {
	var workers int
	var profile string

	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE]",
		Short: "Download every entry of a YAML list",
		Long: `Download every entry of a YAML list, running several downloads at once.

The file is a list of entries:
  - link: https://example.com/a.iso
    op: isos/a.iso
  - link: s3://bucket/b.tar
    op: b.tar`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := utils.ReadDownloadList(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				settings.Workers = workers
			}

			s3Profile := ""
			for _, entry := range entries {
				if strings.HasPrefix(entry.URL, "s3://") {
					s3Profile = profile
					break
				}
			}
			// Progress bars are not drawn for batches; lines from
			// concurrent downloads would overwrite each other.
			dl, err := newDownloader(nil, s3Profile)
			if err != nil {
				return err
			}

			reqOpts := settings.RequestOptions()
			results, err := scheduler.Run(scheduler.JobsFromEntries(entries), settings.Workers, func(job scheduler.Job) (string, error) {
				return dl.Download(downloader.NewRequest(job.URL, job.OutputPath, reqOpts...))
			})
			if results == nil && err != nil {
				return err
			}
			failed := 0
			output.PrintHeader("Batch summary")
			for _, r := range results {
				if r.Err != nil {
					failed++
					output.PrintError(fmt.Sprintf("%s %s: %v", output.StyleSymbols["fail"], r.Job.URL, r.Err))
					continue
				}
				output.PrintSuccess(fmt.Sprintf("%s %s %s %s", output.StyleSymbols["pass"], r.Job.URL, output.StyleSymbols["arrow"], r.Path))
			}
			if err != nil {
				return fmt.Errorf("%d of %d downloads failed", failed, len(entries))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "Number of downloads to run in parallel")
	cmd.Flags().StringVarP(&profile, "profile", "p", "default", "AWS profile for s3:// entries")
	return cmd
}

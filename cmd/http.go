package cmd

import (
	u "net/url"

	"github.com/spf13/cobra"
)

func newHTTPCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "http [URL] [--output OUTPUT_PATH]",
		Short: "Download a file via HTTP/HTTPS",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := args[0]
			if outputPath == "" {
				parsed, err := u.Parse(url)
				if err != nil {
					return err
				}
				outputPath = defaultOutputPath(parsed.Path)
			}
			return downloadOne(url, outputPath, "")
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (inferred from the URL if not provided)")
	return cmd
}

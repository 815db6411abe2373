package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/tanq16/guardl/internal/downloader"
)

func newS3Cmd() *cobra.Command {
	var outputPath string
	var profile string

	cmd := &cobra.Command{
		Use:   "s3 [BUCKET/KEY or s3://BUCKET/KEY]",
		Short: "Download a single object from AWS S3",
		Long: `Download a single object from AWS S3 with the same size limit,
staging and retry behavior as HTTP downloads.

Examples:
  guardl s3 mybucket/path/to/file.zip
  guardl s3 s3://mybucket/path/to/file.zip --profile myprofile -o file.zip`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := args[0]
			if !strings.HasPrefix(url, "s3://") {
				url = "s3://" + url
			}
			_, key, err := downloader.ParseS3URL(url)
			if err != nil {
				return err
			}
			if outputPath == "" {
				outputPath = defaultOutputPath(key)
			}
			return downloadOne(url, outputPath, profile)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output path (object name if not provided)")
	cmd.Flags().StringVarP(&profile, "profile", "p", "default", "AWS profile to use")
	return cmd
}

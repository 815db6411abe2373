package utils

// DownloadEntry is one item of a batch list file.
type DownloadEntry struct {
	OutputPath string `yaml:"op"`
	URL        string `yaml:"link"`
}

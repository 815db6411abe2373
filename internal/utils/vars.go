package utils

import "errors"

const ToolUserAgent = "guardl/1.0"

var ErrEmptyDownloadList = errors.New("download list is empty")

package walker

import (
	"path/filepath"
	"strings"
)

// Format is the encoding of a dataset file.
type Format string

const (
	FormatUnknown Format = ""
	FormatYAML    Format = "yaml"
	FormatJSON    Format = "json"
)

var extensionToFormat = map[string]Format{
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".json": FormatJSON,
}

// DetectFormat returns the dataset format for a file name or path, or
// FormatUnknown when the extension is not a dataset encoding.
func DetectFormat(name string) Format {
	return extensionToFormat[strings.ToLower(filepath.Ext(name))]
}

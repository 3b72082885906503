package document

import (
	"path/filepath"
	"strings"
)

// SupportedExtensions defines file extensions that can be ingested. HTML is
// converted to plain text, everything else is read as is.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".text":     true,
	".csv":      true,
	".json":     true,
	".yaml":     true,
	".yml":      true,
	".html":     true,
	".htm":      true,
}

// isHTMLFile reports whether path must be converted from HTML before chunking
func isHTMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".html" || ext == ".htm"
}

// IsSupportedFile reports whether path has an ingestible extension
func IsSupportedFile(path string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(path))]
}

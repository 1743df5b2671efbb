package constants

import "strings"

// Format is the coarse source-document format used to pick an extraction strategy.
type Format string

const (
	PDF   Format = "PDF"
	IMAGE Format = "IMAGE"
)

// AllowedExtensions holds the default allowed file extensions for NFS-e ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat maps a file extension to its Format. Unknown extensions map to IMAGE
// since the OCR path is the safe fallback.
func MapExtToFormat(ext string) Format {
	if NormalizeExt(ext) == "pdf" {
		return PDF
	}
	return IMAGE
}

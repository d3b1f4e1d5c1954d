package upload

import (
	"net/http"
	"path/filepath"
	"strings"
)

// Browsers derive a file's type from its extension; this table mirrors the
// common video types so non-browser channels declare the same thing.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
}

// ContentTypeFor returns the declared type for a file without one: by
// extension first, then by sniffing head.
func ContentTypeFor(name string, head []byte) string {
	if ct, ok := videoTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	if len(head) == 0 {
		return "application/octet-stream"
	}
	return http.DetectContentType(head)
}

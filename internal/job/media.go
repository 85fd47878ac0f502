package job

import (
	"mime"
	"path/filepath"
	"strings"
)

// mime's built-in table lacks these on hosts without /etc/mime.types.
var knownExtensions = map[string]string{
	".csv":  "text/csv",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// DetectMediaType returns declared unless it is empty or the generic
// application/octet-stream, in which case the type is guessed from the
// file extension.
func DetectMediaType(name, declared string) string {
	if mt := normalizeMediaType(declared); mt != "" && mt != "application/octet-stream" {
		return declared
	}
	ext := strings.ToLower(filepath.Ext(name))
	if mt, ok := knownExtensions[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return declared
}

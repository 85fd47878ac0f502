package job

import (
	"fmt"
	"strings"

	"github.com/nanosynth/nanosynth/pkg/models"
)

var imageMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/tiff": true,
}

// Validate checks req against the constraints of its kind. It has no side
// effects and returns a validation *Error describing the first violation.
func Validate(req models.JobRequest, p Profile) error {
	switch req.Kind {
	case models.KindDesignGeneration:
		return validateDesign(req.Design)
	case models.KindImageAnalysis:
		if err := requireFile(req); err != nil {
			return err
		}
		mt := normalizeMediaType(req.File.MediaType)
		if !imageMediaTypes[mt] {
			return validationErrorf("unsupported image format %q: use JPG, PNG or TIFF", req.File.MediaType)
		}
		return checkSize(req.File, p.MaxUploadBytes)
	case models.KindStatisticalAnalysis, models.KindPIVAnalysis:
		if err := requireFile(req); err != nil {
			return err
		}
		if !isCSV(req.File) {
			return validationErrorf("%q is not a CSV file", req.File.Name)
		}
		return checkSize(req.File, p.MaxUploadBytes)
	default:
		return validationErrorf("unknown job kind %q", req.Kind)
	}
}

func validateDesign(d *models.DesignRequest) error {
	if d == nil {
		return validationErrorf("design request is missing")
	}
	if _, ok := ResolveMethod(d.Method); !ok {
		if strings.TrimSpace(d.Method) == "" {
			return validationErrorf("a manufacturing method is required")
		}
		return validationErrorf("unknown manufacturing method %q", d.Method)
	}
	if strings.TrimSpace(d.Kinetics) == "" {
		return validationErrorf("reaction kinetics are required")
	}
	return nil
}

func requireFile(req models.JobRequest) error {
	if req.File == nil {
		return validationErrorf("a file is required for %s", req.Kind)
	}
	return nil
}

func checkSize(f *models.FileUpload, limit int64) error {
	if limit > 0 && f.Size() > limit {
		return validationErrorf("file is too large: %s exceeds the %s limit",
			formatBytes(f.Size()), formatBytes(limit))
	}
	return nil
}

func isCSV(f *models.FileUpload) bool {
	return normalizeMediaType(f.MediaType) == "text/csv" ||
		strings.HasSuffix(strings.ToLower(f.Name), ".csv")
}

// normalizeMediaType drops parameters such as "; charset=utf-8".
func normalizeMediaType(mt string) string {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

func formatBytes(n int64) string {
	if n%MiB == 0 {
		return fmt.Sprintf("%d MiB", n/MiB)
	}
	return fmt.Sprintf("%.1f MiB", float64(n)/MiB)
}

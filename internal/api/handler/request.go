package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nanosynth/nanosynth/internal/api/response"
	"github.com/nanosynth/nanosynth/internal/job"
	"github.com/nanosynth/nanosynth/pkg/models"
)

// maxMemory is the part of a multipart body kept in memory; the rest spills
// to temporary files.
const maxMemory = 32 << 20

// maxDesignBody caps the JSON body of a design request.
const maxDesignBody = 1 << 20

// analysisKinds maps the {kind} URL segment to a job kind.
var analysisKinds = map[string]models.JobKind{
	"image":       models.KindImageAnalysis,
	"statistical": models.KindStatisticalAnalysis,
	"piv":         models.KindPIVAnalysis,
}

type requestError struct {
	status  int
	code    string
	message string
}

func (e *requestError) Error() string { return e.message }

func (e *requestError) write(w http.ResponseWriter) {
	response.Error(w, e.status, e.code, e.message, nil)
}

func invalidRequest(format string, args ...any) *requestError {
	return &requestError{status: http.StatusBadRequest, code: "INVALID_REQUEST", message: fmt.Sprintf(format, args...)}
}

// payloadTooLarge returns a 413 error when err came from an http.MaxBytesReader.
func payloadTooLarge(err error) *requestError {
	var tooLarge *http.MaxBytesError
	if !errors.As(err, &tooLarge) {
		return nil
	}
	return &requestError{
		status:  http.StatusRequestEntityTooLarge,
		code:    "PAYLOAD_TOO_LARGE",
		message: fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit),
	}
}

// decodeDesign reads a {"method","kinetics"} body. Field values are checked
// by the runner, not here.
func decodeDesign(w http.ResponseWriter, r *http.Request) (models.JobRequest, *requestError) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDesignBody)

	var body models.DesignRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if reqErr := payloadTooLarge(err); reqErr != nil {
			return models.JobRequest{}, reqErr
		}
		return models.JobRequest{}, invalidRequest("Invalid JSON body")
	}
	return models.NewDesignRequest(body.Method, body.Kinetics), nil
}

// decodeAnalysis resolves the {kind} URL segment and reads the multipart
// "file" field. Bodies larger than maxBody are rejected.
func decodeAnalysis(w http.ResponseWriter, r *http.Request, maxBody int64) (models.JobRequest, *requestError) {
	segment := chi.URLParam(r, "kind")
	kind, ok := analysisKinds[segment]
	if !ok {
		return models.JobRequest{}, &requestError{
			status:  http.StatusNotFound,
			code:    "UNKNOWN_JOB_KIND",
			message: fmt.Sprintf("Unknown analysis kind %q: use image, statistical or piv", segment),
		}
	}

	if maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		if reqErr := payloadTooLarge(err); reqErr != nil {
			return models.JobRequest{}, reqErr
		}
		return models.JobRequest{}, invalidRequest("Expected a multipart/form-data body")
	}
	defer r.MultipartForm.RemoveAll()

	f, header, err := r.FormFile("file")
	if err != nil {
		return models.JobRequest{}, invalidRequest("file is required")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return models.JobRequest{}, invalidRequest("Could not read the uploaded file")
	}

	return models.NewFileRequest(kind, models.FileUpload{
		Name:      header.Filename,
		MediaType: job.DetectMediaType(header.Filename, header.Header.Get("Content-Type")),
		SizeBytes: header.Size,
		Data:      data,
	}), nil
}

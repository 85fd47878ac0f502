package handler

import (
	"context"
	"net/http"

	"github.com/nanosynth/nanosynth/internal/api/response"
	"github.com/nanosynth/nanosynth/internal/job"
	"github.com/nanosynth/nanosynth/pkg/models"
)

// Submitter defines the synchronous runner the handlers depend on.
type Submitter interface {
	Submit(ctx context.Context, req models.JobRequest) (*models.JobResult, error)
}

// NewDesignHandler returns an http.HandlerFunc for POST /api/v1/designs.
func NewDesignHandler(svc Submitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, reqErr := decodeDesign(w, r)
		if reqErr != nil {
			reqErr.write(w)
			return
		}
		submit(w, r, svc, req)
	}
}

// NewAnalysisHandler returns an http.HandlerFunc for
// POST /api/v1/analyses/{kind}.
func NewAnalysisHandler(svc Submitter, maxBody int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, reqErr := decodeAnalysis(w, r, maxBody)
		if reqErr != nil {
			reqErr.write(w)
			return
		}
		submit(w, r, svc, req)
	}
}

// submit runs req on the request's context, so a client that disconnects
// abandons the job.
func submit(w http.ResponseWriter, r *http.Request, svc Submitter, req models.JobRequest) {
	result, err := svc.Submit(r.Context(), req)
	if err != nil {
		writeJobError(w, err)
		return
	}
	response.JSON(w, result)
}

// NewMethodsHandler returns an http.HandlerFunc for GET /api/v1/methods.
func NewMethodsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, job.Methods)
	}
}

package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nanosynth/nanosynth/internal/api/response"
	"github.com/nanosynth/nanosynth/internal/tracker"
	"github.com/nanosynth/nanosynth/pkg/models"
)

// Tracker defines the background job service the handlers depend on.
type Tracker interface {
	Trigger(ctx context.Context, req models.JobRequest) (*models.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Job, error)
	Report(ctx context.Context, id uuid.UUID) ([]byte, string, error)
}

// NewTriggerDesignHandler returns an http.HandlerFunc for
// POST /api/v1/jobs/designs.
func NewTriggerDesignHandler(tr Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, reqErr := decodeDesign(w, r)
		if reqErr != nil {
			reqErr.write(w)
			return
		}
		trigger(w, r, tr, req)
	}
}

// NewTriggerAnalysisHandler returns an http.HandlerFunc for
// POST /api/v1/jobs/analyses/{kind}.
func NewTriggerAnalysisHandler(tr Tracker, maxBody int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, reqErr := decodeAnalysis(w, r, maxBody)
		if reqErr != nil {
			reqErr.write(w)
			return
		}
		trigger(w, r, tr, req)
	}
}

func trigger(w http.ResponseWriter, r *http.Request, tr Tracker, req models.JobRequest) {
	j, err := tr.Trigger(r.Context(), req)
	if err != nil {
		if errors.Is(err, tracker.ErrUnknownKind) {
			response.Error(w, http.StatusNotFound, "UNKNOWN_JOB_KIND", err.Error(), nil)
			return
		}
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Could not create the job", nil)
		return
	}
	response.Accepted(w, j)
}

// NewPollJobHandler returns an http.HandlerFunc for GET /api/v1/jobs/{jobID}.
func NewPollJobHandler(tr Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseJobID(w, r)
		if !ok {
			return
		}

		j, err := tr.Get(r.Context(), id)
		if err != nil {
			writeTrackerError(w, err)
			return
		}
		response.JSON(w, j)
	}
}

// NewReportHandler returns an http.HandlerFunc for
// GET /api/v1/jobs/{jobID}/report.
func NewReportHandler(tr Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseJobID(w, r)
		if !ok {
			return
		}

		data, fileName, err := tr.Report(r.Context(), id)
		if err != nil {
			writeTrackerError(w, err)
			return
		}
		response.Attachment(w, fileName, data)
	}
}

func parseJobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

func writeTrackerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tracker.ErrNotFound):
		response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found or expired", nil)
	case errors.Is(err, tracker.ErrNotCompleted):
		response.Error(w, http.StatusConflict, "JOB_NOT_COMPLETED",
			"The job has not completed; poll its status first", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}

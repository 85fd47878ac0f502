package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/nanosynth/nanosynth/internal/api/response"
	"github.com/nanosynth/nanosynth/internal/job"
)

// writeJobError maps a runner error onto the error envelope.
func writeJobError(w http.ResponseWriter, err error) {
	if jobErr, ok := job.AsError(err); ok {
		details := map[string]string{"reason": string(jobErr.Reason)}
		switch {
		case errors.Is(err, job.ErrValidationFailed):
			response.Error(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", jobErr.Message, details)
		case errors.Is(err, job.ErrTransportFailure):
			response.Error(w, http.StatusBadGateway, "SIMULATED_TRANSPORT_FAILURE", jobErr.Message, details)
		case errors.Is(err, job.ErrProcessingFailure):
			response.Error(w, http.StatusInternalServerError, "SIMULATED_PROCESSING_FAILURE", jobErr.Message, details)
		default:
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", jobErr.Message, details)
		}
		return
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		response.Error(w, http.StatusServiceUnavailable, "JOB_CANCELLED",
			"The request was cancelled before the job finished", nil)
		return
	}

	response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
		"An unexpected error occurred", nil)
}

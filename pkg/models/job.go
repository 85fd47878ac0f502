package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job tracks an asynchronous submission. The API returns the job on
// POST /api/v1/jobs/...; the client polls GET /api/v1/jobs/{job_id} until
// status is completed or failed.
type Job struct {
	ID           uuid.UUID  `json:"id"`
	Kind         JobKind    `json:"kind"`
	Status       string     `json:"status"`
	Input        string     `json:"input"`
	Result       *JobResult `json:"result,omitempty"`
	ErrorReason  *string    `json:"error_reason,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Terminal reports whether the job has reached completed or failed.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

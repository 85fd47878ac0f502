// Package tracker runs submissions in the background and keeps their status
// in the cache so clients can poll for the outcome.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nanosynth/nanosynth/internal/cache"
	"github.com/nanosynth/nanosynth/internal/job"
	"github.com/nanosynth/nanosynth/pkg/models"
)

const (
	DefaultTTL     = 30 * time.Minute
	DefaultTimeout = 2 * time.Minute
)

var (
	ErrNotFound     = errors.New("job not found")
	ErrNotCompleted = errors.New("job has not completed")
	ErrUnknownKind  = errors.New("unknown job kind")
)

// ReportFileNames maps each kind to the download name of its report.
var ReportFileNames = map[models.JobKind]string{
	models.KindDesignGeneration:    "diseno_microfluidico.json",
	models.KindImageAnalysis:       "analisis_microscopia.json",
	models.KindStatisticalAnalysis: "analisis_estadistico.json",
	models.KindPIVAnalysis:         "analisis_piv.json",
}

var validTransitions = map[string][]string{
	models.JobStatusPending: {models.JobStatusRunning},
	models.JobStatusRunning: {models.JobStatusCompleted, models.JobStatusFailed},
}

// Submitter runs one submission to completion. *job.Runner satisfies it.
type Submitter interface {
	Submit(ctx context.Context, req models.JobRequest) (*models.JobResult, error)
}

// Service dispatches jobs and serves their status.
type Service struct {
	runner  Submitter
	cache   cache.Cache
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger

	wg sync.WaitGroup
}

// NewService creates a Service. Non-positive ttl or timeout fall back to
// DefaultTTL and DefaultTimeout.
func NewService(runner Submitter, c cache.Cache, ttl, timeout time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		runner:  runner,
		cache:   c,
		ttl:     ttl,
		timeout: timeout,
		logger:  logger,
	}
}

// Trigger creates a pending job and dispatches the submission in a background
// goroutine. It returns the job immediately without waiting for the outcome.
func (s *Service) Trigger(ctx context.Context, req models.JobRequest) (*models.Job, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}

	now := time.Now().UTC()
	j := &models.Job{
		ID:        uuid.New(),
		Kind:      req.Kind,
		Status:    models.JobStatusPending,
		Input:     describe(req),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.cache.SetJob(ctx, j, s.ttl); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}

	snapshot := *j
	s.wg.Add(1)
	go s.run(j, req)

	return &snapshot, nil
}

// Wait blocks until every dispatched job has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// run performs the submission in a goroutine. It recovers from panics and
// always marks the job as completed or failed.
func (s *Service) run(j *models.Job, req models.JobRequest) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	log := s.logger.With("job_id", j.ID, "kind", j.Kind)

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic in job run", "error", r)
			s.fail(ctx, j, job.OutcomeError, fmt.Sprintf("panic: %v", r))
		}
	}()

	if err := s.advance(ctx, j, models.JobStatusRunning); err != nil {
		log.Error("marking job running", "error", err)
		return
	}

	result, err := s.runner.Submit(ctx, req)
	if err != nil {
		reason := job.Outcome(err)
		log.Info("job failed", "reason", reason, "error", err)
		s.fail(ctx, j, reason, err.Error())
		return
	}

	j.Result = result
	if err := s.advance(ctx, j, models.JobStatusCompleted); err != nil {
		log.Error("marking job completed", "error", err)
		return
	}
	log.Info("job completed")
}

func (s *Service) fail(ctx context.Context, j *models.Job, reason, message string) {
	j.ErrorReason = &reason
	j.ErrorMessage = &message
	if err := s.advance(ctx, j, models.JobStatusFailed); err != nil {
		s.logger.Error("marking job failed", "job_id", j.ID, "error", err)
	}
}

// advance moves j to status and writes the record back. The write uses a
// context detached from the run's deadline so a timed-out job can still be
// recorded as failed.
func (s *Service) advance(ctx context.Context, j *models.Job, status string) error {
	if !slices.Contains(validTransitions[j.Status], status) {
		return fmt.Errorf("invalid job status transition: %s -> %s", j.Status, status)
	}

	now := time.Now().UTC()
	j.Status = status
	j.UpdatedAt = now
	if status == models.JobStatusRunning {
		j.StartedAt = &now
	}
	if j.Terminal() {
		j.CompletedAt = &now
	}

	return s.cache.SetJob(context.WithoutCancel(ctx), j, s.ttl)
}

// Get returns the current record of a job.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	j, found, err := s.cache.GetJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return j, nil
}

// Report returns the result of a completed job as indented JSON together with
// the file name it should be downloaded as.
func (s *Service) Report(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	j, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if j.Status != models.JobStatusCompleted || j.Result == nil {
		return nil, "", ErrNotCompleted
	}

	data, err := json.MarshalIndent(payload(j.Result), "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("marshal report: %w", err)
	}
	return data, ReportFileNames[j.Kind], nil
}

func payload(r *models.JobResult) any {
	switch r.Kind {
	case models.KindDesignGeneration:
		return r.Design
	case models.KindImageAnalysis:
		return r.Image
	case models.KindStatisticalAnalysis:
		return r.Statistical
	case models.KindPIVAnalysis:
		return r.PIV
	}
	return r
}

func describe(req models.JobRequest) string {
	switch {
	case req.Design != nil:
		return fmt.Sprintf("%s: %s", req.Design.Method, req.Design.Kinetics)
	case req.File != nil:
		return req.File.Name
	}
	return ""
}

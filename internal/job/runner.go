// Package job implements the simulated generation and analysis backend:
// every submission is validated, delayed, possibly failed on purpose, and
// finally answered with a synthesized result.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nanosynth/nanosynth/pkg/models"
)

const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
	OutcomeError     = "error"
)

// Observer is notified about every submission. Implementations must be safe
// for concurrent use.
type Observer interface {
	JobSubmitted(kind models.JobKind)
	JobFinished(kind models.JobKind, outcome string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) JobSubmitted(models.JobKind)                       {}
func (nopObserver) JobFinished(models.JobKind, string, time.Duration) {}

// Runner runs submissions through validation, simulated latency, fault
// injection and synthesis, in that order. It holds no per-submission state
// and is safe for concurrent use. It never retries.
type Runner struct {
	profiles Profiles
	random   Randomness
	sleeper  Sleeper
	observer Observer
	logger   *slog.Logger
}

type Option func(*Runner)

// WithProfiles replaces the per-kind configuration table.
func WithProfiles(p Profiles) Option {
	return func(r *Runner) {
		r.profiles = p.Clone()
	}
}

func WithRandomness(rnd Randomness) Option {
	return func(r *Runner) {
		r.random = rnd
	}
}

func WithSleeper(s Sleeper) Option {
	return func(r *Runner) {
		r.sleeper = s
	}
}

func WithObserver(o Observer) Option {
	return func(r *Runner) {
		r.observer = o
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a Runner with the default profiles, runtime entropy and
// a real timer, each overridable through opts.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		profiles: DefaultProfiles(),
		random:   Runtime{},
		sleeper:  TimerSleeper{},
		observer: nopObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit runs one request to completion. It fails with a *Error on
// validation or injected failure, or with ctx's error when the caller
// abandons the submission. Nothing outside the returned values is written.
func (r *Runner) Submit(ctx context.Context, req models.JobRequest) (*models.JobResult, error) {
	start := time.Now()
	r.observer.JobSubmitted(req.Kind)

	res, err := r.run(ctx, req)

	r.observer.JobFinished(req.Kind, Outcome(err), time.Since(start))
	return res, err
}

func (r *Runner) run(ctx context.Context, req models.JobRequest) (*models.JobResult, error) {
	logger := r.logger.With("kind", req.Kind)

	profile, ok := r.profiles[req.Kind]
	if !ok {
		err := validationErrorf("unknown job kind %q", req.Kind)
		logger.Info("job rejected", "reason", ReasonValidationFailed, "error", err)
		return nil, err
	}
	if err := Validate(req, profile); err != nil {
		logger.Info("job rejected", "reason", ReasonValidationFailed, "error", err)
		return nil, err
	}

	logger = logger.With("job_key", Key(req))
	rng := r.random.ForRequest(req)

	if d := profile.drawLatency(rng); d > 0 {
		logger.Debug("simulating latency", "delay_ms", d.Milliseconds())
		if err := r.sleeper.Sleep(ctx, d); err != nil {
			logger.Info("job abandoned", "error", err)
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		logger.Info("job abandoned", "error", err)
		return nil, err
	}

	if err := injectFault(profile, rng); err != nil {
		logger.Warn("simulated failure injected", "error", err)
		return nil, err
	}

	res, err := Synthesize(req, rng)
	if err != nil {
		return nil, fmt.Errorf("synthesizing %s result: %w", req.Kind, err)
	}
	logger.Info("job completed")
	return res, nil
}

// SubmitDesignGeneration generates the design artifacts for a manufacturing
// method and reaction kinetics description.
func (r *Runner) SubmitDesignGeneration(ctx context.Context, method, kinetics string) (*models.DesignResult, error) {
	res, err := r.Submit(ctx, models.NewDesignRequest(method, kinetics))
	if err != nil {
		return nil, err
	}
	return res.Design, nil
}

// SubmitImageAnalysis analyzes a microscopy image.
func (r *Runner) SubmitImageAnalysis(ctx context.Context, file models.FileUpload) (*models.ImageResult, error) {
	res, err := r.Submit(ctx, models.NewFileRequest(models.KindImageAnalysis, file))
	if err != nil {
		return nil, err
	}
	return res.Image, nil
}

// SubmitStatisticalAnalysis analyzes a CSV data set.
func (r *Runner) SubmitStatisticalAnalysis(ctx context.Context, file models.FileUpload) (*models.StatisticalResult, error) {
	res, err := r.Submit(ctx, models.NewFileRequest(models.KindStatisticalAnalysis, file))
	if err != nil {
		return nil, err
	}
	return res.Statistical, nil
}

// SubmitPIVAnalysis analyzes a CSV file of PIV velocity matrices.
func (r *Runner) SubmitPIVAnalysis(ctx context.Context, file models.FileUpload) (*models.PIVResult, error) {
	res, err := r.Submit(ctx, models.NewFileRequest(models.KindPIVAnalysis, file))
	if err != nil {
		return nil, err
	}
	return res.PIV, nil
}

// Outcome classifies a Submit error for metrics and job records.
func Outcome(err error) string {
	if err == nil {
		return OutcomeCompleted
	}
	if jobErr, ok := AsError(err); ok {
		return string(jobErr.Reason)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return OutcomeCancelled
	}
	return OutcomeError
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nanosynth/nanosynth/internal/cache"
	"github.com/nanosynth/nanosynth/internal/tracker"
	"github.com/nanosynth/nanosynth/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── mock cache ──────────────────────────────────────────────────────────────

type testCache struct {
	pingErr error
}

func (c *testCache) Ping(_ context.Context) error { return c.pingErr }
func (c *testCache) SetJob(_ context.Context, _ *models.Job, _ time.Duration) error {
	return nil
}
func (c *testCache) GetJob(_ context.Context, _ uuid.UUID) (*models.Job, bool, error) {
	return nil, false, nil
}
func (c *testCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}

var _ cache.Cache = (*testCache)(nil)

type blockingRunner struct {
	release chan struct{}
}

func (r *blockingRunner) Submit(_ context.Context, req models.JobRequest) (*models.JobResult, error) {
	<-r.release
	return &models.JobResult{Kind: req.Kind}, nil
}

// ─── health handler tests ───────────────────────────────────────────────────

func TestHealthHandler_AllOK(t *testing.T) {
	h := healthHandler(&testCache{})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data := body["data"].(map[string]any)
	assert.Equal(t, "ok", data["status"])
	services := data["services"].(map[string]any)
	assert.Equal(t, "ok", services["cache"])
}

func TestHealthHandler_CacheDegraded(t *testing.T) {
	h := healthHandler(&testCache{pingErr: errors.New("redis down")})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "DEGRADED", errObj["code"])
	assert.Equal(t, "degraded", errObj["details"].(map[string]any)["cache"])
}

// ─── run() config validation tests ──────────────────────────────────────────

func TestRun_FailsOnInvalidConfig(t *testing.T) {
	t.Setenv("NANOSYNTH_PORT", "70000")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestRun_FailsOnInvalidRedisScheme(t *testing.T) {
	t.Setenv("REDIS_URL", "http://localhost:6379")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestRun_FailsOnUnreachableRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that dials the network")
	}
	t.Setenv("REDIS_URL", "redis://127.0.0.1:1/0")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}

// ─── shutdown tests ─────────────────────────────────────────────────────────

func TestShutdownTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, shutdownTimeout)
}

func TestWaitForJobs_Drains(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	jobs := tracker.NewService(runner, &testCache{}, time.Minute, time.Minute, nil)

	_, err := jobs.Trigger(context.Background(), models.NewDesignRequest("cnc", "A -> B"))
	require.NoError(t, err)
	close(runner.release)

	assert.NoError(t, waitForJobs(context.Background(), jobs))
}

func TestWaitForJobs_Deadline(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	jobs := tracker.NewService(runner, &testCache{}, time.Minute, time.Minute, nil)
	t.Cleanup(func() {
		close(runner.release)
		jobs.Wait()
	})

	_, err := jobs.Trigger(context.Background(), models.NewDesignRequest("cnc", "A -> B"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, waitForJobs(ctx, jobs), context.DeadlineExceeded)
}

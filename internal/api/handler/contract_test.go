package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nanosynth/nanosynth/internal/api"
	"github.com/nanosynth/nanosynth/internal/api/handler"
	mw "github.com/nanosynth/nanosynth/internal/api/middleware"
	"github.com/nanosynth/nanosynth/internal/api/response"
	"github.com/nanosynth/nanosynth/internal/job"
	"github.com/nanosynth/nanosynth/internal/metrics"
	"github.com/nanosynth/nanosynth/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── full router ─────────────────────────────────────────────────────────────

type contractEnv struct {
	router  http.Handler
	tracker *tracker.Service
}

func newContractEnv(t *testing.T) *contractEnv {
	t.Helper()

	c := newMemCache()
	runner := newRunner(0)
	tr := tracker.NewService(runner, c, time.Minute, time.Minute, discard)
	rec := metrics.NewRecorder(nil)

	router := api.NewRouter(api.Dependencies{
		RateLimit: mw.NewRateLimit(c, 1000),
		Metrics:   rec,

		HealthHandler: func(w http.ResponseWriter, _ *http.Request) {
			response.JSON(w, map[string]string{"status": "ok"})
		},
		MethodsHandler:         handler.NewMethodsHandler(),
		DesignHandler:          handler.NewDesignHandler(runner),
		AnalysisHandler:        handler.NewAnalysisHandler(runner, 110*job.MiB),
		TriggerDesignHandler:   handler.NewTriggerDesignHandler(tr),
		TriggerAnalysisHandler: handler.NewTriggerAnalysisHandler(tr, 110*job.MiB),
		PollJobHandler:         handler.NewPollJobHandler(tr),
		ReportHandler:          handler.NewReportHandler(tr),
		MetricsHandler:         rec.Handler(),
	})
	return &contractEnv{router: router, tracker: tr}
}

func (e *contractEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// assertEnvelope checks the response carries exactly one of data or error.
func assertEnvelope(t *testing.T, w *httptest.ResponseRecorder, wantError bool) map[string]any {
	t.Helper()
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	_, hasData := body["data"]
	errObj, hasError := body["error"].(map[string]any)
	assert.NotEqual(t, hasData, hasError, "exactly one of data/error expected: %s", w.Body.String())
	if wantError {
		require.True(t, hasError)
		assert.NotEmpty(t, errObj["code"])
		assert.NotEmpty(t, errObj["message"])
		return errObj
	}
	require.True(t, hasData)
	return body
}

// ─── contract tests ──────────────────────────────────────────────────────────

func TestContract_ErrorCodes(t *testing.T) {
	env := newContractEnv(t)

	tests := []struct {
		name   string
		req    func() *http.Request
		status int
		code   string
	}{
		{
			name:   "malformed design body",
			req:    func() *http.Request { return httptest.NewRequest("POST", "/api/v1/designs", strings.NewReader("[")) },
			status: http.StatusBadRequest,
			code:   "INVALID_REQUEST",
		},
		{
			name: "unknown method",
			req: func() *http.Request {
				return httptest.NewRequest("POST", "/api/v1/designs", strings.NewReader(`{"method":"welding","kinetics":"A -> B"}`))
			},
			status: http.StatusUnprocessableEntity,
			code:   "VALIDATION_FAILED",
		},
		{
			name: "unknown analysis kind",
			req: func() *http.Request {
				return uploadRequest(t, "/api/v1/analyses/rheology", "a.csv", pivCSV)
			},
			status: http.StatusNotFound,
			code:   "UNKNOWN_JOB_KIND",
		},
		{
			name: "csv required for piv",
			req: func() *http.Request {
				return uploadRequest(t, "/api/v1/analyses/piv", "field.png", []byte{0x89, 'P', 'N', 'G'})
			},
			status: http.StatusUnprocessableEntity,
			code:   "VALIDATION_FAILED",
		},
		{
			name:   "job not found",
			req:    func() *http.Request { return httptest.NewRequest("GET", "/api/v1/jobs/dddddddd-dddd-dddd-dddd-dddddddddddd", nil) },
			status: http.StatusNotFound,
			code:   "JOB_NOT_FOUND",
		},
		{
			name:   "report of unknown job",
			req:    func() *http.Request { return httptest.NewRequest("GET", "/api/v1/jobs/dddddddd-dddd-dddd-dddd-dddddddddddd/report", nil) },
			status: http.StatusNotFound,
			code:   "JOB_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.serve(tt.req())
			assert.Equal(t, tt.status, w.Code)
			errObj := assertEnvelope(t, w, true)
			assert.Equal(t, tt.code, errObj["code"])
		})
	}
}

func TestContract_SyncAndAsyncAgree(t *testing.T) {
	env := newContractEnv(t)

	body := `{"method":"cnc","kinetics":"A + B -> C"}`
	w := env.serve(httptest.NewRequest("POST", "/api/v1/designs", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)
	syncResult := assertEnvelope(t, w, false)["data"]

	w = env.serve(httptest.NewRequest("POST", "/api/v1/jobs/designs", strings.NewReader(body)))
	require.Equal(t, http.StatusAccepted, w.Code)
	jobID := assertEnvelope(t, w, false)["data"].(map[string]any)["id"].(string)

	env.tracker.Wait()

	w = env.serve(httptest.NewRequest("GET", "/api/v1/jobs/"+jobID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	polled := assertEnvelope(t, w, false)["data"].(map[string]any)

	// Seeded randomness makes both paths synthesize the same result.
	assert.Equal(t, syncResult, polled["result"])
}

func TestContract_ReportIsRawJSON(t *testing.T) {
	env := newContractEnv(t)

	w := env.serve(uploadRequest(t, "/api/v1/jobs/analyses/image", "chip.png", []byte{0x89, 'P', 'N', 'G'}))
	require.Equal(t, http.StatusAccepted, w.Code)
	jobID := assertEnvelope(t, w, false)["data"].(map[string]any)["id"].(string)

	env.tracker.Wait()

	w = env.serve(httptest.NewRequest("GET", fmt.Sprintf("/api/v1/jobs/%s/report", jobID), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="analisis_microscopia.json"`, w.Header().Get("Content-Disposition"))

	var report map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.NotContains(t, report, "data")
	assert.Contains(t, report, "mixing_profile")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("{\n  ")))
}

func TestContract_RateLimitHeaders(t *testing.T) {
	env := newContractEnv(t)

	w := env.serve(httptest.NewRequest("POST", "/api/v1/designs", strings.NewReader(`{"method":"laser","kinetics":"k"}`)))
	assert.Equal(t, "1000", w.Header().Get("X-RateLimit-Limit"))

	w = env.serve(httptest.NewRequest("GET", "/api/v1/methods", nil))
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}

func TestContract_MetricsExposeJobs(t *testing.T) {
	env := newContractEnv(t)

	env.serve(httptest.NewRequest("POST", "/api/v1/designs", strings.NewReader(`{"method":"laser","kinetics":"k"}`)))

	w := env.serve(httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="POST",route="/api/v1/designs",status="200"} 1`)
}

package httpapi

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/maastricht-university/vocal-indicators/config"
	"github.com/maastricht-university/vocal-indicators/fluency"
	"github.com/maastricht-university/vocal-indicators/history"
	"github.com/maastricht-university/vocal-indicators/microtask"
	"github.com/maastricht-university/vocal-indicators/orchestrator"
)

func testConfig(t *testing.T) *cfg.Root {
	t.Helper()
	c := &cfg.Root{}
	c.Services.TimeoutSeconds = 5
	c.Engine.DefaultGender = "female"
	c.Engine.DefaultLanguage = "en"
	c.Paths.Data = t.TempDir()
	c.Paths.Outputs = t.TempDir()
	return c
}

func newTestServer(t *testing.T) (http.Handler, *test.Hook) {
	t.Helper()
	return newTestServerFor(t, testConfig(t))
}

func newTestServerFor(t *testing.T, c *cfg.Root) (http.Handler, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	pipe := orchestrator.NewPipeline(c, history.NewMemoryStore(), logger)
	return New(pipe, logger).Handler(), hook
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthzAndRequestID(t *testing.T) {
	h, hook := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, "abc-123", last.Data["request_id"])
	assert.Equal(t, http.StatusOK, last.Data["status"])
}

func TestIndicatorsFilterBySource(t *testing.T) {
	h, _ := newTestServer(t)

	all := decode[struct {
		Indicators []map[string]any `json:"indicators"`
	}](t, do(t, h, http.MethodGet, "/v1/indicators", nil))
	audio := decode[struct {
		Indicators []map[string]any `json:"indicators"`
	}](t, do(t, h, http.MethodGet, "/v1/indicators?source=audio", nil))

	assert.Len(t, all.Indicators, 107)
	require.NotEmpty(t, audio.Indicators)
	assert.Less(t, len(audio.Indicators), len(all.Indicators))
	for _, d := range audio.Indicators {
		assert.Equal(t, "audio", d["source"])
	}
}

func TestTasksList(t *testing.T) {
	h, _ := newTestServer(t)
	got := decode[struct {
		Tasks []microtask.Definition `json:"tasks"`
	}](t, do(t, h, http.MethodGet, "/v1/tasks", nil))
	assert.Len(t, got.Tasks, len(microtask.All()))
}

func TestNormalizeEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/v1/normalize", map[string]any{
		"indicator_id": "ACU_HNR", "value": 30, "gender": "Female",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[normalizeResponse](t, rec)
	require.NotNil(t, got.Score)
	assert.InDelta(t, 0.5+0.5*math.Tanh(1), *got.Score, 1e-9)

	rec = do(t, h, http.MethodPost, "/v1/normalize", map[string]any{"indicator_id": "ACU_HNR"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"indicator_id":"ACU_HNR","score":null}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/v1/normalize", map[string]any{"value": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_PARAMS", decode[map[string]string](t, rec)["code"])
}

func TestVectorEndpointStatus(t *testing.T) {
	h, _ := newTestServer(t)

	ok := decode[vectorResponse](t, do(t, h, http.MethodPost, "/v1/vector", map[string]any{
		"features": map[string]any{"hnr": 30, "jitter_local": nil},
	}))
	require.NotNil(t, ok.Vector["ACU_HNR"])
	assert.Nil(t, ok.Vector["ACU_JITTER"])
	assert.Equal(t, 1, ok.Computed)

	failed := decode[vectorResponse](t, do(t, h, http.MethodPost, "/v1/vector", map[string]any{
		"features": map[string]any{"hnr": 30},
		"status":   "error",
	}))
	assert.Zero(t, failed.Computed)
	assert.Contains(t, failed.Vector, "ACU_HNR")
}

func TestTemporalEndpointTooFewWords(t *testing.T) {
	h, _ := newTestServer(t)
	got := decode[vectorResponse](t, do(t, h, http.MethodPost, "/v1/temporal", map[string]any{
		"words": []map[string]any{{"text": "hello", "start": 0, "end": 0.4}},
	}))
	assert.Empty(t, got.Vector)
}

func TestFluencyEndpoint(t *testing.T) {
	h, _ := newTestServer(t)
	got := decode[fluency.Result](t, do(t, h, http.MethodPost, "/v1/fluency", map[string]any{
		"transcript": "dog cat polar bear",
		"language":   "en",
	}))
	assert.Equal(t, 3, got.UniqueItems)
	assert.Equal(t, math.Round(fluency.Score(3)*1000)/1000, got.Score)
}

func TestTaskScoreUnknownIsStill200(t *testing.T) {
	h, _ := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/v1/tasks/juggling/score", map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[microtask.TaskScoreResult](t, rec)
	assert.Equal(t, "unknown task: juggling", got.Error)
	assert.Empty(t, got.Scores)
}

func TestTaskScoreCopiesTargets(t *testing.T) {
	h, _ := newTestServer(t)
	got := decode[microtask.TaskScoreResult](t, do(t, h, http.MethodPost, "/v1/tasks/ddk/score", map[string]any{
		"indicators": map[string]any{"PDM_DDK_RATE": 0.7, "ACU_HNR": 0.2},
	}))
	assert.Empty(t, got.Error)
	require.Contains(t, got.Scores, "PDM_DDK_RATE")
	assert.NotContains(t, got.Scores, "ACU_HNR")
}

func TestTaskPrompt(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/v1/tasks/sustained_vowel/prompt?lang=fr-FR&turn=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[map[string]string](t, rec)
	assert.Equal(t, microtask.EmbedPrompt(microtask.SustainedVowel, "fr", 1), got["prompt"])

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/v1/tasks/juggling/prompt", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/v1/tasks/ddk/prompt?turn=x", nil).Code)
}

func TestPatientScheduleFlow(t *testing.T) {
	h, _ := newTestServer(t)
	const base = "/v1/patients/p-7"

	sched := decode[scheduleResult](t, do(t, h, http.MethodGet, base+"/schedule?period=3", nil))
	require.Len(t, sched.Tasks, 1)
	assert.Equal(t, microtask.DepressionScreen, sched.Tasks[0].ID)

	rec := do(t, h, http.MethodPut, base+"/risk", map[string]bool{"parkinson": true})
	require.Equal(t, http.StatusNoContent, rec.Code)

	sched = decode[scheduleResult](t, do(t, h, http.MethodGet, base+"/schedule?period=3", nil))
	assert.Equal(t, []string{microtask.SustainedVowel, microtask.DDK}, taskIDs(sched.Tasks))

	rec = do(t, h, http.MethodPost, base+"/completions", microtask.Completion{TaskID: microtask.SustainedVowel, Period: 3})
	require.Equal(t, http.StatusCreated, rec.Code)

	sched = decode[scheduleResult](t, do(t, h, http.MethodGet, base+"/schedule?period=3&completed=ddk,", nil))
	assert.Equal(t, []string{"ddk"}, sched.Completed)
	assert.Equal(t, []string{microtask.CategoryFluency, microtask.DepressionScreen}, taskIDs(sched.Tasks))
}

func TestPatientValidationErrors(t *testing.T) {
	h, _ := newTestServer(t)

	cases := []struct {
		name, method, path string
		body               any
	}{
		{"missing period", http.MethodGet, "/v1/patients/p/schedule", nil},
		{"bad period", http.MethodGet, "/v1/patients/p/schedule?period=zero", nil},
		{"unknown condition", http.MethodPut, "/v1/patients/p/risk", map[string]bool{"flu": true}},
		{"unknown task", http.MethodPost, "/v1/patients/p/completions", microtask.Completion{TaskID: "juggling", Period: 1}},
		{"bad period completion", http.MethodPost, "/v1/patients/p/completions", microtask.Completion{TaskID: "ddk"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])
		})
	}
}

func TestProbeTextOnlyFluency(t *testing.T) {
	h, _ := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/v1/probes", probeRequest{
		PatientID:  "p-1",
		TaskID:     microtask.CategoryFluency,
		Transcript: "dog cat horse",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[orchestrator.ProbeOutcome](t, rec)
	assert.Equal(t, orchestrator.PatientHash("p-1"), out.PatientHash)
	require.NotNil(t, out.Result.Scores[microtask.SemanticFluencyID])
	assert.NotContains(t, rec.Body.String(), "p-1\"")

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/v1/probes", map[string]any{}).Code)
}

func TestProbeAudioMustLiveUnderData(t *testing.T) {
	var uploads atomic.Int32
	extractor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uploads.Add(1)
		_, _ = w.Write([]byte(`{"status":"ok","features":{"hnr":22}}`))
	}))
	t.Cleanup(extractor.Close)

	c := testConfig(t)
	c.Services.Extractor.URL = extractor.URL
	h, _ := newTestServerFor(t, c)

	outside := filepath.Join(t.TempDir(), "secret.wav")
	require.NoError(t, os.WriteFile(outside, []byte("RIFF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(c.Paths.Data, "probe.wav"), []byte("RIFF"), 0o644))

	rejected := map[string]string{
		"absolute outside": outside,
		"dot dot":          filepath.Join("..", filepath.Base(filepath.Dir(outside)), "secret.wav"),
		"missing":          "nope.wav",
	}
	if err := os.Symlink(outside, filepath.Join(c.Paths.Data, "link.wav")); err == nil {
		rejected["symlink out"] = "link.wav"
	}
	for name, path := range rejected {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/probes", probeRequest{TaskID: microtask.SustainedVowel, AudioPath: path})
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, "INVALID_AUDIO_PATH", decode[map[string]string](t, rec)["code"])
		})
	}
	assert.Zero(t, uploads.Load())

	rec := do(t, h, http.MethodPost, "/v1/probes", probeRequest{TaskID: microtask.SustainedVowel, AudioPath: "probe.wav"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int32(1), uploads.Load())
	assert.Equal(t, orchestrator.ExtractorOK, decode[orchestrator.ProbeOutcome](t, rec).ExtractorStatus)
}

func TestOversizedBodyIsRejected(t *testing.T) {
	h, _ := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/v1/fluency", map[string]string{
		"transcript": strings.Repeat("dog ", MaxBodyBytes/4+1),
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "BODY_TOO_LARGE", decode[map[string]string](t, rec)["code"])
}

func TestEncodeFailureLogsOnServerLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := &Server{log: logger}
	rec := httptest.NewRecorder()
	s.writeJSON(rec, http.StatusOK, math.NaN())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "encode response", hook.LastEntry().Message)
}

func taskIDs(ds []microtask.Definition) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return out
}

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ecotracehq/ecotrace/internal/carbon"
	"github.com/ecotracehq/ecotrace/internal/pipeline"
	"github.com/ecotracehq/ecotrace/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "receipts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return New(Config{RatePerSec: 1000, RateBurst: 1000}, st, carbon.Default(), zap.NewNop())
}

func doJSON(t *testing.T, h http.Handler, method, path, key, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestHealthz(t *testing.T) {
	h := testService(t).Handler()

	rec, _ := doJSON(t, h, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestMissingCredentialRejected(t *testing.T) {
	h := testService(t).Handler()

	for _, path := range []string{
		"/api/ingest/batch",
		"/api/receipts",
		"/api/metrics/summary",
		"/api/metrics/timeseries",
	} {
		rec, body := doJSON(t, h, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Contains(t, body["error"], "X-API-Key", path)
	}
}

func TestIngestBatchPartialSuccess(t *testing.T) {
	h := testService(t).Handler()

	payload := `{"events":[
		{"type":"receipt","receipt_id":"receipt_a","payload":{"tokens_before":100,"tokens_after":60,"co2_g_before":1.4,"co2_g_after":0.84,"quality_score":0.95}},
		{"type":"receipt","receipt_id":"","payload":{"tokens_before":1,"tokens_after":1}},
		{"type":"receipt","receipt_id":"receipt_b","payload":{"tokens_before":50,"tokens_after":40}}
	]}`

	rec, body := doJSON(t, h, http.MethodPost, "/api/ingest/batch", "acct_1", payload)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	assert.EqualValues(t, 2, body["ingested"])
}

func TestIngestBatchRejectsEmptyAndMalformed(t *testing.T) {
	h := testService(t).Handler()

	rec, _ := doJSON(t, h, http.MethodPost, "/api/ingest/batch", "acct_1", `{"events":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, h, http.MethodPost, "/api/ingest/batch", "acct_1", `{"events":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, h, http.MethodGet, "/api/ingest/batch", "acct_1", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestOptimizeEndpoint(t *testing.T) {
	h := testService(t).Handler()

	rec, body := doJSON(t, h, http.MethodPost, "/api/optimize", "acct_1",
		`{"prompt":"Please kindly write a very detailed summary.","strategy":"balanced"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "write a detailed summary.", body["optimized"])
	assert.EqualValues(t, 11, body["tokens_before"])
	assert.EqualValues(t, 6, body["tokens_after"])
	assert.NotEmpty(t, body["receipt_id"])
	assert.Greater(t, body["co2_g_saved"], 0.0)

	// The stored receipt shows up in the listing.
	rec, listing := doJSON(t, h, http.MethodGet, "/api/receipts", "acct_1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	receipts := listing["receipts"].([]any)
	assert.Len(t, receipts, 1)
}

func TestOptimizeDryRunStoresNothing(t *testing.T) {
	h := testService(t).Handler()

	rec, body := doJSON(t, h, http.MethodPost, "/api/optimize", "acct_1",
		`{"prompt":"please help","dry_run":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, body["receipt_id"])

	_, listing := doJSON(t, h, http.MethodGet, "/api/receipts", "acct_1", "")
	assert.Empty(t, listing["receipts"])
}

func TestOptimizeRejectsUnknownStrategy(t *testing.T) {
	h := testService(t).Handler()

	rec, body := doJSON(t, h, http.MethodPost, "/api/optimize", "acct_1",
		`{"prompt":"hello","strategy":"turbo"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "turbo")
}

func TestSummaryEmptyAccount(t *testing.T) {
	h := testService(t).Handler()

	rec, body := doJSON(t, h, http.MethodGet, "/api/metrics/summary", "acct_empty", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, body["events"])
	assert.EqualValues(t, 0, body["tokens_saved"])
	assert.InDelta(t, pipeline.FallbackQuality, body["avg_quality"], 1e-9)
}

func TestTimeseriesValidation(t *testing.T) {
	h := testService(t).Handler()

	rec, _ := doJSON(t, h, http.MethodGet, "/api/metrics/timeseries?days=0", "acct_1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := doJSON(t, h, http.MethodGet, "/api/metrics/timeseries?days=7", "acct_1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, body["series"])
}

func TestReceiptsLimitValidation(t *testing.T) {
	h := testService(t).Handler()

	rec, _ := doJSON(t, h, http.MethodGet, "/api/receipts?limit=abc", "acct_1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, h, http.MethodGet, "/api/receipts?limit=-5", "acct_1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAccountIsolation(t *testing.T) {
	h := testService(t).Handler()

	_, _ = doJSON(t, h, http.MethodPost, "/api/optimize", "acct_1",
		`{"prompt":"please summarize this very long report"}`)

	_, listing := doJSON(t, h, http.MethodGet, "/api/receipts", "acct_2", "")
	assert.Empty(t, listing["receipts"])

	_, summary := doJSON(t, h, http.MethodGet, "/api/metrics/summary", "acct_2", "")
	assert.EqualValues(t, 0, summary["events"])
}

func TestRateLimit(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "receipts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	svc := New(Config{RatePerSec: 1, RateBurst: 2}, st, carbon.Default(), zap.NewNop())
	h := svc.Handler()

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		rec, _ := doJSON(t, h, http.MethodGet, "/api/metrics/summary", "acct_burst", "")
		codes = append(codes, rec.Code)
	}
	assert.Contains(t, codes, http.StatusTooManyRequests)

	// Other accounts have their own bucket.
	rec, _ := doJSON(t, h, http.MethodGet, "/api/metrics/summary", "acct_other", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusCounters(t *testing.T) {
	h := testService(t).Handler()

	_, _ = doJSON(t, h, http.MethodPost, "/api/ingest/batch", "acct_1",
		`{"events":[{"type":"receipt","receipt_id":"receipt_a","payload":{"tokens_before":10,"tokens_after":5}}]}`)

	rec, body := doJSON(t, h, http.MethodGet, "/v1/status", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["ingested"])
	assert.EqualValues(t, 1, body["receipt_count"])
	assert.NotEmpty(t, body["started_at"])
}

func TestRequestIDHeader(t *testing.T) {
	h := testService(t).Handler()

	rec, _ := doJSON(t, h, http.MethodGet, "/healthz", "", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

// Package server exposes the ingest and metrics HTTP API.
//
// Endpoints:
//   - POST /api/ingest/batch       - batch receipt ingest, partial success
//   - POST /api/optimize           - optimize a prompt and record a receipt
//   - GET  /api/receipts           - list receipts, newest first
//   - GET  /api/metrics/summary    - account savings summary
//   - GET  /api/metrics/timeseries - trailing per-day savings
//   - GET  /healthz                - health check
//   - GET  /v1/status              - service status and counters
//
// Every /api route is scoped to the opaque account id carried in the
// X-API-Key header. Resolving that credential to a real account is the
// surrounding system's job; the core only trusts it as given.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ecotracehq/ecotrace/internal/carbon"
	"github.com/ecotracehq/ecotrace/internal/ingest"
	"github.com/ecotracehq/ecotrace/internal/model"
	"github.com/ecotracehq/ecotrace/internal/optimizer"
	"github.com/ecotracehq/ecotrace/internal/pipeline"
	"github.com/ecotracehq/ecotrace/internal/store"

	"go.uber.org/zap"
)

// maxRequestBody caps ingest/optimize request bodies (1MB).
const maxRequestBody = 1 * 1024 * 1024

// Config controls the service runtime behavior.
type Config struct {
	Addr          string
	AccountHeader string
	RatePerSec    float64
	RateBurst     int
}

// Service provides the portal HTTP API over an injected receipt store.
type Service struct {
	cfg      Config
	store    *store.Store
	builder  pipeline.Builder
	agg      pipeline.Aggregator
	ingestor ingest.Ingestor
	log      *zap.Logger

	mu        sync.Mutex
	startedAt time.Time
	requests  int64
	ingested  int64

	limiterMu sync.Mutex
	limiters  map[string]*accountLimiter
}

// New returns a service with the provided config and collaborators.
func New(cfg Config, st *store.Store, cm carbon.Model, log *zap.Logger) *Service {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8686"
	}
	if cfg.AccountHeader == "" {
		cfg.AccountHeader = "X-API-Key"
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 10
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 30
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		cfg:       cfg,
		store:     st,
		builder:   pipeline.Builder{Carbon: cm},
		agg:       pipeline.Aggregator{Store: st},
		ingestor:  ingest.Ingestor{Store: st, Log: log},
		log:       log,
		startedAt: time.Now(),
		limiters:  make(map[string]*accountLimiter),
	}
}

// Handler builds the routed and middleware-wrapped HTTP handler. Exposed
// separately from Run for tests.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.Handle("/api/ingest/batch", s.api(s.handleIngest))
	mux.Handle("/api/optimize", s.api(s.handleOptimize))
	mux.Handle("/api/receipts", s.api(s.handleReceipts))
	mux.Handle("/api/metrics/summary", s.api(s.handleSummary))
	mux.Handle("/api/metrics/timeseries", s.api(s.handleTimeseries))

	return s.withRequestID(s.withLogging(mux))
}

// api wraps an account-scoped handler with credential extraction and
// per-account rate limiting.
func (s *Service) api(h http.HandlerFunc) http.Handler {
	return s.requireAccount(s.withRateLimit(h))
}

// Run serves the API until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.log.Info("listening", zap.String("addr", s.cfg.Addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("portal http server: %w", err)
	}
}

// Status is served at /v1/status.
type Status struct {
	StartedAt    time.Time `json:"started_at"`
	UptimeSec    int64     `json:"uptime_sec"`
	Requests     int64     `json:"requests"`
	Ingested     int64     `json:"ingested"`
	ReceiptCount int64     `json:"receipt_count"`
	Addr         string    `json:"addr"`
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	count, err := s.store.Count()
	if err != nil {
		s.log.Warn("counting receipts", zap.Error(err))
	}

	s.mu.Lock()
	st := Status{
		StartedAt:    s.startedAt,
		UptimeSec:    int64(time.Since(s.startedAt).Seconds()),
		Requests:     s.requests,
		Ingested:     s.ingested,
		ReceiptCount: count,
		Addr:         s.cfg.Addr,
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, st)
}

type ingestRequest struct {
	Events []ingest.Event `json:"events"`
}

type ingestResponse struct {
	OK       bool `json:"ok"`
	Ingested int  `json:"ingested"`
}

func (s *Service) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req ingestRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decoding batch: %v", err))
		return
	}
	if len(req.Events) == 0 {
		writeError(w, http.StatusBadRequest, "no events provided")
		return
	}

	account := accountFrom(r.Context())
	count := s.ingestor.IngestBatch(account, req.Events)

	s.mu.Lock()
	s.ingested += int64(count)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, ingestResponse{OK: true, Ingested: count})
}

type optimizeRequest struct {
	Prompt   string `json:"prompt"`
	Strategy string `json:"strategy"`
	Model    string `json:"model,omitempty"`
	Region   string `json:"region,omitempty"`
	DryRun   bool   `json:"dry_run,omitempty"`
}

type optimizeResponse struct {
	optimizer.Result
	ReceiptID string  `json:"receipt_id,omitempty"`
	CO2GSaved float64 `json:"co2_g_saved"`
	KWhSaved  float64 `json:"kwh_saved"`
}

func (s *Service) handleOptimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req optimizeRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decoding request: %v", err))
		return
	}

	strategy := optimizer.Balanced
	if req.Strategy != "" {
		var err error
		strategy, err = optimizer.Parse(req.Strategy)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	res := optimizer.Optimize(req.Prompt, strategy)
	receipt := s.builder.Build(accountFrom(r.Context()), res, req.Model, req.Region)

	resp := optimizeResponse{
		Result:    res,
		CO2GSaved: receipt.CO2GSaved(),
		KWhSaved:  receipt.KWhSaved(),
	}

	if !req.DryRun {
		if err := s.store.Upsert(receipt); err != nil {
			s.log.Error("storing receipt", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "receipt store unavailable, retry later")
			return
		}
		resp.ReceiptID = receipt.ReceiptID

		s.mu.Lock()
		s.ingested++
		s.mu.Unlock()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleReceipts(w http.ResponseWriter, r *http.Request) {
	limit := store.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	receipts, err := s.store.ListByAccount(accountFrom(r.Context()), limit)
	if err != nil {
		s.log.Error("listing receipts", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "receipt store unavailable, retry later")
		return
	}
	if receipts == nil {
		receipts = []model.Receipt{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"receipts": receipts})
}

func (s *Service) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.agg.Summary(accountFrom(r.Context()))
	if err != nil {
		s.log.Error("summarizing receipts", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "receipt store unavailable, retry later")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

type seriesRow struct {
	Day         string  `json:"day"`
	TokensSaved int64   `json:"tokens_saved"`
	CO2GSaved   float64 `json:"co2_g_saved"`
}

func (s *Service) handleTimeseries(w http.ResponseWriter, r *http.Request) {
	days := pipeline.DefaultWindowDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}

	series, err := s.agg.Timeseries(accountFrom(r.Context()), days)
	if err != nil {
		s.log.Error("aggregating timeseries", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "receipt store unavailable, retry later")
		return
	}

	rows := make([]seriesRow, 0, len(series))
	for _, ds := range series {
		rows = append(rows, seriesRow{
			Day:         ds.Day.Format("2006-01-02"),
			TokensSaved: ds.TokensSaved,
			CO2GSaved:   ds.CO2GSaved,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"series": rows})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

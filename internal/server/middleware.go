package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type ctxKey int

const (
	ctxKeyAccount ctxKey = iota
	ctxKeyRequestID
)

// accountFrom returns the opaque account id attached by requireAccount.
func accountFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyAccount).(string)
	return id
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// requireAccount extracts the account credential header and rejects requests
// without one. The value is opaque: credential-to-account resolution happens
// upstream of this service.
func (s *Service) requireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := r.Header.Get(s.cfg.AccountHeader)
		if account == "" {
			writeError(w, http.StatusUnauthorized, "missing "+s.cfg.AccountHeader+" header")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyAccount, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withRequestID tags every request with a uuid, echoed in the response.
func (s *Service) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusWriter captures the response code for logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// withLogging logs one line per request and bumps the request counter.
func (s *Service) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		s.mu.Lock()
		s.requests++
		s.mu.Unlock()

		s.log.Info("request",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// accountLimiter pairs a token bucket with its last use, so idle entries can
// be swept.
type accountLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// withRateLimit applies a per-account token bucket. Accounts are independent:
// one noisy SDK cannot starve another account's ingest.
func (s *Service) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.allow(accountFrom(r.Context())) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, retry later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) allow(account string) bool {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()

	al, ok := s.limiters[account]
	if !ok {
		al = &accountLimiter{
			limiter: rate.NewLimiter(rate.Limit(s.cfg.RatePerSec), s.cfg.RateBurst),
		}
		s.limiters[account] = al

		// Opportunistic sweep of entries idle for an hour.
		cutoff := time.Now().Add(-time.Hour)
		for id, other := range s.limiters {
			if id != account && other.lastSeen.Before(cutoff) {
				delete(s.limiters, id)
			}
		}
	}
	al.lastSeen = time.Now()
	return al.limiter.Allow()
}

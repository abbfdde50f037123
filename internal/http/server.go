package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/luphoeux/dantaes/internal/core"
	"github.com/luphoeux/dantaes/internal/farms"
	"github.com/luphoeux/dantaes/internal/ledger"
	"github.com/luphoeux/dantaes/internal/pricing"
)

// PriceReader answers the pass-through price endpoints. The pricing service
// implements it; tests substitute a fake.
type PriceReader interface {
	ItemMetadata(ctx context.Context, itemID int64) (pricing.ItemMetadata, error)
	AuctionPrice(ctx context.Context, itemID int64) (pricing.AuctionPrice, error)
	TokenPrice(ctx context.Context) (pricing.TokenPrice, error)
}

// FarmReader lists the farm catalogue with quotes attached.
type FarmReader interface {
	Views(ctx context.Context) []farms.View
}

// FeedRefresher forces a synchronous re-pull of the spreadsheet feed.
type FeedRefresher interface {
	RefreshFeed(ctx context.Context) error
}

// EntryPublisher mirrors accepted manual entries to the write-back queue.
// A nil publisher disables mirroring.
type EntryPublisher interface {
	PublishEntrySync(ctx context.Context, r core.LedgerRecord) error
}

// Server is the JSON API surface of the dashboard. It embeds http.Server so
// callers get ListenAndServe for free and our Shutdown layers on top of it.
type Server struct {
	http.Server

	ledger    *ledger.Controller
	prices    PriceReader
	farms     FarmReader
	refresher FeedRefresher
	publisher EntryPublisher

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer wires the API routes. publisher may be nil when no queue is
// configured.
func NewServer(addr string, lc *ledger.Controller, pr PriceReader, fr FarmReader, rf FeedRefresher, pub EntryPublisher) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:      lc,
		prices:      pr,
		farms:       fr,
		refresher:   rf,
		publisher:   pub,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.withSecurityHeaders(s.handleReady))

	mux.HandleFunc("GET /api/summary", s.withSecurityHeaders(s.handleSummary))
	mux.HandleFunc("GET /api/trend", s.withSecurityHeaders(s.handleTrend))
	mux.HandleFunc("GET /api/categories", s.withSecurityHeaders(s.handleCategories))
	mux.HandleFunc("GET /api/ledger", s.withSecurityHeaders(s.handleLedger))
	mux.HandleFunc("GET /api/items/history", s.withSecurityHeaders(s.handleItemHistory))
	mux.HandleFunc("POST /api/entries", s.withSecurityHeaders(s.handleCreateEntry))
	mux.HandleFunc("POST /api/filter", s.withSecurityHeaders(s.handleFilter))
	mux.HandleFunc("POST /api/refresh", s.withSecurityHeaders(s.handleRefresh))

	mux.HandleFunc("GET /api/item", s.withSecurityHeaders(s.handleItemMetadata))
	mux.HandleFunc("GET /api/auction-price", s.withSecurityHeaders(s.handleAuctionPrice))
	mux.HandleFunc("GET /api/wow-token", s.withSecurityHeaders(s.handleWowToken))
	mux.HandleFunc("GET /api/farms", s.withSecurityHeaders(s.handleFarms))
	mux.HandleFunc("POST /api/plan", s.withSecurityHeaders(s.handlePlan))

	return s
}

// Shutdown stops the rate limiter housekeeping and then drains the HTTP
// server. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate limiting applies to mutations only; dashboard polling is free.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' https://wow.zamimg.com data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

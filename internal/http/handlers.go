package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/luphoeux/dantaes/internal/core"
	"github.com/luphoeux/dantaes/internal/farms"
	"github.com/luphoeux/dantaes/internal/ledger"
	"github.com/luphoeux/dantaes/internal/planner"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseItemID reads the id query parameter shared by the price endpoints.
func parseItemID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("id")), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady reports degraded (but still 200) while the feed is stale, so
// probes keep the instance in rotation and operators still see the flag.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	if s.ledger.Stale() {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      status,
		"stale":       s.ledger.Stale(),
		"refreshedAt": formatTime(s.ledger.RefreshedAt()),
	})
}

type summaryResponse struct {
	core.Summary
	Stale       bool   `json:"stale"`
	RefreshedAt string `json:"refreshedAt,omitempty"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, summaryResponse{
		Summary:     s.ledger.Summary(),
		Stale:       s.ledger.Stale(),
		RefreshedAt: formatTime(s.ledger.RefreshedAt()),
	})
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	trend := s.ledger.Trend()
	if trend == nil {
		trend = core.PeriodSeries{}
	}
	writeJSON(w, http.StatusOK, trend)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	n := 6
	if v := strings.TrimSpace(r.URL.Query().Get("n")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}
	shares := s.ledger.Categories(n)
	if shares == nil {
		shares = []core.CategoryShare{}
	}
	writeJSON(w, http.StatusOK, shares)
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Detail())
}

func (s *Server) handleItemHistory(w http.ResponseWriter, r *http.Request) {
	name := sanitizeInput(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	points := s.ledger.ItemHistory(name)
	if points == nil {
		points = []core.PricePoint{}
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var rec core.LedgerRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rec.Name = sanitizeInput(rec.Name)
	rec.Category = sanitizeInput(rec.Category)
	rec.Observation = sanitizeInput(rec.Observation)
	rec.Link = sanitizeInput(rec.Link)

	// Derive whichever of total and unit price the caller left out.
	if rec.Total == 0 && rec.UnitPrice > 0 && rec.Quantity > 0 {
		rec.Total = rec.UnitPrice * rec.Quantity
	}
	if rec.UnitPrice == 0 && rec.Total > 0 && rec.Quantity > 0 {
		rec.UnitPrice = rec.Total / rec.Quantity
	}

	if err := rec.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if d, ok := core.NormalizeDate(rec.Date); ok {
		rec.Date = d
	}

	if err := s.ledger.AppendLocal(r.Context(), rec); err != nil {
		slog.ErrorContext(r.Context(), "Failed to persist manual entry", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to persist entry")
		return
	}

	// Echo the record in its stored shape.
	rec.IsLocal = true
	rec.Category = core.NormalizeCategory(rec.Category)

	// The entry is already durable locally; a queue failure only delays the
	// spreadsheet write-back.
	if s.publisher != nil {
		if err := s.publisher.PublishEntrySync(r.Context(), rec); err != nil {
			slog.WarnContext(r.Context(), "Failed to publish entry for write-back", "error", err, "name", rec.Name)
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"entry":   rec,
		"summary": s.ledger.Summary(),
	})
}

// filterRequest mutates the listing state. Absent fields leave their part of
// the state untouched; reset wins over everything else.
type filterRequest struct {
	Reset     bool    `json:"reset,omitempty"`
	DateFrom  *string `json:"dateFrom,omitempty"`
	DateTo    *string `json:"dateTo,omitempty"`
	Search    *string `json:"search,omitempty"`
	Timeframe *string `json:"timeframe,omitempty"`
	Page      *int    `json:"page,omitempty"`
	DrillDown *string `json:"drillDown,omitempty"` // trend period date; empty clears
}

type filterResponse struct {
	Summary core.Summary      `json:"summary"`
	Trend   core.PeriodSeries `json:"trend"`
	Detail  ledger.DetailPage `json:"detail"`
	Filter  core.FilterState  `json:"filter"`
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Reset {
		s.ledger.Reset()
	} else {
		if req.DateFrom != nil || req.DateTo != nil {
			_, detail := s.ledger.FilterStates()
			from, to := detail.DateFrom, detail.DateTo
			if req.DateFrom != nil {
				from = normalizeBound(*req.DateFrom)
			}
			if req.DateTo != nil {
				to = normalizeBound(*req.DateTo)
			}
			s.ledger.SetDateRange(from, to)
		}
		if req.Search != nil {
			s.ledger.SetSearch(sanitizeInput(*req.Search))
		}
		if req.Timeframe != nil {
			tf, ok := core.ParseTimeframe(*req.Timeframe)
			if !ok {
				writeError(w, http.StatusBadRequest, "unknown timeframe")
				return
			}
			s.ledger.SetTimeframe(tf)
		}
		if req.DrillDown != nil {
			s.ledger.DrillDown(normalizeBound(*req.DrillDown))
		}
		if req.Page != nil {
			s.ledger.SetPage(*req.Page)
		}
	}

	_, detail := s.ledger.FilterStates()
	trend := s.ledger.Trend()
	if trend == nil {
		trend = core.PeriodSeries{}
	}
	writeJSON(w, http.StatusOK, filterResponse{
		Summary: s.ledger.Summary(),
		Trend:   trend,
		Detail:  s.ledger.Detail(),
		Filter:  detail,
	})
}

// normalizeBound canonicalizes a date bound, passing empty (unbounded) and
// unparseable values through unchanged. A bad bound simply matches nothing
// until corrected, same as typing garbage into the date picker.
func normalizeBound(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	if d, ok := core.NormalizeDate(raw); ok {
		return d
	}
	return raw
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.refresher.RefreshFeed(r.Context()); err != nil {
		slog.WarnContext(r.Context(), "Manual feed refresh failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":       "feed refresh failed",
			"stale":       s.ledger.Stale(),
			"refreshedAt": formatTime(s.ledger.RefreshedAt()),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stale":       s.ledger.Stale(),
		"refreshedAt": formatTime(s.ledger.RefreshedAt()),
	})
}

func (s *Server) handleItemMetadata(w http.ResponseWriter, r *http.Request) {
	id, ok := parseItemID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}
	meta, err := s.prices.ItemMetadata(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadGateway, "item metadata unavailable")
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleAuctionPrice(w http.ResponseWriter, r *http.Request) {
	id, ok := parseItemID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}
	price, err := s.prices.AuctionPrice(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadGateway, "auction price unavailable")
		return
	}
	writeJSON(w, http.StatusOK, price)
}

func (s *Server) handleWowToken(w http.ResponseWriter, r *http.Request) {
	token, err := s.prices.TokenPrice(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "token price unavailable")
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (s *Server) handleFarms(w http.ResponseWriter, r *http.Request) {
	views := s.farms.Views(r.Context())
	if views == nil {
		views = []farms.View{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var in planner.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// Callers may omit the token price and let the live quote fill it in.
	if in.TokenPriceGold <= 0 {
		token, err := s.prices.TokenPrice(r.Context())
		if err != nil {
			writeError(w, http.StatusBadGateway, "token price unavailable")
			return
		}
		in.TokenPriceGold = token.Gold
	}

	plan, err := planner.Compute(in, time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

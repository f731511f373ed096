package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"moneytracker/internal/auth"
	"moneytracker/internal/core"
	"moneytracker/internal/ledger"
	"moneytracker/internal/log"
)

// pageData is what every full page template receives.
type pageData struct {
	Title  string
	Active string
	Email  string
	Today  string
	View   ledger.View

	Classifications []core.Classification
	SavingsTags     []core.SavingsTag
	Categories      []core.Category
}

func (s *Server) newPage(sess auth.Session, title, active string, view ledger.View) pageData {
	return pageData{
		Title:           title,
		Active:          active,
		Email:           sess.Email,
		Today:           core.Today(s.clock).String(),
		View:            view,
		Classifications: core.Classifications(),
		SavingsTags:     core.SavingsTags(),
		Categories:      core.Categories(),
	}
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.started).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.store == nil {
		checks["store"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if err := s.store.Ping(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["ledgers"] = map[string]any{
		"active": s.ledgers.Size(),
		"status": "ok",
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	response := map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}

// handleMetrics provides application metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.tracer.GetMetrics()
	uptime := time.Since(s.metrics.started)

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_request_duration_avg_microseconds Average request duration\n")
	fmt.Fprintf(w, "# TYPE http_request_duration_avg_microseconds gauge\n")
	fmt.Fprintf(w, "http_request_duration_avg_microseconds %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP entries_created_total Entries created through the display layer\n")
	fmt.Fprintf(w, "# TYPE entries_created_total counter\n")
	fmt.Fprintf(w, "entries_created_total{collection=\"income\"} %d\n", atomic.LoadInt64(&s.metrics.incomeCreated))
	fmt.Fprintf(w, "entries_created_total{collection=\"expense\"} %d\n\n", atomic.LoadInt64(&s.metrics.expensesCreated))

	fmt.Fprintf(w, "# HELP entries_deleted_total Entries deleted through the display layer\n")
	fmt.Fprintf(w, "# TYPE entries_deleted_total counter\n")
	fmt.Fprintf(w, "entries_deleted_total %d\n\n", atomic.LoadInt64(&s.metrics.entriesDeleted))

	fmt.Fprintf(w, "# HELP gateway_failures_total Store calls that failed while serving a request\n")
	fmt.Fprintf(w, "# TYPE gateway_failures_total counter\n")
	fmt.Fprintf(w, "gateway_failures_total %d\n\n", atomic.LoadInt64(&s.metrics.gatewayFailures))

	fmt.Fprintf(w, "# HELP active_ledgers Ledgers currently held in memory\n")
	fmt.Fprintf(w, "# TYPE active_ledgers gauge\n")
	fmt.Fprintf(w, "active_ledgers %d\n\n", s.ledgers.Size())

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", uptime.Seconds())
}

// render executes a named template into a buffer first so a failing
// template never leaves a half-written page behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			log.FieldComponent, log.ComponentTemplate,
			"template", name)
		InternalServerError("Something went wrong while rendering the page.").Write(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// loadView makes sure the user's ledger is loaded and returns a fresh
// snapshot. On failure the response has already been written.
func (s *Server) loadView(w http.ResponseWriter, r *http.Request, sess auth.Session) (ledger.View, bool) {
	l := s.ledgers.For(sess.UserID)
	if err := l.EnsureLoaded(r.Context()); err != nil {
		s.gatewayError(w, r, "Couldn't load your entries, please try again.", err, log.OpRead)
		return ledger.View{}, false
	}
	return l.View(), true
}

// gatewayError reports a failed store round trip. Nothing changed in
// memory; the user gets an explicit error notification.
func (s *Server) gatewayError(w http.ResponseWriter, r *http.Request, msg string, err error, op string) {
	atomic.AddInt64(&s.metrics.gatewayFailures, 1)
	s.structured.LogError(r.Context(), "Entry store call failed", err, op,
		log.NewFields().WithComponent(log.ComponentLedger))

	InternalServerError(msg).
		TriggerErrorNotification(msg).
		Write(w)
}

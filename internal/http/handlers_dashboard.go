package http

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"moneytracker/internal/auth"
	"moneytracker/internal/core"
	"moneytracker/internal/log"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if r.URL.Path != "/" {
		NotFoundError("Page not found").Write(w)
		return
	}
	if errResp := RequireMethod(r, http.MethodGet); errResp != nil {
		errResp.Write(w)
		return
	}

	view, ok := s.loadView(w, r, sess)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "dashboard", s.newPage(sess, "Dashboard", "dashboard", view))
}

func (s *Server) handleSavings(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if errResp := RequireMethod(r, http.MethodGet); errResp != nil {
		errResp.Write(w)
		return
	}

	view, ok := s.loadView(w, r, sess)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "savings", s.newPage(sess, "Savings", "savings", view))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if errResp := RequireMethod(r, http.MethodGet); errResp != nil {
		errResp.Write(w)
		return
	}

	view, ok := s.loadView(w, r, sess)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "history", s.newPage(sess, "History", "history", view))
}

// handleSummaryPartial re-renders the totals cards after a change.
func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	view, ok := s.loadView(w, r, sess)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "summary", view)
}

type monthSummary struct {
	Key    string          `json:"key"`
	Label  string          `json:"label"`
	Income decimal.Decimal `json:"income"`
	Spent  decimal.Decimal `json:"spent"`
}

type summaryResponse struct {
	Totals       core.Totals           `json:"totals"`
	SpentPercent decimal.Decimal       `json:"spentPercent"`
	Categories   []core.CategoryAmount `json:"categories"`
	Months       []monthSummary        `json:"months"`
}

// handleSummaryAPI returns the user's totals as JSON.
func (s *Server) handleSummaryAPI(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if errResp := RequireMethod(r, http.MethodGet); errResp != nil {
		errResp.Write(w)
		return
	}

	l := s.ledgers.For(sess.UserID)
	if err := l.EnsureLoaded(r.Context()); err != nil {
		s.gatewayError(w, r, "Couldn't load your entries, please try again.", err, log.OpRead)
		return
	}
	view := l.View()

	months := make([]monthSummary, 0, len(view.Groups))
	for _, g := range view.Groups {
		months = append(months, monthSummary{
			Key:    g.Key,
			Label:  g.Label(),
			Income: g.IncomeTotal(),
			Spent:  g.SpentTotal(),
		})
	}

	categories := view.Categories
	if categories == nil {
		categories = []core.CategoryAmount{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summaryResponse{
		Totals:       view.Totals,
		SpentPercent: view.SpentPercent.Round(2),
		Categories:   categories,
		Months:       months,
	}); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to encode summary", log.FieldError, err)
	}
}

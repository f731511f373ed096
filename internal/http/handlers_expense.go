package http

import (
	"fmt"
	"net/http"

	"moneytracker/internal/auth"
	"moneytracker/internal/core"
	"moneytracker/internal/log"
	"moneytracker/internal/records"
)

// handleExpenses serves the expenses page on GET and records a new expense on POST.
func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if errResp := RequireMethod(r, http.MethodGet, http.MethodPost); errResp != nil {
		errResp.Write(w)
		return
	}

	if r.Method == http.MethodGet {
		view, ok := s.loadView(w, r, sess)
		if !ok {
			return
		}
		s.render(w, r, http.StatusOK, "expenses", s.newPage(sess, "Expenses", "expenses", view))
		return
	}

	s.createExpense(w, r, sess)
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}

	entry, err := s.expenseFromForm(r, sess)
	if err != nil {
		s.rejectInput(w, r, err)
		return
	}

	saved, err := s.ledgers.For(sess.UserID).AddExpense(r.Context(), entry)
	if err != nil {
		if msg, ok := validationMessage(err); ok {
			UnprocessableEntityError(msg).Write(w)
			return
		}
		s.gatewayError(w, r, "Couldn't save the expense, please try again.", err, log.OpCreate)
		return
	}

	s.metrics.entryCreated(records.Expenses)
	s.structured.LogEntryCreated(r.Context(), sess.UserID, string(records.Expenses), saved.ID, saved.Amount.String())

	msg := fmt.Sprintf("Expense %q of %s saved", saved.Name, core.FormatCurrency(saved.Amount))
	NewHTMXResponse().
		TriggerEntryCreated(records.Expenses).
		TriggerFormReset().
		TriggerSummaryRefresh().
		TriggerSuccessNotification(msg).
		Write(w)
}

func (s *Server) expenseFromForm(r *http.Request, sess auth.Session) (core.ExpenseEntry, error) {
	date, err := ParseEntryDate(r.Form.Get("date"))
	if err != nil {
		return core.ExpenseEntry{}, err
	}
	amount, err := core.ParseAmount(r.Form.Get("amount"))
	if err != nil {
		return core.ExpenseEntry{}, err
	}
	category, err := core.ParseCategory(r.Form.Get("category"))
	if err != nil {
		return core.ExpenseEntry{}, err
	}
	return core.NewExpenseEntry(sess.UserID, date, sanitizeInput(r.Form.Get("name")), amount, category)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	s.deleteEntry(w, r, sess, records.Expenses)
}

// handleExpenseList renders the expense table body.
func (s *Server) handleExpenseList(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	view, ok := s.loadView(w, r, sess)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "expense_list", view)
}

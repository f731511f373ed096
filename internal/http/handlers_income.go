package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"moneytracker/internal/auth"
	"moneytracker/internal/core"
	"moneytracker/internal/log"
	"moneytracker/internal/records"
)

type incomePreview struct {
	OK             bool
	Classification core.Classification
	Allocation     core.Allocation
}

// handleIncome serves the income page on GET and records a new entry on POST.
func (s *Server) handleIncome(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if errResp := RequireMethod(r, http.MethodGet, http.MethodPost); errResp != nil {
		errResp.Write(w)
		return
	}

	if r.Method == http.MethodGet {
		view, ok := s.loadView(w, r, sess)
		if !ok {
			return
		}
		s.render(w, r, http.StatusOK, "income", s.newPage(sess, "Income", "income", view))
		return
	}

	s.createIncome(w, r, sess)
}

func (s *Server) createIncome(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}

	entry, err := s.incomeFromForm(r, sess)
	if err != nil {
		s.rejectInput(w, r, err)
		return
	}

	saved, err := s.ledgers.For(sess.UserID).AddIncome(r.Context(), entry)
	if err != nil {
		if msg, ok := validationMessage(err); ok {
			UnprocessableEntityError(msg).Write(w)
			return
		}
		s.gatewayError(w, r, "Couldn't save the income, please try again.", err, log.OpCreate)
		return
	}

	s.metrics.entryCreated(records.Income)
	s.structured.LogEntryCreated(r.Context(), sess.UserID, string(records.Income), saved.ID, saved.Amount.String())

	msg := fmt.Sprintf("Income of %s saved", core.FormatCurrency(saved.Amount))
	NewHTMXResponse().
		TriggerEntryCreated(records.Income).
		TriggerFormReset().
		TriggerSummaryRefresh().
		TriggerSuccessNotification(msg).
		Write(w)
}

// incomeFromForm validates the submitted fields and fixes the allocation.
// Regular income without a chosen savings tag goes to investments.
func (s *Server) incomeFromForm(r *http.Request, sess auth.Session) (core.IncomeEntry, error) {
	date, err := ParseEntryDate(r.Form.Get("date"))
	if err != nil {
		return core.IncomeEntry{}, err
	}
	amount, err := core.ParseAmount(r.Form.Get("amount"))
	if err != nil {
		return core.IncomeEntry{}, err
	}
	class, err := core.ParseClassification(r.Form.Get("classification"))
	if err != nil {
		return core.IncomeEntry{}, err
	}

	tag := core.SavingsNone
	if class == core.Regular {
		tag = core.SavingsInvestment
		if raw := strings.TrimSpace(r.Form.Get("savings_tag")); raw != "" {
			if tag, err = core.ParseSavingsTag(raw); err != nil {
				return core.IncomeEntry{}, err
			}
		}
	}

	return core.NewIncomeEntry(sess.UserID, date, amount, class, tag)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	s.deleteEntry(w, r, sess, records.Income)
}

// handleIncomeList renders the income table body.
func (s *Server) handleIncomeList(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	view, ok := s.loadView(w, r, sess)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "income_list", view)
}

// handleIncomePreview shows the split an amount would get before it is saved.
func (s *Server) handleIncomePreview(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	class, err := core.ParseClassification(r.URL.Query().Get("classification"))
	if err != nil {
		class = core.Regular
	}
	alloc, ok := core.Preview(r.URL.Query().Get("amount"), class)
	s.render(w, r, http.StatusOK, "income_preview", incomePreview{
		OK:             ok,
		Classification: class,
		Allocation:     alloc,
	})
}

// rejectInput answers a form that failed validation with an inline message.
func (s *Server) rejectInput(w http.ResponseWriter, r *http.Request, err error) {
	msg, ok := validationMessage(err)
	if !ok {
		msg = "Please check the form and try again."
	}
	s.logger.DebugContext(r.Context(), "Rejected entry input",
		log.FieldOperation, log.OpValidate,
		log.FieldError, err)
	UnprocessableEntityError(msg).Write(w)
}

// deleteEntry removes one entry of collection c. The id comes from the
// form or JSON body, or the query string for bodyless DELETE requests.
func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request, sess auth.Session, c records.Collection) {
	if errResp := RequireDeleteOrPOST(r); errResp != nil {
		errResp.Write(w)
		return
	}

	id, err := entryIDFromRequest(w, r)
	if errors.Is(err, errMissingID) {
		BadRequestError("Missing entry id").Write(w)
		return
	}
	if err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	if err := s.ledgers.For(sess.UserID).Delete(r.Context(), c, id); err != nil {
		if errors.Is(err, records.ErrNotFound) {
			NotFoundError("Entry not found").
				TriggerErrorNotification("That entry no longer exists.").
				TriggerEntryDeleted(c).
				Write(w)
			return
		}
		s.gatewayError(w, r, "Couldn't delete the entry, please try again.", err, log.OpDelete)
		return
	}

	atomic.AddInt64(&s.metrics.entriesDeleted, 1)
	s.structured.LogEntryDeleted(r.Context(), sess.UserID, string(c), id)

	NewHTMXResponse().
		TriggerEntryDeleted(c).
		TriggerSummaryRefresh().
		TriggerSuccessNotification("Entry deleted").
		Write(w)
}

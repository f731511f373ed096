package http

import (
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"moneytracker/internal/auth"
	"moneytracker/internal/core"
	"moneytracker/internal/records"
)

type appMetrics struct {
	started         time.Time
	incomeCreated   int64
	expensesCreated int64
	entriesDeleted  int64
	gatewayFailures int64
}

func (m *appMetrics) entryCreated(c records.Collection) {
	if c == records.Income {
		atomic.AddInt64(&m.incomeCreated, 1)
		return
	}
	atomic.AddInt64(&m.expensesCreated, 1)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// validationMessage turns an input error into the sentence shown next to
// the form. ok is false for errors that are not the user's to fix.
func validationMessage(err error) (msg string, ok bool) {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "Please enter a positive amount, e.g. 12.50.", true
	case errors.Is(err, core.ErrInvalidDate):
		return "Please enter a valid date.", true
	case errors.Is(err, core.ErrEmptyName):
		return "Please enter a name for the expense.", true
	case errors.Is(err, core.ErrNameTooLong):
		return "The name is too long (max 200 characters).", true
	case errors.Is(err, core.ErrUnknownCategory):
		return "Please pick a category from the list.", true
	case errors.Is(err, core.ErrUnknownClassification):
		return "Please pick Regular or Supplemental.", true
	case errors.Is(err, core.ErrUnknownSavingsTag):
		return "Please pick where the savings go.", true
	}
	return "", false
}

// authMessage is the sign-in page text for err, with the status to send.
func authMessage(err error) (string, int) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return err.Error(), http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailTaken):
		return err.Error(), http.StatusConflict
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
		return err.Error(), http.StatusUnprocessableEntity
	case errors.Is(err, auth.ErrSessionExpired):
		return err.Error(), http.StatusUnauthorized
	}
	return "Sign-in is unavailable right now, please try again.", http.StatusInternalServerError
}

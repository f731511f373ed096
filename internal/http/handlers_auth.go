package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"moneytracker/internal/auth"
	"moneytracker/internal/log"
)

const sessionCookie = "mt_session"

// sessionHandler is a handler that only runs for a signed-in user.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sess auth.Session)

type signInPage struct {
	Title string
	Mode  string
	Email string
	Error string
}

// requireSession resolves the session cookie and sends anonymous visitors
// to the sign-in page.
func (s *Server) requireSession(next sessionHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.currentSession(r)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidSession) && !errors.Is(err, auth.ErrSessionExpired) {
				s.logger.ErrorContext(r.Context(), "Session lookup failed",
					log.FieldError, err,
					log.FieldComponent, log.ComponentAuth)
			}
			if errors.Is(err, auth.ErrSessionExpired) {
				clearSessionCookie(w, r)
			}
			s.redirectToSignIn(w, r)
			return
		}

		logger := log.FromContext(r.Context()).With(log.FieldUserID, sess.UserID)
		next(w, r.WithContext(log.WithLogger(r.Context(), logger)), sess)
	})
}

func (s *Server) currentSession(r *http.Request) (auth.Session, error) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return auth.Session{}, auth.ErrInvalidSession
	}
	return s.sessions.Current(r.Context(), c.Value)
}

func (s *Server) redirectToSignIn(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/summary":
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not signed in"})
	case isHTMX(r):
		NewHTMXResponse().Status(http.StatusUnauthorized).Redirect("/signin").Write(w)
	default:
		http.Redirect(w, r, "/signin", http.StatusSeeOther)
	}
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireMethod(r, http.MethodGet, http.MethodPost); errResp != nil {
		errResp.Write(w)
		return
	}

	if r.Method == http.MethodGet {
		if _, err := s.currentSession(r); err == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		s.renderSignIn(w, r, http.StatusOK, signInPage{Mode: "signin"})
		return
	}

	s.authenticate(w, r, "signin", s.sessions.SignIn)
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	s.authenticate(w, r, "signup", s.sessions.SignUp)
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request, mode string,
	call func(ctx context.Context, email, password string) (auth.Session, error)) {
	if err := r.ParseForm(); err != nil {
		s.renderSignIn(w, r, http.StatusBadRequest, signInPage{Mode: mode, Error: "Invalid request format"})
		return
	}

	email := sanitizeInput(r.Form.Get("email"))
	password := r.Form.Get("password")

	op := log.OpSignIn
	if mode == "signup" {
		op = log.OpSignUp
	}

	sess, err := call(r.Context(), email, password)
	if err != nil {
		msg, status := authMessage(err)
		if status >= http.StatusInternalServerError {
			s.structured.LogError(r.Context(), "Authentication failed", err, op,
				log.NewFields().WithComponent(log.ComponentAuth))
		} else {
			s.logger.InfoContext(r.Context(), "Authentication rejected",
				log.FieldOperation, op,
				log.FieldError, err)
		}
		s.renderSignIn(w, r, status, signInPage{Mode: mode, Email: email, Error: msg})
		return
	}

	setSessionCookie(w, r, sess)
	s.logger.InfoContext(r.Context(), "User signed in",
		log.FieldOperation, op,
		log.FieldUserID, sess.UserID)

	if isHTMX(r) {
		NewHTMXResponse().Redirect("/").Write(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}

	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		if err := s.sessions.SignOut(r.Context(), c.Value); err != nil {
			s.structured.LogError(r.Context(), "Sign-out failed", err, log.OpSignOut,
				log.NewFields().WithComponent(log.ComponentAuth))
		}
	}
	clearSessionCookie(w, r)

	if isHTMX(r) {
		NewHTMXResponse().Redirect("/signin").Write(w)
		return
	}
	http.Redirect(w, r, "/signin", http.StatusSeeOther)
}

func (s *Server) renderSignIn(w http.ResponseWriter, r *http.Request, status int, page signInPage) {
	page.Title = "Sign in"
	if page.Mode == "signup" {
		page.Title = "Create account"
	}
	s.render(w, r, status, "signin", page)
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// Package auth is the session gateway: sign-up, sign-in, sign-out and the
// current session, with change notifications for whoever holds per-user
// state.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"moneytracker/internal/records"
)

// Errors are phrased for display next to the sign-in form.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidEmail       = errors.New("please enter a valid email address")
	ErrWeakPassword       = errors.New("password must be between 8 and 72 characters")
	ErrSessionExpired     = errors.New("your session has expired, please sign in again")
	ErrInvalidSession     = errors.New("invalid session")
)

// Session is an authenticated identity.
type Session struct {
	UserID    string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// Identity is the port to whatever provider authenticates users.
type Identity interface {
	SignUp(ctx context.Context, email, password string) (Session, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context, token string) error
	Session(ctx context.Context, token string) (Session, error)
}

// LocalIdentity authenticates against the users kept in the record store.
type LocalIdentity struct {
	users  records.UserStore
	tokens *TokenManager
}

func NewLocalIdentity(users records.UserStore, tokens *TokenManager) *LocalIdentity {
	return &LocalIdentity{users: users, tokens: tokens}
}

func (l *LocalIdentity) SignUp(ctx context.Context, email, password string) (Session, error) {
	email = records.NormalizeEmail(email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return Session{}, ErrInvalidEmail
	}
	if err := ValidatePassword(password); err != nil {
		return Session{}, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := l.users.CreateUser(ctx, records.User{Email: email, PasswordHash: hash})
	if errors.Is(err, records.ErrEmailTaken) {
		return Session{}, ErrEmailTaken
	}
	if err != nil {
		return Session{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User signed up", "user_id", u.ID)
	return l.issue(u)
}

func (l *LocalIdentity) SignIn(ctx context.Context, email, password string) (Session, error) {
	u, err := l.users.FindUserByEmail(ctx, email)
	if errors.Is(err, records.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("find user: %w", err)
	}
	if !CheckPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return l.issue(u)
}

// SignOut revokes the token. Tokens that are already unusable are ignored.
func (l *LocalIdentity) SignOut(ctx context.Context, token string) error {
	c, err := l.tokens.Parse(token)
	if err != nil {
		return nil
	}
	if err := l.users.RevokeToken(ctx, c.JTI, c.ExpiresAt); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (l *LocalIdentity) Session(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrInvalidSession
	}
	c, err := l.tokens.Parse(token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := l.users.IsRevoked(ctx, c.JTI)
	if err != nil {
		return Session{}, fmt.Errorf("check session: %w", err)
	}
	if revoked {
		return Session{}, ErrSessionExpired
	}
	return Session{UserID: c.UserID, Email: c.Email, Token: token, ExpiresAt: c.ExpiresAt}, nil
}

func (l *LocalIdentity) issue(u records.User) (Session, error) {
	token, c, err := l.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return Session{}, err
	}
	return Session{UserID: u.ID, Email: u.Email, Token: token, ExpiresAt: c.ExpiresAt}, nil
}

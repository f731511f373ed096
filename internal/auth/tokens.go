package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultSessionTTL is how long a sign-in stays valid.
const DefaultSessionTTL = 7 * 24 * time.Hour

// TokenManager signs and verifies HS256 session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Claims are the fields carried by a session token.
type Claims struct {
	UserID    string
	Email     string
	JTI       string
	ExpiresAt time.Time
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a fresh token for the user.
func (m *TokenManager) Issue(userID, email string) (string, Claims, error) {
	now := m.now()
	c := Claims{
		UserID:    userID,
		Email:     email,
		JTI:       uuid.NewString(),
		ExpiresAt: now.Add(m.ttl).Truncate(time.Second),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        c.JTI,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, c, nil
}

// Parse verifies signature and expiry. Expired tokens yield
// ErrSessionExpired, anything else unusable yields ErrInvalidSession.
func (m *TokenManager) Parse(token string) (Claims, error) {
	var sc sessionClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	_, err := parser.ParseWithClaims(token, &sc, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrSessionExpired
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if sc.Subject == "" || sc.ID == "" {
		return Claims{}, ErrInvalidSession
	}
	return Claims{
		UserID:    sc.Subject,
		Email:     sc.Email,
		JTI:       sc.ID,
		ExpiresAt: sc.ExpiresAt.Time,
	}, nil
}

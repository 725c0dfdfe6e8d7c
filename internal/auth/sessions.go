package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultSessionTTL = 24 * 7 * time.Hour

	// SessionCookieName is the cookie carrying the session credential.
	SessionCookieName = "inkwell_session"

	sessionIssuerName = "inkwell"
)

// Sessions issues and verifies stateless session credentials. The credential
// is a signed token holding the user ID, nothing is stored server side, so
// verification never needs a round trip.
type Sessions struct {
	secret []byte
	ttl    time.Duration

	// injectable clock for tests
	now func() time.Time
}

func NewSessions(secret []byte, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue creates a new session credential for the given user ID.
func (s *Sessions) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user id empty")
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    sessionIssuerName,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return signed, nil
}

// VerifiedSubject checks the credential signature and expiry and returns the
// user ID it was issued for. Tampered, forged or expired credentials yield
// false, never an error, an invalid session is simply not a session.
func (s *Sessions) VerifiedSubject(tokenString string) (string, bool) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		log.Tracef("session token rejected: %s", err)
		return "", false
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", false
	}

	return claims.Subject, true
}

// Extract pulls the session credential from the request cookie.
func (s *Sessions) Extract(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Cookie wraps an issued credential into the session cookie.
func (s *Sessions) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Revoke expires the session cookie on the client. The credential itself
// stays valid until its expiry, revocation is enforced through the editors
// allow list check on every request.
func (s *Sessions) Revoke(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

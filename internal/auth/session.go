package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// SessionCookieName is the cookie carrying the session token.
	SessionCookieName = "inkwell_session"

	sessionIssuer   = "inkwell-api"
	sessionAudience = "inkwell-session"

	// DefaultSessionTTL applies when "remember me" is not requested.
	DefaultSessionTTL = 24 * time.Hour
	// RememberSessionTTL keeps the session alive across browser restarts.
	RememberSessionTTL = 30 * 24 * time.Hour
)

// ErrInvalidSession is returned for any session token that fails validation.
var ErrInvalidSession = errors.New("invalid or expired session")

// Session is a validated, client-held session token's decoded content.
type Session struct {
	Token     string
	UserID    uint
	ExpiresAt time.Time
	Remember  bool
}

// SessionManager issues and validates signed session tokens. The token is the
// only server-held session state; tampering is detected by the HMAC signature.
type SessionManager struct {
	secret []byte
}

// NewSessionManager returns a SessionManager signing with the given secret.
func NewSessionManager(secret string) *SessionManager {
	return &SessionManager{secret: []byte(secret)}
}

// Issue creates a signed session token for the user. remember extends the
// lifetime from the default to thirty days.
func (m *SessionManager) Issue(userID uint, remember bool) (*Session, error) {
	if len(m.secret) == 0 {
		return nil, fmt.Errorf("session secret not configured")
	}

	ttl := DefaultSessionTTL
	if remember {
		ttl = RememberSessionTTL
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"iss":      sessionIssuer,
		"aud":      sessionAudience,
		"exp":      expiresAt.Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
		"remember": remember,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		Remember:  remember,
	}, nil
}

// Parse validates a session token and returns the user ID it asserts.
// Any failure (signature, expiry, audience, malformed subject) yields
// ErrInvalidSession.
func (m *SessionManager) Parse(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	}, jwt.WithAudience(sessionAudience), jwt.WithIssuer(sessionIssuer))
	if err != nil || !token.Valid {
		return 0, ErrInvalidSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidSession
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, ErrInvalidSession
	}

	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return 0, ErrInvalidSession
	}
	return uint(userID), nil
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const resetAudience = "inkwell-password-reset"

// Reset token verification errors. Handlers surface both the same way
// (request a fresh token); the distinction matters for logging and tests.
var (
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
	ErrResetTokenUsed    = errors.New("reset token already used")
)

// Denylist records consumed reset token IDs so a token authorizes at most one
// password change. A nil Denylist disables the single-use guarantee and
// tokens remain replayable until expiry.
type Denylist interface {
	Deny(ctx context.Context, jti string, ttl time.Duration) error
	IsDenied(ctx context.Context, jti string) (bool, error)
}

// ResetToken is the decoded content of a verified reset token.
type ResetToken struct {
	UserID    uint
	JTI       string
	ExpiresAt time.Time
}

// ResetTokenService mints and verifies self-contained password-reset tokens.
// The expiry is part of the signed payload, so it cannot be extended without
// breaking the signature.
type ResetTokenService struct {
	secret   []byte
	ttl      time.Duration
	denylist Denylist
}

// NewResetTokenService returns a service signing reset tokens with the given
// secret and time-to-live.
func NewResetTokenService(secret string, ttl time.Duration, denylist Denylist) *ResetTokenService {
	return &ResetTokenService{secret: []byte(secret), ttl: ttl, denylist: denylist}
}

// TTL returns the configured token lifetime.
func (s *ResetTokenService) TTL() time.Duration {
	return s.ttl
}

// Issue mints a signed reset token binding the user's identity and the
// issuance time.
func (s *ResetTokenService) Issue(userID uint) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("reset token secret not configured")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Audience:  jwt.ClaimStrings{resetAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		ID:        uuid.NewString(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks signature, audience, and expiry, then the single-use
// denylist. It fails closed: any defect yields an error and no user identity.
func (s *ResetTokenService) Verify(ctx context.Context, tokenString string) (*ResetToken, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithAudience(resetAudience))
	if err != nil || !token.Valid {
		return nil, ErrResetTokenInvalid
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return nil, ErrResetTokenInvalid
	}
	if claims.ExpiresAt == nil || claims.ID == "" {
		return nil, ErrResetTokenInvalid
	}

	if s.denylist != nil {
		denied, err := s.denylist.IsDenied(ctx, claims.ID)
		if err == nil && denied {
			return nil, ErrResetTokenUsed
		}
	}

	return &ResetToken{
		UserID:    uint(userID),
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Consume marks a verified token as used for the remainder of its validity
// window. Best effort: if the denylist is unavailable the token stays
// replayable until expiry.
func (s *ResetTokenService) Consume(ctx context.Context, token *ResetToken) {
	if s.denylist == nil || token == nil {
		return
	}
	remaining := time.Until(token.ExpiresAt)
	if remaining <= 0 {
		return
	}
	_ = s.denylist.Deny(ctx, token.JTI, remaining)
}

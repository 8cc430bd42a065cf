package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidState is returned when an OAuth state parameter fails verification
var ErrInvalidState = errors.New("invalid oauth state")

// stateTTL bounds how long a user may take on the provider consent screen
const stateTTL = 10 * time.Minute

// StateSigner signs the OAuth state parameter so callbacks can be tied back to the tenant and user
type StateSigner struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewStateSigner creates a signer with its own secret
func NewStateSigner(secret, issuer string) *StateSigner {
	return &StateSigner{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Sign returns a short-lived state token for the tenant and user
func (s *StateSigner) Sign(tenantID, userID uuid.UUID) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TenantID:  tenantID,
		UserID:    userID,
		TokenType: TokenTypeState,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks the state token and returns the tenant and user it was issued for
func (s *StateSigner) Verify(state string) (tenantID, userID uuid.UUID, err error) {
	token, err := jwt.ParseWithClaims(state, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidState
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return uuid.Nil, uuid.Nil, ErrInvalidState
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.TokenType != TokenTypeState || claims.TenantID == uuid.Nil || claims.UserID == uuid.Nil {
		return uuid.Nil, uuid.Nil, ErrInvalidState
	}
	return claims.TenantID, claims.UserID, nil
}

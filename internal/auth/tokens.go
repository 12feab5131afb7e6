package auth

import (
	"fmt"
	"time"

	"github.com/cristalhq/jwt/v4"
	"github.com/google/uuid"
)

// Claims is the JWT payload issued to users.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Token is a signed access token.
type Token struct {
	Raw       string
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	signer   jwt.Signer
	verifier jwt.Verifier
	issuer   string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenIssuer builds a TokenIssuer from a shared secret.
func NewTokenIssuer(secret []byte, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	signer, err := jwt.NewSignerHS(jwt.HS256, secret)
	if err != nil {
		return nil, fmt.Errorf("auth: signer: %w", err)
	}
	verifier, err := jwt.NewVerifierHS(jwt.HS256, secret)
	if err != nil {
		return nil, fmt.Errorf("auth: verifier: %w", err)
	}
	return &TokenIssuer{signer: signer, verifier: verifier, issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for the user.
func (t *TokenIssuer) Issue(userID, email string) (Token, error) {
	now := t.now().UTC()
	expires := now.Add(t.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    t.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email: email,
	}
	token, err := jwt.NewBuilder(t.signer).Build(claims)
	if err != nil {
		return Token{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return Token{Raw: token.String(), ExpiresAt: expires}, nil
}

// Verify checks signature, issuer and expiry and returns the claims.
func (t *TokenIssuer) Verify(raw string) (Claims, error) {
	var claims Claims
	if err := jwt.ParseClaims([]byte(raw), t.verifier, &claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !claims.IsIssuer(t.issuer) {
		return Claims{}, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
	}
	if claims.ExpiresAt == nil || !t.now().Before(claims.ExpiresAt.Time) {
		return Claims{}, fmt.Errorf("%w: expired", ErrInvalidToken)
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

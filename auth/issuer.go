package auth

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IssuerConfig configures a TokenIssuer.
type IssuerConfig struct {
	// Key is the shared HS256 signing key.
	Key []byte

	// Issuer is written to the iss claim.
	Issuer string

	// Audience is written to the aud claim.
	Audience string

	// Subject names the calling service.
	// Default: "catalog-proxy"
	Subject string

	// Scopes are granted to every token.
	// Default: ScopeRead and ScopeWrite
	Scopes []string

	// TTL is the token lifetime.
	// Default: 5 minutes
	TTL time.Duration

	// Now supplies the signing time.
	// Default: time.Now
	Now func() time.Time
}

// TokenIssuer mints service tokens and reuses each one until it is close to
// expiry.
type TokenIssuer struct {
	config IssuerConfig

	mu      sync.Mutex
	current string
	expires time.Time
}

// NewTokenIssuer creates a TokenIssuer.
func NewTokenIssuer(config IssuerConfig) (*TokenIssuer, error) {
	if len(config.Key) == 0 {
		return nil, ErrMissingKey
	}
	if config.Subject == "" {
		config.Subject = "catalog-proxy"
	}
	if len(config.Scopes) == 0 {
		config.Scopes = []string{ScopeRead, ScopeWrite}
	}
	if config.TTL <= 0 {
		config.TTL = 5 * time.Minute
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &TokenIssuer{config: config}, nil
}

// Token returns a valid signed token. A cached token is reused while more
// than a fifth of its lifetime remains.
func (i *TokenIssuer) Token() (string, error) {
	now := i.config.Now()

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.current != "" && now.Add(i.config.TTL/5).Before(i.expires) {
		return i.current, nil
	}

	expires := now.Add(i.config.TTL)
	claims := ServiceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.config.Issuer,
			Subject:   i.config.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Scope: strings.Join(i.config.Scopes, " "),
	}
	if i.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{i.config.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.config.Key)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	i.current, i.expires = signed, expires
	return signed, nil
}

package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures the JWT authenticator.
type JWTConfig struct {
	// Key is the shared HS256 signing key.
	Key []byte

	// Issuer is the expected token issuer (iss claim).
	Issuer string

	// Audience is the expected token audience (aud claim).
	Audience string

	// HeaderName is the header containing the token.
	// Default: "Authorization"
	HeaderName string

	// TokenPrefix is the prefix before the token in the header.
	// Default: "Bearer "
	TokenPrefix string

	// Leeway tolerates clock skew on exp, nbf and iat.
	// Default: 0
	Leeway time.Duration

	// Now supplies the validation time.
	// Default: time.Now
	Now func() time.Time
}

// JWTAuthenticator validates HS256 service tokens.
type JWTAuthenticator struct {
	config JWTConfig
	parser *jwt.Parser
}

// NewJWTAuthenticator creates a new JWT authenticator.
func NewJWTAuthenticator(config JWTConfig) (*JWTAuthenticator, error) {
	if len(config.Key) == 0 {
		return nil, ErrMissingKey
	}
	if config.HeaderName == "" {
		config.HeaderName = "Authorization"
	}
	if config.TokenPrefix == "" {
		config.TokenPrefix = "Bearer "
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(config.Now),
	}
	if config.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(config.Leeway))
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}

	return &JWTAuthenticator{config: config, parser: jwt.NewParser(opts...)}, nil
}

// Name returns "jwt".
func (a *JWTAuthenticator) Name() string {
	return "jwt"
}

// Authenticate validates the bearer token.
func (a *JWTAuthenticator) Authenticate(_ context.Context, req *AuthRequest) (*AuthResult, error) {
	header := req.GetHeader(a.config.HeaderName)
	tokenString, ok := strings.CutPrefix(header, a.config.TokenPrefix)
	if !ok || strings.TrimSpace(tokenString) == "" {
		return AuthFailure(ErrMissingCredentials), nil
	}

	claims := &ServiceClaims{}
	token, err := a.parser.ParseWithClaims(strings.TrimSpace(tokenString), claims, func(*jwt.Token) (any, error) {
		return a.config.Key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return AuthFailure(ErrTokenExpired), nil
	case errors.Is(err, jwt.ErrTokenMalformed):
		return AuthFailure(ErrTokenMalformed), nil
	case err != nil || !token.Valid:
		return AuthFailure(ErrInvalidCredentials), nil
	}

	return AuthSuccess(claims.identity()), nil
}

// ServiceClaims are the claims carried by a service token.
type ServiceClaims struct {
	jwt.RegisteredClaims

	// Scope is a space-separated scope list, as in OAuth 2.0.
	Scope string `json:"scope,omitempty"`
}

func (c *ServiceClaims) identity() *Identity {
	id := &Identity{
		Principal: c.Subject,
		Scopes:    strings.Fields(c.Scope),
		Method:    AuthMethodJWT,
		Claims: map[string]any{
			"iss":   c.Issuer,
			"sub":   c.Subject,
			"scope": c.Scope,
		},
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	if c.IssuedAt != nil {
		id.IssuedAt = c.IssuedAt.Time
	}
	return id
}

var _ Authenticator = (*JWTAuthenticator)(nil)

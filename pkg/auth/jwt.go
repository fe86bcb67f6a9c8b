package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrInvalidToken     = errors.New("invalid token")
	ErrNoUserInContext  = errors.New("no user in context")
)

// Claims are the token claims the API cares about
type Claims struct {
	UserID string   `json:"sub"`
	Email  string   `json:"email,omitempty"`
	Roles  []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// JWTConfig configures token validation
type JWTConfig struct {
	SigningMethod string
	SecretKey     string
	Issuer        string
	Audience      []string
}

// JWTValidator validates bearer tokens
type JWTValidator struct {
	config JWTConfig
}

// NewJWTValidator creates a validator. Only HMAC signing is supported.
func NewJWTValidator(config JWTConfig) (*JWTValidator, error) {
	if config.SecretKey == "" {
		return nil, errors.New("jwt secret key is required")
	}
	if config.SigningMethod == "" {
		config.SigningMethod = "HS256"
	}
	if jwt.GetSigningMethod(config.SigningMethod) == nil {
		return nil, fmt.Errorf("unsupported signing method %q", config.SigningMethod)
	}
	return &JWTValidator{config: config}, nil
}

// ValidateToken parses and verifies a token, returning its claims
func (v *JWTValidator) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.config.SigningMethod}),
	}
	if v.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.config.Issuer))
	}
	if len(v.config.Audience) > 0 {
		options = append(options, jwt.WithAudience(v.config.Audience[0]))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(v.config.SecretKey), nil
	}, options...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	return claims, nil
}

// JWTGeneratorConfig configures token generation
type JWTGeneratorConfig struct {
	SigningMethod string
	SecretKey     string
	Issuer        string
	Audience      []string
	ExpiryTime    time.Duration
}

// JWTGenerator issues tokens, used by the refresh endpoint and tests
type JWTGenerator struct {
	config JWTGeneratorConfig
}

// NewJWTGenerator creates a token generator
func NewJWTGenerator(config JWTGeneratorConfig) (*JWTGenerator, error) {
	if config.SecretKey == "" {
		return nil, errors.New("jwt secret key is required")
	}
	if config.SigningMethod == "" {
		config.SigningMethod = "HS256"
	}
	if config.ExpiryTime <= 0 {
		config.ExpiryTime = 24 * time.Hour
	}
	return &JWTGenerator{config: config}, nil
}

// GenerateToken issues a signed token for the given user
func (g *JWTGenerator) GenerateToken(userID, email string, roles []string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    g.config.Issuer,
			Audience:  g.config.Audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.config.ExpiryTime)),
		},
	}

	token := jwt.NewWithClaims(jwt.GetSigningMethod(g.config.SigningMethod), claims)
	return token.SignedString([]byte(g.config.SecretKey))
}

// UserContext is the authenticated caller attached to a request
type UserContext struct {
	UserID string
	Email  string
	Roles  []string
}

type userContextKey struct{}

// SetUserInContext attaches the authenticated user to the context
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUserFromContext returns the authenticated user, if any
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey{}).(*UserContext)
	if !ok || user == nil {
		return nil, ErrNoUserInContext
	}
	return user, nil
}

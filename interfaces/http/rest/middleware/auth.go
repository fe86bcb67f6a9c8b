package middleware

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"invoiceflow/infrastructure/config"
	"invoiceflow/pkg/auth"
)

const apiAudience = "invoiceflow-api"

// Authenticate builds the authentication middleware for the current
// environment. Behind API Gateway the JWT authorizer has already run, so
// only the forwarded user context is read; everywhere else tokens are
// validated locally.
func Authenticate() func(next http.Handler) http.Handler {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		return AuthenticateForLambda()
	}

	cfg, err := config.LoadConfig()
	if err != nil || cfg.JWTSecret == "" {
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			secret = "development-secret-change-in-production"
		}
		cfg = &config.Config{JWTSecret: secret, JWTIssuer: "invoiceflow"}
	}

	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.JWTSecret,
		Issuer:        cfg.JWTIssuer,
		Audience:      []string{apiAudience},
	})
	if err != nil {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				respondUnauthorized(w, "Authentication system error")
			})
		}
	}

	return AuthenticateWithConfig(validator, zap.L())
}

// AuthenticateForLambda trusts the user headers set by the Lambda entry
// point after it unpacks the API Gateway authorizer context
func AuthenticateForLambda() func(next http.Handler) http.Handler {
	ipLimiter := auth.NewIPRateLimiter(100)
	userLimiter := auth.NewUserRateLimiter(200)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, _ := ipLimiter.Allow(r.Context(), getClientIP(r))
			if !allowed {
				respondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			if r.Header.Get("X-API-Gateway-Authorized") != "true" {
				respondUnauthorized(w, "Request not authorized by API Gateway")
				return
			}

			userID := r.Header.Get("X-User-ID")
			if userID == "" {
				respondUnauthorized(w, "Missing user context from API Gateway")
				return
			}

			allowed, _ = userLimiter.Allow(r.Context(), userID)
			if !allowed {
				respondWithError(w, http.StatusTooManyRequests, "User rate limit exceeded")
				return
			}

			roles := []string{"authenticated"}
			if header := r.Header.Get("X-User-Roles"); header != "" {
				roles = strings.Split(header, ",")
			}

			ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
				UserID: userID,
				Email:  r.Header.Get("X-User-Email"),
				Roles:  roles,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthenticateWithConfig validates bearer tokens with the given validator
func AuthenticateWithConfig(validator *auth.JWTValidator, logger *zap.Logger) func(next http.Handler) http.Handler {
	ipLimiter := auth.NewIPRateLimiter(100)
	userLimiter := auth.NewUserRateLimiter(200)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)

			allowed, err := ipLimiter.Allow(r.Context(), clientIP)
			if err != nil {
				logger.Error("rate limiter error", zap.Error(err))
				respondWithError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !allowed {
				respondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			token := extractToken(r)
			if token == "" {
				respondUnauthorized(w, "Missing authentication token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("invalid token",
					zap.Error(err),
					zap.String("ip", clientIP),
					zap.String("path", r.URL.Path))
				switch err {
				case auth.ErrExpiredToken:
					respondUnauthorized(w, "Token has expired")
				case auth.ErrInvalidSignature:
					respondUnauthorized(w, "Invalid token signature")
				default:
					respondUnauthorized(w, "Invalid token")
				}
				return
			}

			allowed, err = userLimiter.Allow(r.Context(), claims.UserID)
			if err != nil {
				logger.Error("user rate limiter error", zap.Error(err))
				respondWithError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !allowed {
				respondWithError(w, http.StatusTooManyRequests, "User rate limit exceeded")
				return
			}

			ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
				UserID: claims.UserID,
				Email:  claims.Email,
				Roles:  claims.Roles,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole restricts a route to callers holding one of the given roles
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.GetUserFromContext(r.Context())
			if err != nil {
				respondUnauthorized(w, "Unauthorized")
				return
			}

			for _, required := range roles {
				for _, role := range user.Roles {
					if role == required {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			respondWithError(w, http.StatusForbidden, "Insufficient permissions")
		})
	}
}

// extractToken pulls the bearer token from the header, cookie, or query
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return header
	}
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return r.URL.Query().Get("token")
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	respondWithError(w, http.StatusUnauthorized, message)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    code,
	})
}

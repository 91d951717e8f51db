package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/carolinavmo/PMR-atlas/internal/access"
	"github.com/carolinavmo/PMR-atlas/internal/apperr"
	"github.com/carolinavmo/PMR-atlas/pkg/logger"
)

// Context keys set by the auth middlewares.
const (
	ClaimsKey = "claims"
	TokenKey  = "token"
	CallerKey = "caller"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// Revocations reports access tokens revoked before their expiry.
type Revocations interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// CallerResolver maps verified claims to an account.
type CallerResolver interface {
	ResolveCaller(ctx context.Context, claims map[string]interface{}) (access.Caller, error)
}

// Chain tries each verifier in order and accepts the first success.
func Chain(verifiers ...Verifier) Verifier {
	return chain(verifiers)
}

type chain []Verifier

func (ch chain) Verify(ctx context.Context, raw string) (Token, error) {
	err := errors.New("no verifier configured")
	for _, v := range ch {
		if v == nil {
			continue
		}
		var tok Token
		if tok, err = v.Verify(ctx, raw); err == nil {
			return tok, nil
		}
	}
	return nil, err
}

// AuthMiddleware verifies Bearer tokens, rejects revoked ones (rev may be
// nil) and stores the claims and raw token on the context.
func AuthMiddleware(ver Verifier, rev Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		scheme, token, ok := strings.Cut(auth, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		idToken, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "details": err.Error()})
			return
		}

		if rev != nil {
			revoked, err := rev.IsRevoked(c.Request.Context(), token)
			if err != nil {
				logger.Errorf("auth: revocation check failed: %v", err)
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "token revocation check unavailable"})
				return
			}
			if revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
				return
			}
		}

		var claims map[string]interface{}
		if err := idToken.Claims(&claims); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "failed to parse claims"})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(TokenKey, token)
		c.Next()
	}
}

// ResolveCaller must run after AuthMiddleware; it stores the access.Caller.
func ResolveCaller(res CallerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := c.Get(ClaimsKey)
		cm, _ := claims.(map[string]interface{})
		caller, err := res.ResolveCaller(c.Request.Context(), cm)
		if err != nil {
			if errors.Is(err, apperr.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
				return
			}
			logger.Errorf("auth: resolve caller: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve user"})
			return
		}
		c.Set(CallerKey, caller)
		c.Next()
	}
}

// CallerFrom returns the caller stored by ResolveCaller.
func CallerFrom(c *gin.Context) (access.Caller, bool) {
	v, ok := c.Get(CallerKey)
	if !ok {
		return access.Caller{}, false
	}
	caller, ok := v.(access.Caller)
	return caller, ok
}

// TokenFrom returns the raw bearer token accepted by AuthMiddleware.
func TokenFrom(c *gin.Context) string {
	return c.GetString(TokenKey)
}

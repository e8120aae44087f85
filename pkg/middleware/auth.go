package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/blogdeck/admin/internal/sessions"
	"github.com/blogdeck/admin/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// SessionValidator reports whether the session named by a token's jti is still open.
type SessionValidator interface {
	Active(ctx context.Context, id string) (bool, error)
}

type firstOf []Verifier

// FirstOf returns a Verifier that accepts a token if any of vs does.
// Nil verifiers are skipped.
func FirstOf(vs ...Verifier) Verifier {
	var out firstOf
	for _, v := range vs {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

func (f firstOf) Verify(ctx context.Context, raw string) (Token, error) {
	errs := make([]error, 0, len(f))
	for _, v := range f {
		tok, err := v.Verify(ctx, raw)
		if err == nil {
			return tok, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("no verifier configured")
	}
	return nil, errors.Join(errs...)
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the provided verifier.
// When sess is non-nil, tokens carrying a jti must name an active session.
func AuthMiddleware(ver Verifier, sess SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		// Expect 'Bearer <token>'
		var token string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &token); n != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		black, err := sessions.IsAccessTokenBlacklisted(c.Request.Context(), token)
		if err != nil {
			logger.Warnf("blacklist lookup failed: %v", err)
		}
		if black {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			return
		}

		idToken, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "details": err.Error()})
			return
		}

		// Extract claims
		var claims map[string]interface{}
		if err := idToken.Claims(&claims); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "failed to parse claims"})
			return
		}

		if jti, _ := claims["jti"].(string); jti != "" && sess != nil {
			ok, err := sess.Active(c.Request.Context(), jti)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
				return
			}
			if !ok {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
				return
			}
			c.Set("session", jti)
		}

		c.Set("claims", claims)
		c.Set("token", token)
		c.Next()
	}
}

package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/blogdeck/admin/internal/config"
	"github.com/blogdeck/admin/internal/sessions"
	"github.com/blogdeck/admin/internal/tokens"
	"github.com/blogdeck/admin/pkg/logger"
)

// LoginRequest is the admin password login body.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	admin       config.AdminConfig
	sessionsSvc *sessions.Service
}

func NewAuthHandler(admin config.AdminConfig, s *sessions.Service) *AuthHandler {
	if admin.TokenTTL <= 0 {
		admin.TokenTTL = 12 * time.Hour
	}
	return &AuthHandler{admin: admin, sessionsSvc: s}
}

// Register adds the unauthenticated login and logout routes.
func (h *AuthHandler) Register(rg gin.IRoutes) {
	rg.POST("/login", h.Login)
	rg.POST("/logout", h.Logout)
}

// Login checks the configured bcrypt hash and issues an access token bound to a new session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.admin.Username == "" || h.admin.PasswordHash == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "admin login not configured"})
		return
	}
	hashErr := bcrypt.CompareHashAndPassword([]byte(h.admin.PasswordHash), []byte(req.Password))
	if req.Username != h.admin.Username || hashErr != nil {
		logger.Warnf("failed admin login for %q from %s", req.Username, c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	access, claims, err := tokens.GenerateAccessToken(h.admin.Secret, req.Username, h.admin.TokenTTL)
	if err != nil {
		logger.Errorf("failed to create access token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	if err := h.sessionsSvc.CreateSession(c.Request.Context(), claims.ID, req.Username, claims.ExpiresAt.Time); err != nil {
		logger.Errorf("failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken": access,
		"expiresIn":   int(h.admin.TokenTTL.Seconds()),
		"user":        gin.H{"username": req.Username},
	})
}

// Logout revokes the session behind one of our tokens. Foreign bearer
// tokens (OIDC) are blacklisted until they expire.
func (h *AuthHandler) Logout(c *gin.Context) {
	var at string
	if n, _ := fmt.Sscanf(c.GetHeader("Authorization"), "Bearer %s", &at); n != 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing bearer token"})
		return
	}
	if claims, err := tokens.ParseAccessToken(h.admin.Secret, at); err == nil {
		if err := h.sessionsSvc.Revoke(c.Request.Context(), claims.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove session"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
		return
	}
	exp, err := parseExpFromJWT(at)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token"})
		return
	}
	if ttl := time.Until(exp); ttl > 0 {
		if err := sessions.BlacklistAccessToken(c.Request.Context(), at, ttl); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to blacklist access token"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// parseExpFromJWT decodes the JWT payload and returns the `exp` claim as time.Time.
// This performs payload-only parsing (no signature verification) and is suitable
// for computing remaining TTLs for blacklisting purposes.
func parseExpFromJWT(tok string) (time.Time, error) {
	parts := strings.Split(tok, ".")
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("invalid token")
	}
	payload := parts[1]
	b, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		// try standard base64 (pad) as a fallback
		b, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return time.Time{}, err
		}
	}
	var claims map[string]interface{}
	if err := json.Unmarshal(b, &claims); err != nil {
		return time.Time{}, err
	}
	v, ok := claims["exp"]
	if !ok {
		return time.Time{}, fmt.Errorf("exp claim not present")
	}
	switch vv := v.(type) {
	case float64:
		return time.Unix(int64(vv), 0), nil
	case json.Number:
		i64, err := vv.Int64()
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(i64, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported exp type %T", v)
	}
}

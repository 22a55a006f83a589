package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/frankieli/pc28_game/pkg/logger"
)

const (
	RoleAdmin  = "admin"
	RolePlayer = "player"
)

// TokenVerifier validates the HS256 tokens issued by the account system
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier creates a verifier for the given shared secret
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// ValidateToken parses a token and returns the user ID and role
func (v *TokenVerifier) ValidateToken(tokenString string) (uint64, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return 0, "", fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return 0, "", fmt.Errorf("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", fmt.Errorf("invalid token claims")
	}

	rawID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, "", fmt.Errorf("token missing user_id")
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = RolePlayer
	}

	return uint64(rawID), role, nil
}

// Sign issues a token, used by tests and local tooling
func (v *TokenVerifier) Sign(userID uint64, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": float64(userID),
		"role":    role,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

const (
	ctxUserID = "auth_user_id"
	ctxRole   = "auth_role"
)

// AuthRequired rejects requests without a valid bearer token
func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if strings.HasPrefix(token, "Bearer ") {
			token = token[7:]
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("Unauthorized", "missing token"))
			return
		}

		userID, role, err := h.auth.ValidateToken(token)
		if err != nil {
			logger.Warn(c.Request.Context()).Err(err).Msg("Token validation failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("Unauthorized", "invalid token"))
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxRole, role)
		c.Next()
	}
}

// AdminRequired rejects authenticated requests without the admin role
func (h *Handler) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody("Forbidden", "admin role required"))
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) uint64 {
	if v, ok := c.Get(ctxUserID); ok {
		if id, ok := v.(uint64); ok {
			return id
		}
	}
	return 0
}

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer = "campusnet"

	// contextUserID is the gin context key holding the authenticated user id.
	contextUserID = "userID"
)

var errInvalidToken = errors.New("invalid or expired token")

// GenerateToken signs an HS256 token for userID.
func GenerateToken(secret []byte, userID string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"sub":     userID,
		"exp":     time.Now().Add(ttl).Unix(),
		"iss":     tokenIssuer,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// validateToken returns the user id carried by a token signed with our secret.
// Tokens from the main platform carry it as "user_id", standard ones as "sub".
func (h *Handler) validateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return h.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errInvalidToken
	}
	for _, key := range []string{"user_id", "sub"} {
		if id, ok := claims[key].(string); ok && strings.TrimSpace(id) != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: no user id claim", errInvalidToken)
}

// RequireAuth rejects requests without a valid token with 401.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c.Request)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization token missing"})
			return
		}

		userID, err := h.validateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token or expired"})
			return
		}

		c.Set(contextUserID, userID)
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(contextUserID)
}

// extractToken reads a bearer token from the Authorization header, or from
// ?token= for browser websocket clients that cannot set headers.
func extractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

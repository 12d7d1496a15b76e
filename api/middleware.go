package api

import (
	"net/http"
	"strings"

	"github.com/avdeenkov/flightbook/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// JWTAuth validates the Bearer token and stores the subject and role claims
// in the gin context for downstream handlers.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abort(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			abort(c, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abort(c, http.StatusUnauthorized, "invalid claims")
			return
		}
		sub, ok := claims["sub"].(float64)
		if !ok {
			abort(c, http.StatusUnauthorized, "invalid claims")
			return
		}
		role, _ := claims["role"].(string)

		c.Set(ctxUserID, int64(sub))
		c.Set(ctxRole, role)
		c.Next()
	}
}

// RequireRole guards a route group behind a single role.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) != string(role) {
			abort(c, http.StatusForbidden, "insufficient permissions")
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, failedResponse{Status: "Failed", StatusCode: status, Message: message})
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}

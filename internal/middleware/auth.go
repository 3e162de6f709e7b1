package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/access"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
)

const (
	ContextPrincipal = "principal"
	ContextRequestID = "requestID"
)

// AuthMiddleware turns a bearer HS256 token into an access.Principal.
// Claims: sub (user id), role and, for therapists, therapist_profile_id.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httperr.Unauthorized(c, "missing_authorization_header", "Missing Authorization header.")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httperr.Unauthorized(c, "invalid_authorization_header", "Invalid Authorization header.")
			c.Abort()
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenMalformed
			}
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			httperr.Unauthorized(c, "invalid_token", "Invalid or expired token.")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			httperr.Unauthorized(c, "invalid_token_claims", "Invalid token claims.")
			c.Abort()
			return
		}

		p, ok := principalFromClaims(claims)
		if !ok {
			httperr.Unauthorized(c, "invalid_token_payload", "Invalid token payload.")
			c.Abort()
			return
		}

		c.Set(ContextPrincipal, p)
		c.Next()
	}
}

func principalFromClaims(claims jwt.MapClaims) (access.Principal, bool) {
	userID, ok := claimUint(claims["sub"])
	if !ok || userID == 0 {
		return access.Principal{}, false
	}

	roleName, _ := claims["role"].(string)
	role, ok := access.ParseRole(roleName)
	if !ok {
		return access.Principal{}, false
	}

	p := access.Principal{UserID: userID, Role: role}
	if raw, present := claims["therapist_profile_id"]; present && raw != nil {
		id, ok := claimUint(raw)
		if !ok {
			return access.Principal{}, false
		}
		p.TherapistProfileID = &id
	}
	return p, true
}

// claimUint accepts JSON numbers and numeric strings.
func claimUint(v any) (uint, bool) {
	switch t := v.(type) {
	case float64:
		if t < 0 || t != float64(uint64(t)) {
			return 0, false
		}
		return uint(t), true
	case string:
		n, err := strconv.ParseUint(t, 10, 64)
		if err != nil {
			return 0, false
		}
		return uint(n), true
	}
	return 0, false
}

// Principal returns the caller set by AuthMiddleware, or a visitor.
func Principal(c *gin.Context) access.Principal {
	if v, ok := c.Get(ContextPrincipal); ok {
		if p, ok := v.(access.Principal); ok {
			return p
		}
	}
	return access.Principal{Role: access.RoleVisitor}
}

package middleware

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/remfix/remfix/internal/apierrors"
)

const masterIDContextKey = "master_id"

// IssueMasterToken mints the bearer token the field-agent app uses to post
// location updates. Subject is the master id.
func IssueMasterToken(secret string, masterID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(masterID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign master token: %w", err)
	}
	return signed, nil
}

// MasterJWT validates the Authorization bearer token and stores the master
// id in the request context.
func MasterJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			apierrors.Error(c, apierrors.CodeUnauthorized)
			c.Abort()
			return
		}
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			apierrors.Error(c, apierrors.CodeUnauthorized)
			c.Abort()
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			apierrors.Error(c, apierrors.CodeInvalidToken)
			c.Abort()
			return
		}
		masterID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			apierrors.Error(c, apierrors.CodeInvalidToken)
			c.Abort()
			return
		}
		c.Set(masterIDContextKey, masterID)
		c.Next()
	}
}

// GetMasterID returns the authenticated master id, or 0 outside MasterJWT.
func GetMasterID(c *gin.Context) int64 {
	v, ok := c.Get(masterIDContextKey)
	if !ok {
		return 0
	}
	id, _ := v.(int64)
	return id
}

package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Session roles
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

var (
	errTokenMalformed = errors.New("malformed session token")
	errTokenExpired   = errors.New("session token expired")
	errTokenSignature = errors.New("session token signature invalid")
)

func signPayload(payload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// MakeToken issues a signed session token: "<user>.<role>.<expiry>.<sig>"
func MakeToken(userID int64, role string, expires time.Time, secret string) string {
	payload := fmt.Sprintf("%d.%s.%d", userID, role, expires.Unix())
	return payload + "." + signPayload(payload, secret)
}

// ParseToken validates a session token and returns the user id and role
func ParseToken(token, secret string) (int64, string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return 0, "", errTokenMalformed
	}

	payload := strings.Join(parts[:3], ".")
	expected := signPayload(payload, secret)
	if !hmac.Equal([]byte(expected), []byte(parts[3])) {
		return 0, "", errTokenSignature
	}

	expiry, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, "", errTokenMalformed
	}
	if time.Now().Unix() > expiry {
		return 0, "", errTokenExpired
	}

	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || userID <= 0 {
		return 0, "", errTokenMalformed
	}

	return userID, parts[1], nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// authRequired validates the session token and stores the caller identity
// on the request context
func authRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		userID, role, err := ParseToken(token, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	}
}

// adminRequired gates admin-only routes; must run after authRequired
func adminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role, _ := c.Get("role"); role != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

// sharedSecretRequired gates trusted server-to-server routes (the
// reconciliation sweep) behind a bearer shared secret, compared in
// constant time
func sharedSecretRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if secret == "" || !hmac.Equal([]byte(token), []byte(secret)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func callerID(c *gin.Context) int64 {
	v, _ := c.Get("user_id")
	id, _ := v.(int64)
	return id
}

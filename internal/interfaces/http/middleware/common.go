// Package middleware provides the gin middleware of the notaria API.
package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/notaria/backend/internal/infrastructure/config"
	"github.com/notaria/backend/internal/infrastructure/logger"
)

// RequestIDHeader carries the request id in and out
const RequestIDHeader = "X-Request-ID"

// MaxRequestIDLength bounds client supplied request ids
const MaxRequestIDLength = 128

const corsMaxAge = 12 * time.Hour

// CORS answers cross-origin requests from the configured origins. A "*" entry
// allows any origin without credentials; an empty list allows none. Preflight
// requests end here with 204.
func CORS(cfg config.HTTPConfig) gin.HandlerFunc {
	anyOrigin := slices.Contains(cfg.CORSAllowOrigins, "*")
	shared := http.Header{}
	shared.Set("Access-Control-Allow-Methods", strings.Join(cfg.CORSAllowMethods, ", "))
	shared.Set("Access-Control-Allow-Headers", strings.Join(cfg.CORSAllowHeaders, ", "))
	shared.Set("Access-Control-Expose-Headers", strings.Join([]string{RequestIDHeader, "X-RateLimit-Remaining", "Retry-After"}, ", "))
	shared.Set("Access-Control-Max-Age", strconv.Itoa(int(corsMaxAge.Seconds())))

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		h := c.Writer.Header()
		switch {
		case origin == "":
		case anyOrigin:
			h.Set("Access-Control-Allow-Origin", "*")
		case slices.Contains(cfg.CORSAllowOrigins, origin):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}
		if h.Get("Access-Control-Allow-Origin") != "" {
			for k, v := range shared {
				h[k] = v
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestID assigns every request an id. A client supplied X-Request-ID is
// kept when it is not too long.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > MaxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(logger.RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(logger.RequestIDKey)
}

var secureHeaders = map[string]string{
	"X-Frame-Options":         "DENY",
	"X-Content-Type-Options":  "nosniff",
	"Referrer-Policy":         "strict-origin-when-cross-origin",
	"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	"Cache-Control":           "no-store",
}

// Secure sets the response headers every JSON API answer carries
func Secure() gin.HandlerFunc {
	return func(c *gin.Context) {
		for k, v := range secureHeaders {
			c.Header(k, v)
		}
		c.Next()
	}
}

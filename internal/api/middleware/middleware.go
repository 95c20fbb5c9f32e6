// Package middleware holds the gin middleware shared by every route.
package middleware

import (
	"bhrc/backend/internal/api/response"
	"bhrc/backend/internal/auth"
	"bhrc/backend/internal/logging"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// SessionCookie carries the session token for browser clients.
	SessionCookie = "bhrc_session"
	// RequestIDHeader is echoed back on every response.
	RequestIDHeader = "X-Request-ID"
)

// Authenticator resolves a session token into a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
}

// CORS answers preflight requests and allows any origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, "+RequestIDHeader)
		h.Set("Access-Control-Expose-Headers", RequestIDHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestLogger assigns a request id and logs one line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(RequestIDHeader, reqID)
		ctx := logging.AppendCtx(c.Request.Context(), slog.String("request_id", reqID))
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			slog.ErrorContext(ctx, "http request", attrs...)
		case status >= http.StatusBadRequest:
			slog.WarnContext(ctx, "http request", attrs...)
		default:
			slog.InfoContext(ctx, "http request", attrs...)
		}
	}
}

// Authenticate attaches the caller's principal to the request context. A
// missing or invalid token leaves the caller anonymous; routes that need a
// role reject them in Require.
func Authenticate(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := Token(c.Request)
		if token == "" {
			c.Next()
			return
		}
		p, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			slog.DebugContext(c.Request.Context(), "ignoring invalid session token", "error", err)
			c.Next()
			return
		}
		ctx := logging.AppendCtx(auth.WithPrincipal(c.Request.Context(), p), slog.String("user_id", p.UserID))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Require aborts unless the caller may perform action on resource.
func Require(policy *auth.Policy, action auth.Action, resource auth.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := policy.Check(auth.FromContext(c.Request.Context()), action, resource); err != nil {
			response.Error(c, err)
			return
		}
		c.Next()
	}
}

// Token returns the bearer token of r, falling back to the session cookie.
func Token(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

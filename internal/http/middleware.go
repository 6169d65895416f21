package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"account-api/internal/auth"
	"account-api/internal/response"
)

const identityKey = "auth.identity"

// Identity is the decoded token payload attached to authenticated requests.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// IdentityFrom returns the identity the auth middleware attached, if any.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	ident, ok := v.(Identity)
	return ident, ok
}

func respond(c *gin.Context, e response.Envelope) {
	c.JSON(response.StatusFor(e), e)
}

func abortWith(c *gin.Context, e response.Envelope) {
	c.JSON(response.StatusFor(e), e)
	c.Abort()
}

// Authenticate verifies the bearer token and attaches the decoded identity.
// A header that does not carry the Bearer scheme is treated as the raw token.
// A missing signing secret is reported as unauthorized rather than a 500 so
// configuration state is not leaked to clients.
func Authenticate(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWith(c, response.Unauthorized("authentication token required"))
			return
		}

		token := header
		if strings.HasPrefix(header, "Bearer ") {
			token = header[len("Bearer "):]
		}
		if token == "" {
			abortWith(c, response.Unauthorized("invalid token format"))
			return
		}

		if secret == "" {
			abortWith(c, response.Unauthorized("server configuration error"))
			return
		}

		claims, err := auth.Verify(secret, token)
		if err != nil {
			switch err {
			case auth.ErrTokenExpired:
				abortWith(c, response.Unauthorized("token expired"))
			case auth.ErrTokenInvalid:
				abortWith(c, response.Unauthorized("invalid token"))
			default:
				abortWith(c, response.Unauthorized("authentication error"))
			}
			return
		}

		c.Set(identityKey, Identity{ID: claims.ID, Email: claims.Email})
		c.Next()
	}
}

// RequireRole is a placeholder guard: it only checks that the request
// carries an authenticated identity. Role membership is not modeled.
func RequireRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := IdentityFrom(c); !ok {
			abortWith(c, response.Unauthorized("unauthorized access"))
			return
		}
		c.Next()
	}
}

// ValidateHeaders enforces the JSON content negotiation contract: Accept
// must be application/json on every request, and POST/PUT must also send an
// application/json body.
func ValidateHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method == http.MethodPost || method == http.MethodPut {
			if c.ContentType() != "application/json" {
				abortWith(c, response.NotAcceptable("invalid accept or content-type header"))
				return
			}
		}

		if c.GetHeader("Accept") != "application/json" {
			abortWith(c, response.NotAcceptable("invalid accept header"))
			return
		}
		c.Next()
	}
}

// ForbidAccess answers any request that reached no route. Unmatched paths
// deliberately yield 403, not 404.
func ForbidAccess(c *gin.Context) {
	respond(c, response.Forbidden("access forbidden"))
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()

		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
			"client_ip":  c.ClientIP(),
		}).Info("request completed")
	}
}

func (h *Handler) observeRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		h.metrics.ObserveRequest(c.Request.Method, path, c.Writer.Status())
	}
}

func (h *Handler) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.limiter.Allow(c.ClientIP()) {
			h.metrics.RateLimitHit()
			abortWith(c, response.Err(
				"too many requests, please try again later",
				response.CodeRateLimited,
			))
			return
		}
		c.Next()
	}
}

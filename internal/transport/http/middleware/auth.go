package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-accounts/internal/infra/security"
)

const (
	// AccountIDKey is the context key holding the authenticated account ID.
	AccountIDKey = "account_id"
	// AccountEmailKey is the context key holding the authenticated email address.
	AccountEmailKey = "account_email"
)

// ErrorResponse matches the handlers.ErrorResponse structure.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	requestID, _ := c.Get("request_id")
	requestIDStr, _ := requestID.(string)

	return ErrorResponse{
		Error:     errorMsg,
		RequestID: requestIDStr,
	}
}

// RequireAuth validates the Authorization header and extracts the session claims.
func RequireAuth(issuer *security.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "invalid authorization format: expected 'Bearer <token>'"))
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing session token"))
			return
		}

		claims, err := issuer.Parse(token)
		if err != nil {
			switch {
			case errors.Is(err, security.ErrSessionTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "session token expired"))
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "invalid session token"))
			}
			return
		}

		c.Set(AccountIDKey, claims.Subject)
		c.Set(AccountEmailKey, claims.Email)

		c.Next()
	}
}

// AccountID returns the authenticated account ID stored by RequireAuth.
func AccountID(c *gin.Context) string {
	value, _ := c.Get(AccountIDKey)
	id, _ := value.(string)
	return id
}

// AccountEmail returns the authenticated email address stored by RequireAuth.
func AccountEmail(c *gin.Context) string {
	value, _ := c.Get(AccountEmailKey)
	email, _ := value.(string)
	return email
}

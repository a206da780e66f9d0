// internal/api/middleware/auth.go
package middleware

import (
	"context"
	"strings"

	"po-bridge-api-server/internal/api/respond"
	"po-bridge-api-server/internal/apperr"
	"po-bridge-api-server/internal/identity"
	"po-bridge-api-server/internal/logger"

	"github.com/gin-gonic/gin"
)

const sessionKey = "buyer_session"

// SessionResolver is satisfied by identity.Service.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*identity.Session, error)
}

// Authenticate requires a live bearer token and stores the buyer session on the context.
func Authenticate(resolver SessionResolver, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			respond.Error(c, log, apperr.New(apperr.KindUnauthorized, "Authorization header is required"))
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || strings.TrimSpace(tokenString) == "" {
			respond.Error(c, log, apperr.New(apperr.KindUnauthorized, "invalid token format"))
			return
		}

		sess, err := resolver.Resolve(c.Request.Context(), tokenString)
		if err != nil {
			respond.Error(c, log, err)
			return
		}

		c.Set(sessionKey, sess)
		if log != nil {
			c.Request = c.Request.WithContext(log.WithUserID(c.Request.Context(), sess.UserID))
		}
		c.Next()
	}
}

// CurrentSession returns the session stored by Authenticate.
func CurrentSession(c *gin.Context) *identity.Session {
	value, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := value.(*identity.Session)
	return sess
}

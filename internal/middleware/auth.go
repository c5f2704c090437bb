package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guardnest/core/internal/pkg/response"
)

const contextKeyPrincipal = "auth_principal"

// Principal is the authenticated identity attached to a request.
type Principal struct {
	UserID    string
	Email     string
	Name      string
	ExpiresAt time.Time
}

// PrincipalResolver turns a session cookie value into a Principal. A nil
// Principal with a nil error means the session is absent or expired.
type PrincipalResolver interface {
	Resolve(sessionID string) (*Principal, error)
}

// RequireAuth enforces a valid session cookie.
func RequireAuth(cookieName string, sessions PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := resolvePrincipal(c, cookieName, sessions)
		if p == nil {
			response.Unauthorized(c, "unauthorized")
			return
		}
		c.Set(contextKeyPrincipal, p)
		c.Next()
	}
}

// OptionalAuth attaches the Principal when a valid session cookie is present
// but never blocks the request.
func OptionalAuth(cookieName string, sessions PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p := resolvePrincipal(c, cookieName, sessions); p != nil {
			c.Set(contextKeyPrincipal, p)
		}
		c.Next()
	}
}

func resolvePrincipal(c *gin.Context, cookieName string, sessions PrincipalResolver) *Principal {
	sessionID, err := c.Cookie(cookieName)
	if err != nil || sessionID == "" {
		return nil
	}
	p, err := sessions.Resolve(sessionID)
	if err != nil {
		return nil
	}
	return p
}

// CurrentPrincipal extracts the authenticated identity from context, or nil.
func CurrentPrincipal(c *gin.Context) *Principal {
	v, _ := c.Get(contextKeyPrincipal)
	p, _ := v.(*Principal)
	return p
}

// IsAuthenticated reports whether the request carries a valid session.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentPrincipal(c) != nil
}

package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/seedplatform/control-interface/internal/service"
	"github.com/seedplatform/control-interface/internal/session"
	"github.com/seedplatform/control-interface/pkg/response"
)

// SessionCookie is the cookie the browser UI uses; API clients send the
// token in the Authorization header instead.
const SessionCookie = "session"

const sessionContextKey = "console-session"

// SessionMiddleware resolves the caller's session and aborts with 401
// when there is none.
func SessionMiddleware(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := auth.Authenticate(c.Request.Context(), extractToken(c))
		if err != nil {
			response.WriteError(c, err)
			return
		}
		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// RequirePermission aborts with 403 unless the session grants the
// permission. Must run after SessionMiddleware.
func RequirePermission(permType string, objectID *int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		if !service.HasPermission(sess.Permissions, permType, objectID) {
			response.WriteError(c, service.ErrForbidden)
			return
		}
		c.Next()
	}
}

// CurrentSession returns the session SessionMiddleware stored on the
// context; the zero session outside the guarded group.
func CurrentSession(c *gin.Context) session.Session {
	if v, ok := c.Get(sessionContextKey); ok {
		if sess, ok := v.(session.Session); ok {
			return sess
		}
	}
	return session.Session{}
}

// extractToken finds the session token: "Authorization: Token <t>" or
// "Bearer <t>", falling back to the session cookie.
func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	for _, scheme := range []string{"Token ", "Bearer "} {
		if strings.HasPrefix(header, scheme) {
			return strings.TrimSpace(strings.TrimPrefix(header, scheme))
		}
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

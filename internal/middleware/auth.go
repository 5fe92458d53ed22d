package middleware

import (
	"context"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"mynature/internal/models"
)

const (
	SessionCookie = "admin_session"
	sessionKey    = "adminSession"
)

// SessionValidator resolves a cookie token to a live admin session.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*models.AdminSession, error)
}

func resolveSession(c *gin.Context, sessions SessionValidator) (*models.AdminSession, bool) {
	token, err := c.Cookie(SessionCookie)
	if err != nil || token == "" {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	session, err := sessions.Validate(ctx, token)
	if err != nil {
		return nil, false
	}
	return session, true
}

// AdminAuth guards admin API routes and answers 401 JSON when no valid
// session cookie is present.
func AdminAuth(sessions SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := resolveSession(c, sessions)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

// AdminPages redirects anonymous visitors of /admin pages to the login page.
// Other paths pass through untouched.
func AdminPages(sessions SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if !protectedPage(p) {
			c.Next()
			return
		}

		session, ok := resolveSession(c, sessions)
		if !ok {
			c.Redirect(http.StatusFound, "/login?redirect="+url.QueryEscape(p))
			c.Abort()
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

func protectedPage(p string) bool {
	switch {
	case strings.HasPrefix(p, "/api/"):
		return false
	case p == "/login" || p == "/admin/login" || p == "/admin/login/":
		return false
	case path.Ext(p) != "":
		return false
	}
	return p == "/admin" || strings.HasPrefix(p, "/admin/")
}

// CurrentSession returns the session stored by AdminAuth or AdminPages.
func CurrentSession(c *gin.Context) (*models.AdminSession, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*models.AdminSession)
	return session, ok
}

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mynature/internal/middleware"
	"mynature/internal/service"
)

const (
	msgMalformedLogin     = "بيانات تسجيل الدخول غير صالحة"
	msgInvalidCredentials = "البريد الإلكتروني أو كلمة المرور غير صحيحة"
	msgLoginFailed        = "تعذر تسجيل الدخول، يرجى المحاولة لاحقاً"
	msgLoggedOut          = "تم تسجيل الخروج بنجاح"
	msgNotAuthenticated   = "غير مصرح، يرجى تسجيل الدخول"
)

type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func setSessionCookie(c *gin.Context, token string, expires time.Time, secure bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookie(c *gin.Context, secure bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func AdminLogin(auth *service.AuthService, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/admin/login"
		defer handlePanic(c, route)

		var req AdminLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, msgMalformedLogin)
			return
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		res, err := auth.Login(ctx, req.Email, req.Password)
		if err != nil {
			var verr *service.ValidationError
			switch {
			case errors.As(err, &verr):
				respondWithError(c, http.StatusBadRequest, route, msgMalformedLogin)
			case errors.Is(err, service.ErrInvalidCredentials):
				c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": msgInvalidCredentials})
			default:
				respondWithError(c, http.StatusInternalServerError, route, msgLoginFailed)
			}
			return
		}

		setSessionCookie(c, res.Token, res.Session.ExpiresAt, secureCookie)
		c.JSON(http.StatusOK, gin.H{"success": true, "admin": res.Admin})
	}
}

func AdminLogout(auth *service.AuthService, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/admin/logout"
		defer handlePanic(c, route)

		if token, err := c.Cookie(middleware.SessionCookie); err == nil {
			ctx, cancel := storeContext(c)
			defer cancel()
			auth.Logout(ctx, token)
		}

		clearSessionCookie(c, secureCookie)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": msgLoggedOut})
	}
}

// AdminSession reports the current session without renewing it.
func AdminSession(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/auth/session"
		defer handlePanic(c, route)

		token, err := c.Cookie(middleware.SessionCookie)
		if err != nil || token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false, "error": msgNotAuthenticated})
			return
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		session, err := auth.Validate(ctx, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false, "error": msgNotAuthenticated})
			return
		}

		remaining := session.ExpiresAt.Sub(auth.Now())
		c.JSON(http.StatusOK, gin.H{
			"authenticated": true,
			"admin":         session.Identity(),
			"session": gin.H{
				"expiresAt":     session.ExpiresAt.UnixMilli(),
				"timeRemaining": remaining.Milliseconds(),
			},
		})
	}
}

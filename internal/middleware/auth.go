package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"Yatube/internal/logging"
	"Yatube/internal/model"
)

const (
	ContextUserKey = "user"
	LoginURL       = "/auth/login/"
)

// Authenticator resolves an access token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// Authenticate attaches the viewer to the context when the request carries a
// valid token, either in cookieName or as a Bearer header. Requests without
// one continue anonymously.
func Authenticate(auth Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		fromCookie := false
		if token == "" {
			if v, err := c.Cookie(cookieName); err == nil && v != "" {
				token, fromCookie = v, true
			}
		}
		if token == "" {
			c.Next()
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			logging.Ctx(c.Request.Context()).Debug().Err(err).Msg("rejected access token")
			if fromCookie {
				c.SetCookie(cookieName, "", -1, "/", "", false, true)
			}
			c.Next()
			return
		}
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the logged-in user or nil.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*model.User)
	return u
}

// RequireLogin sends anonymous visitors to the login page, remembering where
// they were going.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginRedirectURL(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin guards the JSON admin endpoints.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "authentication required"})
			return
		}
		if !u.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"msg": "admin role required"})
			return
		}
		c.Next()
	}
}

func LoginRedirectURL(next string) string {
	return LoginURL + "?next=" + url.QueryEscape(next)
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

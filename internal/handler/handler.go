package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"Yatube/internal/logging"
	"Yatube/internal/middleware"
	"Yatube/internal/service"
)

// render adds the viewer and empty form errors to data and renders page.
func render(c *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if u := middleware.CurrentUser(c); u != nil {
		data["User"] = u
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = map[string]string{}
	}
	c.HTML(status, page, data)
}

// fail maps service errors onto the error pages. Validation errors are
// handled by each form handler before it gets here.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		NotFound(c)
	case errors.Is(err, service.ErrAuthRequired):
		c.Redirect(http.StatusFound, middleware.LoginRedirectURL(c.Request.URL.RequestURI()))
	case errors.Is(err, service.ErrForbidden):
		render(c, http.StatusForbidden, "core/403.html", nil)
	default:
		_ = c.Error(err)
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		render(c, http.StatusInternalServerError, "core/500.html", nil)
	}
}

// NotFound renders the 404 page. Also used as the engine's NoRoute handler.
func NotFound(c *gin.Context) {
	render(c, http.StatusNotFound, "core/404.html", gin.H{"Path": c.Request.URL.Path})
}

// Static serves a page that needs no data.
func Static(page string) gin.HandlerFunc {
	return func(c *gin.Context) {
		render(c, http.StatusOK, page, nil)
	}
}

// Recovery renders the 500 page for panics.
func Recovery(c *gin.Context, recovered any) {
	logging.Ctx(c.Request.Context()).Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("panic recovered")
	render(c, http.StatusInternalServerError, "core/500.html", nil)
	c.Abort()
}

func idParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// safeNext accepts only local absolute paths so login cannot be used as an
// open redirect.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	if u, err := url.Parse(next); err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return next
}

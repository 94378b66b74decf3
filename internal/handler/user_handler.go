package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"Yatube/internal/middleware"
	"Yatube/internal/service"
)

type UserHandler struct {
	svc        *service.UserService
	cookieName string
	cookieTTL  int
	secure     bool
}

// NewUserHandler serves account pages. The session token is kept in an
// HttpOnly cookie named cookieName for ttlSeconds.
func NewUserHandler(svc *service.UserService, cookieName string, ttlSeconds int, secure bool) *UserHandler {
	return &UserHandler{svc: svc, cookieName: cookieName, cookieTTL: ttlSeconds, secure: secure}
}

type signupForm struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
}

func (h *UserHandler) SignupForm(c *gin.Context) {
	render(c, http.StatusOK, "users/signup.html", gin.H{"Form": signupForm{}})
}

func (h *UserHandler) Signup(c *gin.Context) {
	var form signupForm
	_ = c.ShouldBind(&form)

	_, token, err := h.svc.Signup(c.Request.Context(), form.Username, form.Email, form.Password)
	switch {
	case err == nil:
		h.setSession(c, token)
		c.Redirect(http.StatusFound, "/")
	case errors.Is(err, service.ErrUsernameTaken):
		render(c, http.StatusOK, "users/signup.html", gin.H{
			"Form":   form,
			"Errors": map[string]string{"username": "A user with that username already exists."},
		})
	case service.FieldErrors(err) != nil:
		render(c, http.StatusOK, "users/signup.html", gin.H{"Form": form, "Errors": service.FieldErrors(err)})
	default:
		fail(c, err)
	}
}

func (h *UserHandler) LoginForm(c *gin.Context) {
	render(c, http.StatusOK, "users/login.html", gin.H{"Next": c.Query("next")})
}

func (h *UserHandler) Login(c *gin.Context) {
	login := c.PostForm("username")
	next := c.PostForm("next")

	_, token, err := h.svc.Login(c.Request.Context(), login, c.PostForm("password"))
	if errors.Is(err, service.ErrInvalidCredentials) {
		render(c, http.StatusOK, "users/login.html", gin.H{
			"Next":  next,
			"Login": login,
			"Error": "Please enter a correct username and password.",
		})
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	h.setSession(c, token)
	c.Redirect(http.StatusFound, safeNext(next))
}

func (h *UserHandler) Logout(c *gin.Context) {
	if u := middleware.CurrentUser(c); u != nil {
		if err := h.svc.Logout(c.Request.Context(), u.ID); err != nil {
			fail(c, err)
			return
		}
	}
	c.SetCookie(h.cookieName, "", -1, "/", "", h.secure, true)
	c.Set(middleware.ContextUserKey, nil)
	render(c, http.StatusOK, "users/logged_out.html", nil)
}

func (h *UserHandler) PasswordChangeForm(c *gin.Context) {
	render(c, http.StatusOK, "users/password_change.html", nil)
}

func (h *UserHandler) PasswordChange(c *gin.Context) {
	u := middleware.CurrentUser(c)
	token, err := h.svc.ChangePassword(c.Request.Context(), u.ID, c.PostForm("old_password"), c.PostForm("new_password"))
	if fields := service.FieldErrors(err); fields != nil {
		render(c, http.StatusOK, "users/password_change.html", gin.H{"Errors": fields})
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	h.setSession(c, token)
	render(c, http.StatusOK, "users/password_change_done.html", nil)
}

func (h *UserHandler) PasswordResetForm(c *gin.Context) {
	render(c, http.StatusOK, "users/password_reset.html", nil)
}

// PasswordReset always reports success so it cannot reveal which addresses
// have accounts.
func (h *UserHandler) PasswordReset(c *gin.Context) {
	if err := h.svc.SendResetCode(c.Request.Context(), c.PostForm("email")); err != nil {
		fail(c, err)
		return
	}
	render(c, http.StatusOK, "users/password_reset_done.html", nil)
}

func (h *UserHandler) PasswordResetConfirmForm(c *gin.Context) {
	render(c, http.StatusOK, "users/password_reset_confirm.html", gin.H{"Email": c.Query("email")})
}

func (h *UserHandler) PasswordResetConfirm(c *gin.Context) {
	email := c.PostForm("email")
	err := h.svc.ResetPassword(c.Request.Context(), email, c.PostForm("code"), c.PostForm("new_password"))
	switch {
	case err == nil:
		render(c, http.StatusOK, "users/password_reset_complete.html", nil)
	case errors.Is(err, service.ErrCodeMismatch):
		render(c, http.StatusOK, "users/password_reset_confirm.html", gin.H{
			"Email": email,
			"Error": "The code is invalid or has expired.",
		})
	case service.FieldErrors(err) != nil:
		render(c, http.StatusOK, "users/password_reset_confirm.html", gin.H{
			"Email":  email,
			"Errors": service.FieldErrors(err),
		})
	default:
		fail(c, err)
	}
}

func (h *UserHandler) setSession(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, token, h.cookieTTL, "/", "", h.secure, true)
}

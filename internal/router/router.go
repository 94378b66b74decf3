package router

import (
	"errors"
	"html/template"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"Yatube/internal/cache"
	"Yatube/internal/handler"
	"Yatube/internal/middleware"
	"Yatube/internal/pkg"
	"Yatube/internal/service"
	"Yatube/internal/web"
)

// Options carries everything the HTTP layer depends on. TokenStore, CodeStore,
// Mailer, Media and PageCache are optional.
type Options struct {
	DB     *gorm.DB
	Tokens *pkg.TokenManager

	TokenStore service.TokenStore
	CodeStore  service.CodeStore
	Mailer     service.Mailer
	Media      *pkg.MediaStore
	PageCache  cache.PageCache

	PageSize      int
	IndexCacheTTL time.Duration
	CookieName    string
	SecureCookie  bool
	Mode          string
}

func New(opts Options) (*gin.Engine, error) {
	if opts.DB == nil || opts.Tokens == nil {
		return nil, errors.New("router: DB and Tokens are required")
	}
	if opts.CodeStore == nil {
		opts.CodeStore = service.NewMemoryCodeStore(service.ResetCodeTTL)
	}
	if opts.Mailer == nil {
		opts.Mailer = service.LogMailer{}
	}
	if opts.PageCache == nil {
		opts.PageCache = cache.NewMemory()
	}
	if opts.CookieName == "" {
		opts.CookieName = "yatube_token"
	}
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}

	funcs := template.FuncMap{}
	if opts.Media != nil {
		funcs["mediaURL"] = opts.Media.URL
	}
	renderer, err := web.New(funcs)
	if err != nil {
		return nil, err
	}

	feeds := service.NewFeedService(opts.DB, opts.PageSize)
	posts := service.NewPostService(opts.DB, opts.Media)
	groups := service.NewGroupService(opts.DB)
	follows := service.NewFollowService(opts.DB)
	emails := service.NewEmailService(opts.DB, opts.CodeStore, opts.Mailer)
	users := service.NewUserService(opts.DB, opts.Tokens, opts.TokenStore, emails)

	post := handler.NewPostHandler(feeds, posts, groups, renderer, opts.PageCache, opts.IndexCacheTTL)
	follow := handler.NewFollowHandler(feeds, follows)
	user := handler.NewUserHandler(users, opts.CookieName, int(opts.Tokens.TTL().Seconds()), opts.SecureCookie)
	admin := handler.NewAdminHandler(groups, opts.PageCache)

	r := gin.New()
	r.HTMLRender = renderer
	r.Use(
		middleware.RequestID(),
		middleware.AccessLog(),
		gin.CustomRecovery(handler.Recovery),
		middleware.Authenticate(users, opts.CookieName),
	)
	r.NoRoute(handler.NotFound)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.Media != nil {
		r.Static(opts.Media.URLBase(), opts.Media.Root())
	}

	// public pages
	r.GET("/", post.Index)
	r.GET("/group/:slug/", post.GroupPosts)
	r.GET("/profile/:username/", post.Profile)
	r.GET("/posts/:id/", post.Detail)
	r.GET("/about/author/", handler.Static("about/author.html"))
	r.GET("/about/tech/", handler.Static("about/tech.html"))

	// login required
	auth := r.Group("/")
	auth.Use(middleware.RequireLogin())
	{
		auth.GET("/create/", post.CreateForm)
		auth.POST("/create/", post.Create)
		auth.GET("/posts/:id/edit/", post.EditForm)
		auth.POST("/posts/:id/edit/", post.Edit)
		auth.POST("/posts/:id/comment/", post.AddComment)
		auth.GET("/follow/", follow.Index)
		auth.GET("/profile/:username/follow/", follow.Follow)
		auth.GET("/profile/:username/unfollow/", follow.Unfollow)
		auth.GET("/auth/password_change/", user.PasswordChangeForm)
		auth.POST("/auth/password_change/", user.PasswordChange)
	}

	// accounts
	account := r.Group("/auth")
	{
		account.GET("/signup/", user.SignupForm)
		account.POST("/signup/", user.Signup)
		account.GET("/login/", user.LoginForm)
		account.POST("/login/", user.Login)
		account.GET("/logout/", user.Logout)
		account.GET("/password_reset/", user.PasswordResetForm)
		account.POST("/password_reset/", user.PasswordReset)
		account.GET("/password_reset/confirm/", user.PasswordResetConfirmForm)
		account.POST("/password_reset/confirm/", user.PasswordResetConfirm)
	}

	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.RequireAdmin())
	{
		adminGroup.POST("/groups", admin.CreateGroup)
		adminGroup.POST("/cache/clear", admin.ClearCache)
	}

	return r, nil
}

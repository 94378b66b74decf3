package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"Yatube/internal/cache"
	"Yatube/internal/middleware"
	"Yatube/internal/pkg"
	"Yatube/internal/service"
	"Yatube/internal/web"
)

const IndexFragment = "index_page"

type PostHandler struct {
	feeds    *service.FeedService
	posts    *service.PostService
	groups   *service.GroupService
	renderer *web.Renderer
	cache    cache.PageCache
	cacheTTL time.Duration
}

func NewPostHandler(feeds *service.FeedService, posts *service.PostService, groups *service.GroupService,
	renderer *web.Renderer, pageCache cache.PageCache, cacheTTL time.Duration) *PostHandler {
	return &PostHandler{
		feeds:    feeds,
		posts:    posts,
		groups:   groups,
		renderer: renderer,
		cache:    pageCache,
		cacheTTL: cacheTTL,
	}
}

// postForm is the create/edit form as submitted.
type postForm struct {
	Text  string `form:"text"`
	Group string `form:"group"`
}

// IndexCacheKey is the fragment key for one page of the index.
func IndexCacheKey(number int) string {
	return fmt.Sprintf("%s:%d", IndexFragment, number)
}

// indexTotalKey holds the post count index pages are clamped against, so a
// fresh fragment is served without touching the database.
const indexTotalKey = IndexFragment + ":total"

// Index renders the global feed. The post list is served from the page cache
// while it is fresh, even if posts changed since.
func (h *PostHandler) Index(c *gin.Context) {
	ctx := c.Request.Context()
	if h.cache == nil || h.cacheTTL <= 0 {
		feed, err := h.feeds.Global(ctx, c.Query("page"))
		if err != nil {
			fail(c, err)
			return
		}
		h.renderIndex(c, feed)
		return
	}

	page, err := h.indexPage(ctx, c.Query("page"))
	if err != nil {
		fail(c, err)
		return
	}
	list, err := cache.Fragment(ctx, h.cache, IndexFragment, IndexCacheKey(page.Number), h.cacheTTL, func() (string, error) {
		feed, err := h.feeds.Global(ctx, strconv.Itoa(page.Number))
		if err != nil {
			return "", err
		}
		return h.renderer.Fragment("post_list", feed)
	})
	if err != nil {
		fail(c, err)
		return
	}
	render(c, http.StatusOK, "posts/index.html", gin.H{"PostList": list})
}

// indexPage clamps the requested page number, using the cached post count
// while it is fresh.
func (h *PostHandler) indexPage(ctx context.Context, requested string) (pkg.Page, error) {
	if v, ok, err := h.cache.Get(ctx, indexTotalKey); err == nil && ok {
		if total, err := strconv.ParseInt(v, 10, 64); err == nil {
			return pkg.NewPage(total, h.feeds.PageSize(), requested), nil
		}
	}
	page, err := h.feeds.GlobalPage(ctx, requested)
	if err != nil {
		return pkg.Page{}, err
	}
	_ = h.cache.Set(ctx, indexTotalKey, strconv.FormatInt(page.Total, 10), h.cacheTTL)
	return page, nil
}

func (h *PostHandler) renderIndex(c *gin.Context, feed *service.Feed) {
	list, err := h.renderer.Fragment("post_list", feed)
	if err != nil {
		fail(c, err)
		return
	}
	render(c, http.StatusOK, "posts/index.html", gin.H{"PostList": list})
}

func (h *PostHandler) GroupPosts(c *gin.Context) {
	feed, err := h.feeds.Group(c.Request.Context(), c.Param("slug"), c.Query("page"))
	if err != nil {
		fail(c, err)
		return
	}
	render(c, http.StatusOK, "posts/group_list.html", gin.H{
		"Group": feed.Group,
		"Posts": feed.Posts,
		"Page":  feed.Page,
	})
}

func (h *PostHandler) Profile(c *gin.Context) {
	feed, err := h.feeds.Author(c.Request.Context(), c.Param("username"), middleware.CurrentUser(c), c.Query("page"))
	if err != nil {
		fail(c, err)
		return
	}
	render(c, http.StatusOK, "posts/profile.html", gin.H{
		"Author":         feed.Author,
		"Posts":          feed.Posts,
		"Page":           feed.Page,
		"ShowFollow":     feed.ShowFollow,
		"Following":      feed.Following,
		"FollowingCount": feed.FollowingCount,
		"FollowerCount":  feed.FollowerCount,
	})
}

func (h *PostHandler) Detail(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		NotFound(c)
		return
	}
	h.renderDetail(c, http.StatusOK, id, "", nil)
}

func (h *PostHandler) renderDetail(c *gin.Context, status int, id uint64, text string, errs map[string]string) {
	detail, err := h.posts.Detail(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	data := gin.H{
		"Post":            detail.Post,
		"AuthorPostCount": detail.AuthorPostCount,
		"Comments":        detail.Comments,
		"CanEdit":         service.Authorize(middleware.CurrentUser(c), detail.Post).Allowed,
		"CommentText":     text,
	}
	if errs != nil {
		data["Errors"] = errs
	}
	render(c, status, "posts/post_detail.html", data)
}

func (h *PostHandler) CreateForm(c *gin.Context) {
	h.renderForm(c, http.StatusOK, "/create/", false, postForm{}, nil)
}

func (h *PostHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var form postForm
	_ = c.ShouldBind(&form)

	in, closeImage, errs := h.input(c, form)
	defer closeImage()
	if errs != nil {
		h.renderForm(c, http.StatusOK, "/create/", false, form, errs)
		return
	}
	if _, err := h.posts.Create(c.Request.Context(), user, in); err != nil {
		if fields := service.FieldErrors(err); fields != nil {
			h.renderForm(c, http.StatusOK, "/create/", false, form, fields)
			return
		}
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/profile/"+user.Username+"/")
}

// EditForm shows the form to the author and sends anyone else to the post.
func (h *PostHandler) EditForm(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		NotFound(c)
		return
	}
	post, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if !service.Authorize(middleware.CurrentUser(c), post).Allowed {
		c.Redirect(http.StatusFound, detailURL(id))
		return
	}
	form := postForm{Text: post.Text}
	if post.GroupID != nil {
		form.Group = strconv.FormatUint(*post.GroupID, 10)
	}
	h.renderForm(c, http.StatusOK, editURL(id), true, form, nil)
}

// Edit applies the submitted form. Non-authors are redirected before the
// form is even read.
func (h *PostHandler) Edit(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		NotFound(c)
		return
	}
	post, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if !service.Authorize(middleware.CurrentUser(c), post).Allowed {
		c.Redirect(http.StatusFound, detailURL(id))
		return
	}

	var form postForm
	_ = c.ShouldBind(&form)

	in, closeImage, errs := h.input(c, form)
	defer closeImage()
	if errs != nil {
		h.renderForm(c, http.StatusOK, editURL(id), true, form, errs)
		return
	}
	_, err = h.posts.Edit(c.Request.Context(), middleware.CurrentUser(c), id, in)
	switch {
	case err == nil, errors.Is(err, service.ErrForbidden):
		c.Redirect(http.StatusFound, detailURL(id))
	case service.FieldErrors(err) != nil:
		h.renderForm(c, http.StatusOK, editURL(id), true, form, service.FieldErrors(err))
	default:
		fail(c, err)
	}
}

func (h *PostHandler) AddComment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		NotFound(c)
		return
	}
	text := c.PostForm("text")
	_, err := h.posts.AddComment(c.Request.Context(), middleware.CurrentUser(c), id, text)
	if fields := service.FieldErrors(err); fields != nil {
		h.renderDetail(c, http.StatusOK, id, text, fields)
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, detailURL(id))
}

// input converts the submitted form. Unparseable group ids become field
// errors; the image, if any, is opened for the service to consume.
func (h *PostHandler) input(c *gin.Context, form postForm) (service.PostInput, func(), map[string]string) {
	in := service.PostInput{Text: form.Text}
	closeImage := func() {}
	if form.Group != "" {
		gid, err := strconv.ParseUint(form.Group, 10, 64)
		if err != nil {
			return in, closeImage, map[string]string{"group": "Select a valid choice."}
		}
		in.GroupID = &gid
	}
	if fh, err := c.FormFile("image"); err == nil && fh.Size > 0 {
		f, err := fh.Open()
		if err != nil {
			return in, closeImage, map[string]string{"image": "Upload a valid image."}
		}
		in.Image = io.Reader(f)
		closeImage = func() { _ = f.Close() }
	}
	return in, closeImage, nil
}

func (h *PostHandler) renderForm(c *gin.Context, status int, action string, isEdit bool, form postForm, errs map[string]string) {
	groups, err := h.groups.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if errs == nil {
		errs = map[string]string{}
	}
	render(c, status, "posts/create_post.html", gin.H{
		"Action": action,
		"IsEdit": isEdit,
		"Form":   form,
		"Groups": groups,
		"Errors": errs,
	})
}

func detailURL(id uint64) string { return fmt.Sprintf("/posts/%d/", id) }
func editURL(id uint64) string   { return fmt.Sprintf("/posts/%d/edit/", id) }

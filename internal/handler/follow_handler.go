package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"Yatube/internal/middleware"
	"Yatube/internal/service"
)

type FollowHandler struct {
	feeds   *service.FeedService
	follows *service.FollowService
}

func NewFollowHandler(feeds *service.FeedService, follows *service.FollowService) *FollowHandler {
	return &FollowHandler{feeds: feeds, follows: follows}
}

// Index is the feed of posts by followed authors.
func (h *FollowHandler) Index(c *gin.Context) {
	feed, err := h.feeds.Followed(c.Request.Context(), middleware.CurrentUser(c), c.Query("page"))
	if err != nil {
		fail(c, err)
		return
	}
	render(c, http.StatusOK, "posts/follow.html", gin.H{
		"Posts": feed.Posts,
		"Page":  feed.Page,
	})
}

func (h *FollowHandler) Follow(c *gin.Context) {
	username := c.Param("username")
	_, err := h.follows.Follow(c.Request.Context(), middleware.CurrentUser(c), username)
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, "/follow/")
	case errors.Is(err, service.ErrSelfFollow):
		c.Redirect(http.StatusFound, "/profile/"+username+"/")
	default:
		fail(c, err)
	}
}

func (h *FollowHandler) Unfollow(c *gin.Context) {
	username := c.Param("username")
	if _, err := h.follows.Unfollow(c.Request.Context(), middleware.CurrentUser(c), username); err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/profile/"+username+"/")
}

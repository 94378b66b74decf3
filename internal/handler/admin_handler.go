package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"Yatube/internal/cache"
	"Yatube/internal/logging"
	"Yatube/internal/middleware"
	"Yatube/internal/service"
)

// AdminHandler exposes the JSON endpoints used by administrators.
type AdminHandler struct {
	groups *service.GroupService
	cache  cache.PageCache
}

func NewAdminHandler(groups *service.GroupService, pageCache cache.PageCache) *AdminHandler {
	return &AdminHandler{groups: groups, cache: pageCache}
}

type createGroupReq struct {
	Title       string `json:"title" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description"`
}

func (h *AdminHandler) CreateGroup(c *gin.Context) {
	var req createGroupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	g, err := h.groups.Create(c.Request.Context(), req.Title, req.Slug, req.Description)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"id": g.ID, "slug": g.Slug})
	case errors.Is(err, service.ErrSlugTaken):
		c.JSON(http.StatusConflict, gin.H{"msg": err.Error()})
	case service.FieldErrors(err) != nil:
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params", "errors": service.FieldErrors(err)})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "internal error"})
	}
}

// ClearCache drops every cached page fragment.
func (h *AdminHandler) ClearCache(c *gin.Context) {
	if err := h.cache.Clear(c.Request.Context()); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "cache clear failed"})
		return
	}
	logging.Ctx(c.Request.Context()).Info().
		Uint64("admin_id", middleware.CurrentUser(c).ID).
		Msg("page cache cleared")
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

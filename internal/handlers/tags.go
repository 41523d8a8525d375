package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qa-forum/backend/internal/service"
)

type TagHandler struct {
	tags *service.TagService
}

func NewTagHandler(tags *service.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

func (h *TagHandler) ListTags(c *gin.Context) {
	page, valid := parsePage(c, tagSorts)
	if !valid {
		return
	}
	data, err := h.tags.List(c.Request.Context(), c.Query("keyword"), page)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, data)
}

func (h *TagHandler) GetTag(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	t, err := h.tags.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, t)
}

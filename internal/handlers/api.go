package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xiaole5211314/portfolio/internal/content"
)

// ContentHandler exposes the portfolio content as JSON for other front ends.
type ContentHandler struct {
	content *content.Content
}

func NewContentHandler(c *content.Content) *ContentHandler {
	return &ContentHandler{content: c}
}

// GetContent handles GET /api/content
func (h *ContentHandler) GetContent(c *gin.Context) {
	c.JSON(http.StatusOK, h.content.Snapshot())
}

func (h *ContentHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/content", h.GetContent)
}

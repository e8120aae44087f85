package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blogdeck/admin/internal/document"
	"github.com/blogdeck/admin/internal/document/service"
	"github.com/blogdeck/admin/pkg/logger"
)

// RegisterDocumentRoutes mounts the post and page API on rg, which is
// expected to be the <root>admin/api group.
func RegisterDocumentRoutes(rg gin.IRoutes, svc service.Service) {
	h := &documentHandler{svc: svc}

	rg.GET("/tags-categories-and-metadata", h.taxonomy)

	rg.GET("/posts/list", h.list(document.KindPost))
	rg.POST("/posts/new", h.create(document.KindPost))
	rg.GET("/posts/:id", h.get(document.KindPost))
	rg.POST("/posts/:id", h.update(document.KindPost))
	rg.PUT("/posts/:id", h.update(document.KindPost))
	rg.POST("/posts/:id/publish", h.publish)
	rg.POST("/posts/:id/unpublish", h.unpublish)
	rg.POST("/posts/:id/remove", h.discard(document.KindPost))
	rg.POST("/posts/:id/rename", h.rename)

	rg.GET("/pages/list", h.list(document.KindPage))
	rg.POST("/pages/new", h.create(document.KindPage))
	rg.GET("/pages/:id", h.get(document.KindPage))
	rg.POST("/pages/:id", h.update(document.KindPage))
	rg.PUT("/pages/:id", h.update(document.KindPage))
	rg.POST("/pages/:id/remove", h.discard(document.KindPage))
	rg.POST("/pages/:id/rename", h.rename)
}

type documentHandler struct {
	svc service.Service
}

// writeError maps service errors onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidTransition):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	default:
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func responseKey(kind document.Kind) string {
	if kind == document.KindPage {
		return "page"
	}
	return "post"
}

func (h *documentHandler) taxonomy(c *gin.Context) {
	tx, err := h.svc.Taxonomy(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (h *documentHandler) list(kind document.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		docs, err := h.svc.List(c.Request.Context(), kind)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, docs)
	}
}

func (h *documentHandler) get(kind document.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := h.svc.Get(c.Request.Context(), kind, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

func (h *documentHandler) create(kind document.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Title string `json:"title"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		d, err := h.svc.Create(c.Request.Context(), kind, req.Title)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

func (h *documentHandler) update(kind document.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx := c.Request.Context()
		d, err := h.svc.Update(ctx, kind, c.Param("id"), document.ParseChanges(body))
		if err != nil {
			writeError(c, err)
			return
		}
		tx, err := h.svc.Taxonomy(ctx)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{responseKey(kind): d, "tagsCategoriesAndMetadata": tx})
	}
}

func (h *documentHandler) publish(c *gin.Context) {
	h.respond(c)(h.svc.Publish(c.Request.Context(), c.Param("id")))
}

func (h *documentHandler) unpublish(c *gin.Context) {
	h.respond(c)(h.svc.Unpublish(c.Request.Context(), c.Param("id")))
}

func (h *documentHandler) discard(kind document.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.respond(c)(h.svc.Discard(c.Request.Context(), kind, c.Param("id")))
	}
}

func (h *documentHandler) rename(c *gin.Context) {
	var req struct {
		Filename string `json:"filename"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c)(h.svc.Rename(c.Request.Context(), c.Param("id"), req.Filename))
}

func (h *documentHandler) respond(c *gin.Context) func(*document.Document, error) {
	return func(d *document.Document, err error) {
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

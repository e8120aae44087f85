package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blogdeck/admin/internal/deploy"
	"github.com/blogdeck/admin/internal/images"
	"github.com/blogdeck/admin/internal/settings"
	"github.com/blogdeck/admin/pkg/logger"
)

// Deployer runs the site's deploy command.
type Deployer interface {
	Run(ctx context.Context, message string) (*deploy.Output, error)
}

// SiteHandler serves the settings, image upload and deploy routes.
type SiteHandler struct {
	settings *settings.Store
	uploader *images.Uploader
	deployer Deployer
}

func NewSiteHandler(st *settings.Store, up *images.Uploader, d Deployer) *SiteHandler {
	return &SiteHandler{settings: st, uploader: up, deployer: d}
}

// Register adds the routes to rg (normally the authenticated admin API group).
func (h *SiteHandler) Register(rg gin.IRoutes) {
	rg.GET("/settings/list", h.ListSettings)
	rg.POST("/settings/set", h.SetSetting)
	rg.POST("/images/upload", h.UploadImage)
	rg.POST("/deploy", h.Deploy)
}

func (h *SiteHandler) ListSettings(c *gin.Context) {
	all, err := h.settings.Load()
	if err != nil {
		logger.Errorf("load settings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, all)
}

func (h *SiteHandler) SetSetting(c *gin.Context) {
	var req struct {
		Name         string                 `json:"name"`
		Value        interface{}            `json:"value"`
		AddedOptions map[string]interface{} `json:"addedOptions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no name given"})
		return
	}
	if req.Value == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no value given"})
		return
	}
	all, err := h.settings.Set(req.Name, req.Value, req.AddedOptions)
	if err != nil {
		logger.Errorf("set setting %s: %v", req.Name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": "Successfully updated " + req.Name + " = " + toString(req.Value), "settings": all})
}

func (h *SiteHandler) UploadImage(c *gin.Context) {
	var req struct {
		Data     string `json:"data"`
		Filename string `json:"filename"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.uploader.Upload(c.Request.Context(), req.Data, req.Filename)
	switch {
	case errors.Is(err, images.ErrNoData), errors.Is(err, images.ErrUnsupported):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		logger.Errorf("image upload: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// Deploy reports command failures in the body with status 200, which is what
// the editor expects.
func (h *SiteHandler) Deploy(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.deployer == nil {
		c.JSON(http.StatusOK, gin.H{"error": deploy.ErrNotConfigured.Error()})
		return
	}
	out, err := h.deployer.Run(c.Request.Context(), req.Message)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

func toString(v interface{}) string {
	switch vv := v.(type) {
	case string:
		return vv
	case bool:
		if vv {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(vv)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

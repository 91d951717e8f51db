package media

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/carolinavmo/PMR-atlas/internal/apperr"
	"github.com/carolinavmo/PMR-atlas/pkg/logger"
	"github.com/carolinavmo/PMR-atlas/pkg/middleware"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// Register mounts the upload route on an authenticated group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/media", h.Upload)
}

// RegisterPublic mounts the download route. Media is embedded in article
// pages, so it is served without a bearer token.
func (h *Handler) RegisterPublic(rg *gin.RouterGroup) {
	rg.GET("/media/*key", h.Download)
}

func (h *Handler) Upload(c *gin.Context) {
	caller, ok := middleware.RequireCaller(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.svc.maxBytes+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		middleware.RespondError(c, fmt.Errorf("%w: multipart field \"file\" is required: %v", apperr.ErrValidation, err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	defer f.Close()

	up, err := h.svc.Upload(c.Request.Context(), caller, fh.Filename, fh.Header.Get("Content-Type"), fh.Size, f)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, up)
}

func (h *Handler) Download(c *gin.Context) {
	rc, info, err := h.svc.Open(c.Request.Context(), c.Param("key"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", info.ContentType)
	if info.Size >= 0 {
		c.Header("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	c.Header("Cache-Control", "public, max-age=86400, immutable")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		logger.Warnf("media: stream %s: %v", info.Key, err)
	}
}

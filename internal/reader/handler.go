package reader

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carolinavmo/PMR-atlas/internal/apperr"
	"github.com/carolinavmo/PMR-atlas/pkg/middleware"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/bookmarks", h.ListBookmarks)
	rg.POST("/bookmarks", h.AddBookmark)
	rg.DELETE("/bookmarks/:disease_id", h.RemoveBookmark)

	rg.GET("/notes", h.ListNotes)
	rg.GET("/notes/:disease_id", h.GetNote)
	rg.POST("/notes", h.SaveNote)
	rg.DELETE("/notes/:id", h.DeleteNote)

	rg.GET("/recent-views", h.RecentViews)
	rg.POST("/recent-views/:disease_id", h.RecordView)
}

func (h *Handler) ListBookmarks(c *gin.Context) {
	caller, ok := middleware.RequireCaller(c)
	if !ok {
		return
	}
	out, err := h.svc.Bookmarks(c.Request.Context(), caller)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) AddBookmark(c *gin.Context) {
	caller, ok := middleware.RequireCaller(c)
	if !ok {
		return
	}
	var req struct {
		DiseaseID string `json:"disease_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, fmt.Errorf("%w: %v", apperr.ErrValidation, err))
		return
	}
	b, err := h.svc.AddBookmark(c.Request.Context(), caller, req.DiseaseID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) RemoveBookmark(c *gin.Context) {
	caller, ok := middleware.RequireCaller(c)
	if !ok {
		return
	}
	if err := h.svc.RemoveBookmark(c.Request.Context(), caller, c.Param("disease_id")); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bookmark removed"})
}

func (h *Handler) ListNotes(c *gin.Context) {
	caller, ok := middleware.RequireCaller(c)
	if !ok {
		return
	}
	out, err := h.svc.Notes(c.Request.Context(), caller)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetNote answers null when the caller has no note on the disease.
func (h *Handler) GetNote(c *gin.Context) {
	caller, ok := middleware.RequireCaller(c)
	if !ok {
		return
	}
	n, err := h.svc.Note(c.Request.Context(), caller, c.Param("disease_id"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *Handler) SaveNote(c *gin.Context) {
	caller, ok := middleware.RequireCaller(c)
	if !ok {
		return
	}
	var req struct {
		DiseaseID string `json:"disease_id" binding:"required"`
		Content   string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, fmt.Errorf("%w: %v", apperr.ErrValidation, err))
		return
	}
	n, err := h.svc.SaveNote(c.Request.Context(), caller, req.DiseaseID, req.Content)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *Handler) DeleteNote(c *gin.Context) {
	caller, ok := middleware.RequireCaller(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteNote(c.Request.Context(), caller, c.Param("id")); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Note deleted"})
}

func (h *Handler) RecentViews(c *gin.Context) {
	caller, ok := middleware.RequireCaller(c)
	if !ok {
		return
	}
	out, err := h.svc.RecentViews(c.Request.Context(), caller)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) RecordView(c *gin.Context) {
	caller, ok := middleware.RequireCaller(c)
	if !ok {
		return
	}
	if err := h.svc.RecordView(c.Request.Context(), caller, c.Param("disease_id")); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "View recorded"})
}

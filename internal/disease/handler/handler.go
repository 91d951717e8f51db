// Package handler exposes the disease service over HTTP.
package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carolinavmo/PMR-atlas/internal/apperr"
	"github.com/carolinavmo/PMR-atlas/internal/disease"
	"github.com/carolinavmo/PMR-atlas/internal/disease/service"
	"github.com/carolinavmo/PMR-atlas/pkg/middleware"
)

type DiseaseHandler struct {
	svc *service.Service
}

func NewDiseaseHandler(svc *service.Service) *DiseaseHandler {
	return &DiseaseHandler{svc: svc}
}

// Register mounts the disease and translation routes on an authenticated group.
func (h *DiseaseHandler) Register(rg *gin.RouterGroup) {
	d := rg.Group("/diseases")
	d.GET("", h.List)
	d.POST("", h.Create)
	d.GET("/:id", h.Get)
	d.PUT("/:id", h.Update)
	d.DELETE("/:id", h.Delete)
	d.PUT("/:id/inline-save", h.InlineSave)
	d.PUT("/:id/inline-save-translate", h.InlineSaveTranslate)
	d.PUT("/:id/section-media", h.SectionMedia)
	d.GET("/:id/versions", h.Versions)

	rg.POST("/translate", h.Translate)
	rg.POST("/translate-disease/:id", h.TranslateDisease)
}

func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		middleware.RespondError(c, fmt.Errorf("%w: %v", apperr.ErrValidation, err))
		return false
	}
	return true
}

func (h *DiseaseHandler) List(c *gin.Context) {
	if _, ok := middleware.RequireCaller(c); !ok {
		return
	}
	out, err := h.svc.List(c.Request.Context(), disease.Filter{
		CategoryID: c.Query("category_id"),
		Tag:        c.Query("tag"),
		Search:     c.Query("search"),
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *DiseaseHandler) Get(c *gin.Context) {
	if _, ok := middleware.RequireCaller(c); !ok {
		return
	}
	d, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DiseaseHandler) Create(c *gin.Context) {
	caller, ok := middleware.RequireCaller(c)
	if !ok {
		return
	}
	var in service.DocumentInput
	if !bindJSON(c, &in) {
		return
	}
	d, err := h.svc.Create(c.Request.Context(), caller, in)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *DiseaseHandler) Update(c *gin.Context) {
	caller, ok := middleware.RequireCaller(c)
	if !ok {
		return
	}
	var in service.DocumentInput
	if !bindJSON(c, &in) {
		return
	}
	d, err := h.svc.Update(c.Request.Context(), caller, c.Param("id"), in)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DiseaseHandler) Delete(c *gin.Context) {
	caller, ok := middleware.RequireCaller(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Disease deleted"})
}

// InlineSave handles PUT /diseases/:id/inline-save.
func (h *DiseaseHandler) InlineSave(c *gin.Context) {
	caller, ok := middleware.RequireCaller(c)
	if !ok {
		return
	}
	var in service.SaveSectionInput
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.svc.SaveSection(c.Request.Context(), caller, c.Param("id"), in)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": res.Message, "disease": res.Disease})
}

// InlineSaveTranslate handles PUT /diseases/:id/inline-save-translate.
func (h *DiseaseHandler) InlineSaveTranslate(c *gin.Context) {
	caller, ok := middleware.RequireCaller(c)
	if !ok {
		return
	}
	var in service.SaveAndTranslateInput
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.svc.SaveAndTranslate(c.Request.Context(), caller, c.Param("id"), in)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":            res.Message,
		"disease":            res.Disease,
		"translations_count": res.TranslationsCount,
	})
}

// SectionMedia handles PUT /diseases/:id/section-media.
func (h *DiseaseHandler) SectionMedia(c *gin.Context) {
	caller, ok := middleware.RequireCaller(c)
	if !ok {
		return
	}
	var in service.ReplaceMediaInput
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.svc.ReplaceMedia(c.Request.Context(), caller, c.Param("id"), in)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     res.Message,
		"media_count": res.MediaCount,
		"version":     res.Disease.Version,
	})
}

func (h *DiseaseHandler) Versions(c *gin.Context) {
	if _, ok := middleware.RequireCaller(c); !ok {
		return
	}
	entries, err := h.svc.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

type translateRequest struct {
	Text           string `json:"text" binding:"required"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language" binding:"required"`
}

func (h *DiseaseHandler) Translate(c *gin.Context) {
	caller, ok := middleware.RequireCaller(c)
	if !ok {
		return
	}
	var req translateRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.SourceLanguage == "" {
		req.SourceLanguage = "en"
	}
	out, err := h.svc.TranslateText(c.Request.Context(), caller, req.Text, req.SourceLanguage, req.TargetLanguage)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"translated_text": out,
		"source_language": req.SourceLanguage,
		"target_language": req.TargetLanguage,
	})
}

func (h *DiseaseHandler) TranslateDisease(c *gin.Context) {
	caller, ok := middleware.RequireCaller(c)
	if !ok {
		return
	}
	res, err := h.svc.TranslateDisease(c.Request.Context(), caller, c.Param("id"), c.Query("target_language"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":           res.Message,
		"fields_translated": res.FieldsTranslated,
		"disease":           res.Disease,
	})
}

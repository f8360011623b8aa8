package documents

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"docflow-backend/internal/shared/server/middleware"
	"docflow-backend/internal/shared/server/respond"
)

const maxUploadSize = 20 << 20 // 20MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.DELETE("/documents/:id", h.delete)
	rg.GET("/documents/:id/download", h.download)
	rg.POST("/documents/:id/reextract", h.reextract)
	rg.POST("/documents/:id/reclassify", h.reclassify)
	rg.POST("/documents/:id/compare", h.compare)
	rg.DELETE("/documents/:id/comparisons", h.clearComparisons)
	rg.POST("/documents/:id/summarize", h.summarize)
	rg.POST("/documents/:id/question", h.question)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.Upload(c.Request.Context(), userID, fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload document", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, ToResponse(doc))
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	filter := ListFilter{
		Search:         strings.TrimSpace(c.Query("search")),
		Classification: strings.TrimSpace(c.Query("classification")),
		NeedsReview:    c.Query("needsReview") == "true",
		ProcessedToday: c.Query("processedToday") == "true",
		SortBy:         strings.TrimSpace(c.Query("sortBy")),
		SortOrder:      strings.TrimSpace(c.Query("sortOrder")),
		Limit:          20,
	}

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			filter.Limit = parsed
		}
	}
	if filter.Limit < 0 {
		filter.Limit = 0
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			filter.Offset = parsed
		}
	}

	docs, err := h.Svc.List(c.Request.Context(), userID, filter)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}

	resp := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, ToResponse(doc))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	doc, err := h.Svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to fetch document")
		return
	}
	respond.JSON(c, http.StatusOK, ToResponse(doc))
}

func (h *Handler) delete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if err := h.Svc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.respondError(c, err, "failed to delete document")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) download(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	// format=txt serves the extracted text instead of the stored object.
	if c.Query("format") == "txt" {
		doc, err := h.Svc.Get(c.Request.Context(), userID, c.Param("id"))
		if err != nil {
			h.respondError(c, err, "failed to download document")
			return
		}
		name := strings.TrimSuffix(doc.FileName, path.Ext(doc.FileName)) + ".txt"
		c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(doc.ExtractedText))
		return
	}

	doc, body, err := h.Svc.Download(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to download document")
		return
	}
	defer body.Close()

	c.Header("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	c.Header("Content-Type", doc.MimeType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		// Response already streaming, nothing sensible to send.
		_ = err
	}
}

func (h *Handler) reextract(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if err := h.Svc.ReExtract(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.respondError(c, err, "failed to restart extraction")
		return
	}
	respond.JSON(c, http.StatusAccepted, gin.H{"status": "extraction_scheduled"})
}

func (h *Handler) reclassify(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if err := h.Svc.ReClassify(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.respondError(c, err, "failed to restart classification")
		return
	}
	respond.JSON(c, http.StatusAccepted, gin.H{"status": "classification_scheduled"})
}

type compareRequest struct {
	TargetIDs []string `json:"targetIds"`
}

func (h *Handler) compare(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	if err := h.Svc.Compare(c.Request.Context(), userID, c.Param("id"), req.TargetIDs); err != nil {
		h.respondError(c, err, "failed to start comparison")
		return
	}
	respond.JSON(c, http.StatusAccepted, gin.H{"status": "comparing"})
}

func (h *Handler) clearComparisons(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if err := h.Svc.ClearComparisons(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.respondError(c, err, "failed to clear comparisons")
		return
	}
	respond.JSON(c, http.StatusAccepted, gin.H{"status": "clearing"})
}

func (h *Handler) summarize(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	summary, err := h.Svc.Summarize(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to summarize document")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"summary": summary})
}

type questionRequest struct {
	Question string `json:"question"`
}

func (h *Handler) question(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	answer, err := h.Svc.Answer(c.Request.Context(), userID, c.Param("id"), req.Question)
	if err != nil {
		h.respondError(c, err, "failed to answer question")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"answer": answer})
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "document belongs to another user", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

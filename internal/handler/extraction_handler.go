package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"finsync/internal/domain"
	"finsync/internal/service"
)

// ExtractResponse is the upload result. Summary fields are inlined.
type ExtractResponse struct {
	Success bool `json:"success"`
	*service.BatchSummary
	Error *APIError `json:"error,omitempty"`
}

// ExtractionHandler handles batch upload endpoints.
type ExtractionHandler struct {
	extractionService service.ExtractionService
}

// NewExtractionHandler creates a new ExtractionHandler.
func NewExtractionHandler(extractionService service.ExtractionService) *ExtractionHandler {
	return &ExtractionHandler{extractionService: extractionService}
}

// Extract handles POST /api/v1/extract
// @Summary      Extract GST invoices
// @Description  Runs the extraction pipeline over the uploaded invoices and stores the xlsx and csv report
// @Tags         extract
// @Accept       multipart/form-data
// @Produce      json
// @Param        files formData file true "Invoice files (pdf, jpg, png); repeat for a batch"
// @Success      200 {object} ExtractResponse
// @Failure      400 {object} APIResponse
// @Failure      413 {object} APIResponse
// @Failure      422 {object} ExtractResponse
// @Failure      500 {object} APIResponse
// @Router       /extract [post]
func (h *ExtractionHandler) Extract(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		HandleError(c, domain.ErrNoFiles)
		return
	}

	headers := form.File["files"]
	files := make([]service.UploadedFile, 0, len(headers))
	var opened []io.Closer
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "failed to read uploaded file "+fh.Filename)
			return
		}
		opened = append(opened, f)
		files = append(files, service.UploadedFile{Name: fh.Filename, Size: fh.Size, Body: f})
	}

	summary, err := h.extractionService.ProcessBatch(c.Request.Context(), files)
	if errors.Is(err, domain.ErrNothingExtracted) && summary != nil {
		status, code, msg := MapDomainError(err)
		summary.Message = msg
		c.JSON(status, ExtractResponse{
			Success:      false,
			BatchSummary: summary,
			Error:        &APIError{Code: code, Message: msg},
		})
		return
	}
	if err != nil {
		HandleError(c, err)
		return
	}

	log.Printf("handler.Extract: batch %s: %d invoice(s) from %d document(s)",
		summary.BatchID, summary.InvoicesCount, summary.DocumentsCount)
	c.JSON(http.StatusOK, ExtractResponse{Success: true, BatchSummary: summary})
}

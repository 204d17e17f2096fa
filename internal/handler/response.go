package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"finsync/internal/domain"
	"finsync/internal/middleware"
)

// APIResponse is the standard envelope for API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrNoFiles):
		return http.StatusBadRequest, "NO_FILES", "no files uploaded; send one or more 'files' parts"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: pdf, jpg, png"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrNothingExtracted):
		return http.StatusUnprocessableEntity, "NOTHING_EXTRACTED", "no GST data could be extracted from the uploaded files"
	case errors.Is(err, domain.ErrInvalidDownloadToken):
		return http.StatusUnauthorized, "INVALID_DOWNLOAD_TOKEN", "download link is invalid or has expired"
	case errors.Is(err, domain.ErrUnknownFormat):
		return http.StatusBadRequest, "UNKNOWN_FORMAT", "unknown format; allowed: xlsx, csv"
	case errors.Is(err, domain.ErrReportNotFound):
		return http.StatusNotFound, "REPORT_NOT_FOUND", "report not found"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrArtifactWrite):
		return http.StatusInternalServerError, "ARTIFACT_WRITE_FAILED", "the report could not be written"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		log.Printf("[%s] internal error: %v", c.GetString(middleware.ContextKeyRequestID), err)
	}
	_ = c.Error(err)
	RespondError(c, status, code, msg)
}

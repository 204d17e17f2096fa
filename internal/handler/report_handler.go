package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"finsync/internal/domain"
	"finsync/internal/service"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ReportHandler handles report download and history endpoints.
type ReportHandler struct {
	extractionService service.ExtractionService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(extractionService service.ExtractionService) *ReportHandler {
	return &ReportHandler{extractionService: extractionService}
}

// Download handles GET /api/v1/reports/download
// @Summary      Download a report
// @Description  Streams the stored report of a batch using the signed download token
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce      text/csv
// @Param        token query string true "Signed download token"
// @Param        format query string false "Artifact format" Enums(xlsx, csv) default(xlsx)
// @Success      200 {file} file
// @Failure      400 {object} APIResponse
// @Failure      401 {object} APIResponse
// @Failure      404 {object} APIResponse
// @Failure      500 {object} APIResponse
// @Router       /reports/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	tok := c.Query("token")
	if tok == "" {
		HandleError(c, domain.ErrInvalidDownloadToken)
		return
	}

	artifact, err := h.extractionService.Download(c.Request.Context(), tok, domain.ArtifactFormat(c.Query("format")))
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, artifact.FileName))
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

// List handles GET /api/v1/reports
// @Summary      List batch runs
// @Description  Lists recorded batch runs, newest first
// @Tags         reports
// @Produce      json
// @Param        offset query int false "Pagination offset" default(0)
// @Param        limit query int false "Pagination limit" default(20)
// @Success      200 {object} APIResponse{data=[]domain.BatchRun,meta=PagMeta}
// @Failure      500 {object} APIResponse
// @Router       /reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)

	runs, total, err := h.extractionService.ListRuns(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	if runs == nil {
		runs = []domain.BatchRun{}
	}
	RespondPaginated(c, runs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Get handles GET /api/v1/reports/:id
// @Summary      Get a batch run
// @Description  Returns one batch run with its per-document outcomes
// @Tags         reports
// @Produce      json
// @Param        id path string true "Batch run UUID"
// @Success      200 {object} APIResponse{data=service.RunDetail}
// @Failure      400 {object} APIResponse
// @Failure      404 {object} APIResponse
// @Failure      500 {object} APIResponse
// @Router       /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid batch id")
		return
	}

	detail, err := h.extractionService.GetRun(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, detail)
}

func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.Query("offset"))
	if offset < 0 {
		offset = 0
	}
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return offset, limit
}

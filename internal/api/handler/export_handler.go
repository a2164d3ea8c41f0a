package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"acadef/backend/internal/dto"
	"acadef/backend/internal/service"
	"acadef/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler spreadsheet exports
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates an ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportApplications submitted applications as xlsx
// GET /api/v1/admin/export/applications?status=pending&promotion_year=2027
func (h *ExportHandler) ExportApplications(c *gin.Context) {
	var req dto.ExportApplicationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "Paramètres invalides")
		return
	}

	buf, filename, err := h.exportSvc.ExportApplications(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoApplications):
		response.NotFound(c, 16101, err.Error())
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}

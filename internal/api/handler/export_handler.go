package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"berthops/internal/dto"
	"berthops/internal/service"
	"berthops/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportPerformance 导出日绩效
// GET /api/v1/export/performance?date=YYYY-MM-DD
func (h *ExportHandler) ExportPerformance(c *gin.Context) {
	var req dto.ExportPerformanceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportPerformance(c.Request.Context(), req.Date)
	if err != nil {
		response.FromError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

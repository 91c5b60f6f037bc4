package handler

import (
	"github.com/gin-gonic/gin"

	"berthops/internal/dto"
	"berthops/internal/service"
	"berthops/pkg/response"
)

// BatchHandler 班末标记与绩效汇总 HTTP 处理器
// 调度器按 cron 触发同样的服务，这里供管理员手动补跑
type BatchHandler struct {
	autoFlagSvc    service.AutoFlagService
	performanceSvc service.PerformanceService
}

// NewBatchHandler 创建 BatchHandler
func NewBatchHandler(autoFlagSvc service.AutoFlagService, performanceSvc service.PerformanceService) *BatchHandler {
	return &BatchHandler{autoFlagSvc: autoFlagSvc, performanceSvc: performanceSvc}
}

// RunAutoFlag 手动执行班末标记
// POST /api/v1/auto-flag
func (h *BatchHandler) RunAutoFlag(c *gin.Context) {
	var req dto.AutoFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.autoFlagSvc.Run(c.Request.Context(), req.Date, req.Shift)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

// ComputePerformance 手动重算某日绩效
// POST /api/v1/performance/compute
func (h *BatchHandler) ComputePerformance(c *gin.Context) {
	var req dto.ComputePerformanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.performanceSvc.Compute(c.Request.Context(), req.Date)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

// ListPerformance 查询绩效记录
// GET /api/v1/performance
func (h *BatchHandler) ListPerformance(c *gin.Context) {
	var req dto.PerformanceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.performanceSvc.List(c.Request.Context(), actor, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

package handler

import (
	"github.com/gin-gonic/gin"

	"berthops/internal/dto"
	"berthops/internal/service"
	"berthops/pkg/response"
)

// JobHandler 作业执行模块 HTTP 处理器
type JobHandler struct {
	trackingSvc service.TrackingService
}

// NewJobHandler 创建 JobHandler
func NewJobHandler(trackingSvc service.TrackingService) *JobHandler {
	return &JobHandler{trackingSvc: trackingSvc}
}

// ListJobs 当日作业列表（按身份过滤）
// GET /api/v1/jobs?date=YYYY-MM-DD
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req dto.DateShiftQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	jobs, err := h.trackingSvc.ListJobsFor(c.Request.Context(), actor, req.Date)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"list": jobs})
}

// Start 开工
// POST /api/v1/jobs/:id/start
func (h *JobHandler) Start(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	resp, err := h.trackingSvc.Start(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

// Pause 暂停并发起暂停申请
// POST /api/v1/jobs/:id/pause
func (h *JobHandler) Pause(c *gin.Context) {
	var req dto.PauseJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	resp, err := h.trackingSvc.Pause(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

// Resume 恢复施工
// POST /api/v1/jobs/:id/resume
func (h *JobHandler) Resume(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	resp, err := h.trackingSvc.Resume(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

// Complete 完工
// POST /api/v1/jobs/:id/complete
func (h *JobHandler) Complete(c *gin.Context) {
	var req dto.CompleteJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	resp, err := h.trackingSvc.Complete(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

// MarkIncomplete 标记未完成
// POST /api/v1/jobs/:id/incomplete
func (h *JobHandler) MarkIncomplete(c *gin.Context) {
	var req dto.MarkIncompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	resp, err := h.trackingSvc.MarkIncomplete(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

// GetTracking 作业当前跟踪状态
// GET /api/v1/jobs/:id/tracking
func (h *JobHandler) GetTracking(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	resp, err := h.trackingSvc.GetTracking(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

// ListLogs 作业日志
// GET /api/v1/jobs/:id/logs
func (h *JobHandler) ListLogs(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	logs, err := h.trackingSvc.ListLogs(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"list": logs})
}

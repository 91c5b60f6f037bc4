package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"berthops/internal/dto"
	"berthops/internal/service"
	"berthops/pkg/response"
)

// PauseHandler 暂停审批模块 HTTP 处理器
type PauseHandler struct {
	pauseSvc service.PauseService
}

// NewPauseHandler 创建 PauseHandler
func NewPauseHandler(pauseSvc service.PauseService) *PauseHandler {
	return &PauseHandler{pauseSvc: pauseSvc}
}

// List 暂停申请列表
// GET /api/v1/pause-requests?status=pending
func (h *PauseHandler) List(c *gin.Context) {
	var req dto.PauseRequestListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.pauseSvc.List(c.Request.Context(), actor, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// Approve 批准
// POST /api/v1/pause-requests/:id/approve
func (h *PauseHandler) Approve(c *gin.Context) {
	h.review(c, h.pauseSvc.Approve)
}

// Reject 驳回
// POST /api/v1/pause-requests/:id/reject
func (h *PauseHandler) Reject(c *gin.Context) {
	h.review(c, h.pauseSvc.Reject)
}

type reviewFunc func(ctx context.Context, actor service.Actor, id string, req *dto.ReviewPauseRequest) (*dto.PauseRequestResponse, error)

func (h *PauseHandler) review(c *gin.Context, fn reviewFunc) {
	var req dto.ReviewPauseRequest
	// 审批意见可选，允许空请求体
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	resp, err := fn(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

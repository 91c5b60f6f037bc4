package handler

import (
	"github.com/gin-gonic/gin"

	"berthops/internal/dto"
	"berthops/internal/service"
	"berthops/pkg/response"
)

// RatingHandler 评分调整模块 HTTP 处理器
type RatingHandler struct {
	ratingSvc service.RatingService
}

// NewRatingHandler 创建 RatingHandler
func NewRatingHandler(ratingSvc service.RatingService) *RatingHandler {
	return &RatingHandler{ratingSvc: ratingSvc}
}

// OverrideTimeRating 工程师申请覆盖工时评分
// PUT /api/v1/ratings/:id/time-override
func (h *RatingHandler) OverrideTimeRating(c *gin.Context) {
	var req dto.OverrideTimeRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	resp, err := h.ratingSvc.OverrideTimeRating(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

// ApproveOverride 管理员批准覆盖
// POST /api/v1/ratings/:id/approve-override
func (h *RatingHandler) ApproveOverride(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	resp, err := h.ratingSvc.ApproveOverride(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

// SetBonus 设置奖励分
// PUT /api/v1/ratings/:id/bonus
func (h *RatingHandler) SetBonus(c *gin.Context) {
	var req dto.SetBonusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	resp, err := h.ratingSvc.SetBonus(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

// Dispute 工人申诉
// POST /api/v1/ratings/:id/dispute
func (h *RatingHandler) Dispute(c *gin.Context) {
	var req dto.DisputeRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	resp, err := h.ratingSvc.Dispute(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

// ResolveDispute 管理员处理申诉
// POST /api/v1/ratings/:id/resolve
func (h *RatingHandler) ResolveDispute(c *gin.Context) {
	var req dto.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	resp, err := h.ratingSvc.ResolveDispute(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

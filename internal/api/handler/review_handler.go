package handler

import (
	"github.com/gin-gonic/gin"

	"berthops/internal/dto"
	"berthops/internal/service"
	"berthops/pkg/response"
)

// ReviewHandler 日审模块 HTTP 处理器
type ReviewHandler struct {
	reviewSvc service.ReviewService
	ratingSvc service.RatingService
}

// NewReviewHandler 创建 ReviewHandler
func NewReviewHandler(reviewSvc service.ReviewService, ratingSvc service.RatingService) *ReviewHandler {
	return &ReviewHandler{reviewSvc: reviewSvc, ratingSvc: ratingSvc}
}

// Get 获取或创建日审
// GET /api/v1/reviews?date=YYYY-MM-DD&shift=day
func (h *ReviewHandler) Get(c *gin.Context) {
	var req dto.GetReviewRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	resp, err := h.reviewSvc.Get(c.Request.Context(), actor, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

// Rate 为日审中的作业评分
// POST /api/v1/reviews/:id/ratings
func (h *ReviewHandler) Rate(c *gin.Context) {
	var req dto.RateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	resp, err := h.ratingSvc.Rate(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

// ListRatings 日审下的全部评分
// GET /api/v1/reviews/:id/ratings
func (h *ReviewHandler) ListRatings(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.reviewSvc.ListRatings(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// SetMaterialsReviewed 标记物料核对
// POST /api/v1/reviews/:id/materials-reviewed
func (h *ReviewHandler) SetMaterialsReviewed(c *gin.Context) {
	var req dto.MaterialsReviewedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	resp, err := h.reviewSvc.SetMaterialsReviewed(c.Request.Context(), actor, c.Param("id"), req.Reviewed)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

// Submit 提交日审
// POST /api/v1/reviews/:id/submit
func (h *ReviewHandler) Submit(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	resp, err := h.reviewSvc.Submit(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

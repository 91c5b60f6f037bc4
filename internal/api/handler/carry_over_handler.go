package handler

import (
	"github.com/gin-gonic/gin"

	"berthops/internal/dto"
	"berthops/internal/service"
	"berthops/pkg/response"
)

// CarryOverHandler 作业结转 HTTP 处理器
type CarryOverHandler struct {
	carryOverSvc service.CarryOverService
}

// NewCarryOverHandler 创建 CarryOverHandler
func NewCarryOverHandler(carryOverSvc service.CarryOverService) *CarryOverHandler {
	return &CarryOverHandler{carryOverSvc: carryOverSvc}
}

// Create 发起结转
// POST /api/v1/jobs/:id/carry-over
func (h *CarryOverHandler) Create(c *gin.Context) {
	var req dto.CarryOverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	resp, err := h.carryOverSvc.RequestCarryOver(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, resp)
}

// Get 查询作业的结转记录
// GET /api/v1/jobs/:id/carry-over
func (h *CarryOverHandler) Get(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	resp, err := h.carryOverSvc.GetByOriginalJob(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

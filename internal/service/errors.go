package service

import (
	"errors"

	"gorm.io/gorm"

	pkgerrors "berthops/pkg/errors"
)

// ── 通用业务错误 ──

var (
	ErrInvalidDate  = pkgerrors.Validation(40001, "日期格式应为 YYYY-MM-DD")
	ErrInvalidShift = pkgerrors.Validation(40002, "班次取值应为 day 或 night")
	ErrForbidden    = pkgerrors.Forbidden(40301, "无权执行此操作")
)

// ── 作业执行模块业务错误 ──

var (
	ErrJobNotFound              = pkgerrors.NotFound(40401, "作业不存在")
	ErrTrackingNotFound         = pkgerrors.NotFound(40402, "作业跟踪记录不存在")
	ErrNotAssigned              = pkgerrors.Forbidden(40302, "未被分配到该作业")
	ErrPauseReasonRequired      = pkgerrors.Validation(40010, "暂停原因不能为空")
	ErrInvalidPauseReason       = pkgerrors.Validation(40011, "暂停原因不在可选范围内")
	ErrIncompleteReasonRequired = pkgerrors.Validation(40012, "未完成原因不能为空")
	ErrInvalidIncompleteReason  = pkgerrors.Validation(40013, "未完成原因不在可选范围内")
)

// ── 暂停审批模块业务错误 ──

var (
	ErrPauseRequestNotFound = pkgerrors.NotFound(40403, "暂停申请不存在")
	ErrPauseAlreadyReviewed = pkgerrors.BusinessRule(42210, "暂停申请已被审批")
)

// ── 评分模块业务错误 ──

var (
	ErrRatingNotFound          = pkgerrors.NotFound(40404, "评分不存在")
	ErrQCRatingOutOfRange      = pkgerrors.Validation(40020, "质检评分超出范围")
	ErrQCJustificationRequired = pkgerrors.Validation(40021, "质检评分超出常规区间时必须填写说明")
	ErrCleaningOutOfRange      = pkgerrors.Validation(40022, "清洁评分超出范围")
	ErrBonusOutOfRange         = pkgerrors.Validation(40023, "管理员加分超出范围")
	ErrTimeRatingOutOfRange    = pkgerrors.Validation(40024, "时效评分超出范围")
	ErrWorkerNotOnJob          = pkgerrors.Validation(40025, "该工人未被分配到此作业")
	ErrOverrideReasonRequired  = pkgerrors.Validation(40026, "改判时效分必须填写理由")
	ErrDisputeReasonRequired   = pkgerrors.Validation(40027, "申诉理由不能为空")
	ErrResolutionRequired      = pkgerrors.Validation(40028, "申诉处理意见不能为空")
	ErrJobNotTerminal          = pkgerrors.BusinessRule(42220, "作业尚未结束，不能评分")
	ErrNoPendingOverride       = pkgerrors.BusinessRule(42221, "没有待批准的时效改判")
	ErrDisputeAlreadyFiled     = pkgerrors.Conflict(40920, "该评分已申诉过")
	ErrNoOpenDispute           = pkgerrors.BusinessRule(42222, "该评分没有待处理的申诉")
)

// ── 日审模块业务错误 ──

var (
	ErrReviewNotFound       = pkgerrors.NotFound(40405, "日审不存在")
	ErrReviewSubmitted      = pkgerrors.BusinessRule(42230, "日审已提交，不可修改")
	ErrPauseRequestsPending = pkgerrors.BusinessRule(42231, "仍有未审批的暂停申请，不能提交日审")
	ErrJobOutOfReviewScope  = pkgerrors.Forbidden(40303, "作业不在该日审范围内")
)

// ── 结转模块业务错误 ──

var (
	ErrCarryOverNotAllowed    = pkgerrors.BusinessRule(42240, "仅未完成或未开工的作业可以结转")
	ErrCarryOverExists        = pkgerrors.Conflict(40940, "该作业已结转过")
	ErrCarryOverPausesPending = pkgerrors.BusinessRule(42241, "该作业仍有未审批的暂停申请，不能结转")
	ErrNoTargetPlan           = pkgerrors.BusinessRule(42242, "次日不在任何工作计划内，请先创建下一期计划")
	ErrInvalidCarryOverReason = pkgerrors.Validation(40040, "结转原因不在可选范围内")
	ErrCarryOverNotFound      = pkgerrors.NotFound(40406, "结转记录不存在")
	ErrEmptyReassignment      = pkgerrors.Validation(40041, "重新分配的人员名单不能为空")
)

// ── 通知模块业务错误 ──

var (
	ErrNotificationNotFound = pkgerrors.NotFound(40407, "通知不存在")
)

// isRecordNotFound gorm 记录不存在
func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicateKey 唯一约束冲突
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

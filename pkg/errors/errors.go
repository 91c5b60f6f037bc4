package errors

import (
	"errors"
	"fmt"
)

// Kind 业务错误分类，决定 HTTP 状态码映射
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindBusinessRule
	KindNotFound
	KindForbidden
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBusinessRule:
		return "business_rule"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// AppError 带分类与错误码的业务错误
type AppError struct {
	Kind    Kind
	Code    int
	Message string
}

func (e *AppError) Error() string { return e.Message }

func Validation(code int, msg string) *AppError   { return &AppError{Kind: KindValidation, Code: code, Message: msg} }
func BusinessRule(code int, msg string) *AppError { return &AppError{Kind: KindBusinessRule, Code: code, Message: msg} }
func NotFound(code int, msg string) *AppError     { return &AppError{Kind: KindNotFound, Code: code, Message: msg} }
func Forbidden(code int, msg string) *AppError    { return &AppError{Kind: KindForbidden, Code: code, Message: msg} }
func Conflict(code int, msg string) *AppError     { return &AppError{Kind: KindConflict, Code: code, Message: msg} }

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = Conflict(40901, "数据已被其他操作修改，请刷新后重试")

// ErrInvalidTransition 非法状态迁移（TransitionError 的匹配哨兵）
var ErrInvalidTransition = BusinessRule(42201, "非法的状态迁移")

// TransitionError 描述具体的非法迁移：当前状态 → 目标动作
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("非法的状态迁移: 当前状态 %s 不允许执行 %s", e.From, e.To)
}

// Is 使 errors.Is(err, ErrInvalidTransition) 成立
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// As 提取 *AppError；TransitionError 按 ErrInvalidTransition 归类但保留具体描述
func As(err error) (*AppError, bool) {
	var te *TransitionError
	if errors.As(err, &te) {
		return &AppError{Kind: ErrInvalidTransition.Kind, Code: ErrInvalidTransition.Code, Message: te.Error()}, true
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf 返回错误分类；非业务错误归为 KindInternal
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return KindInternal
}

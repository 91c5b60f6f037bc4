package model

// 三类原因各自独立的封闭枚举，互不混用

// PauseReason 暂停原因
type PauseReason string

const (
	PauseBreak               PauseReason = "break"
	PauseWaitingForMaterials PauseReason = "waiting_for_materials"
	PauseUrgentTask          PauseReason = "urgent_task"
	PauseWaitingForAccess    PauseReason = "waiting_for_access"
	PauseOther               PauseReason = "other"
)

// Valid 是否属于允许的暂停原因
func (r PauseReason) Valid() bool {
	switch r {
	case PauseBreak, PauseWaitingForMaterials, PauseUrgentTask, PauseWaitingForAccess, PauseOther:
		return true
	}
	return false
}

// IncompleteReason 未完成原因
type IncompleteReason string

const (
	IncompleteMissingParts           IncompleteReason = "missing_parts"
	IncompleteEquipmentNotAccessible IncompleteReason = "equipment_not_accessible"
	IncompleteTimeRanOut             IncompleteReason = "time_ran_out"
	IncompleteSafetyConcern          IncompleteReason = "safety_concern"
	IncompleteOther                  IncompleteReason = "other"
)

func (r IncompleteReason) Valid() bool {
	switch r {
	case IncompleteMissingParts, IncompleteEquipmentNotAccessible, IncompleteTimeRanOut,
		IncompleteSafetyConcern, IncompleteOther:
		return true
	}
	return false
}

// CarryOverReason 结转原因
type CarryOverReason string

const (
	CarryOverUnfinishedWork CarryOverReason = "unfinished_work"
	CarryOverAwaitingParts  CarryOverReason = "awaiting_parts"
	CarryOverAccessDenied   CarryOverReason = "access_denied"
	CarryOverSafetyHold     CarryOverReason = "safety_hold"
	CarryOverReprioritized  CarryOverReason = "reprioritized"
	CarryOverOther          CarryOverReason = "other"
)

func (r CarryOverReason) Valid() bool {
	switch r {
	case CarryOverUnfinishedWork, CarryOverAwaitingParts, CarryOverAccessDenied,
		CarryOverSafetyHold, CarryOverReprioritized, CarryOverOther:
		return true
	}
	return false
}

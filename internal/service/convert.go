package service

import (
	"berthops/internal/dto"
	"berthops/internal/model"
)

// ── 模型 → 响应 ──

func toTrackingResponse(t *model.JobTracking) dto.TrackingResponse {
	resp := dto.TrackingResponse{
		ID:                 t.TrackingID,
		JobID:              t.JobID,
		Status:             t.Status,
		Shift:              t.Shift,
		StartedAt:          formatTimePtr(t.StartedAt),
		CompletedAt:        formatTimePtr(t.CompletedAt),
		PausedAt:           formatTimePtr(t.PausedAt),
		OpenPauseRequestID: t.OpenPauseRequestID,
		TotalPausedMinutes: t.TotalPausedMinutes,
		ActualHours:        t.ActualHours,
		CarryOverFromJobID: t.CarryOverFromJobID,
		CarryOverCount:     t.CarryOverCount,
		IsCarryOver:        t.IsCarryOver,
		CompletionNotes:    t.CompletionNotes,
		CompletionPhotoRef: t.CompletionPhotoRef,
		IncompleteNotes:    t.IncompleteNotes,
		HandoverVoiceRef:   t.HandoverVoiceRef,
		HandoverTranscript: t.HandoverTranscript,
		AutoFlagged:        t.AutoFlagged,
		AutoFlagType:       t.AutoFlagType,
		AutoFlaggedAt:      formatTimePtr(t.AutoFlaggedAt),
		Version:            t.Version,
	}
	if t.IncompleteReason != nil {
		resp.IncompleteReason = strPtr(string(*t.IncompleteReason))
	}
	return resp
}

// pendingView 尚未产生跟踪记录的作业视为 pending
func pendingView(jobID string) dto.TrackingResponse {
	return dto.TrackingResponse{JobID: jobID, Status: model.TrackingPending}
}

func toJobItemResponse(j *model.Job, t *model.JobTracking) dto.JobItemResponse {
	resp := dto.JobItemResponse{
		ID:               j.JobID,
		PlanID:           j.PlanID,
		ScheduledDate:    formatDate(j.ScheduledDate),
		Shift:            j.Shift,
		EquipmentID:      j.EquipmentID,
		Berth:            j.Berth,
		Priority:         j.Priority,
		EstimatedHours:   j.EstimatedHours,
		Description:      j.Description,
		Notes:            j.Notes,
		WorkerIDs:        j.WorkerIDs(),
		CarriedFromJobID: j.CarriedFromJobID,
	}
	if t != nil {
		resp.Tracking = toTrackingResponse(t)
	} else {
		resp.Tracking = pendingView(j.JobID)
	}
	return resp
}

func toPauseRequestResponse(p *model.PauseRequest) dto.PauseRequestResponse {
	return dto.PauseRequestResponse{
		ID:              p.PauseRequestID,
		JobID:           p.JobID,
		TrackingID:      p.TrackingID,
		RequestedBy:     p.RequestedBy,
		RequestedAt:     formatTime(p.RequestedAt),
		Reason:          string(p.Reason),
		Details:         p.Details,
		Status:          p.Status,
		ReviewedBy:      p.ReviewedBy,
		ReviewedAt:      formatTimePtr(p.ReviewedAt),
		ReviewNote:      p.ReviewNote,
		ResumedAt:       formatTimePtr(p.ResumedAt),
		DurationMinutes: p.DurationMinutes,
	}
}

func toReviewResponse(r *model.DailyReview) *dto.ReviewResponse {
	return &dto.ReviewResponse{
		ID:                    r.ReviewID,
		EngineerID:            r.EngineerID,
		ReviewDate:            formatDate(r.ReviewDate),
		Shift:                 r.Shift,
		Status:                r.Status,
		TotalJobs:             r.TotalJobs,
		ApprovedJobs:          r.ApprovedJobs,
		IncompleteJobs:        r.IncompleteJobs,
		NotStartedJobs:        r.NotStartedJobs,
		CarryOverJobs:         r.CarryOverJobs,
		TotalPauseRequests:    r.TotalPauseRequests,
		ResolvedPauseRequests: r.ResolvedPauseRequests,
		MaterialsReviewed:     r.MaterialsReviewed,
		CanSubmit:             r.CanSubmit(),
		SubmittedAt:           formatTimePtr(r.SubmittedAt),
		SubmittedBy:           r.SubmittedBy,
		Version:               r.Version,
	}
}

func toRatingResponse(r *model.JobRating) *dto.RatingResponse {
	return &dto.RatingResponse{
		ID:                  r.RatingID,
		JobID:               r.JobID,
		WorkerID:            r.WorkerID,
		ReviewID:            r.ReviewID,
		RatedBy:             r.RatedBy,
		TimeRating:          r.TimeRating,
		TimeRatingOverride:  r.TimeRatingOverride,
		OverrideReason:      r.OverrideReason,
		OverrideApproved:    r.OverrideApproved,
		EffectiveTimeRating: r.EffectiveTimeRating(),
		QCRating:            r.QCRating,
		QCJustification:     r.QCJustification,
		CleaningRating:      r.CleaningRating,
		AdminBonus:          r.AdminBonus,
		PointsEarned:        r.PointsEarned,
		DisputeFiled:        r.DisputeFiled,
		DisputeReason:       r.DisputeReason,
		DisputeResolved:     r.DisputeResolved,
		DisputeResolution:   r.DisputeResolution,
		Version:             r.Version,
	}
}

func toCarryOverResponse(co *model.CarryOver) *dto.CarryOverResponse {
	resp := &dto.CarryOverResponse{
		ID:                 co.CarryOverID,
		OriginalJobID:      co.OriginalJobID,
		NewJobID:           co.NewJobID,
		Reason:             string(co.Reason),
		Notes:              co.Notes,
		WorkerVoiceRef:     co.WorkerVoiceRef,
		WorkerTranscript:   co.WorkerTranscript,
		EngineerVoiceRef:   co.EngineerVoiceRef,
		EngineerTranscript: co.EngineerTranscript,
		HoursSpent:         co.HoursSpent,
		CreatedBy:          co.CreatedBy,
		CreatedAt:          formatTime(co.CreatedAt),
	}
	if co.NewJob != nil {
		resp.TargetDate = formatDate(co.NewJob.ScheduledDate)
		resp.TargetPlanID = co.NewJob.PlanID
	}
	return resp
}

func toPerformanceResponse(p *model.PerformanceRecord) dto.PerformanceResponse {
	resp := dto.PerformanceResponse{
		ID:                p.RecordID,
		WorkerID:          p.WorkerID,
		PeriodType:        p.PeriodType,
		PeriodStart:       formatDate(p.PeriodStart),
		PeriodEnd:         formatDate(p.PeriodEnd),
		JobsAssigned:      p.JobsAssigned,
		JobsCompleted:     p.JobsCompleted,
		JobsIncomplete:    p.JobsIncomplete,
		JobsNotStarted:    p.JobsNotStarted,
		JobsCarriedOver:   p.JobsCarriedOver,
		EstimatedHours:    p.EstimatedHours,
		ActualHours:       p.ActualHours,
		AvgTimeRating:     p.AvgTimeRating,
		AvgQCRating:       p.AvgQCRating,
		AvgCleaningRating: p.AvgCleaningRating,
		PointsEarned:      p.PointsEarned,
		PauseCount:        p.PauseCount,
		PauseMinutes:      p.PauseMinutes,
		CompletionRate:    p.CompletionRate,
		CurrentStreak:     p.CurrentStreak,
		MaxStreak:         p.MaxStreak,
	}
	if p.Worker != nil {
		resp.Worker = &dto.UserBrief{ID: p.Worker.UserID, Name: p.Worker.Name, Role: p.Worker.Role}
	}
	return resp
}

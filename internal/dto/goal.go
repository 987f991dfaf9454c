package dto

// ── 学习目标模块 DTO ──

// CreateGoalRequest 创建学习目标请求
type CreateGoalRequest struct {
	PlanID          string  `json:"plan_id"          binding:"required,uuid"`
	GoalType        string  `json:"goal_type"        binding:"required,oneof=study practice_questions review"`
	DisciplineID    string  `json:"discipline_id"    binding:"required,uuid"`
	SubjectID       string  `json:"subject_id"       binding:"required,uuid"`
	TopicID         *string `json:"topic_id"         binding:"omitempty,uuid"`
	SubtopicID      *string `json:"subtopic_id"      binding:"omitempty,uuid"`
	DurationMinutes int     `json:"duration_minutes" binding:"required,gt=0,lte=1440"`
	ScheduledDate   string  `json:"scheduled_date"   binding:"required,datetime=2006-01-02"`
	Guidance        *string `json:"guidance"         binding:"omitempty,max=2000"`
	IsFixed         bool    `json:"is_fixed"`
}

// ListGoalsRequest 目标列表查询参数
type ListGoalsRequest struct {
	PlanID   string  `form:"plan_id"   binding:"required,uuid"`
	Status   *string `form:"status"    binding:"omitempty,oneof=pending in_progress completed omitted"`
	GoalType *string `form:"goal_type" binding:"omitempty,oneof=study practice_questions review"`
	DateFrom *string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   *string `form:"date_to"   binding:"omitempty,datetime=2006-01-02"`
	PaginationRequest
}

// PauseGoalRequest 暂停目标请求（本次学习时长累加后回到待办）
type PauseGoalRequest struct {
	ElapsedSeconds int `json:"elapsed_seconds" binding:"min=0"`
}

// CompleteGoalRequest 完成目标请求
type CompleteGoalRequest struct {
	ActualSeconds int `json:"actual_seconds" binding:"min=0"`
}

// RequestMoreTimeRequest 「需要更多时间」请求
type RequestMoreTimeRequest struct {
	TimeSpentSeconds int `json:"time_spent_seconds" binding:"min=0"`
}

// OmitGoalRequest 放弃目标请求（原因必填）
type OmitGoalRequest struct {
	Reason string  `json:"reason" binding:"required,min=1,max=200"`
	Note   *string `json:"note"   binding:"omitempty,max=500"`
}

// RescheduleGoalRequest 手动改期请求
type RescheduleGoalRequest struct {
	NewDate string `json:"new_date" binding:"required,datetime=2006-01-02"`
}

// ── 响应 ──

// GoalResponse 学习目标响应
type GoalResponse struct {
	ID              string  `json:"id"`
	PlanID          string  `json:"plan_id"`
	SeqNo           int     `json:"seq_no"`
	SeqLabel        string  `json:"seq_label"` // 如 "#007"
	GoalType        string  `json:"goal_type"`
	DisciplineID    string  `json:"discipline_id"`
	SubjectID       string  `json:"subject_id"`
	TopicID         *string `json:"topic_id,omitempty"`
	SubtopicID      *string `json:"subtopic_id,omitempty"`
	DurationMinutes int     `json:"duration_minutes"`
	ScheduledDate   string  `json:"scheduled_date"`
	Status          string  `json:"status"`
	Guidance        *string `json:"guidance,omitempty"`
	IsFixed         bool    `json:"is_fixed"`
	StartedAt       *string `json:"started_at,omitempty"`
	CompletedAt     *string `json:"completed_at,omitempty"`
	ActualSeconds   *int    `json:"actual_seconds,omitempty"`
	OmitReason      *string `json:"omit_reason,omitempty"`
	OmitNote        *string `json:"omit_note,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// CompleteGoalResponse 完成目标响应
type CompleteGoalResponse struct {
	Goal               *GoalResponse  `json:"goal"`
	FollowUpsGenerated int            `json:"follow_ups_generated"` // 0-3
	FollowUps          []GoalResponse `json:"follow_ups,omitempty"`
}

// RequestMoreTimeResponse 「需要更多时间」响应
type RequestMoreTimeResponse struct {
	Goal             *GoalResponse `json:"goal"`
	NewScheduledDate string        `json:"new_scheduled_date"`
}

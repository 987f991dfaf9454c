package dto

// ── 学习统计模块 DTO ──

// PlanProgressResponse 计划整体进度
type PlanProgressResponse struct {
	PlanID         string  `json:"plan_id"`
	TotalGoals     int     `json:"total_goals"`
	Pending        int     `json:"pending"`
	InProgress     int     `json:"in_progress"`
	Completed      int     `json:"completed"`
	Omitted        int     `json:"omitted"`
	CompletionRate float64 `json:"completion_rate"` // completed / (total - omitted)，无有效目标时为 0

	PlannedMinutes     int `json:"planned_minutes"`      // 非放弃目标的计划时长合计
	CompletedMinutes   int `json:"completed_minutes"`    // 已完成目标的计划时长合计
	ActualStudySeconds int `json:"actual_study_seconds"` // 实际累计学习秒数
}

// DailyLoadItem 单日负载
type DailyLoadItem struct {
	Date             string  `json:"date"`
	Weekday          string  `json:"weekday"`
	Available        bool    `json:"available"` // 当天是否为计划可用日
	CapacityMinutes  int     `json:"capacity_minutes"`
	ScheduledMinutes int     `json:"scheduled_minutes"`
	UtilizationRate  float64 `json:"utilization_rate"` // scheduled / capacity，容量为 0 时为 0
	GoalCount        int     `json:"goal_count"`
	OverCapacity     bool    `json:"over_capacity"`
}

// DailyLoadRequest 每日负载查询参数
type DailyLoadRequest struct {
	DateFrom string `form:"date_from" binding:"required,datetime=2006-01-02"`
	DateTo   string `form:"date_to"   binding:"required,datetime=2006-01-02"`
}

// DailyLoadResponse 区间每日负载响应
type DailyLoadResponse struct {
	PlanID string          `json:"plan_id"`
	Days   []DailyLoadItem `json:"days"`
}

// SubjectBreakdownItem 按科目统计
type SubjectBreakdownItem struct {
	SubjectID      string  `json:"subject_id"`
	SubjectName    string  `json:"subject_name"`
	TotalGoals     int     `json:"total_goals"`
	Completed      int     `json:"completed"`
	PlannedMinutes int     `json:"planned_minutes"`
	ActualSeconds  int     `json:"actual_seconds"`
	CompletionRate float64 `json:"completion_rate"`
}

// SubjectBreakdownResponse 科目维度统计响应
type SubjectBreakdownResponse struct {
	PlanID   string                 `json:"plan_id"`
	Subjects []SubjectBreakdownItem `json:"subjects"`
}

package dto

// ── 学习计划模块 DTO ──

// CreatePlanRequest 创建学习计划请求
type CreatePlanRequest struct {
	Name          string   `json:"name"           binding:"required,min=2,max=200"`
	Description   *string  `json:"description"    binding:"omitempty,max=1000"`
	HoursPerDay   float64  `json:"hours_per_day"  binding:"required,gt=0,lte=24"`
	AvailableDays *int     `json:"available_days" binding:"required,min=0,max=127"`
}

// UpdatePlanRequest 更新学习计划请求（字段均可选）
type UpdatePlanRequest struct {
	Name          *string  `json:"name"           binding:"omitempty,min=2,max=200"`
	Description   *string  `json:"description"    binding:"omitempty,max=1000"`
	HoursPerDay   *float64 `json:"hours_per_day"  binding:"omitempty,gt=0,lte=24"`
	AvailableDays *int     `json:"available_days" binding:"omitempty,min=0,max=127"`
	IsActive      *bool    `json:"is_active"`
}

// CheckCapacityRequest 容量检查查询参数
type CheckCapacityRequest struct {
	Date            string `form:"date"             binding:"required,datetime=2006-01-02"`
	DurationMinutes *int   `form:"duration_minutes" binding:"required,min=0"`
}

// ── 响应 ──

// PlanResponse 学习计划响应
type PlanResponse struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	Name            string  `json:"name"`
	Description     *string `json:"description,omitempty"`
	HoursPerDay     float64 `json:"hours_per_day"`
	AvailableDays   int     `json:"available_days"`
	CapacityMinutes int     `json:"capacity_minutes"`
	IsActive        bool    `json:"is_active"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// CapacityResponse 容量检查响应
//
// 只回答「当天还有没有空间」的算术问题；
// 星期是否可用由创建/改期操作单独校验。
type CapacityResponse struct {
	Date             string `json:"date"`
	CapacityMinutes  int    `json:"capacity_minutes"`
	MinutesUsed      int    `json:"minutes_used"`
	MinutesRemaining int    `json:"minutes_remaining"`
	CandidateMinutes int    `json:"candidate_minutes"`
	Fits             bool   `json:"fits"`
}

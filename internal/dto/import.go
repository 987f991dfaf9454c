package dto

// ── 批量导入模块 DTO ──

// ImportGoalRow 批量导入的单行目标
// 字段校验在服务层逐行进行，以便返回带行号的错误/警告
type ImportGoalRow struct {
	GoalType        string  `json:"goal_type"`
	DisciplineID    string  `json:"discipline_id"`
	SubjectID       string  `json:"subject_id"`
	TopicID         *string `json:"topic_id,omitempty"`
	SubtopicID      *string `json:"subtopic_id,omitempty"`
	DurationMinutes int     `json:"duration_minutes"`
	ScheduledDate   string  `json:"scheduled_date"`
	Guidance        *string `json:"guidance,omitempty"`
	IsFixed         bool    `json:"is_fixed"`
}

// ValidateBatchRequest 批量导入校验请求
type ValidateBatchRequest struct {
	PlanID string          `json:"plan_id" binding:"required,uuid"`
	Rows   []ImportGoalRow `json:"rows"    binding:"required,min=1,max=500"`
}

// ImportBatchRequest 批量导入执行请求
type ImportBatchRequest struct {
	PlanID         string          `json:"plan_id"         binding:"required,uuid"`
	Rows           []ImportGoalRow `json:"rows"            binding:"required,min=1,max=500"`
	SkipDuplicates bool            `json:"skip_duplicates"`
}

// RowIssue 带行号的错误/警告（行号从 1 开始）
type RowIssue struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidateBatchResponse 批量导入校验响应
type ValidateBatchResponse struct {
	Valid     bool       `json:"valid"`
	TotalRows int        `json:"total_rows"`
	Errors    []RowIssue `json:"errors,omitempty"`
	Warnings  []RowIssue `json:"warnings,omitempty"`
}

// ImportBatchResponse 批量导入执行响应
// 部分成功属于预期结果：逐行报告，不整批回滚
type ImportBatchResponse struct {
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Failed   int        `json:"failed"`
	Errors   []RowIssue `json:"errors,omitempty"`
	Warnings []RowIssue `json:"warnings,omitempty"`
}

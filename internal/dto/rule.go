package dto

// ── 排期规则模块 DTO ──

// UpdateRuleRequest 更新规则启用状态请求（仅管理员）
type UpdateRuleRequest struct {
	IsEnabled *bool `json:"is_enabled" binding:"required"`
}

// RuleResponse 排期规则响应
type RuleResponse struct {
	ID             string `json:"id"`
	RuleCode       string `json:"rule_code"`
	RuleName       string `json:"rule_name"`
	Description    string `json:"description"`
	IsEnabled      bool   `json:"is_enabled"`
	IsConfigurable bool   `json:"is_configurable"`
	UpdatedAt      string `json:"updated_at"`
}

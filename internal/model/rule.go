package model

// 调度规则代码
const (
	RuleWeekday      = "WD"  // 星期可用性检查（硬约束，不可配置）
	RuleCapacityHard = "CAP" // 容量硬限制（默认关闭 → 超预算仅提示）
	RuleAutoReview   = "REV" // 学习目标完成后自动生成复习目标
)

// SchedulingRule 调度规则注册表 — 对应 scheduling_rules
type SchedulingRule struct {
	RuleID         string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"rule_id"`
	RuleCode       string `gorm:"type:varchar(10);not null;uniqueIndex"          json:"rule_code"`
	RuleName       string `gorm:"type:varchar(100);not null"                     json:"rule_name"`
	Description    string `gorm:"type:varchar(500);not null"                     json:"description"`
	IsEnabled      bool   `gorm:"not null;default:true"                          json:"is_enabled"`
	IsConfigurable bool   `gorm:"not null;default:true"                          json:"is_configurable"`
	BaseModel
}

func (SchedulingRule) TableName() string { return "scheduling_rules" }

package model

import (
	"fmt"
	"time"
)

// 目标类型
const (
	GoalTypeStudy             = "study"
	GoalTypePracticeQuestions = "practice_questions"
	GoalTypeReview            = "review"
)

// 目标状态
// 「需要更多时间」是瞬时操作：校验后目标直接回到新日期的 pending，不单独落库
const (
	GoalStatusPending    = "pending"
	GoalStatusInProgress = "in_progress"
	GoalStatusCompleted  = "completed"
	GoalStatusOmitted    = "omitted"
)

// Goal 学习目标表 — 对应 goals
//
// SeqNo 在计划内单调递增且唯一（uq_goals_plan_seq），
// 并发创建依赖该约束 + 服务层一次重试。
type Goal struct {
	GoalID          string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"goal_id"`
	PlanID          string     `gorm:"type:uuid;not null"                             json:"plan_id"`
	SeqNo           int        `gorm:"not null"                                       json:"seq_no"`
	GoalType        string     `gorm:"type:varchar(20);not null"                      json:"goal_type"` // study | practice_questions | review
	DisciplineID    string     `gorm:"type:uuid;not null"                             json:"discipline_id"`
	SubjectID       string     `gorm:"type:uuid;not null"                             json:"subject_id"`
	TopicID         *string    `gorm:"type:uuid"                                      json:"topic_id,omitempty"`
	SubtopicID      *string    `gorm:"type:uuid"                                      json:"subtopic_id,omitempty"`
	DurationMinutes int        `gorm:"not null"                                       json:"duration_minutes"`
	ScheduledDate   time.Time  `gorm:"type:date;not null"                             json:"scheduled_date"`
	Status          string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | in_progress | completed | omitted
	Guidance        *string    `gorm:"type:text"                                      json:"guidance,omitempty"`
	IsFixed         bool       `gorm:"not null;default:false"                         json:"is_fixed"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	ActualSeconds   *int       `json:"actual_seconds,omitempty"`
	OmitReason      *string    `gorm:"type:varchar(200)"                              json:"omit_reason,omitempty"`
	OmitNote        *string    `gorm:"type:varchar(500)"                              json:"omit_note,omitempty"`
	VersionedModel

	// 关联
	Plan *StudyPlan `gorm:"foreignKey:PlanID;references:PlanID" json:"plan,omitempty"`
}

func (Goal) TableName() string { return "goals" }

// SeqLabel 展示用序号标签，如 "#007"
func (g *Goal) SeqLabel() string {
	return fmt.Sprintf("#%03d", g.SeqNo)
}

// IsTerminal 目标是否处于终态
func (g *Goal) IsTerminal() bool {
	return g.Status == GoalStatusCompleted || g.Status == GoalStatusOmitted
}

package model

import (
	"math"
	"time"
)

// StudyPlan 学习计划表 — 对应 study_plans
//
// AvailableDays 为 7 位星期掩码：bit 0 = 周日 … bit 6 = 周六。
// 0 表示没有任何可用日（合法，但所有调度都会失败）。
type StudyPlan struct {
	PlanID        string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"plan_id"`
	UserID        string  `gorm:"type:uuid;not null"                             json:"user_id"`
	Name          string  `gorm:"type:varchar(200);not null"                     json:"name"`
	Description   *string `gorm:"type:varchar(1000)"                             json:"description,omitempty"`
	HoursPerDay   float64 `gorm:"type:numeric(4,2);not null"                     json:"hours_per_day"`
	AvailableDays int     `gorm:"type:smallint;not null"                         json:"available_days"`
	IsActive      bool    `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// 关联
	Owner *User  `gorm:"foreignKey:UserID;references:UserID" json:"owner,omitempty"`
	Goals []Goal `gorm:"foreignKey:PlanID"                   json:"goals,omitempty"`
}

func (StudyPlan) TableName() string { return "study_plans" }

// CapacityMinutes 每日时间预算（分钟）
func (p *StudyPlan) CapacityMinutes() int {
	return int(math.Round(p.HoursPerDay * 60))
}

// AllowsDate 判断日期所在星期是否在可用掩码内
func (p *StudyPlan) AllowsDate(date time.Time) bool {
	return p.AvailableDays&(1<<int(date.Weekday())) != 0
}

package model

import "time"

// ── 学科树（只读参照数据：学科 → 科目 → 主题 → 子主题） ──
//
// 调度引擎仅把这些 ID 当作不透明外键存入目标，不校验内容。

// Discipline 学科表 — 对应 disciplines
type Discipline struct {
	DisciplineID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"discipline_id"`
	Name         string    `gorm:"type:varchar(200);not null"                     json:"name"`
	Position     int       `gorm:"not null;default:0"                             json:"position"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	Subjects []Subject `gorm:"foreignKey:DisciplineID" json:"subjects,omitempty"`
}

func (Discipline) TableName() string { return "disciplines" }

// Subject 科目表 — 对应 subjects
type Subject struct {
	SubjectID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"subject_id"`
	DisciplineID string    `gorm:"type:uuid;not null"                             json:"discipline_id"`
	Name         string    `gorm:"type:varchar(200);not null"                     json:"name"`
	Position     int       `gorm:"not null;default:0"                             json:"position"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	Topics []Topic `gorm:"foreignKey:SubjectID" json:"topics,omitempty"`
}

func (Subject) TableName() string { return "subjects" }

// Topic 主题表 — 对应 topics
type Topic struct {
	TopicID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"topic_id"`
	SubjectID string    `gorm:"type:uuid;not null"                             json:"subject_id"`
	Name      string    `gorm:"type:varchar(200);not null"                     json:"name"`
	Position  int       `gorm:"not null;default:0"                             json:"position"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	Subtopics []Subtopic `gorm:"foreignKey:TopicID" json:"subtopics,omitempty"`
}

func (Topic) TableName() string { return "topics" }

// Subtopic 子主题表 — 对应 subtopics
type Subtopic struct {
	SubtopicID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"subtopic_id"`
	TopicID    string    `gorm:"type:uuid;not null"                             json:"topic_id"`
	Name       string    `gorm:"type:varchar(200);not null"                     json:"name"`
	Position   int       `gorm:"not null;default:0"                             json:"position"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

func (Subtopic) TableName() string { return "subtopics" }

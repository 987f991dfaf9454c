package dto

// ── 知识分类模块 DTO ──

// SubtopicResponse 子主题响应
type SubtopicResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// TopicResponse 主题响应
type TopicResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Position  int                `json:"position"`
	Subtopics []SubtopicResponse `json:"subtopics,omitempty"`
}

// SubjectResponse 科目响应
type SubjectResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Position int             `json:"position"`
	Topics   []TopicResponse `json:"topics,omitempty"`
}

// DisciplineResponse 学科响应
type DisciplineResponse struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Position int               `json:"position"`
	Subjects []SubjectResponse `json:"subjects,omitempty"`
}

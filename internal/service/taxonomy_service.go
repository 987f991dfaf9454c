package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"studyflow/backend/internal/dto"
	"studyflow/backend/internal/model"
	"studyflow/backend/internal/repository"
)

// ── 知识分类模块业务错误 ──

var ErrDisciplineNotFound = errors.New("学科不存在")

// TaxonomyService 知识分类业务接口（只读目录）
type TaxonomyService interface {
	ListDisciplines(ctx context.Context) ([]dto.DisciplineResponse, error)
	GetDisciplineTree(ctx context.Context, disciplineID string) (*dto.DisciplineResponse, error)
}

type taxonomyService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTaxonomyService 创建 TaxonomyService 实例
func NewTaxonomyService(repo *repository.Repository, logger *zap.Logger) TaxonomyService {
	return &taxonomyService{repo: repo, logger: logger}
}

func (s *taxonomyService) ListDisciplines(ctx context.Context) ([]dto.DisciplineResponse, error) {
	disciplines, err := s.repo.Taxonomy.ListDisciplines(ctx)
	if err != nil {
		s.logger.Error("列出学科失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.DisciplineResponse, 0, len(disciplines))
	for i := range disciplines {
		d := &disciplines[i]
		result = append(result, dto.DisciplineResponse{
			ID:       d.DisciplineID,
			Name:     d.Name,
			Position: d.Position,
		})
	}
	return result, nil
}

func (s *taxonomyService) GetDisciplineTree(ctx context.Context, disciplineID string) (*dto.DisciplineResponse, error) {
	discipline, err := s.repo.Taxonomy.GetDisciplineTree(ctx, disciplineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDisciplineNotFound
		}
		s.logger.Error("查询学科树失败", zap.String("discipline_id", disciplineID), zap.Error(err))
		return nil, err
	}
	return toDisciplineTree(discipline), nil
}

// ── 内部辅助方法 ──

func toDisciplineTree(d *model.Discipline) *dto.DisciplineResponse {
	resp := &dto.DisciplineResponse{
		ID:       d.DisciplineID,
		Name:     d.Name,
		Position: d.Position,
		Subjects: make([]dto.SubjectResponse, 0, len(d.Subjects)),
	}
	for i := range d.Subjects {
		sub := &d.Subjects[i]
		subResp := dto.SubjectResponse{
			ID:       sub.SubjectID,
			Name:     sub.Name,
			Position: sub.Position,
			Topics:   make([]dto.TopicResponse, 0, len(sub.Topics)),
		}
		for j := range sub.Topics {
			topic := &sub.Topics[j]
			topicResp := dto.TopicResponse{
				ID:        topic.TopicID,
				Name:      topic.Name,
				Position:  topic.Position,
				Subtopics: make([]dto.SubtopicResponse, 0, len(topic.Subtopics)),
			}
			for k := range topic.Subtopics {
				st := &topic.Subtopics[k]
				topicResp.Subtopics = append(topicResp.Subtopics, dto.SubtopicResponse{
					ID:       st.SubtopicID,
					Name:     st.Name,
					Position: st.Position,
				})
			}
			subResp.Topics = append(subResp.Topics, topicResp)
		}
		resp.Subjects = append(resp.Subjects, subResp)
	}
	return resp
}

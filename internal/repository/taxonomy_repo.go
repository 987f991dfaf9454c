package repository

import (
	"context"

	"gorm.io/gorm"

	"studyflow/backend/internal/model"
)

// TaxonomyRepository 知识分类数据访问接口（只读目录）
type TaxonomyRepository interface {
	ListDisciplines(ctx context.Context) ([]model.Discipline, error)
	GetDisciplineTree(ctx context.Context, disciplineID string) (*model.Discipline, error)
	ListSubjects(ctx context.Context, disciplineID string) ([]model.Subject, error)

	// SubjectNames 按 ID 批量查询科目名称
	SubjectNames(ctx context.Context, ids []string) (map[string]string, error)

	// ValidatePath 校验学科/科目/主题/子主题层级引用是否一致，
	// 返回各层是否存在且父子关系正确
	ValidatePath(ctx context.Context, disciplineID, subjectID string, topicID, subtopicID *string) (bool, error)
}

// taxonomyRepo TaxonomyRepository 的 GORM 实现
type taxonomyRepo struct {
	db *gorm.DB
}

// NewTaxonomyRepo 创建 TaxonomyRepository 实例
func NewTaxonomyRepo(db *gorm.DB) TaxonomyRepository {
	return &taxonomyRepo{db: db}
}

func (r *taxonomyRepo) ListDisciplines(ctx context.Context) ([]model.Discipline, error) {
	var disciplines []model.Discipline
	err := r.db.WithContext(ctx).
		Order("position ASC, name ASC").
		Find(&disciplines).Error
	return disciplines, err
}

func (r *taxonomyRepo) GetDisciplineTree(ctx context.Context, disciplineID string) (*model.Discipline, error) {
	var discipline model.Discipline
	err := r.db.WithContext(ctx).
		Preload("Subjects", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, name ASC")
		}).
		Preload("Subjects.Topics", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, name ASC")
		}).
		Preload("Subjects.Topics.Subtopics", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, name ASC")
		}).
		Where("discipline_id = ?", disciplineID).
		First(&discipline).Error
	if err != nil {
		return nil, err
	}
	return &discipline, nil
}

func (r *taxonomyRepo) ListSubjects(ctx context.Context, disciplineID string) ([]model.Subject, error) {
	var subjects []model.Subject
	err := r.db.WithContext(ctx).
		Where("discipline_id = ?", disciplineID).
		Order("position ASC, name ASC").
		Find(&subjects).Error
	return subjects, err
}

func (r *taxonomyRepo) SubjectNames(ctx context.Context, ids []string) (map[string]string, error) {
	result := make(map[string]string)
	if len(ids) == 0 {
		return result, nil
	}

	var subjects []model.Subject
	err := r.db.WithContext(ctx).
		Where("subject_id IN ?", ids).
		Find(&subjects).Error
	if err != nil {
		return nil, err
	}
	for i := range subjects {
		result[subjects[i].SubjectID] = subjects[i].Name
	}
	return result, nil
}

func (r *taxonomyRepo) ValidatePath(ctx context.Context, disciplineID, subjectID string, topicID, subtopicID *string) (bool, error) {
	// 子主题必须挂在主题下
	if subtopicID != nil && topicID == nil {
		return false, nil
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&model.Subject{}).
		Where("subject_id = ? AND discipline_id = ?", subjectID, disciplineID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count == 0 {
		return false, nil
	}

	if topicID != nil {
		err = r.db.WithContext(ctx).Model(&model.Topic{}).
			Where("topic_id = ? AND subject_id = ?", *topicID, subjectID).
			Count(&count).Error
		if err != nil {
			return false, err
		}
		if count == 0 {
			return false, nil
		}
	}

	if subtopicID != nil {
		err = r.db.WithContext(ctx).Model(&model.Subtopic{}).
			Where("subtopic_id = ? AND topic_id = ?", *subtopicID, *topicID).
			Count(&count).Error
		if err != nil {
			return false, err
		}
		if count == 0 {
			return false, nil
		}
	}

	return true, nil
}

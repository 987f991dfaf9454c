package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"studyflow/backend/internal/model"
	"studyflow/backend/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users     map[string]*model.User
	idCounter int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		m.idCounter++
		user.UserID = fmt.Sprintf("user-%d", m.idCounter)
	}
	user.Version = 1
	user.CreatedAt = time.Now()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.UserID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *user
	cp.Version++
	m.users[user.UserID] = &cp
	user.Version = cp.Version
	return nil
}

func (m *mockUserRepo) List(_ context.Context, offset, limit int) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		result = append(result, *u)
	}
	return result, int64(len(result)), nil
}

// ── Mock PlanRepository ──

type mockPlanRepo struct {
	plans     map[string]*model.StudyPlan
	idCounter int
}

func newMockPlanRepo() *mockPlanRepo {
	return &mockPlanRepo{plans: make(map[string]*model.StudyPlan)}
}

func (m *mockPlanRepo) Create(_ context.Context, plan *model.StudyPlan) error {
	if plan.PlanID == "" {
		m.idCounter++
		plan.PlanID = fmt.Sprintf("plan-%d", m.idCounter)
	}
	plan.Version = 1
	plan.CreatedAt = time.Now()
	m.plans[plan.PlanID] = plan
	return nil
}

func (m *mockPlanRepo) GetByID(_ context.Context, id string) (*model.StudyPlan, error) {
	if p, ok := m.plans[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPlanRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]model.StudyPlan, int64, error) {
	var result []model.StudyPlan
	for _, p := range m.plans {
		if p.UserID == userID {
			result = append(result, *p)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockPlanRepo) Update(_ context.Context, plan *model.StudyPlan) error {
	if _, ok := m.plans[plan.PlanID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *plan
	cp.Version++
	m.plans[plan.PlanID] = &cp
	plan.Version = cp.Version
	return nil
}

func (m *mockPlanRepo) Delete(_ context.Context, id string) error {
	delete(m.plans, id)
	return nil
}

// ── Mock GoalRepository ──
//
// 模拟 (plan_id, seq_no) 唯一约束：冲突时返回 gorm.ErrDuplicatedKey，
// 用于覆盖序号分配的重试路径。软删除仅打标记，序号不回收。

type mockGoalRepo struct {
	goals     map[string]*model.Goal
	deleted   map[string]*model.Goal
	idCounter int

	// seqConflictsLeft > 0 时 Create 先返回唯一约束冲突（测试重试路径）
	seqConflictsLeft int
}

func newMockGoalRepo() *mockGoalRepo {
	return &mockGoalRepo{
		goals:   make(map[string]*model.Goal),
		deleted: make(map[string]*model.Goal),
	}
}

func (m *mockGoalRepo) Create(_ context.Context, goal *model.Goal) error {
	if m.seqConflictsLeft > 0 {
		m.seqConflictsLeft--
		return gorm.ErrDuplicatedKey
	}
	for _, g := range m.goals {
		if g.PlanID == goal.PlanID && g.SeqNo == goal.SeqNo {
			return gorm.ErrDuplicatedKey
		}
	}
	for _, g := range m.deleted {
		if g.PlanID == goal.PlanID && g.SeqNo == goal.SeqNo {
			return gorm.ErrDuplicatedKey
		}
	}
	// 自动分配 ID 时跳过已占用的主键，避免覆盖预置记录
	for goal.GoalID == "" {
		m.idCounter++
		id := fmt.Sprintf("goal-%d", m.idCounter)
		if _, taken := m.goals[id]; taken {
			continue
		}
		if _, taken := m.deleted[id]; taken {
			continue
		}
		goal.GoalID = id
	}
	goal.Version = 1
	goal.CreatedAt = time.Now()
	cp := *goal
	m.goals[goal.GoalID] = &cp
	return nil
}

func (m *mockGoalRepo) BatchCreate(ctx context.Context, goals []model.Goal) error {
	for i := range goals {
		if err := m.Create(ctx, &goals[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockGoalRepo) GetByID(_ context.Context, id string) (*model.Goal, error) {
	if g, ok := m.goals[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGoalRepo) ListByPlan(_ context.Context, planID string, filter repository.GoalFilter, offset, limit int) ([]model.Goal, int64, error) {
	var result []model.Goal
	for _, g := range m.goals {
		if g.PlanID != planID {
			continue
		}
		if filter.Status != nil && g.Status != *filter.Status {
			continue
		}
		if filter.GoalType != nil && g.GoalType != *filter.GoalType {
			continue
		}
		if filter.DateFrom != nil && g.ScheduledDate.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && g.ScheduledDate.After(*filter.DateTo) {
			continue
		}
		result = append(result, *g)
	}
	sortGoals(result)
	return result, int64(len(result)), nil
}

func (m *mockGoalRepo) ListByPlanAndDateRange(_ context.Context, planID string, from, to time.Time) ([]model.Goal, error) {
	var result []model.Goal
	for _, g := range m.goals {
		if g.PlanID == planID && !g.ScheduledDate.Before(from) && !g.ScheduledDate.After(to) {
			result = append(result, *g)
		}
	}
	sortGoals(result)
	return result, nil
}

func (m *mockGoalRepo) Update(_ context.Context, goal *model.Goal) error {
	if _, ok := m.goals[goal.GoalID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *goal
	cp.Version++
	m.goals[goal.GoalID] = &cp
	goal.Version = cp.Version
	return nil
}

func (m *mockGoalRepo) Delete(_ context.Context, id string) error {
	if g, ok := m.goals[id]; ok {
		m.deleted[id] = g
		delete(m.goals, id)
	}
	return nil
}

func (m *mockGoalRepo) DeleteByPlan(_ context.Context, planID string) error {
	for id, g := range m.goals {
		if g.PlanID == planID {
			m.deleted[id] = g
			delete(m.goals, id)
		}
	}
	return nil
}

func (m *mockGoalRepo) SumDurationOnDate(_ context.Context, planID string, date time.Time, excludeGoalID string) (int, error) {
	sum := 0
	for _, g := range m.goals {
		if g.PlanID != planID || !g.ScheduledDate.Equal(date) {
			continue
		}
		if g.Status == model.GoalStatusOmitted {
			continue
		}
		if excludeGoalID != "" && g.GoalID == excludeGoalID {
			continue
		}
		sum += g.DurationMinutes
	}
	return sum, nil
}

func (m *mockGoalRepo) MaxSeqNo(_ context.Context, planID string) (int, error) {
	max := 0
	for _, g := range m.goals {
		if g.PlanID == planID && g.SeqNo > max {
			max = g.SeqNo
		}
	}
	for _, g := range m.deleted {
		if g.PlanID == planID && g.SeqNo > max {
			max = g.SeqNo
		}
	}
	return max, nil
}

func (m *mockGoalRepo) ExistsDuplicate(_ context.Context, planID, goalType, disciplineID, subjectID string, topicID, subtopicID *string, date time.Time) (bool, error) {
	for _, g := range m.goals {
		if g.PlanID != planID || g.GoalType != goalType || g.Status == model.GoalStatusOmitted {
			continue
		}
		if g.DisciplineID != disciplineID || g.SubjectID != subjectID {
			continue
		}
		if !g.ScheduledDate.Equal(date) {
			continue
		}
		if !ptrEqual(g.TopicID, topicID) || !ptrEqual(g.SubtopicID, subtopicID) {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (m *mockGoalRepo) AggregateProgress(_ context.Context, planID string) (*repository.ProgressAgg, error) {
	agg := &repository.ProgressAgg{}
	for _, g := range m.goals {
		if g.PlanID != planID {
			continue
		}
		agg.TotalGoals++
		switch g.Status {
		case model.GoalStatusPending:
			agg.Pending++
		case model.GoalStatusInProgress:
			agg.InProgress++
		case model.GoalStatusCompleted:
			agg.Completed++
			agg.CompletedMinutes += g.DurationMinutes
		case model.GoalStatusOmitted:
			agg.Omitted++
		}
		if g.Status != model.GoalStatusOmitted {
			agg.PlannedMinutes += g.DurationMinutes
		}
		if g.ActualSeconds != nil {
			agg.ActualStudySeconds += *g.ActualSeconds
		}
	}
	return agg, nil
}

func (m *mockGoalRepo) AggregateBySubject(_ context.Context, planID string) ([]repository.SubjectAgg, error) {
	byID := make(map[string]*repository.SubjectAgg)
	var order []string
	for _, g := range m.goals {
		if g.PlanID != planID {
			continue
		}
		agg := byID[g.SubjectID]
		if agg == nil {
			agg = &repository.SubjectAgg{SubjectID: g.SubjectID, SubjectName: g.SubjectID}
			byID[g.SubjectID] = agg
			order = append(order, g.SubjectID)
		}
		agg.TotalGoals++
		if g.Status == model.GoalStatusCompleted {
			agg.Completed++
		}
		if g.Status != model.GoalStatusOmitted {
			agg.PlannedMinutes += g.DurationMinutes
		}
		if g.ActualSeconds != nil {
			agg.ActualSeconds += *g.ActualSeconds
		}
	}
	result := make([]repository.SubjectAgg, 0, len(order))
	for _, id := range order {
		result = append(result, *byID[id])
	}
	return result, nil
}

// ── Mock TaxonomyRepository ──

type mockTaxonomyRepo struct {
	disciplines map[string]*model.Discipline
	subjects    map[string]*model.Subject
	topics      map[string]*model.Topic
	subtopics   map[string]*model.Subtopic
}

func newMockTaxonomyRepo() *mockTaxonomyRepo {
	return &mockTaxonomyRepo{
		disciplines: make(map[string]*model.Discipline),
		subjects:    make(map[string]*model.Subject),
		topics:      make(map[string]*model.Topic),
		subtopics:   make(map[string]*model.Subtopic),
	}
}

func (m *mockTaxonomyRepo) addPath(disciplineID, subjectID string) {
	m.disciplines[disciplineID] = &model.Discipline{DisciplineID: disciplineID, Name: disciplineID}
	m.subjects[subjectID] = &model.Subject{SubjectID: subjectID, DisciplineID: disciplineID, Name: subjectID}
}

func (m *mockTaxonomyRepo) ListDisciplines(_ context.Context) ([]model.Discipline, error) {
	var result []model.Discipline
	for _, d := range m.disciplines {
		result = append(result, *d)
	}
	return result, nil
}

func (m *mockTaxonomyRepo) GetDisciplineTree(_ context.Context, disciplineID string) (*model.Discipline, error) {
	if d, ok := m.disciplines[disciplineID]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTaxonomyRepo) ListSubjects(_ context.Context, disciplineID string) ([]model.Subject, error) {
	var result []model.Subject
	for _, s := range m.subjects {
		if s.DisciplineID == disciplineID {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockTaxonomyRepo) SubjectNames(_ context.Context, ids []string) (map[string]string, error) {
	result := make(map[string]string)
	for _, id := range ids {
		if s, ok := m.subjects[id]; ok {
			result[id] = s.Name
		}
	}
	return result, nil
}

func (m *mockTaxonomyRepo) ValidatePath(_ context.Context, disciplineID, subjectID string, topicID, subtopicID *string) (bool, error) {
	if subtopicID != nil && topicID == nil {
		return false, nil
	}
	s, ok := m.subjects[subjectID]
	if !ok || s.DisciplineID != disciplineID {
		return false, nil
	}
	if topicID != nil {
		t, ok := m.topics[*topicID]
		if !ok || t.SubjectID != subjectID {
			return false, nil
		}
	}
	if subtopicID != nil {
		st, ok := m.subtopics[*subtopicID]
		if !ok || st.TopicID != *topicID {
			return false, nil
		}
	}
	return true, nil
}

// ── Mock RuleRepository ──

type mockRuleRepo struct {
	rules map[string]*model.SchedulingRule
}

func newMockRuleRepo() *mockRuleRepo {
	return &mockRuleRepo{rules: make(map[string]*model.SchedulingRule)}
}

func (m *mockRuleRepo) setRule(code string, enabled, configurable bool) {
	m.rules[code] = &model.SchedulingRule{
		RuleID:         "rule-" + code,
		RuleCode:       code,
		RuleName:       code,
		IsEnabled:      enabled,
		IsConfigurable: configurable,
	}
}

func (m *mockRuleRepo) List(_ context.Context) ([]model.SchedulingRule, error) {
	var result []model.SchedulingRule
	for _, r := range m.rules {
		result = append(result, *r)
	}
	return result, nil
}

func (m *mockRuleRepo) GetByCode(_ context.Context, code string) (*model.SchedulingRule, error) {
	if r, ok := m.rules[code]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRuleRepo) Update(_ context.Context, rule *model.SchedulingRule) error {
	if _, ok := m.rules[rule.RuleCode]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *rule
	m.rules[rule.RuleCode] = &cp
	return nil
}

// ── 测试辅助 ──

// sortGoals 与真实仓储一致：按排期日期、序号升序
func sortGoals(goals []model.Goal) {
	sort.Slice(goals, func(i, j int) bool {
		if !goals[i].ScheduledDate.Equal(goals[j].ScheduledDate) {
			return goals[i].ScheduledDate.Before(goals[j].ScheduledDate)
		}
		return goals[i].SeqNo < goals[j].SeqNo
	})
}

func ptrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// newTestRepo 组装一套内存聚合，返回聚合与各 mock 以便预置数据
func newTestRepo() (*repository.Repository, *mockUserRepo, *mockPlanRepo, *mockGoalRepo, *mockTaxonomyRepo, *mockRuleRepo) {
	userRepo := newMockUserRepo()
	planRepo := newMockPlanRepo()
	goalRepo := newMockGoalRepo()
	taxRepo := newMockTaxonomyRepo()
	ruleRepo := newMockRuleRepo()

	repo := &repository.Repository{
		User:     userRepo,
		Plan:     planRepo,
		Goal:     goalRepo,
		Taxonomy: taxRepo,
		Rule:     ruleRepo,
	}
	return repo, userRepo, planRepo, goalRepo, taxRepo, ruleRepo
}

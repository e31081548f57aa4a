package solver

import (
	"fmt"
	"sort"

	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/logger"
	"github.com/paike/paike/pkg/model"
	"github.com/paike/paike/pkg/scheduler/constraint"
	"github.com/paike/paike/pkg/scheduler/preference"
)

// Formulation 把问题实例编译为回溯搜索引擎
// 每个 (课程, 时间段) 对是一个变量，值域为按偏好分降序排列的
// (合格教师, 可用教室) 组合，末尾附加空置取值。
type Formulation struct {
	tables *model.Tables
	scorer *preference.Scorer
	logger *logger.SolverLogger
}

// NewFormulation 创建建模器
func NewFormulation(tables *model.Tables) *Formulation {
	return &Formulation{
		tables: tables,
		scorer: preference.NewScorer(tables),
		logger: logger.NewSolverLogger(),
	}
}

// BuildEngine 注册全部变量、值域与硬约束谓词
// 任何课程若不存在真实候选取值（没有学时充足的合格教师，或没有
// 符合要求的教室），建模即失败并报告该课程，不允许静默丢弃。
func (f *Formulation) BuildEngine() (*Engine, error) {
	engine := NewEngine()
	tables := f.tables
	total := len(tables.Subjects) * len(tables.Timeslots)

	for _, subject := range tables.Subjects {
		faculty := f.eligibleFaculty(subject)
		rooms := tables.EligibleClassrooms(subject)

		if len(faculty) == 0 {
			f.logger.DomainEmpty(subject.Name, "没有学时充足的合格教师")
			return nil, errors.InvalidDomain(
				fmt.Sprintf("课程 %s", subject.Name),
				"没有学时充足的合格教师")
		}
		if len(rooms) == 0 {
			reason := "没有可用教室"
			if subject.IsLab() {
				reason = "没有可用的实验教室"
			}
			f.logger.DomainEmpty(subject.Name, reason)
			return nil, errors.InvalidDomain(fmt.Sprintf("课程 %s", subject.Name), reason)
		}

		for _, slot := range tables.Timeslots {
			v := model.Variable{SubjectID: subject.ID, TimeslotID: slot.ID}
			domain := f.domainFor(faculty, rooms, slot)
			domain = append(domain, model.FreeSlot)
			if err := engine.AddVariable(v, domain); err != nil {
				return nil, err
			}
		}
	}

	// 五条硬约束，加上单次安排与完整覆盖两条结构性约束
	engine.AddConstraint(constraint.FacultyConflictOK)
	engine.AddConstraint(constraint.ClassroomConflictOK)
	engine.AddConstraint(func(a model.Assignment) bool { return constraint.WorkloadOK(tables, a) })
	engine.AddConstraint(func(a model.Assignment) bool { return constraint.LabRoomOK(tables, a) })
	engine.AddConstraint(func(a model.Assignment) bool { return constraint.QualificationOK(tables, a) })
	engine.AddConstraint(constraint.SingleMeetingOK)
	engine.AddConstraint(func(a model.Assignment) bool { return constraint.CoverageOK(tables, a, total) })

	return engine, nil
}

// eligibleFaculty 返回具备资格且学时上限足够承担该课程的教师
// 上限不足的教师在任何完整方案中都无法讲授这门课，建模期剪掉。
func (f *Formulation) eligibleFaculty(subject *model.Subject) []*model.Faculty {
	var result []*model.Faculty
	for _, fac := range f.tables.QualifiedFaculty(subject.ID) {
		if fac.MaxHours < subject.Hours {
			continue
		}
		result = append(result, fac)
	}
	return result
}

// domainFor 构造某时间段上的真实候选取值
// 按偏好分降序排列，分数相同按教师ID、教室ID升序保证确定性。
func (f *Formulation) domainFor(faculty []*model.Faculty, rooms []*model.Classroom, slot *model.Timeslot) []model.Value {
	type scoredValue struct {
		value model.Value
		score float64
	}

	values := make([]scoredValue, 0, len(faculty)*len(rooms))
	for _, fac := range faculty {
		score := f.scorer.Score(fac, slot, nil)
		for _, room := range rooms {
			values = append(values, scoredValue{
				value: model.Value{FacultyID: fac.ID, ClassroomID: room.ID},
				score: score,
			})
		}
	}

	sort.SliceStable(values, func(i, j int) bool {
		if values[i].score != values[j].score {
			return values[i].score > values[j].score
		}
		if values[i].value.FacultyID != values[j].value.FacultyID {
			return values[i].value.FacultyID < values[j].value.FacultyID
		}
		return values[i].value.ClassroomID < values[j].value.ClassroomID
	})

	domain := make([]model.Value, len(values))
	for i, sv := range values {
		domain[i] = sv.value
	}
	return domain
}

// LabSeed 为实验课变量构造预置安排
// 按 (课程ID, 时间段ID) 顺序遍历实验课变量，每个变量取值域中第一个
// 与已构造部分一致的取值。真实取值排在空置取值之前，因此每门实验课
// 先取得一次真实安排，其余时段被固定为空置。
func (f *Formulation) LabSeed(engine *Engine) model.Assignment {
	labs := f.tables.LabSubjects()
	sort.SliceStable(labs, func(i, j int) bool { return labs[i].ID < labs[j].ID })

	seed := make(model.Assignment)
	for _, subject := range labs {
		for _, slot := range f.tables.Timeslots {
			v := model.Variable{SubjectID: subject.ID, TimeslotID: slot.ID}
			for _, val := range engine.Domain(v) {
				seed[v] = val
				if engine.consistent(seed) {
					break
				}
				delete(seed, v)
			}
		}
	}
	return seed
}

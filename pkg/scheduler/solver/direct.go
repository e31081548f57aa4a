package solver

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/paike/paike/pkg/logger"
	"github.com/paike/paike/pkg/model"
	"github.com/paike/paike/pkg/scheduler/constraint"
	"github.com/paike/paike/pkg/scheduler/preference"
)

// DirectSolver 直接构造求解器
// 单遍贪心启发式：课程按受约束程度排序后逐一安排，不做跨课程回溯，
// 任何一门课程找不到可行组合即整体失败。
type DirectSolver struct {
	constraintManager *constraint.Manager
	logger            *logger.SolverLogger
}

// NewDirectSolver 创建直接构造求解器
func NewDirectSolver(cm *constraint.Manager) *DirectSolver {
	return &DirectSolver{
		constraintManager: cm,
		logger:            logger.NewSolverLogger(),
	}
}

// Name 返回求解器名称
func (s *DirectSolver) Name() string {
	return "DirectSolver"
}

// Solve 单遍构造完整课表
// 每门课程恰好安排一次；失败时返回 Success=false 并保留已构造的部分课表供诊断。
func (s *DirectSolver) Solve(ctx context.Context, schedCtx *constraint.Context) (*Result, error) {
	startTime := time.Now()
	tables := schedCtx.Tables
	s.logger.StartSolve(string(model.StrategyDirect), len(tables.Subjects), len(tables.Subjects))

	result := &Result{
		Statistics: &Statistics{Strategy: string(model.StrategyDirect)},
		Success:    false,
	}

	// 检查输入
	if len(tables.Subjects) == 0 {
		result.Success = true
		result.Message = "没有待安排课程"
		result.Assignment = schedCtx.Assignment.Clone()
		result.Duration = time.Since(startTime)
		return result, nil
	}

	scorer := preference.NewScorer(tables)

	// 实验课优先、课时多者在前：最受约束的课程最先安排
	subjects := orderSubjects(tables.Subjects)

	var nodes int64
	var failedSubject *model.Subject

	for _, subject := range subjects {
		if ctx.Err() != nil {
			result.Duration = time.Since(startTime)
			return result, ctx.Err()
		}

		placed := false
		for _, f := range s.orderFaculty(schedCtx, subject) {
			// 接下这门课会超出学时上限的教师直接跳过
			if schedCtx.FacultyHours(f.ID)+subject.Hours > f.MaxHours {
				continue
			}

			for _, slot := range s.orderTimeslots(schedCtx, scorer, subject, f) {
				for _, room := range s.orderClassrooms(schedCtx, subject, slot) {
					nodes++
					v := model.Variable{SubjectID: subject.ID, TimeslotID: slot.ID}
					val := model.Value{FacultyID: f.ID, ClassroomID: room.ID}

					ok, reason := s.constraintManager.CanAssign(schedCtx, v, val)
					if !ok {
						s.logger.ConstraintViolation(reason, fmt.Sprintf("课程 %s / 教师 %s", subject.Name, f.Name))
						continue
					}

					schedCtx.Assign(v, val)
					placed = true
					break
				}
				if placed {
					break
				}
			}
			if placed {
				break
			}
		}

		if !placed {
			failedSubject = subject
			break
		}
	}

	result.Assignment = schedCtx.Assignment.Clone()
	result.ConstraintResult = s.constraintManager.Evaluate(schedCtx)
	result.Duration = time.Since(startTime)
	result.Statistics.Nodes = nodes
	result.Statistics.TotalVariables = len(tables.Subjects)
	result.Statistics.fillPlacement(tables, result.Assignment)

	if failedSubject != nil {
		result.Message = fmt.Sprintf("课程 %s 没有可行的教师/时段/教室组合", failedSubject.Name)
		s.logger.SolveFailed(string(model.StrategyDirect), result.Duration, fmt.Errorf("%s", result.Message))
		return result, nil
	}

	result.Success = result.ConstraintResult.IsValid
	if result.Success {
		result.Message = fmt.Sprintf("排课成功，共安排 %d 门课程", result.Statistics.PlacedSubjects)
		s.logger.SolveComplete(string(model.StrategyDirect), result.Statistics.PlacedSubjects, result.Duration, nodes, 0)
	} else {
		result.Message = fmt.Sprintf("存在 %d 个硬约束违反", len(result.ConstraintResult.HardViolations))
		s.logger.SolveFailed(string(model.StrategyDirect), result.Duration, fmt.Errorf("%s", result.Message))
	}

	return result, nil
}

// orderSubjects 按受约束程度排序课程
// 实验课在前（按总课时降序），理论课在后（按课时降序），同序按ID保证确定性。
func orderSubjects(subjects []*model.Subject) []*model.Subject {
	ordered := make([]*model.Subject, len(subjects))
	copy(ordered, subjects)

	sort.SliceStable(ordered, func(i, j int) bool {
		si, sj := ordered[i], ordered[j]
		if si.IsLab() != sj.IsLab() {
			return si.IsLab()
		}
		if si.IsLab() {
			if si.TotalHours() != sj.TotalHours() {
				return si.TotalHours() > sj.TotalHours()
			}
		} else if si.Hours != sj.Hours {
			return si.Hours > sj.Hours
		}
		return si.ID < sj.ID
	})
	return ordered
}

// orderFaculty 返回按负载与专精度排序的合格教师
// 评分 = 学时占用率 - 0.5×专精度，升序：偏向空闲且课程面更窄的教师。
func (s *DirectSolver) orderFaculty(schedCtx *constraint.Context, subject *model.Subject) []*model.Faculty {
	tables := schedCtx.Tables
	candidates := tables.QualifiedFaculty(subject.ID)

	score := func(f *model.Faculty) float64 {
		maxHours := f.MaxHours
		if maxHours < 1 {
			maxHours = 1
		}
		hourRatio := float64(schedCtx.FacultyHours(f.ID)) / float64(maxHours)
		specialization := 1.0 / float64(max(1, tables.QualificationCount(f)))
		return hourRatio - 0.5*specialization
	}

	ordered := make([]*model.Faculty, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		si, sj := score(ordered[i]), score(ordered[j])
		if si != sj {
			return si < sj
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}

// orderTimeslots 返回教师空闲的时间段
// 按偏好分降序排列，同分时先用可用教室少的紧张时段，把充裕时段留给后续课程。
func (s *DirectSolver) orderTimeslots(schedCtx *constraint.Context, scorer *preference.Scorer, subject *model.Subject, f *model.Faculty) []*model.Timeslot {
	tables := schedCtx.Tables

	type scoredSlot struct {
		slot      *model.Timeslot
		pref      float64
		freeRooms int
	}

	var slots []scoredSlot
	for _, slot := range tables.Timeslots {
		if schedCtx.FacultyBusy(f.ID, slot.ID) {
			continue
		}
		free := 0
		for _, room := range tables.EligibleClassrooms(subject) {
			if !schedCtx.ClassroomBusy(room.ID, slot.ID) {
				free++
			}
		}
		slots = append(slots, scoredSlot{
			slot:      slot,
			pref:      scorer.Score(f, slot, schedCtx.Assignment),
			freeRooms: free,
		})
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].pref != slots[j].pref {
			return slots[i].pref > slots[j].pref
		}
		if slots[i].freeRooms != slots[j].freeRooms {
			return slots[i].freeRooms < slots[j].freeRooms
		}
		return slots[i].slot.ID < slots[j].slot.ID
	})

	ordered := make([]*model.Timeslot, len(slots))
	for i, s := range slots {
		ordered[i] = s.slot
	}
	return ordered
}

// orderClassrooms 返回该时段空闲的可用教室
// 理论课优先使用普通教室，把实验室留给实验课。
func (s *DirectSolver) orderClassrooms(schedCtx *constraint.Context, subject *model.Subject, slot *model.Timeslot) []*model.Classroom {
	var rooms []*model.Classroom
	for _, room := range schedCtx.Tables.EligibleClassrooms(subject) {
		if schedCtx.ClassroomBusy(room.ID, slot.ID) {
			continue
		}
		rooms = append(rooms, room)
	}

	sort.SliceStable(rooms, func(i, j int) bool {
		if !subject.IsLab() && rooms[i].HasLab != rooms[j].HasLab {
			return !rooms[i].HasLab
		}
		return rooms[i].ID < rooms[j].ID
	})
	return rooms
}

package scheduler

import (
	"context"
	"testing"

	"github.com/paike/paike/pkg/dataset"
	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/model"
)

func TestBuilderSolveStrategies(t *testing.T) {
	tests := []struct {
		name     string
		strategy model.Strategy
		want     model.Strategy
	}{
		{"直接构造", model.StrategyDirect, model.StrategyDirect},
		{"纯回溯", model.StrategyCSP, model.StrategyCSP},
		{"混合预指派", model.StrategyHybrid, model.StrategyHybrid},
		{"自动选择走直接构造", model.StrategyAuto, model.StrategyDirect},
		{"空策略视为自动", "", model.StrategyDirect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables, err := dataset.Sample().Tables()
			if err != nil {
				t.Fatalf("Tables() error: %v", err)
			}

			builder := NewBuilder(tables)
			solution, err := builder.Solve(context.Background(), tt.strategy)
			if err != nil {
				t.Fatalf("Solve(%q) error: %v", tt.strategy, err)
			}

			if solution.Strategy != tt.want {
				t.Errorf("Strategy = %q, expected %q", solution.Strategy, tt.want)
			}
			if !solution.Result.Success {
				t.Errorf("Result.Success = false, message: %s", solution.Result.Message)
			}
			assertValidMeetings(t, tables, solution.Meetings)
		})
	}
}

func TestBuilderAutoFallback(t *testing.T) {
	// 贪心陷阱：课时最多的课程会被派给唯一能教第二门课的教师，
	// 直接构造因此失败，回溯搜索能交换教师找到可行解
	tables := greedyTrapTables(t)

	// 单独走直接构造确认陷阱生效
	builder := NewBuilder(tables)
	_, err := builder.Solve(context.Background(), model.StrategyDirect)
	if errors.GetCode(err) != errors.CodeNoSolutionFound {
		t.Fatalf("direct strategy error code = %v, expected %v", errors.GetCode(err), errors.CodeNoSolutionFound)
	}

	// 自动策略应转入混合回溯并成功
	builder = NewBuilder(greedyTrapTables(t))
	solution, err := builder.Solve(context.Background(), model.StrategyAuto)
	if err != nil {
		t.Fatalf("auto strategy error: %v", err)
	}
	if solution.Strategy != model.StrategyHybrid {
		t.Errorf("Strategy = %q, expected %q", solution.Strategy, model.StrategyHybrid)
	}
	assertValidMeetings(t, builder.Tables(), solution.Meetings)
}

func TestBuilderInvalidStrategy(t *testing.T) {
	tables, err := dataset.Sample().Tables()
	if err != nil {
		t.Fatalf("Tables() error: %v", err)
	}

	builder := NewBuilder(tables)
	_, err = builder.Solve(context.Background(), model.Strategy("annealing"))

	if errors.GetCode(err) != errors.CodeInvalidInput {
		t.Errorf("error code = %v, expected %v", errors.GetCode(err), errors.CodeInvalidInput)
	}
}

func TestBuilderLabScarceCause(t *testing.T) {
	tables, err := dataset.LabScarce().Tables()
	if err != nil {
		t.Fatalf("Tables() error: %v", err)
	}

	builder := NewBuilder(tables)
	_, err = builder.Solve(context.Background(), model.StrategyAuto)

	if errors.GetCode(err) != errors.CodeNoSolutionFound {
		t.Fatalf("error code = %v, expected %v", errors.GetCode(err), errors.CodeNoSolutionFound)
	}

	// 空值域原因必须随错误一起上报
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("error type = %T, expected *errors.AppError", err)
	}
	if appErr.Cause == nil {
		t.Fatal("expected the empty-domain cause to be attached")
	}
	if errors.GetCode(appErr.Cause) != errors.CodeInvalidDomain {
		t.Errorf("cause code = %v, expected %v", errors.GetCode(appErr.Cause), errors.CodeInvalidDomain)
	}
}

func TestMeetingsFromAssignment(t *testing.T) {
	tables, err := dataset.Sample().Tables()
	if err != nil {
		t.Fatalf("Tables() error: %v", err)
	}

	assignment := model.Assignment{
		{SubjectID: 3, TimeslotID: 5}: {FacultyID: 2, ClassroomID: 1},
		{SubjectID: 4, TimeslotID: 1}: {FacultyID: 4, ClassroomID: 2},
		{SubjectID: 5, TimeslotID: 1}: model.FreeSlot,
	}

	meetings, err := MeetingsFromAssignment(tables, assignment)
	if err != nil {
		t.Fatalf("MeetingsFromAssignment() error: %v", err)
	}

	// 空置安排被跳过，其余按 (时间段, 课程) 排序
	if len(meetings) != 2 {
		t.Fatalf("len(meetings) = %d, expected 2", len(meetings))
	}
	if meetings[0].SubjectID != 4 || meetings[0].TimeslotID != 1 {
		t.Errorf("meetings[0] = (subject=%d, timeslot=%d), expected (4, 1)", meetings[0].SubjectID, meetings[0].TimeslotID)
	}
	if meetings[1].SubjectID != 3 || meetings[1].TimeslotID != 5 {
		t.Errorf("meetings[1] = (subject=%d, timeslot=%d), expected (3, 5)", meetings[1].SubjectID, meetings[1].TimeslotID)
	}

	// 名称字段来自基础表展开
	if meetings[0].SubjectName != "Computer Networks" {
		t.Errorf("SubjectName = %q, expected %q", meetings[0].SubjectName, "Computer Networks")
	}
	if meetings[0].FacultyName != "Prof. Davis" {
		t.Errorf("FacultyName = %q, expected %q", meetings[0].FacultyName, "Prof. Davis")
	}
	if meetings[0].ClassroomName != "Room 102" {
		t.Errorf("ClassroomName = %q, expected %q", meetings[0].ClassroomName, "Room 102")
	}
}

func TestMeetingsFromAssignmentUnknownRecord(t *testing.T) {
	tables, err := dataset.Sample().Tables()
	if err != nil {
		t.Fatalf("Tables() error: %v", err)
	}

	assignment := model.Assignment{
		{SubjectID: 99, TimeslotID: 1}: {FacultyID: 1, ClassroomID: 1},
	}

	if _, err := MeetingsFromAssignment(tables, assignment); err == nil {
		t.Error("expected error for unknown subject")
	}
}

// greedyTrapTables 构造让直接构造失败、回溯成功的问题实例
// 课时最多的S1会被派给相对专精的F1，F1随即没有余量承担只有它能教的S2。
func greedyTrapTables(t *testing.T) *model.Tables {
	t.Helper()

	faculty := []*model.Faculty{
		{ID: 1, Name: "Dr. Smith", MaxHours: 4, QualifiedSubjects: model.IDList{1, 2}},
		{ID: 2, Name: "Prof. Johnson", MaxHours: 10, QualifiedSubjects: model.IDList{1, 3, 4}},
	}
	subjects := []*model.Subject{
		{ID: 1, Name: "Algorithms", Hours: 4},
		{ID: 2, Name: "Compilers", Hours: 2},
		{ID: 3, Name: "Networks", Hours: 2},
		{ID: 4, Name: "Databases", Hours: 2},
	}
	classrooms := []*model.Classroom{
		{ID: 1, Name: "Room 101"},
		{ID: 2, Name: "Room 102"},
	}
	timeslots := []*model.Timeslot{
		{ID: 1, Day: "Monday", Time: "9:00-10:30", Period: "Morning"},
		{ID: 2, Day: "Monday", Time: "14:00-15:30", Period: "Afternoon"},
		{ID: 3, Day: "Tuesday", Time: "9:00-10:30", Period: "Morning"},
		{ID: 4, Day: "Tuesday", Time: "14:00-15:30", Period: "Afternoon"},
	}

	tables, err := model.NewTables(faculty, subjects, classrooms, timeslots)
	if err != nil {
		t.Fatalf("NewTables() error: %v", err)
	}
	return tables
}

// assertValidMeetings 检查课表完整且不违反任何硬约束
func assertValidMeetings(t *testing.T, tables *model.Tables, meetings []*model.Meeting) {
	t.Helper()

	// 每门课程恰好安排一次
	placed := make(map[int]int)
	for _, m := range meetings {
		placed[m.SubjectID]++
	}
	for _, s := range tables.Subjects {
		if placed[s.ID] != 1 {
			t.Errorf("课程 %d 安排了 %d 次，应为 1 次", s.ID, placed[s.ID])
		}
	}

	facultySlot := make(map[[2]int]bool)
	roomSlot := make(map[[2]int]bool)
	hoursByFaculty := make(map[int]int)
	countedSubject := make(map[int]bool)

	for i, m := range meetings {
		// 输出按 (时间段, 课程) 排序
		if i > 0 {
			prev := meetings[i-1]
			if m.TimeslotID < prev.TimeslotID ||
				(m.TimeslotID == prev.TimeslotID && m.SubjectID < prev.SubjectID) {
				t.Errorf("课表顺序错误: %v 在 %v 之后", m, prev)
			}
		}

		f := tables.FacultyByID(m.FacultyID)
		if f == nil || !f.IsQualified(m.SubjectID) {
			t.Errorf("教师 %d 不具备课程 %d 的任教资格", m.FacultyID, m.SubjectID)
		}

		room := tables.ClassroomByID(m.ClassroomID)
		subject := tables.SubjectByID(m.SubjectID)
		if subject != nil && subject.IsLab() && (room == nil || !room.HasLab) {
			t.Errorf("实验课程 %d 被安排进普通教室 %d", m.SubjectID, m.ClassroomID)
		}

		fs := [2]int{m.FacultyID, m.TimeslotID}
		if facultySlot[fs] {
			t.Errorf("教师 %d 在时间段 %d 有冲突", m.FacultyID, m.TimeslotID)
		}
		facultySlot[fs] = true

		rs := [2]int{m.ClassroomID, m.TimeslotID}
		if roomSlot[rs] {
			t.Errorf("教室 %d 在时间段 %d 有冲突", m.ClassroomID, m.TimeslotID)
		}
		roomSlot[rs] = true

		if subject != nil && !countedSubject[m.SubjectID] {
			hoursByFaculty[m.FacultyID] += subject.Hours
			countedSubject[m.SubjectID] = true
		}
	}

	for facultyID, hours := range hoursByFaculty {
		f := tables.FacultyByID(facultyID)
		if f != nil && hours > f.MaxHours {
			t.Errorf("教师 %d 学时 %d 超出上限 %d", facultyID, hours, f.MaxHours)
		}
	}
}

package scenario

import (
	"context"
	"testing"

	"github.com/paike/paike/pkg/dataset"
	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/model"
	"github.com/paike/paike/pkg/scheduler"
)

// TestLabScarceFailsWithCause 实验室稀缺实例在建模期即失败
// 无解错误必须携带空值域原因，调用方能看到是哪门课程因何排不下去。
func TestLabScarceFailsWithCause(t *testing.T) {
	strategies := []model.Strategy{
		model.StrategyDirect,
		model.StrategyCSP,
		model.StrategyHybrid,
		model.StrategyAuto,
	}

	for _, strategy := range strategies {
		t.Run(string(strategy), func(t *testing.T) {
			tables, err := dataset.LabScarce().Tables()
			if err != nil {
				t.Fatalf("构建问题实例失败: %v", err)
			}

			_, err = scheduler.NewBuilder(tables).Solve(context.Background(), strategy)
			if errors.GetCode(err) != errors.CodeNoSolutionFound {
				t.Fatalf("错误码 = %v, 期望 %v", errors.GetCode(err), errors.CodeNoSolutionFound)
			}

			appErr, ok := errors.AsAppError(err)
			if !ok {
				t.Fatalf("错误类型 = %T, 期望 *errors.AppError", err)
			}
			if appErr.Cause == nil {
				t.Fatal("期望附带空值域原因")
			}
			if errors.GetCode(appErr.Cause) != errors.CodeInvalidDomain {
				t.Errorf("原因错误码 = %v, 期望 %v",
					errors.GetCode(appErr.Cause), errors.CodeInvalidDomain)
			}
		})
	}
}

// TestOverloadedFailsWithCause 教师超载实例没有学时充足的合格教师
func TestOverloadedFailsWithCause(t *testing.T) {
	tables, err := dataset.Overloaded().Tables()
	if err != nil {
		t.Fatalf("构建问题实例失败: %v", err)
	}

	_, err = scheduler.NewBuilder(tables).Solve(context.Background(), model.StrategyAuto)
	if errors.GetCode(err) != errors.CodeNoSolutionFound {
		t.Fatalf("错误码 = %v, 期望 %v", errors.GetCode(err), errors.CodeNoSolutionFound)
	}

	appErr, _ := errors.AsAppError(err)
	if appErr == nil || appErr.Cause == nil {
		t.Fatal("期望附带空值域原因")
	}
	if errors.GetCode(appErr.Cause) != errors.CodeInvalidDomain {
		t.Errorf("原因错误码 = %v, 期望 %v",
			errors.GetCode(appErr.Cause), errors.CodeInvalidDomain)
	}
	t.Logf("超载实例失败原因: %v", appErr.Cause)
}

// TestSearchExhaustionReportsStatistics 搜索穷尽后的无解错误带统计信息
// 两名教师两门课却只有一个时间段一间教室，建模通过但搜索必然穷尽。
func TestSearchExhaustionReportsStatistics(t *testing.T) {
	faculty := []*model.Faculty{
		{ID: 1, Name: "Dr. Smith", MaxHours: 10, QualifiedSubjects: model.IDList{1}},
		{ID: 2, Name: "Prof. Johnson", MaxHours: 10, QualifiedSubjects: model.IDList{2}},
	}
	subjects := []*model.Subject{
		{ID: 1, Name: "Algorithms", Hours: 3},
		{ID: 2, Name: "Networks", Hours: 3},
	}
	classrooms := []*model.Classroom{
		{ID: 1, Name: "Room 101"},
	}
	timeslots := []*model.Timeslot{
		{ID: 1, Day: "Monday", Time: "9:00-10:30", Period: "Morning"},
	}

	tables, err := model.NewTables(faculty, subjects, classrooms, timeslots)
	if err != nil {
		t.Fatalf("NewTables() error: %v", err)
	}

	_, err = scheduler.NewBuilder(tables).Solve(context.Background(), model.StrategyCSP)
	if errors.GetCode(err) != errors.CodeNoSolutionFound {
		t.Fatalf("错误码 = %v, 期望 %v", errors.GetCode(err), errors.CodeNoSolutionFound)
	}

	appErr, _ := errors.AsAppError(err)
	if appErr == nil {
		t.Fatalf("错误类型 = %T, 期望 *errors.AppError", err)
	}
	if _, ok := appErr.Fields["nodes"]; !ok {
		t.Error("无解错误应携带搜索节点统计")
	}
	if got := appErr.Fields["strategy"]; got != string(model.StrategyCSP) {
		t.Errorf("strategy 字段 = %v, 期望 %v", got, model.StrategyCSP)
	}
}

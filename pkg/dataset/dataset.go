// Package dataset 提供内置的示例排课输入
// 每次调用都构造全新的切片，调用方可以放心修改。
package dataset

import (
	"github.com/paike/paike/pkg/model"
)

// Dataset 一套完整的排课输入
type Dataset struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Faculty     []*model.Faculty   `json:"faculty"`
	Subjects    []*model.Subject   `json:"subjects"`
	Classrooms  []*model.Classroom `json:"classrooms"`
	Timeslots   []*model.Timeslot  `json:"timeslots"`
}

// Tables 构建问题实例
func (d *Dataset) Tables() (*model.Tables, error) {
	return model.NewTables(d.Faculty, d.Subjects, d.Classrooms, d.Timeslots)
}

// Sample 标准示例：4名教师、5门课程、4间教室、6个时间段
// 存在可行解，适合演示与回归测试。
func Sample() *Dataset {
	return &Dataset{
		Name:        "sample",
		Description: "标准示例：4名教师、5门课程，存在可行解",
		Faculty: []*model.Faculty{
			{
				ID: 1, Name: "Dr. Smith", MaxHours: 20,
				QualifiedSubjects:     model.IDList{1, 2},
				PreferredDays:         model.NameList{"Monday", "Tuesday", "Wednesday"},
				PreferredPeriods:      model.NameList{"Morning"},
				PreferenceWeight:      3.0,
				ConsecutivePreference: 2,
			},
			{
				ID: 2, Name: "Prof. Johnson", MaxHours: 20,
				QualifiedSubjects:     model.IDList{2, 3, 4},
				PreferredDays:         model.NameList{"Tuesday", "Thursday"},
				PreferredPeriods:      model.NameList{"Afternoon"},
				PreferenceWeight:      4.0,
				ConsecutivePreference: -3,
			},
			{
				ID: 3, Name: "Dr. Williams", MaxHours: 20,
				QualifiedSubjects:     model.IDList{1, 3, 5},
				PreferredDays:         model.NameList{"Monday", "Wednesday", "Friday"},
				PreferredPeriods:      model.NameList{"Morning", "Afternoon"},
				PreferenceWeight:      2.0,
				ConsecutivePreference: 0,
			},
			{
				ID: 4, Name: "Prof. Davis", MaxHours: 20,
				QualifiedSubjects:     model.IDList{4, 5},
				PreferredDays:         model.NameList{"Thursday", "Friday"},
				PreferredPeriods:      model.NameList{"Morning"},
				PreferenceWeight:      5.0,
				ConsecutivePreference: 5,
			},
		},
		Subjects: []*model.Subject{
			{ID: 1, Name: "Introduction to Programming", Hours: 3, LabHours: 2},
			{ID: 2, Name: "Data Structures", Hours: 4, LabHours: 2},
			{ID: 3, Name: "Artificial Intelligence", Hours: 3},
			{ID: 4, Name: "Computer Networks", Hours: 3},
			{ID: 5, Name: "Database Systems", Hours: 4},
		},
		Classrooms: []*model.Classroom{
			{ID: 1, Name: "Room 101", HasLab: false},
			{ID: 2, Name: "Room 102", HasLab: false},
			{ID: 3, Name: "Lab 201", HasLab: true},
			{ID: 4, Name: "Lab 202", HasLab: true},
		},
		Timeslots: []*model.Timeslot{
			{ID: 1, Day: "Monday", Time: "9:00-10:30", Period: "Morning"},
			{ID: 2, Day: "Monday", Time: "11:00-12:30", Period: "Morning"},
			{ID: 3, Day: "Tuesday", Time: "9:00-10:30", Period: "Morning"},
			{ID: 4, Day: "Tuesday", Time: "11:00-12:30", Period: "Morning"},
			{ID: 5, Day: "Wednesday", Time: "9:00-10:30", Period: "Morning"},
			{ID: 6, Day: "Wednesday", Time: "11:00-12:30", Period: "Morning"},
		},
	}
}

// Complex 复杂示例：8名教师、12门课程、6间教室、15个时间段
// 每门课程恰有两名合格教师，资格集合首尾相接形成环状结构，
// 存在可行解但需要真正的搜索，适合演示更大规模的排课。
func Complex() *Dataset {
	faculty := []*model.Faculty{
		{
			ID: 1, Name: "Dr. Garcia", MaxHours: 16,
			QualifiedSubjects:     model.IDList{1, 2, 3},
			PreferredDays:         model.NameList{"Monday", "Tuesday"},
			PreferredPeriods:      model.NameList{"Morning"},
			PreferenceWeight:      3.0,
			ConsecutivePreference: 2,
		},
		{
			ID: 2, Name: "Prof. Harris", MaxHours: 16,
			QualifiedSubjects:     model.IDList{2, 3, 4},
			PreferredDays:         model.NameList{"Wednesday", "Thursday"},
			PreferredPeriods:      model.NameList{"Afternoon"},
			PreferenceWeight:      4.0,
			ConsecutivePreference: -2,
		},
		{
			ID: 3, Name: "Dr. Irving", MaxHours: 16,
			QualifiedSubjects: model.IDList{4, 5, 6},
			PreferredDays:     model.NameList{"Monday", "Wednesday", "Friday"},
			PreferenceWeight:  2.0,
		},
		{
			ID: 4, Name: "Prof. Jones", MaxHours: 16,
			QualifiedSubjects:     model.IDList{5, 6, 7},
			PreferredPeriods:      model.NameList{"Morning"},
			PreferenceWeight:      5.0,
			ConsecutivePreference: 4,
		},
		{
			ID: 5, Name: "Dr. Khan", MaxHours: 16,
			QualifiedSubjects:     model.IDList{7, 8, 9},
			PreferredDays:         model.NameList{"Tuesday", "Thursday"},
			PreferredPeriods:      model.NameList{"Afternoon"},
			PreferenceWeight:      3.5,
			ConsecutivePreference: -4,
		},
		{
			ID: 6, Name: "Prof. Lee", MaxHours: 16,
			QualifiedSubjects: model.IDList{8, 9, 10},
			PreferenceWeight:  1.0,
		},
		{
			ID: 7, Name: "Dr. Moore", MaxHours: 16,
			QualifiedSubjects:     model.IDList{10, 11, 12},
			PreferredDays:         model.NameList{"Friday"},
			PreferredPeriods:      model.NameList{"Morning", "Afternoon"},
			PreferenceWeight:      2.5,
			ConsecutivePreference: 1,
		},
		{
			ID: 8, Name: "Prof. Nolan", MaxHours: 16,
			QualifiedSubjects:     model.IDList{11, 12, 1},
			PreferredDays:         model.NameList{"Monday", "Friday"},
			PreferredPeriods:      model.NameList{"Morning"},
			PreferenceWeight:      4.5,
			ConsecutivePreference: 3,
		},
	}

	subjects := []*model.Subject{
		{ID: 1, Name: "Programming Fundamentals", Hours: 3, LabHours: 2},
		{ID: 2, Name: "Linear Algebra", Hours: 4},
		{ID: 3, Name: "Algorithms", Hours: 4},
		{ID: 4, Name: "Digital Logic", Hours: 3, LabHours: 2},
		{ID: 5, Name: "Probability and Statistics", Hours: 3},
		{ID: 6, Name: "Theory of Computation", Hours: 4},
		{ID: 7, Name: "Distributed Systems", Hours: 3},
		{ID: 8, Name: "Embedded Systems", Hours: 3, LabHours: 2},
		{ID: 9, Name: "Web Development", Hours: 3},
		{ID: 10, Name: "Numerical Analysis", Hours: 4},
		{ID: 11, Name: "Computer Vision", Hours: 3, LabHours: 2},
		{ID: 12, Name: "Natural Language Processing", Hours: 3},
	}

	classrooms := []*model.Classroom{
		{ID: 1, Name: "Room 101", HasLab: false},
		{ID: 2, Name: "Room 102", HasLab: false},
		{ID: 3, Name: "Room 103", HasLab: false},
		{ID: 4, Name: "Room 104", HasLab: false},
		{ID: 5, Name: "Lab 201", HasLab: true},
		{ID: 6, Name: "Lab 202", HasLab: true},
	}

	days := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	times := []string{"9:00-10:30", "11:00-12:30", "14:00-15:30"}
	periods := []string{"Morning", "Morning", "Afternoon"}

	timeslots := make([]*model.Timeslot, 0, len(days)*len(times))
	id := 1
	for _, day := range days {
		for i, tm := range times {
			timeslots = append(timeslots, &model.Timeslot{
				ID: id, Day: day, Time: tm, Period: periods[i],
			})
			id++
		}
	}

	return &Dataset{
		Name:        "complex",
		Description: "复杂示例：8名教师、12门课程，存在可行解",
		Faculty:     faculty,
		Subjects:    subjects,
		Classrooms:  classrooms,
		Timeslots:   timeslots,
	}
}

// LabScarce 实验室稀缺：含实验课时的课程没有任何可用实验室
// 建模阶段即暴露空值域，用于验证失败路径。
func LabScarce() *Dataset {
	d := Sample()
	d.Name = "lab_scarce"
	d.Description = "实验室稀缺：实验课程没有可用实验室，无可行解"
	d.Classrooms = []*model.Classroom{
		{ID: 1, Name: "Room 101", HasLab: false},
		{ID: 2, Name: "Room 102", HasLab: false},
	}
	return d
}

// Overloaded 教师超载：唯一具备资格的教师学时上限低于课程学时
func Overloaded() *Dataset {
	return &Dataset{
		Name:        "overloaded",
		Description: "教师超载：学时上限低于课程学时，无可行解",
		Faculty: []*model.Faculty{
			{
				ID: 1, Name: "Dr. Smith", MaxHours: 1,
				QualifiedSubjects: model.IDList{1},
				PreferenceWeight:  3.0,
			},
		},
		Subjects: []*model.Subject{
			{ID: 1, Name: "Introduction to Programming", Hours: 3},
		},
		Classrooms: []*model.Classroom{
			{ID: 1, Name: "Room 101", HasLab: false},
		},
		Timeslots: []*model.Timeslot{
			{ID: 1, Day: "Monday", Time: "9:00-10:30", Period: "Morning"},
			{ID: 2, Day: "Monday", Time: "11:00-12:30", Period: "Morning"},
		},
	}
}

// Pathological 大规模紧张实例：10门课程、12个时间段
// 搜索空间巨大，用于超时与压力场景。
func Pathological() *Dataset {
	faculty := []*model.Faculty{
		{ID: 1, Name: "Dr. Adams", MaxHours: 12, QualifiedSubjects: model.IDList{1, 2, 3}, PreferenceWeight: 3.0},
		{ID: 2, Name: "Dr. Baker", MaxHours: 12, QualifiedSubjects: model.IDList{2, 3, 4}, PreferenceWeight: 2.0},
		{ID: 3, Name: "Dr. Clark", MaxHours: 12, QualifiedSubjects: model.IDList{4, 5, 6}, PreferenceWeight: 4.0},
		{ID: 4, Name: "Dr. Davis", MaxHours: 12, QualifiedSubjects: model.IDList{5, 6, 7}, PreferenceWeight: 1.0},
		{ID: 5, Name: "Dr. Evans", MaxHours: 12, QualifiedSubjects: model.IDList{7, 8, 9}, PreferenceWeight: 5.0},
		{ID: 6, Name: "Dr. Frank", MaxHours: 12, QualifiedSubjects: model.IDList{8, 9, 10}, PreferenceWeight: 2.5},
	}

	subjects := []*model.Subject{
		{ID: 1, Name: "Programming I", Hours: 3, LabHours: 2},
		{ID: 2, Name: "Programming II", Hours: 3, LabHours: 2},
		{ID: 3, Name: "Discrete Mathematics", Hours: 4},
		{ID: 4, Name: "Operating Systems", Hours: 4},
		{ID: 5, Name: "Computer Architecture", Hours: 3},
		{ID: 6, Name: "Compiler Design", Hours: 4},
		{ID: 7, Name: "Machine Learning", Hours: 3},
		{ID: 8, Name: "Computer Graphics", Hours: 3, LabHours: 2},
		{ID: 9, Name: "Software Engineering", Hours: 4},
		{ID: 10, Name: "Information Security", Hours: 3},
	}

	classrooms := []*model.Classroom{
		{ID: 1, Name: "Room 201", HasLab: false},
		{ID: 2, Name: "Room 202", HasLab: false},
		{ID: 3, Name: "Lab 301", HasLab: true},
		{ID: 4, Name: "Lab 302", HasLab: true},
	}

	days := []string{"Monday", "Tuesday", "Wednesday", "Thursday"}
	times := []string{"9:00-10:30", "11:00-12:30", "14:00-15:30"}
	periods := []string{"Morning", "Morning", "Afternoon"}

	timeslots := make([]*model.Timeslot, 0, len(days)*len(times))
	id := 1
	for _, day := range days {
		for i, tm := range times {
			timeslots = append(timeslots, &model.Timeslot{
				ID: id, Day: day, Time: tm, Period: periods[i],
			})
			id++
		}
	}

	return &Dataset{
		Name:        "pathological",
		Description: "大规模紧张实例：10门课程、12个时间段，用于超时场景",
		Faculty:     faculty,
		Subjects:    subjects,
		Classrooms:  classrooms,
		Timeslots:   timeslots,
	}
}

// All 返回全部内置数据集
func All() []*Dataset {
	return []*Dataset{Sample(), Complex(), LabScarce(), Overloaded(), Pathological()}
}

// ByName 按名称查找内置数据集，找不到返回 nil
func ByName(name string) *Dataset {
	for _, d := range All() {
		if d.Name == name {
			return d
		}
	}
	return nil
}

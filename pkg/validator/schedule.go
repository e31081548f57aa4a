// Package validator 提供课表验证功能
// 独立于求解路径对课表做一次穷举复查，既校验引擎产出，
// 也校验外部提交的课表。
package validator

import (
	"fmt"

	"github.com/paike/paike/pkg/model"
)

// ViolationType 违规类型
type ViolationType string

const (
	ViolationFacultyConflict   ViolationType = "faculty_conflict"   // 教师同一时段多处授课
	ViolationClassroomConflict ViolationType = "classroom_conflict" // 教室同一时段重复占用
	ViolationLabMismatch       ViolationType = "lab_mismatch"       // 实验课程安排进普通教室
	ViolationUnqualified       ViolationType = "unqualified"        // 教师缺少任教资格
	ViolationOverHours         ViolationType = "over_hours"         // 教师学时超过上限
	ViolationDuplicateSubject  ViolationType = "duplicate_subject"  // 课程安排超过一次
	ViolationMissingSubject    ViolationType = "missing_subject"    // 课程未被安排
	ViolationUnknownRecord     ViolationType = "unknown_record"     // 引用了不存在的记录
)

// Violation 违规信息
type Violation struct {
	Type        ViolationType `json:"type"`
	Severity    string        `json:"severity"` // error/warning
	SubjectID   int           `json:"subject_id,omitempty"`
	FacultyID   int           `json:"faculty_id,omitempty"`
	ClassroomID int           `json:"classroom_id,omitempty"`
	TimeslotID  int           `json:"timeslot_id,omitempty"`
	Message     string        `json:"message"`
}

// ScheduleValidator 课表验证器
type ScheduleValidator struct {
	config *ValidatorConfig
}

// ValidatorConfig 验证器配置
type ValidatorConfig struct {
	CheckQualification bool // 是否检查任教资格
	CheckWorkload      bool // 是否检查学时上限
	CheckCompleteness  bool // 是否检查课程覆盖（缺课只作警告）
}

// DefaultValidatorConfig 返回默认配置
func DefaultValidatorConfig() *ValidatorConfig {
	return &ValidatorConfig{
		CheckQualification: true,
		CheckWorkload:      true,
		CheckCompleteness:  true,
	}
}

// NewScheduleValidator 创建课表验证器
func NewScheduleValidator(config *ValidatorConfig) *ScheduleValidator {
	if config == nil {
		config = DefaultValidatorConfig()
	}
	return &ScheduleValidator{config: config}
}

// Validate 穷举复查整份课表
// 按课表条目顺序产出违规，同一输入的输出完全确定。
func (v *ScheduleValidator) Validate(meetings []*model.Meeting, tables *model.Tables) []Violation {
	var violations []Violation

	violations = append(violations, v.detectUnknownRecords(meetings, tables)...)
	violations = append(violations, v.detectFacultyConflicts(meetings)...)
	violations = append(violations, v.detectClassroomConflicts(meetings)...)
	violations = append(violations, v.detectLabMismatches(meetings, tables)...)
	violations = append(violations, v.detectDuplicateSubjects(meetings)...)

	if v.config.CheckQualification {
		violations = append(violations, v.detectUnqualified(meetings, tables)...)
	}
	if v.config.CheckWorkload {
		violations = append(violations, v.detectOverHours(meetings, tables)...)
	}
	if v.config.CheckCompleteness {
		violations = append(violations, v.detectMissingSubjects(meetings, tables)...)
	}

	return violations
}

// detectUnknownRecords 检测对不存在记录的引用
func (v *ScheduleValidator) detectUnknownRecords(meetings []*model.Meeting, tables *model.Tables) []Violation {
	var violations []Violation

	for _, m := range meetings {
		if tables.SubjectByID(m.SubjectID) == nil {
			violations = append(violations, Violation{
				Type:      ViolationUnknownRecord,
				Severity:  "error",
				SubjectID: m.SubjectID,
				Message:   fmt.Sprintf("课程 %d 不存在", m.SubjectID),
			})
		}
		if tables.FacultyByID(m.FacultyID) == nil {
			violations = append(violations, Violation{
				Type:      ViolationUnknownRecord,
				Severity:  "error",
				FacultyID: m.FacultyID,
				Message:   fmt.Sprintf("教师 %d 不存在", m.FacultyID),
			})
		}
		if tables.ClassroomByID(m.ClassroomID) == nil {
			violations = append(violations, Violation{
				Type:        ViolationUnknownRecord,
				Severity:    "error",
				ClassroomID: m.ClassroomID,
				Message:     fmt.Sprintf("教室 %d 不存在", m.ClassroomID),
			})
		}
		if tables.TimeslotByID(m.TimeslotID) == nil {
			violations = append(violations, Violation{
				Type:       ViolationUnknownRecord,
				Severity:   "error",
				TimeslotID: m.TimeslotID,
				Message:    fmt.Sprintf("时间段 %d 不存在", m.TimeslotID),
			})
		}
	}

	return violations
}

// detectFacultyConflicts 检测教师同一时段的多处授课
func (v *ScheduleValidator) detectFacultyConflicts(meetings []*model.Meeting) []Violation {
	var violations []Violation

	seen := make(map[[2]int]*model.Meeting)
	for _, m := range meetings {
		key := [2]int{m.FacultyID, m.TimeslotID}
		if first, ok := seen[key]; ok {
			violations = append(violations, Violation{
				Type:       ViolationFacultyConflict,
				Severity:   "error",
				FacultyID:  m.FacultyID,
				TimeslotID: m.TimeslotID,
				SubjectID:  m.SubjectID,
				Message: fmt.Sprintf("教师 %s 在时间段 %d 同时承担课程 %s 与 %s",
					m.FacultyName, m.TimeslotID, first.SubjectName, m.SubjectName),
			})
			continue
		}
		seen[key] = m
	}

	return violations
}

// detectClassroomConflicts 检测教室同一时段的重复占用
func (v *ScheduleValidator) detectClassroomConflicts(meetings []*model.Meeting) []Violation {
	var violations []Violation

	seen := make(map[[2]int]*model.Meeting)
	for _, m := range meetings {
		key := [2]int{m.ClassroomID, m.TimeslotID}
		if first, ok := seen[key]; ok {
			violations = append(violations, Violation{
				Type:        ViolationClassroomConflict,
				Severity:    "error",
				ClassroomID: m.ClassroomID,
				TimeslotID:  m.TimeslotID,
				SubjectID:   m.SubjectID,
				Message: fmt.Sprintf("教室 %s 在时间段 %d 被课程 %s 与 %s 重复占用",
					m.ClassroomName, m.TimeslotID, first.SubjectName, m.SubjectName),
			})
			continue
		}
		seen[key] = m
	}

	return violations
}

// detectLabMismatches 检测实验课程的教室匹配
func (v *ScheduleValidator) detectLabMismatches(meetings []*model.Meeting, tables *model.Tables) []Violation {
	var violations []Violation

	for _, m := range meetings {
		subject := tables.SubjectByID(m.SubjectID)
		room := tables.ClassroomByID(m.ClassroomID)
		if subject == nil || room == nil {
			continue
		}
		if subject.IsLab() && !room.HasLab {
			violations = append(violations, Violation{
				Type:        ViolationLabMismatch,
				Severity:    "error",
				SubjectID:   m.SubjectID,
				ClassroomID: m.ClassroomID,
				Message: fmt.Sprintf("实验课程 %s 被安排进普通教室 %s",
					subject.Name, room.Name),
			})
		}
	}

	return violations
}

// detectDuplicateSubjects 检测安排超过一次的课程
func (v *ScheduleValidator) detectDuplicateSubjects(meetings []*model.Meeting) []Violation {
	var violations []Violation

	count := make(map[int]int)
	for _, m := range meetings {
		count[m.SubjectID]++
		if count[m.SubjectID] == 2 {
			violations = append(violations, Violation{
				Type:      ViolationDuplicateSubject,
				Severity:  "error",
				SubjectID: m.SubjectID,
				Message:   fmt.Sprintf("课程 %s 被安排了多次", m.SubjectName),
			})
		}
	}

	return violations
}

// detectUnqualified 检测任教资格
func (v *ScheduleValidator) detectUnqualified(meetings []*model.Meeting, tables *model.Tables) []Violation {
	var violations []Violation

	for _, m := range meetings {
		f := tables.FacultyByID(m.FacultyID)
		if f == nil || tables.SubjectByID(m.SubjectID) == nil {
			continue
		}
		if !f.IsQualified(m.SubjectID) {
			violations = append(violations, Violation{
				Type:      ViolationUnqualified,
				Severity:  "error",
				SubjectID: m.SubjectID,
				FacultyID: m.FacultyID,
				Message: fmt.Sprintf("教师 %s 不具备课程 %s 的任教资格",
					m.FacultyName, m.SubjectName),
			})
		}
	}

	return violations
}

// detectOverHours 检测教师学时超限
// 同一门课程出现多次只计一次学时，与排课的工作量口径一致。
func (v *ScheduleValidator) detectOverHours(meetings []*model.Meeting, tables *model.Tables) []Violation {
	var violations []Violation

	subjectsByFaculty := make(map[int]map[int]bool)
	for _, m := range meetings {
		if subjectsByFaculty[m.FacultyID] == nil {
			subjectsByFaculty[m.FacultyID] = make(map[int]bool)
		}
		subjectsByFaculty[m.FacultyID][m.SubjectID] = true
	}

	for _, f := range tables.Faculty {
		total := 0
		for subjectID := range subjectsByFaculty[f.ID] {
			if subject := tables.SubjectByID(subjectID); subject != nil {
				total += subject.Hours
			}
		}
		if total > f.MaxHours {
			violations = append(violations, Violation{
				Type:      ViolationOverHours,
				Severity:  "error",
				FacultyID: f.ID,
				Message: fmt.Sprintf("教师 %s 学时 %d 超过上限 %d",
					f.Name, total, f.MaxHours),
			})
		}
	}

	return violations
}

// detectMissingSubjects 检测未被安排的课程
func (v *ScheduleValidator) detectMissingSubjects(meetings []*model.Meeting, tables *model.Tables) []Violation {
	var violations []Violation

	placed := make(map[int]bool)
	for _, m := range meetings {
		placed[m.SubjectID] = true
	}

	for _, s := range tables.Subjects {
		if !placed[s.ID] {
			violations = append(violations, Violation{
				Type:      ViolationMissingSubject,
				Severity:  "warning",
				SubjectID: s.ID,
				Message:   fmt.Sprintf("课程 %s 未被安排", s.Name),
			})
		}
	}

	return violations
}

// HasErrors 检查违规列表中是否含有 error 级别的违规
func HasErrors(violations []Violation) bool {
	for _, violation := range violations {
		if violation.Severity == "error" {
			return true
		}
	}
	return false
}

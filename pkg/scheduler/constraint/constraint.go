// Package constraint 定义排课约束接口和管理器
package constraint

import (
	"github.com/paike/paike/pkg/model"
)

// Type 约束类型标识
type Type string

const (
	// 硬约束类型
	TypeWorkload          Type = "faculty_workload"
	TypeFacultyConflict   Type = "faculty_conflict"
	TypeClassroomConflict Type = "classroom_conflict"
	TypeLabRoom           Type = "lab_room_required"
	TypeQualification     Type = "subject_qualification"
	TypeSingleMeeting     Type = "single_meeting_per_subject"

	// 软约束类型
	TypeFacultyPreference Type = "faculty_preference"
)

// Category 约束类别
type Category string

const (
	CategoryHard Category = "hard" // 硬约束（必须满足）
	CategorySoft Category = "soft" // 软约束（尽量满足）
)

// Constraint 约束接口
type Constraint interface {
	// Name 返回约束名称
	Name() string

	// Type 返回约束类型
	Type() Type

	// Category 返回约束类别
	Category() Category

	// Weight 返回约束权重 (1-100)
	Weight() int

	// Evaluate 评估整个课表
	// 返回：是否满足、惩罚值、违反详情
	Evaluate(ctx *Context) (valid bool, penalty int, details []ViolationDetail)

	// EvaluateAssignment 评估单个候选安排
	// 在 v 尚未写入上下文的前提下，判断将 val 安排到 v 是否可行。
	// 返回：是否满足、惩罚值
	EvaluateAssignment(ctx *Context, v model.Variable, val model.Value) (valid bool, penalty int)
}

// ViolationDetail 约束违反详情
type ViolationDetail struct {
	ConstraintType Type   `json:"constraint_type"`
	ConstraintName string `json:"constraint_name"`
	SubjectID      int    `json:"subject_id,omitempty"`
	FacultyID      int    `json:"faculty_id,omitempty"`
	TimeslotID     int    `json:"timeslot_id,omitempty"`
	Message        string `json:"message"`
	Severity       string `json:"severity"` // error/warning
	Penalty        int    `json:"penalty"`
}

// Context 排课上下文
// 持有只读的问题实例和当前的部分课表，并为约束评估维护占用索引。
type Context struct {
	// 输入数据
	Tables *model.Tables

	// 当前排课结果
	Assignment model.Assignment

	// 索引缓存
	facultySlots    map[int]map[int]int // 教师ID → 时间段ID → 占用次数
	roomSlots       map[int]map[int]int // 教室ID → 时间段ID → 占用次数
	subjectMeetings map[int]int         // 课程ID → 已安排课次数
	facultySubjects map[int]map[int]int // 教师ID → 课程ID → 课次数

	// 额外配置
	Config map[string]interface{} `json:"config,omitempty"`
}

// NewContext 创建新的排课上下文
func NewContext(tables *model.Tables) *Context {
	return &Context{
		Tables:          tables,
		Assignment:      make(model.Assignment),
		facultySlots:    make(map[int]map[int]int),
		roomSlots:       make(map[int]map[int]int),
		subjectMeetings: make(map[int]int),
		facultySubjects: make(map[int]map[int]int),
		Config:          make(map[string]interface{}),
	}
}

// SetAssignment 设置当前课表并重建索引
func (c *Context) SetAssignment(a model.Assignment) {
	c.Assignment = a
	c.rebuildIndexes()
}

// Assign 记录一个安排
func (c *Context) Assign(v model.Variable, val model.Value) {
	if old, ok := c.Assignment[v]; ok {
		c.removeIndex(v, old)
	}
	c.Assignment[v] = val
	c.addIndex(v, val)
}

// Unassign 撤销一个安排
func (c *Context) Unassign(v model.Variable) {
	val, ok := c.Assignment[v]
	if !ok {
		return
	}
	delete(c.Assignment, v)
	c.removeIndex(v, val)
}

// rebuildIndexes 重建占用索引
func (c *Context) rebuildIndexes() {
	c.facultySlots = make(map[int]map[int]int)
	c.roomSlots = make(map[int]map[int]int)
	c.subjectMeetings = make(map[int]int)
	c.facultySubjects = make(map[int]map[int]int)
	for v, val := range c.Assignment {
		c.addIndex(v, val)
	}
}

// addIndex 将一个非空置安排计入索引
func (c *Context) addIndex(v model.Variable, val model.Value) {
	if val.IsFree() {
		return
	}
	if c.facultySlots[val.FacultyID] == nil {
		c.facultySlots[val.FacultyID] = make(map[int]int)
	}
	c.facultySlots[val.FacultyID][v.TimeslotID]++

	if c.roomSlots[val.ClassroomID] == nil {
		c.roomSlots[val.ClassroomID] = make(map[int]int)
	}
	c.roomSlots[val.ClassroomID][v.TimeslotID]++

	c.subjectMeetings[v.SubjectID]++

	if c.facultySubjects[val.FacultyID] == nil {
		c.facultySubjects[val.FacultyID] = make(map[int]int)
	}
	c.facultySubjects[val.FacultyID][v.SubjectID]++
}

// removeIndex 将一个非空置安排移出索引
func (c *Context) removeIndex(v model.Variable, val model.Value) {
	if val.IsFree() {
		return
	}
	c.facultySlots[val.FacultyID][v.TimeslotID]--
	if c.facultySlots[val.FacultyID][v.TimeslotID] <= 0 {
		delete(c.facultySlots[val.FacultyID], v.TimeslotID)
	}

	c.roomSlots[val.ClassroomID][v.TimeslotID]--
	if c.roomSlots[val.ClassroomID][v.TimeslotID] <= 0 {
		delete(c.roomSlots[val.ClassroomID], v.TimeslotID)
	}

	c.subjectMeetings[v.SubjectID]--
	if c.subjectMeetings[v.SubjectID] <= 0 {
		delete(c.subjectMeetings, v.SubjectID)
	}

	c.facultySubjects[val.FacultyID][v.SubjectID]--
	if c.facultySubjects[val.FacultyID][v.SubjectID] <= 0 {
		delete(c.facultySubjects[val.FacultyID], v.SubjectID)
	}
}

// FacultyBusy 判断教师在某时间段是否已有课
func (c *Context) FacultyBusy(facultyID, timeslotID int) bool {
	return c.facultySlots[facultyID][timeslotID] > 0
}

// ClassroomBusy 判断教室在某时间段是否已被占用
func (c *Context) ClassroomBusy(classroomID, timeslotID int) bool {
	return c.roomSlots[classroomID][timeslotID] > 0
}

// SubjectMeetings 返回课程已安排的课次数
func (c *Context) SubjectMeetings(subjectID int) int {
	return c.subjectMeetings[subjectID]
}

// FacultyTeaches 判断教师是否已承担某门课程
func (c *Context) FacultyTeaches(facultyID, subjectID int) bool {
	return c.facultySubjects[facultyID][subjectID] > 0
}

// FacultyHours 返回教师已承担的周学时
// 同一门课程无论安排了几个时间段，学时只计一次。
func (c *Context) FacultyHours(facultyID int) int {
	hours := 0
	for subjectID, count := range c.facultySubjects[facultyID] {
		if count <= 0 {
			continue
		}
		if s := c.Tables.SubjectByID(subjectID); s != nil {
			hours += s.Hours
		}
	}
	return hours
}

// TotalVariables 返回问题的变量总数（课程数 × 时间段数）
func (c *Context) TotalVariables() int {
	if c.Tables == nil {
		return 0
	}
	return len(c.Tables.Subjects) * len(c.Tables.Timeslots)
}

// Result 约束评估结果
type Result struct {
	IsValid        bool              `json:"is_valid"`
	TotalPenalty   int               `json:"total_penalty"`
	HardViolations []ViolationDetail `json:"hard_violations"`
	SoftViolations []ViolationDetail `json:"soft_violations"`
	Score          float64           `json:"score"` // 0-100
}

// CalculateScore 计算约束满足度得分
func (r *Result) CalculateScore(maxPenalty int) {
	if maxPenalty == 0 {
		r.Score = 100.0
		return
	}
	r.Score = 100.0 * float64(maxPenalty-r.TotalPenalty) / float64(maxPenalty)
	if r.Score < 0 {
		r.Score = 0
	}
}

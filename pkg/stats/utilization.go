// Package stats 提供课表统计分析功能
package stats

import (
	"math"
	"sort"

	"github.com/paike/paike/pkg/model"
)

// UtilizationMetrics 资源利用率指标
type UtilizationMetrics struct {
	// 工作量均衡性
	WorkloadGini   float64 `json:"workload_gini"`    // 工作量基尼系数 (0=完全均衡, 1=完全失衡)
	WorkloadStdDev float64 `json:"workload_std_dev"` // 工作量标准差
	AvgHours       float64 `json:"avg_hours"`        // 人均学时
	MaxHours       float64 `json:"max_hours"`        // 最大学时
	MinHours       float64 `json:"min_hours"`        // 最小学时

	// 教师级别统计
	FacultyStats []FacultyUtilization `json:"faculty_stats"` // 教师统计（按学时降序）

	// 资源占用
	RoomUsageRate float64        `json:"room_usage_rate"` // 教室×时段占用率 (%)
	SlotUsageRate float64        `json:"slot_usage_rate"` // 时间段使用率 (%)
	RoomMeetings  map[string]int `json:"room_meetings"`   // 各教室承担的课次
}

// FacultyUtilization 单个教师的工作量利用情况
type FacultyUtilization struct {
	FacultyID   int     `json:"faculty_id"`
	FacultyName string  `json:"faculty_name"`
	Subjects    int     `json:"subjects"`    // 承担课程数
	Hours       int     `json:"hours"`       // 实际学时
	MaxHours    int     `json:"max_hours"`   // 学时上限
	Utilization float64 `json:"utilization"` // 学时利用率 (%)
	Deviation   float64 `json:"deviation"`   // 与人均学时的偏差百分比
}

// UtilizationAnalyzer 资源利用率分析器
type UtilizationAnalyzer struct{}

// NewUtilizationAnalyzer 创建资源利用率分析器
func NewUtilizationAnalyzer() *UtilizationAnalyzer {
	return &UtilizationAnalyzer{}
}

// Analyze 分析课表的教师工作量分布与教室、时段占用
// 学时按课程理论学时计，与排课时的工作量口径一致；
// 未承担课程的教师也计入统计，便于观察闲置情况。
func (u *UtilizationAnalyzer) Analyze(meetings []*model.Meeting, tables *model.Tables) *UtilizationMetrics {
	if len(meetings) == 0 || tables == nil {
		return &UtilizationMetrics{
			RoomMeetings: make(map[string]int),
		}
	}

	// 统计每个教师承担的课程集合
	subjectsByFaculty := make(map[int]map[int]bool)
	for _, m := range meetings {
		if subjectsByFaculty[m.FacultyID] == nil {
			subjectsByFaculty[m.FacultyID] = make(map[int]bool)
		}
		subjectsByFaculty[m.FacultyID][m.SubjectID] = true
	}

	// 计算教师级别统计
	facultyStats := make([]FacultyUtilization, 0, len(tables.Faculty))
	hours := make([]float64, 0, len(tables.Faculty))
	for _, f := range tables.Faculty {
		total := 0
		for subjectID := range subjectsByFaculty[f.ID] {
			if subject := tables.SubjectByID(subjectID); subject != nil {
				total += subject.Hours
			}
		}

		utilization := 0.0
		if f.MaxHours > 0 {
			utilization = float64(total) / float64(f.MaxHours) * 100
		}

		facultyStats = append(facultyStats, FacultyUtilization{
			FacultyID:   f.ID,
			FacultyName: f.Name,
			Subjects:    len(subjectsByFaculty[f.ID]),
			Hours:       total,
			MaxHours:    f.MaxHours,
			Utilization: utilization,
		})
		hours = append(hours, float64(total))
	}

	// 计算基本统计量
	avgHours := u.calculateMean(hours)
	variance := u.calculateVariance(hours, avgHours)
	stdDev := math.Sqrt(variance)
	maxHours, minHours := u.calculateRange(hours)

	// 更新教师偏差
	for i := range facultyStats {
		if avgHours > 0 {
			facultyStats[i].Deviation = (float64(facultyStats[i].Hours) - avgHours) / avgHours * 100
		}
	}

	// 按学时排序
	sort.Slice(facultyStats, func(i, j int) bool {
		if facultyStats[i].Hours != facultyStats[j].Hours {
			return facultyStats[i].Hours > facultyStats[j].Hours
		}
		return facultyStats[i].FacultyID < facultyStats[j].FacultyID
	})

	// 计算资源占用
	roomUsage, slotUsage, roomMeetings := u.calculateResourceUsage(meetings, tables)

	return &UtilizationMetrics{
		WorkloadGini:   u.calculateGini(hours),
		WorkloadStdDev: stdDev,
		AvgHours:       avgHours,
		MaxHours:       maxHours,
		MinHours:       minHours,
		FacultyStats:   facultyStats,
		RoomUsageRate:  roomUsage,
		SlotUsageRate:  slotUsage,
		RoomMeetings:   roomMeetings,
	}
}

// calculateResourceUsage 计算教室与时段的占用情况
func (u *UtilizationAnalyzer) calculateResourceUsage(meetings []*model.Meeting, tables *model.Tables) (roomUsage, slotUsage float64, roomMeetings map[string]int) {
	type roomSlot struct {
		classroomID int
		timeslotID  int
	}

	usedPairs := make(map[roomSlot]bool)
	usedSlots := make(map[int]bool)
	roomMeetings = make(map[string]int)

	for _, m := range meetings {
		usedPairs[roomSlot{m.ClassroomID, m.TimeslotID}] = true
		usedSlots[m.TimeslotID] = true
		roomMeetings[m.ClassroomName]++
	}

	totalPairs := len(tables.Classrooms) * len(tables.Timeslots)
	if totalPairs > 0 {
		roomUsage = float64(len(usedPairs)) / float64(totalPairs) * 100
	}
	if len(tables.Timeslots) > 0 {
		slotUsage = float64(len(usedSlots)) / float64(len(tables.Timeslots)) * 100
	}

	return roomUsage, slotUsage, roomMeetings
}

// calculateMean 计算平均值
func (u *UtilizationAnalyzer) calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calculateVariance 计算方差
func (u *UtilizationAnalyzer) calculateVariance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

// calculateRange 计算极值
func (u *UtilizationAnalyzer) calculateRange(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// calculateGini 计算基尼系数
func (u *UtilizationAnalyzer) calculateGini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	// 排序
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	// 计算累积和
	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	// 计算基尼系数
	gini := 0.0
	for i, v := range sorted {
		gini += (2*float64(i+1) - float64(n) - 1) * v
	}

	gini = gini / (float64(n) * sum)
	return math.Max(0, math.Min(1, gini))
}

// Package stats 提供课表统计分析功能
package stats

import (
	"sort"

	"github.com/paike/paike/pkg/model"
)

// SatisfactionMetrics 偏好满意度指标
type SatisfactionMetrics struct {
	// 教师级别统计（按得分降序）
	FacultyStats []FacultySatisfaction `json:"faculty_stats"`

	// 综合评分
	AverageScore float64 `json:"average_score"` // 全体授课教师的平均满意度 (0-100)
}

// FacultySatisfaction 单个教师的偏好满意度
type FacultySatisfaction struct {
	FacultyID            int     `json:"faculty_id"`
	FacultyName          string  `json:"faculty_name"`
	MeetingCount         int     `json:"meeting_count"`         // 授课次数
	DayRate              float64 `json:"day_rate"`              // 偏好日满足率 (%)
	PeriodRate           float64 `json:"period_rate"`           // 偏好时段满足率 (%)
	ConsecutiveSatisfied bool    `json:"consecutive_satisfied"` // 连堂偏好是否达成
	Score                float64 `json:"score"`                 // 综合满意度 (0-100)
}

// SatisfactionAnalyzer 偏好满意度分析器
type SatisfactionAnalyzer struct {
	dayWeight        float64 // 偏好日满足率权重
	periodWeight     float64 // 偏好时段满足率权重
	consecutiveBonus float64 // 连堂偏好达成加分
}

// NewSatisfactionAnalyzer 创建偏好满意度分析器
func NewSatisfactionAnalyzer() *SatisfactionAnalyzer {
	return &SatisfactionAnalyzer{
		dayWeight:        0.4,
		periodWeight:     0.4,
		consecutiveBonus: 20,
	}
}

// Analyze 分析课表对教师偏好的满足程度
// 满足率按课表实际用到的日/时段种类计算：教师只在两天有课时，
// 偏好日满足率就是这两天中落入偏好的比例。只统计有授课任务的教师。
func (s *SatisfactionAnalyzer) Analyze(meetings []*model.Meeting, faculty []*model.Faculty) *SatisfactionMetrics {
	if len(meetings) == 0 || len(faculty) == 0 {
		return &SatisfactionMetrics{}
	}

	// 构建教师ID映射
	facultyMap := make(map[int]*model.Faculty)
	for _, f := range faculty {
		facultyMap[f.ID] = f
	}

	// 按教师分组课表条目
	byFaculty := make(map[int][]*model.Meeting)
	for _, m := range meetings {
		byFaculty[m.FacultyID] = append(byFaculty[m.FacultyID], m)
	}

	stats := make([]FacultySatisfaction, 0, len(byFaculty))
	for facultyID, entries := range byFaculty {
		f, ok := facultyMap[facultyID]
		if !ok {
			continue
		}
		stats = append(stats, s.analyzeFaculty(f, entries))
	}

	// 按得分排序
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Score != stats[j].Score {
			return stats[i].Score > stats[j].Score
		}
		return stats[i].FacultyID < stats[j].FacultyID
	})

	// 计算全体平均
	total := 0.0
	for _, stat := range stats {
		total += stat.Score
	}
	average := 0.0
	if len(stats) > 0 {
		average = total / float64(len(stats))
	}

	return &SatisfactionMetrics{
		FacultyStats: stats,
		AverageScore: average,
	}
}

// analyzeFaculty 计算单个教师的满意度
func (s *SatisfactionAnalyzer) analyzeFaculty(f *model.Faculty, entries []*model.Meeting) FacultySatisfaction {
	// 统计课表实际用到的日和时段
	days := make(map[string]bool)
	periods := make(map[string]bool)
	for _, m := range entries {
		days[m.Day] = true
		if m.Period != "" {
			periods[m.Period] = true
		}
	}

	// 偏好日满足率
	preferredDays := 0
	for day := range days {
		if f.PrefersDay(day) {
			preferredDays++
		}
	}
	dayRate := 0.0
	if len(days) > 0 {
		dayRate = float64(preferredDays) / float64(len(days)) * 100
	}

	// 偏好时段满足率
	preferredPeriods := 0
	for period := range periods {
		if f.PrefersPeriod(period) {
			preferredPeriods++
		}
	}
	periodRate := 0.0
	if len(periods) > 0 {
		periodRate = float64(preferredPeriods) / float64(len(periods)) * 100
	}

	consecutiveSatisfied := s.consecutiveSatisfied(f, entries)

	// 综合评分：日和时段满足率各占权重，连堂达成额外加分
	score := dayRate*s.dayWeight + periodRate*s.periodWeight
	if consecutiveSatisfied {
		score += s.consecutiveBonus
	}

	return FacultySatisfaction{
		FacultyID:            f.ID,
		FacultyName:          f.Name,
		MeetingCount:         len(entries),
		DayRate:              dayRate,
		PeriodRate:           periodRate,
		ConsecutiveSatisfied: consecutiveSatisfied,
		Score:                score,
	}
}

// consecutiveSatisfied 判断连堂偏好是否达成
// 偏好连堂的教师需要至少一对同日相邻时段，回避连堂的教师则一对也不能有，
// 中性偏好视为达成。
func (s *SatisfactionAnalyzer) consecutiveSatisfied(f *model.Faculty, entries []*model.Meeting) bool {
	hasConsecutive := s.hasConsecutive(entries)
	if f.ConsecutivePreference > 0 && !hasConsecutive {
		return false
	}
	if f.ConsecutivePreference < 0 && hasConsecutive {
		return false
	}
	return true
}

// hasConsecutive 检查课表中是否存在同日相邻时段的授课
func (s *SatisfactionAnalyzer) hasConsecutive(entries []*model.Meeting) bool {
	// 按日分组时间段ID
	byDay := make(map[string][]int)
	for _, m := range entries {
		byDay[m.Day] = append(byDay[m.Day], m.TimeslotID)
	}

	for _, ids := range byDay {
		if len(ids) < 2 {
			continue
		}
		sort.Ints(ids)
		for i := 0; i < len(ids)-1; i++ {
			if ids[i+1]-ids[i] == 1 {
				return true
			}
		}
	}
	return false
}

// Package model 定义排课引擎的核心数据模型
package model

// Faculty 教师
type Faculty struct {
	ID       int    `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	MaxHours int    `json:"max_hours" db:"max_hours"`

	// 任教资格：可讲授的课程ID集合
	QualifiedSubjects IDList `json:"qualified_subjects" db:"qualified_subjects"`

	// 排课偏好
	PreferredDays    NameList `json:"day_preferences" db:"day_preferences"`
	PreferredPeriods NameList `json:"time_preferences" db:"time_preferences"`

	// PreferenceWeight 偏好权重，使用时夹取到 [0.1, 5.0]
	PreferenceWeight float64 `json:"preference_weight" db:"preference_weight"`

	// ConsecutivePreference 连堂偏好，取值 [-5, 5]：负数避免连堂，正数偏好连堂，0 中性
	ConsecutivePreference int `json:"consecutive_classes_preference" db:"consecutive_classes_preference"`
}

// Normalize 填充缺省偏好
// 缺失的偏好按输入规范补全：无日偏好视为全部工作日可接受，
// 无时段偏好视为全部时段可接受，权重缺省为 1.0。
func (f *Faculty) Normalize() {
	if len(f.PreferredDays) == 0 {
		f.PreferredDays = append(NameList{}, AllWeekdays...)
	}
	if len(f.PreferredPeriods) == 0 {
		f.PreferredPeriods = append(NameList{}, AllPeriods...)
	}
	if f.PreferenceWeight <= 0 {
		f.PreferenceWeight = DefaultPreferenceWeight
	}
}

// IsQualified 检查教师是否有某门课程的任教资格
func (f *Faculty) IsQualified(subjectID int) bool {
	return f.QualifiedSubjects.Contains(subjectID)
}

// PrefersDay 检查某天是否在偏好范围内
func (f *Faculty) PrefersDay(day string) bool {
	return f.PreferredDays.Contains(day)
}

// PrefersPeriod 检查某时段是否在偏好范围内
func (f *Faculty) PrefersPeriod(period string) bool {
	return f.PreferredPeriods.Contains(period)
}

// ClampedWeight 返回夹取到 [0.1, 5.0] 的偏好权重
func (f *Faculty) ClampedWeight() float64 {
	w := f.PreferenceWeight
	if w < 0.1 {
		w = 0.1
	}
	if w > 5.0 {
		w = 5.0
	}
	return w
}

// Package constraints 提供约束库目录与预设装配
package constraints

import (
	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/scheduler/constraint"
	"github.com/paike/paike/pkg/scheduler/constraint/builtin"
)

// ConstraintParam 约束参数定义
type ConstraintParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, bool
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// ConstraintDefinition 约束定义
type ConstraintDefinition struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Type        string            `json:"type"`     // hard 硬约束, soft 软约束
	Category    string            `json:"category"` // 分类
	Description string            `json:"description"`
	Presets     []string          `json:"presets"` // 启用该约束的预设
	Params      []ConstraintParam `json:"params"`
}

// Preset 约束预设：一组可直接装配的权重配置
type Preset struct {
	Name        string                 `json:"name"`
	DisplayName string                 `json:"display_name"`
	Description string                 `json:"description"`
	Config      map[string]interface{} `json:"config"`
}

// LibraryResponse 约束库响应
type LibraryResponse struct {
	Library []ConstraintDefinition `json:"library"`
	Presets []Preset               `json:"presets"`
}

// DefaultPreset 未指定预设时使用的名字
const DefaultPreset = "default"

// GetLibrary 获取完整的约束库
func GetLibrary() []ConstraintDefinition {
	return []ConstraintDefinition{
		// =====================================================
		// 硬约束
		// =====================================================
		{
			Name:        string(constraint.TypeWorkload),
			DisplayName: "教师周课时上限",
			Type:        "hard",
			Category:    "工作量",
			Description: "教师承担的理论课时总量不得超过其周课时上限，超过则排课无效。",
			Presets:     []string{"default", "strict", "lenient"},
			Params: []ConstraintParam{
				{Name: "workload_weight", Type: "int", Description: "约束权重", Default: "100", Min: "0", Max: "100"},
			},
		},
		{
			Name:        string(constraint.TypeFacultyConflict),
			DisplayName: "教师时间冲突",
			Type:        "hard",
			Category:    "时间冲突",
			Description: "同一教师在同一时间段只能讲授一门课程。",
			Presets:     []string{"default", "strict", "lenient"},
			Params: []ConstraintParam{
				{Name: "faculty_conflict_weight", Type: "int", Description: "约束权重", Default: "100", Min: "0", Max: "100"},
			},
		},
		{
			Name:        string(constraint.TypeClassroomConflict),
			DisplayName: "教室时间冲突",
			Type:        "hard",
			Category:    "时间冲突",
			Description: "同一教室在同一时间段只能容纳一门课程。",
			Presets:     []string{"default", "strict", "lenient"},
			Params: []ConstraintParam{
				{Name: "classroom_conflict_weight", Type: "int", Description: "约束权重", Default: "100", Min: "0", Max: "100"},
			},
		},
		{
			Name:        string(constraint.TypeQualification),
			DisplayName: "任教资格匹配",
			Type:        "hard",
			Category:    "资质要求",
			Description: "课程只能分配给具备任教资格的教师。",
			Presets:     []string{"default", "strict", "lenient"},
			Params: []ConstraintParam{
				{Name: "qualification_weight", Type: "int", Description: "约束权重", Default: "95", Min: "0", Max: "100"},
			},
		},
		{
			Name:        string(constraint.TypeLabRoom),
			DisplayName: "实验教室匹配",
			Type:        "hard",
			Category:    "教室设备",
			Description: "含实验课时的课程必须安排在配备实验设备的教室。",
			Presets:     []string{"default", "strict", "lenient"},
			Params: []ConstraintParam{
				{Name: "lab_room_weight", Type: "int", Description: "约束权重", Default: "90", Min: "0", Max: "100"},
			},
		},
		{
			Name:        string(constraint.TypeSingleMeeting),
			DisplayName: "课程单次安排",
			Type:        "hard",
			Category:    "课程完整性",
			Description: "每门课程在整张课表中只出现一次，重复安排视为无效。",
			Presets:     []string{"default", "strict", "lenient"},
			Params: []ConstraintParam{
				{Name: "single_meeting_weight", Type: "int", Description: "约束权重", Default: "90", Min: "0", Max: "100"},
			},
		},

		// =====================================================
		// 软约束
		// =====================================================
		{
			Name:        string(constraint.TypeFacultyPreference),
			DisplayName: "教师偏好满足",
			Type:        "soft",
			Category:    "偏好",
			Description: "尽量把课程安排在教师偏好的工作日与时段，违反时仅计入惩罚分。",
			Presets:     []string{"default", "strict"},
			Params: []ConstraintParam{
				{Name: "preference_weight", Type: "int", Description: "约束权重", Default: "50", Min: "0", Max: "100"},
				{Name: "enable_preference", Type: "bool", Description: "是否启用偏好软约束", Default: "true"},
			},
		},
	}
}

// GetPresets 获取全部预设
// default 使用内置权重；strict 把全部权重拉满并加重偏好惩罚；
// lenient 关闭偏好软约束，只保留可行性检查。
func GetPresets() []Preset {
	return []Preset{
		{
			Name:        "default",
			DisplayName: "默认",
			Description: "内置权重，启用偏好软约束。",
			Config:      map[string]interface{}{},
		},
		{
			Name:        "strict",
			DisplayName: "严格",
			Description: "全部硬约束权重拉满，偏好违例的惩罚加重。",
			Config: map[string]interface{}{
				"workload_weight":           100,
				"faculty_conflict_weight":   100,
				"classroom_conflict_weight": 100,
				"qualification_weight":      100,
				"lab_room_weight":           100,
				"single_meeting_weight":     100,
				"preference_weight":         80,
			},
		},
		{
			Name:        "lenient",
			DisplayName: "宽松",
			Description: "只做可行性检查，不注册偏好软约束。",
			Config: map[string]interface{}{
				"enable_preference": false,
			},
		},
	}
}

// GetPreset 按名字查找预设，空名退回 default
func GetPreset(name string) *Preset {
	if name == "" {
		name = DefaultPreset
	}
	for _, p := range GetPresets() {
		if p.Name == name {
			return &p
		}
	}
	return nil
}

// BuildManager 按预设装配约束管理器
// overrides 覆盖预设中的同名配置项，未知预设返回 INVALID_INPUT。
func BuildManager(preset string, overrides map[string]interface{}) (*constraint.Manager, error) {
	p := GetPreset(preset)
	if p == nil {
		return nil, errors.InvalidInput("preset", "未知的约束预设 '"+preset+"'")
	}

	config := mergeConfig(p.Config, overrides)
	manager := constraint.NewManager()
	builtin.RegisterDefaultConstraints(manager, config)
	return manager, nil
}

// mergeConfig 叠加覆盖项，不修改入参
func mergeConfig(base, overrides map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base)+len(overrides))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// Package builtin 提供内置约束实现
package builtin

import (
	"github.com/paike/paike/pkg/scheduler/constraint"
)

// RegisterDefaultConstraints 注册默认约束到管理器
func RegisterDefaultConstraints(manager *constraint.Manager, config map[string]interface{}) {
	// 从配置中获取权重，使用默认值
	workloadWeight := getConfigInt(config, "workload_weight", 100)
	facultyConflictWeight := getConfigInt(config, "faculty_conflict_weight", 100)
	classroomConflictWeight := getConfigInt(config, "classroom_conflict_weight", 100)
	qualificationWeight := getConfigInt(config, "qualification_weight", 95)
	labRoomWeight := getConfigInt(config, "lab_room_weight", 90)
	singleMeetingWeight := getConfigInt(config, "single_meeting_weight", 90)
	preferenceWeight := getConfigInt(config, "preference_weight", 50)

	// 注册硬约束
	manager.Register(NewWorkloadConstraint(workloadWeight))
	manager.Register(NewFacultyConflictConstraint(facultyConflictWeight))
	manager.Register(NewClassroomConflictConstraint(classroomConflictWeight))
	manager.Register(NewQualificationConstraint(qualificationWeight))
	manager.Register(NewLabRoomConstraint(labRoomWeight))
	manager.Register(NewSingleMeetingConstraint(singleMeetingWeight))

	// 注册软约束
	if getConfigBool(config, "enable_preference", true) {
		manager.Register(NewFacultyPreferenceConstraint(preferenceWeight))
	}
}

// getConfigInt 从配置中获取整数
func getConfigInt(config map[string]interface{}, key string, defaultVal int) int {
	if config == nil {
		return defaultVal
	}
	if val, ok := config[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case float64:
			return int(v)
		case int64:
			return int(v)
		}
	}
	return defaultVal
}

// getConfigBool 从配置中获取布尔值
func getConfigBool(config map[string]interface{}, key string, defaultVal bool) bool {
	if config == nil {
		return defaultVal
	}
	if val, ok := config[key].(bool); ok {
		return val
	}
	return defaultVal
}

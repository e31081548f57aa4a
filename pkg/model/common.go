// Package model 定义排课引擎的核心数据模型
package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Strategy 求解策略
type Strategy string

const (
	StrategyAuto   Strategy = "auto"   // 先贪心直构，失败后混合回溯
	StrategyDirect Strategy = "direct" // 仅贪心直构
	StrategyCSP    Strategy = "csp"    // 仅回溯搜索
	StrategyHybrid Strategy = "hybrid" // 实验室预指派 + 回溯搜索
)

// Valid 检查策略取值是否合法
func (s Strategy) Valid() bool {
	switch s {
	case StrategyAuto, StrategyDirect, StrategyCSP, StrategyHybrid:
		return true
	}
	return false
}

// 缺省偏好取值，来源于输入表格的规范化规则
var (
	// AllWeekdays 可排课的工作日全集
	AllWeekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

	// AllPeriods 已知的时段全集
	AllPeriods = []string{"Morning", "Afternoon"}
)

// DefaultPreferenceWeight 偏好权重缺省值
const DefaultPreferenceWeight = 1.0

// IDList 整数ID列表
// 同时接受 JSON 数组和逗号分隔字符串（如 "1,2,3"），兼容表格来源的数据。
type IDList []int

// UnmarshalJSON 实现 json.Unmarshaler
func (l *IDList) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		ids, err := ParseIDList(raw)
		if err != nil {
			return err
		}
		*l = ids
		return nil
	}

	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*l = ids
	return nil
}

// Contains 检查列表是否包含某ID
func (l IDList) Contains(id int) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// NameList 名称列表
// 同时接受 JSON 数组和逗号分隔字符串（如 "Monday,Tuesday"）。
type NameList []string

// UnmarshalJSON 实现 json.Unmarshaler
func (l *NameList) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*l = ParseNameList(raw)
		return nil
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*l = names
	return nil
}

// Contains 检查列表是否包含某名称
func (l NameList) Contains(name string) bool {
	for _, v := range l {
		if v == name {
			return true
		}
	}
	return false
}

// ParseIDList 解析逗号分隔的ID串
func ParseIDList(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseNameList 解析逗号分隔的名称串
func ParseNameList(raw string) []string {
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		names = append(names, p)
	}
	return names
}

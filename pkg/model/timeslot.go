// Package model 定义排课引擎的核心数据模型
package model

// Timeslot 时间段
type Timeslot struct {
	ID  int    `json:"id" db:"id"`
	Day string `json:"day" db:"day"`

	// Time 展示用的时间串，如 "9:00-10:30"，引擎不做时间运算
	Time string `json:"time" db:"time"`

	// Period 时段名，如 Morning/Afternoon
	Period string `json:"period" db:"period"`
}

// AdjacentTo 检查两个时间段是否相邻
// 相邻是纯位置约定：同一天且ID相差恰好为 1，与具体钟点无关。
func (t *Timeslot) AdjacentTo(other *Timeslot) bool {
	if other == nil || t.Day != other.Day {
		return false
	}
	diff := t.ID - other.ID
	return diff == 1 || diff == -1
}

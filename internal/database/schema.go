// Package database 提供数据库连接和管理
package database

import (
	"context"
	"fmt"

	"github.com/paike/paike/pkg/logger"
)

// schemaDDL 核心表结构
// 四张基础表沿用业务方提供的整数ID作主键；课表主表由服务端生成UUID，
// 条目表跟随主表级联删除。全部语句幂等，可重复执行。
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS faculty (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		max_hours INTEGER NOT NULL,
		qualified_subjects TEXT NOT NULL DEFAULT '',
		day_preferences TEXT NOT NULL DEFAULT '',
		time_preferences TEXT NOT NULL DEFAULT '',
		preference_weight DOUBLE PRECISION NOT NULL DEFAULT 1.0,
		consecutive_classes_preference INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS subjects (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		hours INTEGER NOT NULL DEFAULT 0,
		lab_hours INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS classrooms (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		has_lab BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS timeslots (
		id INTEGER PRIMARY KEY,
		day TEXT NOT NULL,
		time TEXT NOT NULL,
		period TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS schedules (
		id UUID PRIMARY KEY,
		strategy TEXT NOT NULL,
		feasible BOOLEAN NOT NULL,
		total_meetings INTEGER NOT NULL DEFAULT 0,
		satisfaction_avg DOUBLE PRECISION NOT NULL DEFAULT 0,
		nodes BIGINT NOT NULL DEFAULT 0,
		backtracks BIGINT NOT NULL DEFAULT 0,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		generated_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS schedule_meetings (
		id BIGSERIAL PRIMARY KEY,
		schedule_id UUID NOT NULL REFERENCES schedules(id) ON DELETE CASCADE,
		subject_id INTEGER NOT NULL,
		subject_name TEXT NOT NULL,
		has_lab BOOLEAN NOT NULL,
		faculty_id INTEGER NOT NULL,
		faculty_name TEXT NOT NULL,
		timeslot_id INTEGER NOT NULL,
		day TEXT NOT NULL,
		time TEXT NOT NULL,
		period TEXT NOT NULL,
		classroom_id INTEGER NOT NULL,
		classroom_name TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_schedule_meetings_schedule ON schedule_meetings (schedule_id)`,
	`CREATE INDEX IF NOT EXISTS idx_schedules_created_at ON schedules (created_at)`,
}

// InitSchema 初始化数据库表结构
// 服务启动时调用，已存在的表不受影响。
func (db *DB) InitSchema(ctx context.Context) error {
	for _, ddl := range schemaDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("初始化表结构失败: %w", err)
		}
	}

	logger.Info().Int("statements", len(schemaDDL)).Msg("数据库表结构就绪")
	return nil
}

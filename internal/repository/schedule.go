// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/model"
)

// Schedule 课表主记录
// 保存一次求解的结果概要，课表条目单独落在 schedule_meetings 表。
type Schedule struct {
	ID              uuid.UUID `json:"id"`
	Strategy        string    `json:"strategy"`
	Feasible        bool      `json:"feasible"`
	TotalMeetings   int       `json:"total_meetings"`
	SatisfactionAvg float64   `json:"satisfaction_avg"`
	Nodes           int64     `json:"nodes"`
	Backtracks      int64     `json:"backtracks"`
	DurationMs      int64     `json:"duration_ms"`
	GeneratedAt     time.Time `json:"generated_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ScheduleRepositoryInterface 课表仓储接口
type ScheduleRepositoryInterface interface {
	Save(ctx context.Context, schedule *Schedule, meetings []*model.Meeting) error
	GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error)
	GetMeetings(ctx context.Context, scheduleID uuid.UUID) ([]*model.Meeting, error)
	List(ctx context.Context, filter ListFilter) ([]*Schedule, int, error)
	Latest(ctx context.Context) (*Schedule, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ScheduleRepository 课表仓储实现
type ScheduleRepository struct {
	store Store
}

// NewScheduleRepository 创建课表仓储
func NewScheduleRepository(store Store) *ScheduleRepository {
	return &ScheduleRepository{store: store}
}

// Save 保存课表
// 主记录与全部条目在同一事务内写入，部分落库的课表不可用。
func (r *ScheduleRepository) Save(ctx context.Context, schedule *Schedule, meetings []*model.Meeting) error {
	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}
	now := time.Now()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	if schedule.GeneratedAt.IsZero() {
		schedule.GeneratedAt = now
	}

	err := r.store.Transaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO schedules (
				id, strategy, feasible, total_meetings, satisfaction_avg,
				nodes, backtracks, duration_ms,
				generated_at, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		if _, err := tx.ExecContext(ctx, query,
			schedule.ID, schedule.Strategy, schedule.Feasible, schedule.TotalMeetings, schedule.SatisfactionAvg,
			schedule.Nodes, schedule.Backtracks, schedule.DurationMs,
			schedule.GeneratedAt, schedule.CreatedAt, schedule.UpdatedAt,
		); err != nil {
			return err
		}

		for _, m := range meetings {
			if err := insertMeeting(ctx, tx, schedule.ID, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "保存课表失败")
	}
	return nil
}

// GetByID 根据ID获取课表主记录
func (r *ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	query := scheduleSelect + ` WHERE id = $1`

	s, err := scanSchedule(r.store.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("课表", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "查询课表失败")
	}
	return s, nil
}

// GetMeetings 获取课表条目
// 条目按时间段与教室排序，直接以 model.Meeting 返回。
func (r *ScheduleRepository) GetMeetings(ctx context.Context, scheduleID uuid.UUID) ([]*model.Meeting, error) {
	query := `
		SELECT subject_id, subject_name, has_lab,
			faculty_id, faculty_name,
			timeslot_id, day, time, period,
			classroom_id, classroom_name
		FROM schedule_meetings
		WHERE schedule_id = $1
		ORDER BY timeslot_id, classroom_id
	`

	rows, err := r.store.QueryContext(ctx, query, scheduleID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "查询课表条目失败")
	}
	defer rows.Close()

	var meetings []*model.Meeting
	for rows.Next() {
		m := &model.Meeting{}
		if err := rows.Scan(
			&m.SubjectID, &m.SubjectName, &m.HasLab,
			&m.FacultyID, &m.FacultyName,
			&m.TimeslotID, &m.Day, &m.Time, &m.Period,
			&m.ClassroomID, &m.ClassroomName,
		); err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "扫描课表条目失败")
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

// List 分页列出课表主记录
func (r *ScheduleRepository) List(ctx context.Context, filter ListFilter) ([]*Schedule, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Strategy != "" {
		conditions = append(conditions, fmt.Sprintf("strategy = $%d", argNum))
		args = append(args, filter.Strategy)
		argNum++
	}

	if filter.Feasible != nil {
		conditions = append(conditions, fmt.Sprintf("feasible = $%d", argNum))
		args = append(args, *filter.Feasible)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM schedules %s", whereClause)
	var total int
	if err := r.store.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.CodeDatabaseError, "统计课表数量失败")
	}

	orderBy, orderDir := normalizeOrder(filter.OrderBy, filter.OrderDir)
	query := fmt.Sprintf("%s %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		scheduleSelect, whereClause, orderBy, orderDir, argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.store.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.CodeDatabaseError, "查询课表列表失败")
	}
	defer rows.Close()

	var schedules []*Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.CodeDatabaseError, "扫描课表记录失败")
		}
		schedules = append(schedules, s)
	}
	return schedules, total, rows.Err()
}

// Latest 获取最近保存的课表主记录
func (r *ScheduleRepository) Latest(ctx context.Context) (*Schedule, error) {
	query := scheduleSelect + ` ORDER BY created_at DESC LIMIT 1`

	s, err := scanSchedule(r.store.QueryRowContext(ctx, query))
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.CodeNotFound, "尚未保存过课表")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "查询最新课表失败")
	}
	return s, nil
}

// Delete 删除课表
// 条目表设置了级联删除，只需删除主记录。
func (r *ScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.store.ExecContext(ctx, "DELETE FROM schedules WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "删除课表失败")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "删除课表失败")
	}
	if affected == 0 {
		return errors.NotFound("课表", id.String())
	}
	return nil
}

// scheduleSelect 主记录查询列，与 scanSchedule 对齐
const scheduleSelect = `
	SELECT id, strategy, feasible, total_meetings, satisfaction_avg,
		nodes, backtracks, duration_ms,
		generated_at, created_at, updated_at
	FROM schedules`

// insertMeeting 写入单条课表条目
func insertMeeting(ctx context.Context, db DB, scheduleID uuid.UUID, m *model.Meeting) error {
	query := `
		INSERT INTO schedule_meetings (
			schedule_id, subject_id, subject_name, has_lab,
			faculty_id, faculty_name,
			timeslot_id, day, time, period,
			classroom_id, classroom_name
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := db.ExecContext(ctx, query,
		scheduleID, m.SubjectID, m.SubjectName, m.HasLab,
		m.FacultyID, m.FacultyName,
		m.TimeslotID, m.Day, m.Time, m.Period,
		m.ClassroomID, m.ClassroomName,
	)
	return err
}

// scanSchedule 扫描课表主记录，原样返回扫描错误供调用方判别
func scanSchedule(s Scanner) (*Schedule, error) {
	sc := &Schedule{}
	if err := s.Scan(
		&sc.ID, &sc.Strategy, &sc.Feasible, &sc.TotalMeetings, &sc.SatisfactionAvg,
		&sc.Nodes, &sc.Backtracks, &sc.DurationMs,
		&sc.GeneratedAt, &sc.CreatedAt, &sc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return sc, nil
}

// normalizeOrder 将排序参数收敛到白名单，避免拼接任意列名
func normalizeOrder(orderBy, orderDir string) (string, string) {
	switch orderBy {
	case "created_at", "generated_at", "satisfaction_avg", "duration_ms":
	default:
		orderBy = "created_at"
	}
	if orderDir != "asc" && orderDir != "desc" {
		orderDir = "desc"
	}
	return orderBy, orderDir
}

// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/model"
)

// CatalogRepositoryInterface 基础数据仓储接口
type CatalogRepositoryInterface interface {
	ReplaceAll(ctx context.Context, tables *model.Tables) error
	LoadAll(ctx context.Context) (*model.Tables, error)
	ListFaculty(ctx context.Context) ([]*model.Faculty, error)
	ListSubjects(ctx context.Context) ([]*model.Subject, error)
	ListClassrooms(ctx context.Context) ([]*model.Classroom, error)
	ListTimeslots(ctx context.Context) ([]*model.Timeslot, error)
}

// CatalogRepository 基础数据仓储
// 教师/课程/教室/时间段来自表格导入，使用场景是整体替换与整体读取，
// 不提供单条增删改。列表字段以逗号分隔串落库，与导入格式保持一致。
type CatalogRepository struct {
	store Store
}

// NewCatalogRepository 创建基础数据仓储
func NewCatalogRepository(store Store) *CatalogRepository {
	return &CatalogRepository{store: store}
}

// ReplaceAll 整体替换四张基础表
// 在单个事务内先清空再写入，失败时保留旧数据。
func (r *CatalogRepository) ReplaceAll(ctx context.Context, tables *model.Tables) error {
	err := r.store.Transaction(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"faculty", "subjects", "classrooms", "timeslots"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return err
			}
		}

		for _, f := range tables.Faculty {
			if err := insertFaculty(ctx, tx, f); err != nil {
				return err
			}
		}
		for _, s := range tables.Subjects {
			if err := insertSubject(ctx, tx, s); err != nil {
				return err
			}
		}
		for _, c := range tables.Classrooms {
			if err := insertClassroom(ctx, tx, c); err != nil {
				return err
			}
		}
		for _, ts := range tables.Timeslots {
			if err := insertTimeslot(ctx, tx, ts); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "替换基础数据失败")
	}
	return nil
}

// LoadAll 读取四张基础表并构建问题实例
// 任何一张表为空都无法排课，返回 NOT_FOUND 提示先导入数据。
func (r *CatalogRepository) LoadAll(ctx context.Context) (*model.Tables, error) {
	faculty, err := r.ListFaculty(ctx)
	if err != nil {
		return nil, err
	}
	subjects, err := r.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}
	classrooms, err := r.ListClassrooms(ctx)
	if err != nil {
		return nil, err
	}
	timeslots, err := r.ListTimeslots(ctx)
	if err != nil {
		return nil, err
	}

	if len(faculty) == 0 || len(subjects) == 0 || len(classrooms) == 0 || len(timeslots) == 0 {
		return nil, errors.New(errors.CodeNotFound, "基础数据不完整，请先导入教师、课程、教室与时间段")
	}

	tables, err := model.NewTables(faculty, subjects, classrooms, timeslots)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "基础数据损坏")
	}
	return tables, nil
}

// ListFaculty 按ID序返回全部教师
func (r *CatalogRepository) ListFaculty(ctx context.Context) ([]*model.Faculty, error) {
	query := `
		SELECT id, name, max_hours, qualified_subjects,
			day_preferences, time_preferences,
			preference_weight, consecutive_classes_preference
		FROM faculty
		ORDER BY id
	`

	rows, err := r.store.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "查询教师列表失败")
	}
	defer rows.Close()

	var faculty []*model.Faculty
	for rows.Next() {
		f, err := scanFaculty(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "扫描教师记录失败")
		}
		faculty = append(faculty, f)
	}
	return faculty, rows.Err()
}

// ListSubjects 按ID序返回全部课程
func (r *CatalogRepository) ListSubjects(ctx context.Context) ([]*model.Subject, error) {
	query := `SELECT id, name, hours, lab_hours FROM subjects ORDER BY id`

	rows, err := r.store.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "查询课程列表失败")
	}
	defer rows.Close()

	var subjects []*model.Subject
	for rows.Next() {
		s := &model.Subject{}
		if err := rows.Scan(&s.ID, &s.Name, &s.Hours, &s.LabHours); err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "扫描课程记录失败")
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// ListClassrooms 按ID序返回全部教室
func (r *CatalogRepository) ListClassrooms(ctx context.Context) ([]*model.Classroom, error) {
	query := `SELECT id, name, has_lab FROM classrooms ORDER BY id`

	rows, err := r.store.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "查询教室列表失败")
	}
	defer rows.Close()

	var classrooms []*model.Classroom
	for rows.Next() {
		c := &model.Classroom{}
		if err := rows.Scan(&c.ID, &c.Name, &c.HasLab); err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "扫描教室记录失败")
		}
		classrooms = append(classrooms, c)
	}
	return classrooms, rows.Err()
}

// ListTimeslots 按ID序返回全部时间段
func (r *CatalogRepository) ListTimeslots(ctx context.Context) ([]*model.Timeslot, error) {
	query := `SELECT id, day, time, period FROM timeslots ORDER BY id`

	rows, err := r.store.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "查询时间段列表失败")
	}
	defer rows.Close()

	var timeslots []*model.Timeslot
	for rows.Next() {
		ts := &model.Timeslot{}
		if err := rows.Scan(&ts.ID, &ts.Day, &ts.Time, &ts.Period); err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "扫描时间段记录失败")
		}
		timeslots = append(timeslots, ts)
	}
	return timeslots, rows.Err()
}

// insertFaculty 写入单条教师记录
func insertFaculty(ctx context.Context, db DB, f *model.Faculty) error {
	query := `
		INSERT INTO faculty (
			id, name, max_hours, qualified_subjects,
			day_preferences, time_preferences,
			preference_weight, consecutive_classes_preference
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := db.ExecContext(ctx, query,
		f.ID, f.Name, f.MaxHours, joinIDs(f.QualifiedSubjects),
		joinNames(f.PreferredDays), joinNames(f.PreferredPeriods),
		f.PreferenceWeight, f.ConsecutivePreference,
	)
	return err
}

// insertSubject 写入单条课程记录
func insertSubject(ctx context.Context, db DB, s *model.Subject) error {
	query := `INSERT INTO subjects (id, name, hours, lab_hours) VALUES ($1, $2, $3, $4)`
	_, err := db.ExecContext(ctx, query, s.ID, s.Name, s.Hours, s.LabHours)
	return err
}

// insertClassroom 写入单条教室记录
func insertClassroom(ctx context.Context, db DB, c *model.Classroom) error {
	query := `INSERT INTO classrooms (id, name, has_lab) VALUES ($1, $2, $3)`
	_, err := db.ExecContext(ctx, query, c.ID, c.Name, c.HasLab)
	return err
}

// insertTimeslot 写入单条时间段记录
func insertTimeslot(ctx context.Context, db DB, ts *model.Timeslot) error {
	query := `INSERT INTO timeslots (id, day, time, period) VALUES ($1, $2, $3, $4)`
	_, err := db.ExecContext(ctx, query, ts.ID, ts.Day, ts.Time, ts.Period)
	return err
}

// scanFaculty 扫描单条教师记录
// 列表列与 model.ParseIDList / model.ParseNameList 对偶解码。
func scanFaculty(s Scanner) (*model.Faculty, error) {
	f := &model.Faculty{}
	var qualified, days, periods string

	if err := s.Scan(
		&f.ID, &f.Name, &f.MaxHours, &qualified,
		&days, &periods,
		&f.PreferenceWeight, &f.ConsecutivePreference,
	); err != nil {
		return nil, err
	}

	ids, err := model.ParseIDList(qualified)
	if err != nil {
		return nil, err
	}
	f.QualifiedSubjects = ids
	f.PreferredDays = model.ParseNameList(days)
	f.PreferredPeriods = model.ParseNameList(periods)
	return f, nil
}

// joinIDs 将ID列表编码为逗号分隔串，与 model.ParseIDList 对偶
func joinIDs(ids model.IDList) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// joinNames 将名称列表编码为逗号分隔串，与 model.ParseNameList 对偶
func joinNames(names model.NameList) string {
	return strings.Join(names, ",")
}

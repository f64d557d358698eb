package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"timetracker/internal/model"
)

// TimeRepository is the durable store for work sessions and manual
// entries. Queries are written with ? placeholders and passed through
// Rebind, so the same implementation runs on sqlite and postgres.
type TimeRepository struct {
	db *sqlx.DB
}

func NewTimeRepository(db *sqlx.DB) *TimeRepository {
	return &TimeRepository{db: db}
}

// UpdateSessionParams holds the mutable session fields; nil means leave
// the column unchanged.
type UpdateSessionParams struct {
	TaskName *string
	Project  *string
	Notes    *string
}

// UpdateEntryParams holds the mutable entry fields; nil means leave the
// column unchanged.
type UpdateEntryParams struct {
	TaskName *string
	Duration *int64
	Date     *string
	Project  *string
	Notes    *string
}

type sessionRow struct {
	ID        int64          `db:"id"`
	StartTime string         `db:"start_time"`
	EndTime   sql.NullString `db:"end_time"`
	Duration  sql.NullInt64  `db:"duration"`
	TaskName  sql.NullString `db:"task_name"`
	Project   sql.NullString `db:"project"`
	Notes     sql.NullString `db:"notes"`
	CreatedAt string         `db:"created_at"`
}

func (r sessionRow) toModel() (*model.WorkSession, error) {
	session := model.WorkSession{
		ID:       r.ID,
		TaskName: nullableString(r.TaskName),
		Project:  nullableString(r.Project),
		Notes:    nullableString(r.Notes),
	}

	startTime, err := parseTime(r.StartTime)
	if err != nil {
		return nil, fmt.Errorf("parse session start_time: %w", err)
	}
	session.StartTime = startTime

	if r.EndTime.Valid {
		endTime, err := parseTime(r.EndTime.String)
		if err != nil {
			return nil, fmt.Errorf("parse session end_time: %w", err)
		}
		session.EndTime = &endTime
	}
	if r.Duration.Valid {
		duration := r.Duration.Int64
		session.Duration = &duration
	}

	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	session.CreatedAt = createdAt

	return &session, nil
}

type entryRow struct {
	ID        int64          `db:"id"`
	Date      string         `db:"date"`
	Duration  int64          `db:"duration"`
	TaskName  string         `db:"task_name"`
	Project   sql.NullString `db:"project"`
	Notes     sql.NullString `db:"notes"`
	CreatedAt string         `db:"created_at"`
}

func (r entryRow) toModel() (*model.ManualEntry, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse entry created_at: %w", err)
	}

	return &model.ManualEntry{
		ID:        r.ID,
		Date:      r.Date,
		Duration:  r.Duration,
		TaskName:  r.TaskName,
		Project:   nullableString(r.Project),
		Notes:     nullableString(r.Notes),
		CreatedAt: createdAt,
	}, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	value := v.String
	return &value
}

// CreateSession inserts a new session row with a null end_time. The
// single-active-session rule is the service's job, not the store's.
func (r *TimeRepository) CreateSession(ctx context.Context, taskName, project *string, startTime time.Time) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(
		ctx,
		r.db.Rebind(`INSERT INTO work_sessions (start_time, task_name, project, created_at)
		 VALUES (?, ?, ?, ?) RETURNING id`),
		formatTime(startTime),
		taskName,
		project,
		formatTime(startTime),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

func (r *TimeRepository) GetSession(ctx context.Context, id int64) (*model.WorkSession, error) {
	var row sessionRow
	err := r.db.GetContext(
		ctx,
		&row,
		r.db.Rebind(`SELECT id, start_time, end_time, duration, task_name, project, notes, created_at
		 FROM work_sessions WHERE id = ?`),
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return row.toModel()
}

// GetActiveSession returns the session with no end_time, or ErrNotFound
// when none is running.
func (r *TimeRepository) GetActiveSession(ctx context.Context) (*model.WorkSession, error) {
	var row sessionRow
	err := r.db.GetContext(
		ctx,
		&row,
		`SELECT id, start_time, end_time, duration, task_name, project, notes, created_at
		 FROM work_sessions WHERE end_time IS NULL
		 ORDER BY start_time DESC LIMIT 1`,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get active session: %w", err)
	}
	return row.toModel()
}

// StopSession sets end_time and the derived duration on the given row.
func (r *TimeRepository) StopSession(ctx context.Context, id int64, endTime time.Time) error {
	var startRaw string
	err := r.db.QueryRowContext(
		ctx,
		r.db.Rebind(`SELECT start_time FROM work_sessions WHERE id = ?`),
		id,
	).Scan(&startRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("stop session: %w", err)
	}

	startTime, err := parseTime(startRaw)
	if err != nil {
		return fmt.Errorf("parse session start_time: %w", err)
	}
	// Truncate so the stored end_time and the derived duration agree.
	endTime = endTime.UTC().Truncate(time.Second)
	duration := int64(endTime.Sub(startTime).Seconds())

	if _, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(`UPDATE work_sessions SET end_time = ?, duration = ? WHERE id = ?`),
		formatTime(endTime),
		duration,
		id,
	); err != nil {
		return fmt.Errorf("stop session: %w", err)
	}
	return nil
}

func (r *TimeRepository) UpdateSession(ctx context.Context, id int64, params UpdateSessionParams) error {
	sets := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	if params.TaskName != nil {
		sets = append(sets, "task_name = ?")
		args = append(args, *params.TaskName)
	}
	if params.Project != nil {
		sets = append(sets, "project = ?")
		args = append(args, projectValue(*params.Project))
	}
	if params.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *params.Notes)
	}
	if len(sets) == 0 {
		_, err := r.GetSession(ctx, id)
		return err
	}

	args = append(args, id)
	result, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(fmt.Sprintf(`UPDATE work_sessions SET %s WHERE id = ?`, strings.Join(sets, ", "))),
		args...,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return requireRow(result, "update session")
}

func (r *TimeRepository) DeleteSession(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(`DELETE FROM work_sessions WHERE id = ?`),
		id,
	)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return requireRow(result, "delete session")
}

// SessionsByDate returns the sessions whose start falls on the given
// UTC calendar day, oldest first.
func (r *TimeRepository) SessionsByDate(ctx context.Context, date string) ([]model.WorkSession, error) {
	dayStart, dayEnd, err := dayBounds(date)
	if err != nil {
		return nil, err
	}

	var rows []sessionRow
	if err := r.db.SelectContext(
		ctx,
		&rows,
		r.db.Rebind(`SELECT id, start_time, end_time, duration, task_name, project, notes, created_at
		 FROM work_sessions
		 WHERE start_time >= ? AND start_time < ?
		 ORDER BY start_time, id`),
		dayStart,
		dayEnd,
	); err != nil {
		return nil, fmt.Errorf("sessions by date: %w", err)
	}

	sessions := make([]model.WorkSession, 0, len(rows))
	for _, row := range rows {
		session, err := row.toModel()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, nil
}

func (r *TimeRepository) AddEntry(ctx context.Context, taskName string, duration int64, date string, project, notes *string, createdAt time.Time) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(
		ctx,
		r.db.Rebind(`INSERT INTO manual_entries (date, duration, task_name, project, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		date,
		duration,
		taskName,
		project,
		notes,
		formatTime(createdAt),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("add entry: %w", err)
	}
	return id, nil
}

func (r *TimeRepository) GetEntry(ctx context.Context, id int64) (*model.ManualEntry, error) {
	var row entryRow
	err := r.db.GetContext(
		ctx,
		&row,
		r.db.Rebind(`SELECT id, date, duration, task_name, project, notes, created_at
		 FROM manual_entries WHERE id = ?`),
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return row.toModel()
}

func (r *TimeRepository) UpdateEntry(ctx context.Context, id int64, params UpdateEntryParams) error {
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	if params.TaskName != nil {
		sets = append(sets, "task_name = ?")
		args = append(args, *params.TaskName)
	}
	if params.Duration != nil {
		sets = append(sets, "duration = ?")
		args = append(args, *params.Duration)
	}
	if params.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, *params.Date)
	}
	if params.Project != nil {
		sets = append(sets, "project = ?")
		args = append(args, projectValue(*params.Project))
	}
	if params.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *params.Notes)
	}
	if len(sets) == 0 {
		_, err := r.GetEntry(ctx, id)
		return err
	}

	args = append(args, id)
	result, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(fmt.Sprintf(`UPDATE manual_entries SET %s WHERE id = ?`, strings.Join(sets, ", "))),
		args...,
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return requireRow(result, "update entry")
}

func (r *TimeRepository) DeleteEntry(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(`DELETE FROM manual_entries WHERE id = ?`),
		id,
	)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return requireRow(result, "delete entry")
}

// EntriesByDate returns the manual entries logged against the given
// calendar day, oldest first.
func (r *TimeRepository) EntriesByDate(ctx context.Context, date string) ([]model.ManualEntry, error) {
	var rows []entryRow
	if err := r.db.SelectContext(
		ctx,
		&rows,
		r.db.Rebind(`SELECT id, date, duration, task_name, project, notes, created_at
		 FROM manual_entries WHERE date = ?
		 ORDER BY date, id`),
		date,
	); err != nil {
		return nil, fmt.Errorf("entries by date: %w", err)
	}

	entries := make([]model.ManualEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.toModel()
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

// AllProjects returns the distinct non-empty project names used by
// either table, sorted.
func (r *TimeRepository) AllProjects(ctx context.Context) ([]string, error) {
	projects := []string{}
	if err := r.db.SelectContext(
		ctx,
		&projects,
		`SELECT project FROM work_sessions WHERE project IS NOT NULL AND project <> ''
		 UNION
		 SELECT project FROM manual_entries WHERE project IS NOT NULL AND project <> ''
		 ORDER BY 1`,
	); err != nil {
		return nil, fmt.Errorf("all projects: %w", err)
	}
	return projects, nil
}

// projectValue maps a blank project to NULL so records never carry an
// empty-string project, matching how inserts normalize it.
func projectValue(project string) interface{} {
	trimmed := strings.TrimSpace(project)
	if trimmed == "" {
		return nil
	}
	return trimmed
}

func requireRow(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// dayBounds converts a YYYY-MM-DD date into the RFC3339 UTC range
// [start, end) covering that day. Timestamps are stored as RFC3339 UTC
// text, which orders lexicographically, so the range works as a plain
// string comparison.
func dayBounds(date string) (string, string, error) {
	day, err := time.ParseInLocation(model.DateFormat, date, time.UTC)
	if err != nil {
		return "", "", fmt.Errorf("parse date %q: %w", date, err)
	}
	return formatTime(day), formatTime(day.AddDate(0, 0, 1)), nil
}

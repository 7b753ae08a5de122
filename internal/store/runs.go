package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/ttparse/internal/core"
)

// Run is the summary row of one workbook parse.
type Run struct {
	ID        uuid.UUID `json:"id"`
	Profile   string    `json:"profile"`
	FileName  string    `json:"fileName"`
	Sheet     string    `json:"sheet"`
	Events    int       `json:"events"`
	Failures  int       `json:"failures"`
	CreatedAt time.Time `json:"createdAt"`
}

// RunFilter narrows ListRuns. Zero values mean no filter.
type RunFilter struct {
	Profile string
	Limit   int
	Offset  int
}

// DefaultRunLimit caps ListRuns when the filter sets no limit.
const DefaultRunLimit = 50

var (
	eventColumns   = []string{"run_id", "seq", "day", "start_min", "end_min", "event_type", "batches", "course_code", "course_name", "classroom", "lecturers"}
	failureColumns = []string{"run_id", "seq", "cell_row", "cell_col", "raw", "reason"}
)

// SaveRun stores run and every event and failure of res in one transaction.
func (s *Store) SaveRun(ctx context.Context, run Run, res *core.ParseResult) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO parse_runs (id, profile, file_name, sheet, event_count, failure_count, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			run.ID, run.Profile, run.FileName, run.Sheet, len(res.Events), len(res.Failures), run.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"run_events"}, eventColumns,
			pgx.CopyFromSlice(len(res.Events), func(i int) ([]any, error) {
				return eventRow(run.ID, i, res.Events[i]), nil
			}),
		); err != nil {
			return fmt.Errorf("copy events: %w", err)
		}

		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"run_failures"}, failureColumns,
			pgx.CopyFromSlice(len(res.Failures), func(i int) ([]any, error) {
				return failureRow(run.ID, i, res.Failures[i]), nil
			}),
		); err != nil {
			return fmt.Errorf("copy failures: %w", err)
		}
		return nil
	})
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context, f RunFilter) ([]Run, error) {
	query, args, err := s.listRunsQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list runs: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	runs, err := pgx.CollectRows(rows, scanRun)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func (s *Store) listRunsQuery(f RunFilter) sq.SelectBuilder {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultRunLimit
	}
	q := s.sb.Select("id", "profile", "file_name", "sheet", "event_count", "failure_count", "created_at").
		From("parse_runs").
		OrderBy("created_at DESC").
		Limit(uint64(limit))
	if f.Profile != "" {
		q = q.Where(sq.Eq{"profile": f.Profile})
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	return q
}

// GetRun loads a run with its events and failures in stored order.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (Run, *core.ParseResult, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, profile, file_name, sheet, event_count, failure_count, created_at
		 FROM parse_runs WHERE id = $1`, id)
	run, err := scanRunRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, nil, fmt.Errorf("get run: %w", err)
	}

	res := &core.ParseResult{}

	rows, err := s.pool.Query(ctx,
		`SELECT day, start_min, end_min, event_type, batches, course_code, course_name, classroom, lecturers
		 FROM run_events WHERE run_id = $1 ORDER BY seq`, id)
	if err != nil {
		return Run{}, nil, fmt.Errorf("get run events: %w", err)
	}
	if res.Events, err = pgx.CollectRows(rows, scanEvent); err != nil {
		return Run{}, nil, fmt.Errorf("get run events: %w", err)
	}

	rows, err = s.pool.Query(ctx,
		`SELECT cell_row, cell_col, raw, reason FROM run_failures WHERE run_id = $1 ORDER BY seq`, id)
	if err != nil {
		return Run{}, nil, fmt.Errorf("get run failures: %w", err)
	}
	if res.Failures, err = pgx.CollectRows(rows, scanFailure); err != nil {
		return Run{}, nil, fmt.Errorf("get run failures: %w", err)
	}

	return run, res, nil
}

// DeleteRun removes a run; its events and failures cascade.
func (s *Store) DeleteRun(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM parse_runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

func eventRow(runID uuid.UUID, seq int, ev core.Event) []any {
	return []any{
		runID,
		seq,
		int16(ev.Day),
		int32(ev.Span.Start),
		int32(ev.Span.End),
		string(ev.Type),
		nonNil(ev.Batches),
		ev.CourseCode,
		toPgText(ev.CourseName),
		ev.Classroom,
		nonNil(ev.Lecturers),
	}
}

func failureRow(runID uuid.UUID, seq int, pe *core.ParseError) []any {
	return []any{runID, seq, pe.Row, pe.Col, pe.Raw, pe.Reason}
}

// scanner is satisfied by pgx.Row and pgx.CollectableRow.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row pgx.CollectableRow) (Run, error) {
	return scanRunRow(row)
}

func scanRunRow(row scanner) (Run, error) {
	var r Run
	var created pgtype.Timestamptz
	err := row.Scan(&r.ID, &r.Profile, &r.FileName, &r.Sheet, &r.Events, &r.Failures, &created)
	r.CreatedAt = created.Time
	return r, err
}

func scanEvent(row pgx.CollectableRow) (core.Event, error) {
	var (
		ev         core.Event
		day        int16
		start, end int32
		typ        string
		name       pgtype.Text
	)
	err := row.Scan(&day, &start, &end, &typ, &ev.Batches, &ev.CourseCode, &name, &ev.Classroom, &ev.Lecturers)
	ev.Day = time.Weekday(day)
	ev.Span = core.Span{Start: core.TimeOfDay(start), End: core.TimeOfDay(end)}
	ev.Type = core.EventType(typ)
	ev.CourseName = name.String
	return ev, err
}

func scanFailure(row pgx.CollectableRow) (*core.ParseError, error) {
	pe := &core.ParseError{}
	err := row.Scan(&pe.Row, &pe.Col, &pe.Raw, &pe.Reason)
	return pe, err
}

// toPgText maps "" to SQL NULL.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package sheet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"tablero-backend/internal/db"
)

// sqlColumns maps header positions to table columns.
var sqlColumns = []string{
	"id", "title", "description", "status", "priority",
	"assignee", "created_at", "updated_at", "sort_order", "needs_review",
}

// TimeLayout is how time cells are written to SQL tables.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// SQL is a Sheet stored in a relational table. Storage order is insertion
// order, tracked by a surrogate row_no column.
type SQL struct {
	db    *db.DB
	name  string
	table string
	props string
}

// OpenSQL returns the sheet called name, creating its tables when missing.
func OpenSQL(ctx context.Context, database *db.DB, name string) (*SQL, error) {
	table := TableName(name)
	s := &SQL{
		db:    database,
		name:  name,
		table: table,
		props: table + "_props",
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// TableName derives a safe table identifier from a sheet name.
func TableName(name string) string {
	var b strings.Builder
	b.WriteString("sheet_")
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func (s *SQL) ensureSchema(ctx context.Context) error {
	rowNo := "row_no INTEGER PRIMARY KEY AUTOINCREMENT"
	idType := "INTEGER"
	if s.db.Dialect == db.DialectPostgres {
		rowNo = "row_no BIGSERIAL PRIMARY KEY"
		idType = "BIGINT"
	}

	stmts := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				%s,
				id %s UNIQUE,
				title TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT '',
				priority TEXT NOT NULL DEFAULT '',
				assignee TEXT NOT NULL DEFAULT '',
				created_at TEXT,
				updated_at TEXT,
				sort_order INTEGER,
				needs_review BOOLEAN NOT NULL DEFAULT FALSE
			)`, s.table, rowNo, idType),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL
			)`, s.props),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure sheet %q: %w", s.name, err)
		}
	}
	return nil
}

func (s *SQL) Name() string { return s.name }

func (s *SQL) Rows(ctx context.Context) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM %s ORDER BY row_no`,
		strings.Join(sqlColumns, ", "), s.table,
	))
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Row
	for rows.Next() {
		cells, err := scanCells(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, Row{Position: len(out) + 1, Cells: cells})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

func (s *SQL) Find(ctx context.Context, id int) (Row, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s,
			(SELECT COUNT(*) FROM %s t2 WHERE t2.row_no <= t.row_no)
		FROM %s t
		WHERE t.id = %s`,
		prefixed("t.", sqlColumns), s.table, s.table, s.db.Dialect.Placeholder(1),
	), id)

	var position int
	cells, err := scanCells(row, &position)
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, ErrRowNotFound
	}
	if err != nil {
		return Row{}, err
	}
	return Row{Position: position, Cells: cells}, nil
}

func (s *SQL) Append(ctx context.Context, cells []any) error {
	if err := checkCells(cells); err != nil {
		return err
	}

	args := make([]any, len(cells))
	for i, v := range cells {
		args[i] = cellValue(v)
	}

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s)`,
		s.table, strings.Join(sqlColumns, ", "), s.db.Dialect.Placeholders(len(sqlColumns)),
	), args...)
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

// SetCells updates every given cell in a single statement.
func (s *SQL) SetCells(ctx context.Context, id int, cells map[string]any) error {
	if len(cells) == 0 {
		_, err := s.Find(ctx, id)
		return err
	}

	names := make([]string, 0, len(cells))
	for name := range cells {
		names = append(names, name)
	}
	slices.Sort(names)

	sets := make([]string, 0, len(names))
	args := make([]any, 0, len(names)+1)
	for i, name := range names {
		c, err := ColumnIndex(name)
		if err != nil {
			return err
		}
		sets = append(sets, fmt.Sprintf("%s = %s", sqlColumns[c], s.db.Dialect.Placeholder(i+1)))
		args = append(args, cellValue(cells[name]))
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %s SET %s WHERE id = %s`,
		s.table, strings.Join(sets, ", "), s.db.Dialect.Placeholder(len(args)),
	), args...)
	if err != nil {
		return fmt.Errorf("update row %d: %w", id, err)
	}
	return requireAffected(res)
}

func (s *SQL) DeleteRow(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE id = %s`, s.table, s.db.Dialect.Placeholder(1),
	), id)
	if err != nil {
		return fmt.Errorf("delete row %d: %w", id, err)
	}
	return requireAffected(res)
}

func (s *SQL) Property(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT value FROM %s WHERE key = %s`, s.props, s.db.Dialect.Placeholder(1),
	), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read property %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQL) SetProperty(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (key, value) VALUES (%s, %s)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		s.props, s.db.Dialect.Placeholder(1), s.db.Dialect.Placeholder(2),
	), key, value)
	if err != nil {
		return fmt.Errorf("write property %q: %w", key, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCells(sc scanner, extra ...any) ([]any, error) {
	var (
		id, order                           sql.NullInt64
		title, desc, status, prio, assignee sql.NullString
		createdAt, updatedAt                sql.NullString
		needsReview                         sql.NullBool
	)
	dest := []any{&id, &title, &desc, &status, &prio, &assignee, &createdAt, &updatedAt, &order, &needsReview}
	dest = append(dest, extra...)

	if err := sc.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan row: %w", err)
	}

	return []any{
		nullInt(id),
		nullString(title),
		nullString(desc),
		nullString(status),
		nullString(prio),
		nullString(assignee),
		nullString(createdAt),
		nullString(updatedAt),
		nullInt(order),
		nullBool(needsReview),
	}, nil
}

func cellValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.UTC().Format(TimeLayout)
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.UTC().Format(TimeLayout)
	default:
		return v
	}
}

func nullInt(v sql.NullInt64) any {
	if !v.Valid {
		return nil
	}
	return v.Int64
}

func nullString(v sql.NullString) any {
	if !v.Valid {
		return nil
	}
	return v.String
}

func nullBool(v sql.NullBool) any {
	if !v.Valid {
		return nil
	}
	return v.Bool
}

func prefixed(prefix string, cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = prefix + c
	}
	return strings.Join(out, ", ")
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrRowNotFound
	}
	return nil
}

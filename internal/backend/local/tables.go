package local

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/abhisek/levelup/internal/backend"
	"github.com/abhisek/levelup/internal/catalog"
)

// exposed lists the tables reachable through the Store contract. Account
// tables stay private to the auth half.
var exposed = map[string]bool{
	"profiles":               true,
	"iq_test_results":        true,
	"learning_modules":       true,
	"user_learning_progress": true,
	"roadmap_steps":          true,
	"user_roadmap_progress":  true,
	"practice_problems":      true,
	"user_problem_progress":  true,
}

// Tables implements backend.Store on SQLite. Table and column names are
// checked against the live schema before they reach SQL.
type Tables struct {
	db *sql.DB

	mu   sync.Mutex
	cols map[string]map[string]bool
}

var _ backend.Store = (*Tables)(nil)

func (t *Tables) columns(ctx context.Context, table string) (map[string]bool, error) {
	if !exposed[table] {
		return nil, fmt.Errorf("local: unknown table %q", table)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if cols, ok := t.cols[table]; ok {
		return cols, nil
	}

	rows, err := t.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}
	defer rows.Close()
	cols := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	t.cols[table] = cols
	return cols, nil
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func checkColumn(cols map[string]bool, table, col string) error {
	if !cols[col] {
		return fmt.Errorf("local: unknown column %s.%s", table, col)
	}
	return nil
}

// where renders filters as a WHERE clause.
func where(cols map[string]bool, table string, filters []backend.Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	parts := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, f := range filters {
		if err := checkColumn(cols, table, f.Column); err != nil {
			return "", nil, err
		}
		if f.Value == nil {
			parts = append(parts, quote(f.Column)+" IS NULL")
			continue
		}
		parts = append(parts, quote(f.Column)+" = ?")
		args = append(args, f.Value)
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

func (t *Tables) selectRows(ctx context.Context, q backend.Query) ([]map[string]any, error) {
	cols, err := t.columns(ctx, q.Table)
	if err != nil {
		return nil, err
	}

	sel := "*"
	if len(q.Columns) > 0 {
		quoted := make([]string, 0, len(q.Columns))
		for _, c := range q.Columns {
			if err := checkColumn(cols, q.Table, c); err != nil {
				return nil, err
			}
			quoted = append(quoted, quote(c))
		}
		sel = strings.Join(quoted, ", ")
	}

	clause, args, err := where(cols, q.Table, q.Filters)
	if err != nil {
		return nil, err
	}
	stmt := "SELECT " + sel + " FROM " + quote(q.Table) + clause

	if len(q.Order) > 0 {
		parts := make([]string, 0, len(q.Order))
		for _, o := range q.Order {
			if err := checkColumn(cols, q.Table, o.Column); err != nil {
				return nil, err
			}
			dir := " ASC"
			if o.Descending {
				dir = " DESC"
			}
			parts = append(parts, quote(o.Column)+dir)
		}
		stmt += " ORDER BY " + strings.Join(parts, ", ")
	}

	rows, err := t.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", q.Table, err)
	}
	return scanMaps(rows)
}

func (t *Tables) Select(ctx context.Context, q backend.Query, dest any) error {
	rows, err := t.selectRows(ctx, q)
	if err != nil {
		return err
	}
	return decode(rows, dest)
}

func (t *Tables) SelectOne(ctx context.Context, q backend.Query, dest any) error {
	rows, err := t.selectRows(ctx, q)
	if err != nil {
		return err
	}
	if len(rows) != 1 {
		return fmt.Errorf("select %s: %w", q.Table, backend.ErrNotFound)
	}
	return decode(rows[0], dest)
}

func (t *Tables) Insert(ctx context.Context, table string, row any) error {
	cols, err := t.columns(ctx, table)
	if err != nil {
		return err
	}
	values, err := toColumns(row)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("insert %s: empty row", table)
	}

	names := make([]string, 0, len(values))
	marks := make([]string, 0, len(values))
	args := make([]any, 0, len(values))
	for _, name := range sortedKeys(values) {
		if err := checkColumn(cols, table, name); err != nil {
			return err
		}
		names = append(names, quote(name))
		marks = append(marks, "?")
		args = append(args, values[name])
	}

	stmt := "INSERT INTO " + quote(table) + " (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
	if _, err := t.db.ExecContext(ctx, stmt, args...); err != nil {
		return classify(fmt.Errorf("insert %s: %w", table, err))
	}
	return nil
}

func (t *Tables) Update(ctx context.Context, table string, patch map[string]any, filters []backend.Filter, dest any) error {
	cols, err := t.columns(ctx, table)
	if err != nil {
		return err
	}
	if len(filters) == 0 {
		return fmt.Errorf("update %s: filters are required", table)
	}
	values, err := toColumns(patch)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("update %s: empty patch", table)
	}

	sets := make([]string, 0, len(values))
	args := make([]any, 0, len(values)+len(filters))
	for _, name := range sortedKeys(values) {
		if err := checkColumn(cols, table, name); err != nil {
			return err
		}
		sets = append(sets, quote(name)+" = ?")
		args = append(args, values[name])
	}
	clause, whereArgs, err := where(cols, table, filters)
	if err != nil {
		return err
	}
	args = append(args, whereArgs...)

	stmt := "UPDATE " + quote(table) + " SET " + strings.Join(sets, ", ") + clause + " RETURNING *"
	rows, err := t.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return classify(fmt.Errorf("update %s: %w", table, err))
	}
	updated, err := scanMaps(rows)
	if err != nil {
		return classify(fmt.Errorf("update %s: %w", table, err))
	}
	if dest == nil {
		return nil
	}
	if len(updated) != 1 {
		return fmt.Errorf("update %s: %w", table, backend.ErrNotFound)
	}
	return decode(updated[0], dest)
}

func (t *Tables) Delete(ctx context.Context, table string, filters []backend.Filter) error {
	cols, err := t.columns(ctx, table)
	if err != nil {
		return err
	}
	if len(filters) == 0 {
		return fmt.Errorf("delete %s: filters are required", table)
	}
	clause, args, err := where(cols, table, filters)
	if err != nil {
		return err
	}
	if _, err := t.db.ExecContext(ctx, "DELETE FROM "+quote(table)+clause, args...); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

// scanMaps reads every row into a column-name map and closes rows.
func scanMaps(rows *sql.Rows) ([]map[string]any, error) {
	defer rows.Close()
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := []map[string]any{}
	for rows.Next() {
		vals := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		m := make(map[string]any, len(names))
		for i, n := range names {
			if b, ok := vals[i].([]byte); ok {
				m[n] = string(b)
				continue
			}
			m[n] = vals[i]
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// decode moves v into dest through JSON, the same path rows take over HTTP.
func decode(v any, dest any) error {
	if dest == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode row: %w", err)
	}
	return nil
}

// toColumns flattens a row value into column values. Numbers keep integer
// precision and nested values are stored as JSON text.
func toColumns(row any) (map[string]any, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("row must be an object: %w", err)
	}

	for k, v := range m {
		switch x := v.(type) {
		case json.Number:
			if i, err := x.Int64(); err == nil {
				m[k] = i
			} else if f, err := x.Float64(); err == nil {
				m[k] = f
			} else {
				return nil, fmt.Errorf("column %s: %w", k, err)
			}
		case map[string]any, []any:
			nested, err := json.Marshal(x)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", k, err)
			}
			m[k] = string(nested)
		case bool:
			if x {
				m[k] = int64(1)
			} else {
				m[k] = int64(0)
			}
		}
	}
	return m, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// classify maps SQLite constraint failures onto backend sentinels.
func classify(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY constraint failed") {
		return fmt.Errorf("%w: %s", backend.ErrConflict, msg)
	}
	return err
}

func encodeLinks(links []catalog.Link) (string, error) {
	if links == nil {
		links = []catalog.Link{}
	}
	b, err := json.Marshal(links)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

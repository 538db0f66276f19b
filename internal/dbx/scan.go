package dbx

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownColumn is returned when a result set carries a column that the
// destination does not declare.
var ErrUnknownColumn = errors.New("unknown column")

// Fields maps lower-case column names to scan destinations.
type Fields map[string]any

// CollectNamed drains rows into a slice, resolving every column by its name
// through bind. The order of columns in the query text therefore never has to
// match the order of destinations. rows is always closed.
//
// The returned slice is empty, never nil, when there are no rows.
func CollectNamed[T any](rows *sql.Rows, bind func(*T) Fields) ([]T, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]T, 0)
	for rows.Next() {
		var item T
		dest, err := destinations(cols, bind(&item))
		if err != nil {
			return nil, err
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// FirstNamed is CollectNamed for single-row lookups. It returns sql.ErrNoRows
// when the result set is empty.
func FirstNamed[T any](rows *sql.Rows, bind func(*T) Fields) (*T, error) {
	items, err := CollectNamed(rows, bind)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, sql.ErrNoRows
	}
	return &items[0], nil
}

func destinations(cols []string, fields Fields) ([]any, error) {
	dest := make([]any, len(cols))
	for i, c := range cols {
		d, ok := fields[strings.ToLower(c)]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
		dest[i] = d
	}
	return dest, nil
}

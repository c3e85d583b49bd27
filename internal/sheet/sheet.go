// Package sheet provides the tabular record store behind the board: a fixed
// header row, rows addressed by the value of their first column, and a small
// property bag for bookkeeping values.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Column names of the task sheet, in header order. The first column is the
// lookup key.
const (
	ColID          = "ID"
	ColTitle       = "Title"
	ColDescription = "Description"
	ColStatus      = "Status"
	ColPriority    = "Priority"
	ColAssignee    = "Assignee"
	ColCreatedAt   = "CreatedAt"
	ColUpdatedAt   = "UpdatedAt"
	ColOrder       = "Order"
	ColNeedsReview = "NeedsReview"
)

// Header is the canonical header row.
var Header = []string{
	ColID, ColTitle, ColDescription, ColStatus, ColPriority,
	ColAssignee, ColCreatedAt, ColUpdatedAt, ColOrder, ColNeedsReview,
}

var (
	ErrRowNotFound   = errors.New("row not found")
	ErrUnknownColumn = errors.New("unknown column")
)

// Row is one data row. Position is 1-based and counts data rows only.
type Row struct {
	Position int
	Cells    []any
}

// Cell returns the value under the named column, or nil.
func (r Row) Cell(name string) any {
	i, err := ColumnIndex(name)
	if err != nil || i >= len(r.Cells) {
		return nil
	}
	return r.Cells[i]
}

// Sheet is a record collection with a fixed column schema.
type Sheet interface {
	Name() string

	// Rows returns every data row in storage order.
	Rows(ctx context.Context) ([]Row, error)
	// Find returns the row whose first column equals id, or ErrRowNotFound.
	Find(ctx context.Context, id int) (Row, error)
	Append(ctx context.Context, cells []any) error
	// SetCells writes the given cells, keyed by header name, of one row.
	SetCells(ctx context.Context, id int, cells map[string]any) error
	DeleteRow(ctx context.Context, id int) error

	Property(ctx context.Context, key string) (string, bool, error)
	SetProperty(ctx context.Context, key, value string) error
}

// ColumnIndex resolves a header name to its 0-based index. Matching ignores
// case and surrounding spaces.
func ColumnIndex(name string) (int, error) {
	target := strings.ToLower(strings.TrimSpace(name))
	for i, h := range Header {
		if strings.ToLower(h) == target {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
}

func checkCells(cells []any) error {
	if len(cells) != len(Header) {
		return fmt.Errorf("row has %d cells, want %d", len(cells), len(Header))
	}
	return nil
}

// ParseID reads an id cell. Text is decimal, so "010" is 10, and may carry
// an integral fraction such as "7.0". Only positive ids are valid.
func ParseID(v any) (int, bool) {
	var id int
	switch x := v.(type) {
	case nil:
		return 0, false
	case string:
		s := strings.TrimSpace(x)
		n, err := strconv.Atoi(s)
		if err != nil {
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil || f != math.Trunc(f) || f < 1 || f > math.MaxInt32 {
				return 0, false
			}
			n = int(f)
		}
		id = n
	default:
		n, err := cast.ToIntE(v)
		if err != nil {
			return 0, false
		}
		id = n
	}
	if id <= 0 {
		return 0, false
	}
	return id, true
}

package tasks

import (
	"strings"
	"time"

	"github.com/spf13/cast"

	"tablero-backend/internal/sheet"
)

// TimestampLayout is how createdAt and updatedAt are served.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// taskFromRow coerces the cells of a row into a Task. Rows without a positive
// id are not tasks.
func taskFromRow(r sheet.Row) (Task, bool) {
	id, ok := cellID(r.Cell(sheet.ColID))
	if !ok {
		return Task{}, false
	}

	// Order cells follow the id rules; anything else falls back to position.
	order, ok := sheet.ParseID(r.Cell(sheet.ColOrder))
	if !ok {
		order = r.Position
	}

	return Task{
		ID:          id,
		Title:       cellString(r.Cell(sheet.ColTitle)),
		Description: cellString(r.Cell(sheet.ColDescription)),
		Status:      cellString(r.Cell(sheet.ColStatus)),
		Priority:    cellString(r.Cell(sheet.ColPriority)),
		Assignee:    cellString(r.Cell(sheet.ColAssignee)),
		CreatedAt:   cellTimestamp(r.Cell(sheet.ColCreatedAt)),
		UpdatedAt:   cellTimestamp(r.Cell(sheet.ColUpdatedAt)),
		Order:       order,
		NeedsReview: cellBool(r.Cell(sheet.ColNeedsReview)),
	}, true
}

func cellID(v any) (int, bool) {
	return sheet.ParseID(v)
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	return cast.ToString(v)
}

// cellBool is strict: only a boolean true or the text "true" count.
func cellBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(strings.TrimSpace(b), "true")
	default:
		return false
	}
}

// cellTime parses a time cell. Text that is not a recognizable time yields
// ok=false.
func cellTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, !t.IsZero()
	case string:
		if strings.TrimSpace(t) == "" {
			return time.Time{}, false
		}
	}
	t, err := cast.ToTimeE(v)
	if err != nil || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

func cellTimestamp(v any) string {
	if t, ok := cellTime(v); ok {
		return formatTimestamp(t)
	}
	return cellString(v)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

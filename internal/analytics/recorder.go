package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tablero-backend/internal/db"
)

// Board events.
const (
	EventTaskCreated       = "task_created"
	EventTaskUpdated       = "task_updated"
	EventTaskMoved         = "task_moved"
	EventTaskDeleted       = "task_deleted"
	EventTaskAssigned      = "task_assigned"
	EventTaskReviewToggled = "task_review_toggled"
	EventTasksArchived     = "tasks_archived"
	EventBoardOpened       = "board_opened"
)

// Recorder stores board events. Callers pass sanitized props only.
type Recorder interface {
	Record(ctx context.Context, eventName string, props map[string]any) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Record(context.Context, string, map[string]any) error { return nil }

// LogRecorder writes events to the structured log.
type LogRecorder struct {
	log zerolog.Logger
}

func NewLogRecorder(log zerolog.Logger) *LogRecorder {
	return &LogRecorder{log: log}
}

func (r *LogRecorder) Record(ctx context.Context, eventName string, props map[string]any) error {
	if eventName == "" {
		return nil
	}
	env, _ := EnvelopeFromContext(ctx)
	r.log.Info().
		Str("event", eventName).
		Str("platform", env.Platform).
		Str("session_id", env.SessionID).
		Fields(props).
		Msg("board event")
	return nil
}

// SQLRecorder inserts events into the analytics_events table.
type SQLRecorder struct {
	db *db.DB
}

// NewSQLRecorder creates the events table if needed.
func NewSQLRecorder(ctx context.Context, database *db.DB) (*SQLRecorder, error) {
	idCol := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if database.Dialect == db.DialectPostgres {
		idCol = "id BIGSERIAL PRIMARY KEY"
	}
	if _, err := database.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS analytics_events (
			%s,
			event_name TEXT NOT NULL,
			event_time TEXT NOT NULL,
			session_id TEXT,
			platform TEXT NOT NULL DEFAULT 'unknown',
			app_version TEXT NOT NULL DEFAULT '',
			device_locale TEXT,
			source_event_key TEXT UNIQUE,
			properties TEXT NOT NULL DEFAULT '{}'
		)`, idCol)); err != nil {
		return nil, fmt.Errorf("ensure analytics_events: %w", err)
	}
	return &SQLRecorder{db: database}, nil
}

func (r *SQLRecorder) Record(ctx context.Context, eventName string, props map[string]any) error {
	if eventName == "" {
		return nil
	}

	b, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("marshal props: %w", err)
	}

	env, _ := EnvelopeFromContext(ctx)
	if env.Platform == "" {
		env.Platform = "unknown"
	}

	// A repeated source_event_key is ignored.
	_, err = r.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO analytics_events (
			event_name, event_time,
			session_id, platform, app_version, device_locale,
			source_event_key,
			properties
		)
		VALUES (%s)
		ON CONFLICT (source_event_key) DO NOTHING`, r.db.Dialect.Placeholders(8)),
		eventName, time.Now().UTC().Format(time.RFC3339Nano),
		nullIfEmpty(env.SessionID), env.Platform, env.AppVersion, nullIfEmpty(env.DeviceLocale),
		nullIfEmpty(env.SourceEventKey),
		string(b),
	)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", eventName, err)
	}
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

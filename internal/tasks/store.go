package tasks

import (
	"context"
	"crypto/subtle"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tablero-backend/internal/analytics"
	"tablero-backend/internal/sheet"
)

// lastIDProperty remembers the highest id ever issued, so deleting the newest
// task does not hand its id out again.
const lastIDProperty = "last_issued_id"

// Config holds what a Store needs besides its sheet.
type Config struct {
	// Secret gates create, update, delete and archive.
	Secret string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Store is the task access layer over a sheet.
//
// Every read-then-write sequence runs under one mutex, so concurrent requests
// served by one process never interleave a lookup with another write. Other
// processes writing the same SQL table are not coordinated.
type Store struct {
	mu     sync.Mutex
	sheet  sheet.Sheet
	secret string
	now    func() time.Time
	log    zerolog.Logger
	events analytics.Recorder
}

func NewStore(sh sheet.Sheet, cfg Config, log zerolog.Logger, events analytics.Recorder) *Store {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if events == nil {
		events = analytics.Nop{}
	}
	return &Store{
		sheet:  sh,
		secret: cfg.Secret,
		now:    now,
		log:    log.With().Str("sheet", sh.Name()).Logger(),
		events: events,
	}
}

// List returns every task in storage order.
func (s *Store) List(ctx context.Context) ([]Task, error) {
	rows, err := s.sheet.Rows(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to read rows")
		return nil, internalError("could not load tasks", err)
	}

	out := make([]Task, 0, len(rows))
	for _, r := range rows {
		if t, ok := taskFromRow(r); ok {
			out = append(out, t)
		}
	}
	s.log.Debug().Int("count", len(out)).Msg("listed tasks")
	return out, nil
}

// Get returns one task.
func (s *Store) Get(ctx context.Context, id int) (Task, error) {
	r, err := s.find(ctx, id)
	if err != nil {
		return Task{}, err
	}
	t, _ := taskFromRow(r)
	return t, nil
}

// Create appends a new task and returns its id.
func (s *Store) Create(ctx context.Context, in Input, credential string) (int, error) {
	if err := s.authorize(credential); err != nil {
		return 0, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return 0, validationError("title is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.nextID(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.sheet.SetProperty(ctx, lastIDProperty, strconv.Itoa(id)); err != nil {
		s.log.Error().Err(err).Int("task_id", id).Msg("failed to reserve id")
		return 0, internalError("could not create task", err)
	}

	now := s.stamp(time.Time{})
	status := NormalizeStatus(in.Status)
	priority := NormalizePriority(in.Priority)

	err = s.sheet.Append(ctx, []any{
		id,
		in.Title,
		in.Description,
		string(status),
		string(priority),
		in.Assignee,
		now, // CreatedAt
		now, // UpdatedAt
		1,   // Order
		in.NeedsReview,
	})
	if err != nil {
		s.log.Error().Err(err).Int("task_id", id).Msg("failed to append task")
		return 0, internalError("could not create task", err)
	}

	s.log.Info().Int("task_id", id).Str("status", string(status)).Msg("created task")
	s.record(ctx, analytics.EventTaskCreated, map[string]any{
		"task_id":  id,
		"status":   status,
		"priority": priority,
	})
	return id, nil
}

// Update overwrites the editable fields of a task. id, createdAt and order
// are left alone.
func (s *Store) Update(ctx context.Context, in Input, credential string) error {
	if err := s.authorize(credential); err != nil {
		return err
	}
	if in.ID <= 0 {
		return validationError("id is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return validationError("title is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.find(ctx, in.ID)
	if err != nil {
		return err
	}

	status := NormalizeStatus(in.Status)
	err = s.write(ctx, in.ID, map[string]any{
		sheet.ColTitle:       in.Title,
		sheet.ColDescription: in.Description,
		sheet.ColStatus:      string(status),
		sheet.ColPriority:    string(NormalizePriority(in.Priority)),
		sheet.ColAssignee:    in.Assignee,
		sheet.ColUpdatedAt:   s.stampRow(r),
		sheet.ColNeedsReview: in.NeedsReview,
	})
	if err != nil {
		return err
	}

	s.log.Info().Int("task_id", in.ID).Msg("updated task")
	s.record(ctx, analytics.EventTaskUpdated, map[string]any{"task_id": in.ID, "status": status})
	return nil
}

// MoveStatus changes only the status of a task. It needs no credential so
// drag and drop on the board stays fast; anyone who can reach the API can move
// cards.
func (s *Store) MoveStatus(ctx context.Context, id int, newStatus string) (Status, error) {
	if id <= 0 {
		return "", validationError("id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.find(ctx, id)
	if err != nil {
		return "", err
	}

	status := NormalizeStatus(newStatus)
	err = s.write(ctx, id, map[string]any{
		sheet.ColStatus:    string(status),
		sheet.ColUpdatedAt: s.stampRow(r),
	})
	if err != nil {
		return "", err
	}

	from := cellString(r.Cell(sheet.ColStatus))
	s.log.Info().Int("task_id", id).Str("from", from).Str("to", string(status)).Msg("moved task")
	s.record(ctx, analytics.EventTaskMoved, map[string]any{
		"task_id": id,
		"from":    from,
		"to":      status,
	})
	return status, nil
}

// Delete removes a task for good.
func (s *Store) Delete(ctx context.Context, id int, credential string) error {
	if err := s.authorize(credential); err != nil {
		return err
	}
	if id <= 0 {
		return validationError("id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.sheet.DeleteRow(ctx, id)
	if errors.Is(err, sheet.ErrRowNotFound) {
		return ErrNotFound
	}
	if err != nil {
		s.log.Error().Err(err).Int("task_id", id).Msg("failed to delete task")
		return internalError("could not delete task", err)
	}

	s.log.Info().Int("task_id", id).Msg("deleted task")
	s.record(ctx, analytics.EventTaskDeleted, map[string]any{"task_id": id})
	return nil
}

// Assign adds name to the comma separated assignee list of a task. Assigning
// someone already on the list changes nothing. It returns the resulting list
// and whether it changed.
func (s *Store) Assign(ctx context.Context, id int, name string) (string, bool, error) {
	if id <= 0 {
		return "", false, validationError("id is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false, validationError("assignee is required")
	}
	if strings.Contains(name, ",") {
		return "", false, validationError("assignee must be a single name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.find(ctx, id)
	if err != nil {
		return "", false, err
	}

	current := cellString(r.Cell(sheet.ColAssignee))
	names := splitAssignees(current)
	for _, n := range names {
		if n == name {
			return current, false, nil
		}
	}

	assignee := strings.Join(append(names, name), ", ")
	err = s.write(ctx, id, map[string]any{
		sheet.ColAssignee:  assignee,
		sheet.ColUpdatedAt: s.stampRow(r),
	})
	if err != nil {
		return "", false, err
	}

	s.log.Info().Int("task_id", id).Str("assignee", name).Msg("assigned task")
	s.record(ctx, analytics.EventTaskAssigned, map[string]any{
		"task_id":   id,
		"assignees": len(names) + 1,
	})
	return assignee, true, nil
}

// ToggleReviewFlag flips needsReview and returns the new value.
func (s *Store) ToggleReviewFlag(ctx context.Context, id int) (bool, error) {
	if id <= 0 {
		return false, validationError("id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.find(ctx, id)
	if err != nil {
		return false, err
	}

	flag := !cellBool(r.Cell(sheet.ColNeedsReview))
	err = s.write(ctx, id, map[string]any{
		sheet.ColNeedsReview: flag,
		sheet.ColUpdatedAt:   s.stampRow(r),
	})
	if err != nil {
		return false, err
	}

	s.log.Info().Int("task_id", id).Bool("needs_review", flag).Msg("toggled review flag")
	s.record(ctx, analytics.EventTaskReviewToggled, map[string]any{"task_id": id, "needs_review": flag})
	return flag, nil
}

// ArchiveCompleted moves every done task to Historico and clears its review
// flag. It returns how many tasks were archived.
func (s *Store) ArchiveCompleted(ctx context.Context, credential string) (int, error) {
	if err := s.authorize(credential); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.sheet.Rows(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to read rows")
		return 0, internalError("could not load tasks", err)
	}

	count := 0
	for _, r := range rows {
		id, ok := cellID(r.Cell(sheet.ColID))
		if !ok || !IsDoneStatus(cellString(r.Cell(sheet.ColStatus))) {
			continue
		}

		err := s.write(ctx, id, map[string]any{
			sheet.ColStatus:      string(StatusHistorico),
			sheet.ColUpdatedAt:   s.stampRow(r),
			sheet.ColNeedsReview: false,
		})
		if err != nil {
			s.log.Error().Err(err).Int("archived", count).Msg("archive stopped")
			return count, err
		}
		count++
	}

	s.log.Info().Int("count", count).Msg("archived done tasks")
	s.record(ctx, analytics.EventTasksArchived, map[string]any{"count": count})
	return count, nil
}

func (s *Store) authorize(credential string) error {
	if s.secret == "" || subtle.ConstantTimeCompare([]byte(credential), []byte(s.secret)) != 1 {
		s.log.Warn().Msg("rejected incorrect password")
		return ErrUnauthorized
	}
	return nil
}

func (s *Store) find(ctx context.Context, id int) (sheet.Row, error) {
	r, err := s.sheet.Find(ctx, id)
	if errors.Is(err, sheet.ErrRowNotFound) {
		return sheet.Row{}, ErrNotFound
	}
	if err != nil {
		s.log.Error().Err(err).Int("task_id", id).Msg("failed to find task")
		return sheet.Row{}, internalError("could not load task", err)
	}
	return r, nil
}

func (s *Store) write(ctx context.Context, id int, cells map[string]any) error {
	err := s.sheet.SetCells(ctx, id, cells)
	if errors.Is(err, sheet.ErrRowNotFound) {
		return ErrNotFound
	}
	if err != nil {
		s.log.Error().Err(err).Int("task_id", id).Msg("failed to write task")
		return internalError("could not save task", err)
	}
	return nil
}

// nextID is one more than both the largest id in the sheet and the largest id
// ever issued.
func (s *Store) nextID(ctx context.Context) (int, error) {
	rows, err := s.sheet.Rows(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to read rows")
		return 0, internalError("could not create task", err)
	}

	maxID := 0
	for _, r := range rows {
		if id, ok := cellID(r.Cell(sheet.ColID)); ok && id > maxID {
			maxID = id
		}
	}

	v, ok, err := s.sheet.Property(ctx, lastIDProperty)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to read last issued id")
		return 0, internalError("could not create task", err)
	}
	if ok {
		if last, err := strconv.Atoi(v); err == nil && last > maxID {
			maxID = last
		}
	}
	return maxID + 1, nil
}

// stamp returns the current time at millisecond precision, strictly after
// prev.
func (s *Store) stamp(prev time.Time) time.Time {
	now := s.now().UTC().Truncate(time.Millisecond)
	if !prev.IsZero() && !now.After(prev) {
		now = prev.Truncate(time.Millisecond).Add(time.Millisecond)
	}
	return now
}

func (s *Store) stampRow(r sheet.Row) time.Time {
	prev, _ := cellTime(r.Cell(sheet.ColUpdatedAt))
	if created, ok := cellTime(r.Cell(sheet.ColCreatedAt)); ok && created.After(prev) {
		prev = created
	}
	return s.stamp(prev)
}

func (s *Store) record(ctx context.Context, event string, props map[string]any) {
	if err := s.events.Record(ctx, event, props); err != nil {
		s.log.Warn().Err(err).Str("event", event).Msg("failed to record event")
	}
}

func splitAssignees(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package sheet

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Memory is an in-process Sheet. Rows keep insertion order and are indexed by
// their ID cell.
type Memory struct {
	mu    sync.RWMutex
	name  string
	rows  [][]any
	index map[int]int
	props map[string]string
}

func NewMemory(name string) *Memory {
	return &Memory{
		name:  name,
		index: make(map[int]int),
		props: make(map[string]string),
	}
}

func (m *Memory) Name() string { return m.name }

func (m *Memory) Rows(_ context.Context) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Row, len(m.rows))
	for i, cells := range m.rows {
		out[i] = Row{Position: i + 1, Cells: slices.Clone(cells)}
	}
	return out, nil
}

func (m *Memory) Find(_ context.Context, id int) (Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.index[id]
	if !ok {
		return Row{}, ErrRowNotFound
	}
	return Row{Position: i + 1, Cells: slices.Clone(m.rows[i])}, nil
}

func (m *Memory) Append(_ context.Context, cells []any) error {
	if err := checkCells(cells); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := rowID(cells); ok {
		if _, dup := m.index[id]; dup {
			return fmt.Errorf("duplicate id %d", id)
		}
		m.index[id] = len(m.rows)
	}
	m.rows = append(m.rows, slices.Clone(cells))
	return nil
}

func (m *Memory) SetCells(_ context.Context, id int, cells map[string]any) error {
	cols := make(map[int]any, len(cells))
	for name, v := range cells {
		i, err := ColumnIndex(name)
		if err != nil {
			return err
		}
		cols[i] = v
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[id]
	if !ok {
		return ErrRowNotFound
	}
	row := m.rows[i]
	for c, v := range cols {
		row[c] = v
	}
	if newID, ok := rowID(row); !ok || newID != id {
		m.reindex()
	}
	return nil
}

func (m *Memory) DeleteRow(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[id]
	if !ok {
		return ErrRowNotFound
	}
	m.rows = slices.Delete(m.rows, i, i+1)
	m.reindex()
	return nil
}

func (m *Memory) Property(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.props[key]
	return v, ok, nil
}

func (m *Memory) SetProperty(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.props[key] = value
	return nil
}

func (m *Memory) reindex() {
	clear(m.index)
	for i, cells := range m.rows {
		if id, ok := rowID(cells); ok {
			if _, dup := m.index[id]; !dup {
				m.index[id] = i
			}
		}
	}
}

func rowID(cells []any) (int, bool) {
	if len(cells) == 0 {
		return 0, false
	}
	return ParseID(cells[0])
}

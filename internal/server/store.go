// internal/server/store.go
package server

import (
	"sync"

	"github.com/google/uuid"
)

// TableStore holds every live table in memory.
type TableStore struct {
	mu     sync.Mutex
	tables map[uuid.UUID]*Table
}

func NewTableStore() *TableStore {
	return &TableStore{
		tables: make(map[uuid.UUID]*Table),
	}
}

func (s *TableStore) AddTable(t *Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t.ID] = t
	if t.OnEmpty == nil {
		t.OnEmpty = s.DeleteTable
	}
}

func (s *TableStore) GetTable(id uuid.UUID) (*Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, exists := s.tables[id]
	return t, exists
}

func (s *TableStore) DeleteTable(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, id)
}

// ListTables returns a snapshot of the live tables.
func (s *TableStore) ListTables() []*Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t)
	}
	return out
}

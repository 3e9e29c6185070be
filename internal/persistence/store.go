// Package persistence holds the durable keyed tables behind the game.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Table names one independent keyed table.
type Table string

const (
	TableHonor     Table = "honor"
	TableSkills    Table = "skills"
	TableInventory Table = "inventory"
	TableRoles     Table = "roles"
)

// Tables lists every table in a stable order.
var Tables = []Table{TableHonor, TableSkills, TableInventory, TableRoles}

// Store is durable key -> record persistence. Save overwrites the whole record
// and returns only once the write is durable.
type Store interface {
	Load(ctx context.Context, table Table) (map[string]json.RawMessage, error)
	Save(ctx context.Context, table Table, key string, value any) error
	Close() error
}

// FileStore keeps each table as one JSON document in a directory. The honor
// table has the same shape as the legacy xp.json file.
type FileStore struct {
	dir string

	mu     sync.Mutex
	tables map[Table]map[string]json.RawMessage
}

// NewFileStore opens or creates a file store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir, tables: make(map[Table]map[string]json.RawMessage)}, nil
}

// Path returns the file backing a table.
func (s *FileStore) Path(table Table) string {
	return filepath.Join(s.dir, string(table)+".json")
}

// Load returns a copy of every record in the table. A missing or empty file is an empty table.
func (s *FileStore) Load(_ context.Context, table Table) (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.tableLocked(table)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out, nil
}

// Save rewrites the table file with key set to value. The in-memory copy only
// changes after the file has been replaced.
func (s *FileStore) Save(_ context.Context, table Table, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s/%s: %w", table, key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.tableLocked(table)
	if err != nil {
		return err
	}
	next := make(map[string]json.RawMessage, len(t)+1)
	for k, v := range t {
		next[k] = v
	}
	next[key] = data

	if err := writeFileAtomic(s.Path(table), next); err != nil {
		return err
	}
	s.tables[table] = next
	return nil
}

// Close is a no-op; every Save is already durable.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) tableLocked(table Table) (map[string]json.RawMessage, error) {
	if t, ok := s.tables[table]; ok {
		return t, nil
	}
	t := make(map[string]json.RawMessage)
	raw, err := os.ReadFile(s.Path(table))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read table %s: %w", table, err)
	case len(raw) > 0:
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("failed to decode table %s: %w", table, err)
		}
	}
	s.tables[table] = t
	return t, nil
}

// writeFileAtomic writes through a synced temp file and a rename so readers
// see either the old or the new document.
func writeFileAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

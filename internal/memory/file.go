package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists the record set as a single JSON document, the same
// shape the service has always written. Writes go through a temp file and
// rename so a crash mid-save never corrupts the store.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Save(_ context.Context, records map[string]ClientRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode memories: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".memories-*.json")
	if err != nil {
		return fmt.Errorf("create temp memory file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write memory file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close memory file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace memory file: %w", err)
	}
	return nil
}

func (s *FileStore) Load(_ context.Context) (map[string]ClientRecord, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			// No file yet is not an error: the store starts empty.
			return map[string]ClientRecord{}, nil
		}
		return nil, fmt.Errorf("read memory file: %w", err)
	}

	records := make(map[string]ClientRecord)
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse memory file %s: %w", s.path, err)
	}
	return records, nil
}

func (s *FileStore) Close() error { return nil }

package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/aescanero/dagsys/pkg/ports"
	"go.uber.org/zap"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("store is closed")

// Store implements KeyValueStore as a JSON snapshot on disk. Every write
// rewrites the whole file through a temporary file and a rename.
type Store struct {
	path   string
	logger *zap.Logger

	mu      sync.RWMutex
	records map[string]ports.Record
	closed  bool
}

// Open loads the snapshot at path, creating an empty store if the file does
// not exist yet.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("file path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		path:    path,
		logger:  logger,
		records: make(map[string]ports.Record),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Debug("starting empty file store", zap.String("path", path))
	case err != nil:
		return nil, fmt.Errorf("failed to read store file: %w", err)
	case len(data) > 0:
		if err := json.Unmarshal(data, &s.records); err != nil {
			return nil, fmt.Errorf("failed to unmarshal store file: %w", err)
		}
		logger.Debug("file store loaded",
			zap.String("path", path),
			zap.Int("records", len(s.records)))
	}

	return s, nil
}

// Put stores rec under rec.Key and persists the snapshot
func (s *Store) Put(ctx context.Context, rec ports.Record) error {
	if rec.Key == "" {
		return fmt.Errorf("key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	prev, existed := s.records[rec.Key]
	s.records[rec.Key] = rec
	if err := s.flush(); err != nil {
		if existed {
			s.records[rec.Key] = prev
		} else {
			delete(s.records, rec.Key)
		}
		return err
	}
	return nil
}

// Get retrieves the record stored under key
func (s *Store) Get(ctx context.Context, key string) (ports.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ports.Record{}, ErrClosed
	}

	rec, ok := s.records[key]
	if !ok {
		return ports.Record{}, fmt.Errorf("%w: %s", ports.ErrNotFound, key)
	}
	return rec, nil
}

// Delete removes key and persists the snapshot
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	prev, existed := s.records[key]
	if !existed {
		return nil
	}
	delete(s.records, key)
	if err := s.flush(); err != nil {
		s.records[key] = prev
		return err
	}
	return nil
}

// List returns all stored keys in lexical order
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close flushes the snapshot a final time
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.flush()
}

// flush writes the snapshot. Callers hold s.mu.
func (s *Store) flush() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close store file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace store file: %w", err)
	}

	s.logger.Debug("file store flushed",
		zap.String("path", s.path),
		zap.Int("records", len(s.records)))
	return nil
}

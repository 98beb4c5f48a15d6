package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// FileStore guarda todo el mapa en un único archivo JSON, reescrito completo
// en cada Put (escritura a archivo temporal + rename).
type FileStore struct {
	mu      sync.RWMutex
	path    string
	records map[string]json.RawMessage
	logger  *zap.Logger
}

// OpenFile carga el archivo si existe. Un archivo ausente o corrupto no es
// un error: se arranca con un caché vacío.
func OpenFile(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.L()
	}
	s := &FileStore{
		path:    path,
		records: make(map[string]json.RawMessage),
		logger:  logger.With(zap.String("store", "file"), zap.String("path", path)),
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		s.logger.Info("cache file not found, starting empty")
	case err != nil:
		s.logger.Warn("cannot read cache file, starting empty", zap.Error(err))
	default:
		if err := json.Unmarshal(data, &s.records); err != nil {
			s.logger.Warn("corrupt cache file, starting empty", zap.Error(err))
			s.records = make(map[string]json.RawMessage)
		}
	}
	return s
}

func (s *FileStore) Get(_ context.Context, id string) (json.RawMessage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.records[id]
	return raw, ok, nil
}

func (s *FileStore) Put(_ context.Context, records map[string]json.RawMessage) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]json.RawMessage, len(s.records)+len(records))
	for k, v := range s.records {
		next[k] = v
	}
	for k, v := range records {
		next[k] = v
	}

	if err := s.write(next); err != nil {
		return err
	}
	s.records = next
	return nil
}

func (s *FileStore) write(records map[string]json.RawMessage) (err error) {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	_, werr := tmp.Write(data)
	err = multierr.Combine(werr, tmp.Sync(), tmp.Close())
	if err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}

// Enumerate recorre en orden de clave para que el resultado sea determinista.
func (s *FileStore) Enumerate(ctx context.Context, fn func(id string, raw json.RawMessage) error) error {
	s.mu.RLock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	snapshot := make(map[string]json.RawMessage, len(s.records))
	for k, v := range s.records {
		snapshot[k] = v
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(id, snapshot[id]); err != nil {
			return err
		}
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

// Package kvstore persists a flat key/value mapping as one JSON document.
//
// There is no schema and no nesting beyond top-level keys. Integral JSON
// numbers decode to int64 and other numbers to float64, so a value set from
// a parsed CLI argument keeps its type across a save and reload.
package kvstore

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// ErrNoPath is returned by Store operations that need a file path.
var ErrNoPath = errors.New("no config path specified")

// Load reads the document at path. A missing file yields an error matching
// fs.ErrNotExist.
func Load(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode parses a flat JSON object.
func Decode(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	for k, v := range raw {
		raw[k] = normalize(v)
	}
	return raw, nil
}

// Save writes values to path with two-space indentation. The file is
// replaced atomically.
func Save(path string, values map[string]any) error {
	if values == nil {
		values = map[string]any{}
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, inner := range t {
			t[k] = normalize(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = normalize(inner)
		}
		return t
	default:
		return v
	}
}

// Store is an in-memory mapping bound to an optional file path.
type Store struct {
	mu     sync.Mutex
	path   string
	values map[string]any
}

// New returns an empty store. path may be empty.
func New(path string) *Store {
	return &Store{path: path, values: map[string]any{}}
}

// Path returns the bound file path.
func (s *Store) Path() string { return s.path }

// Load replaces the in-memory values with the file contents. It reports
// false when there is no path or no file.
func (s *Store) Load() (bool, error) {
	if s.path == "" {
		return false, nil
	}
	values, err := Load(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return true, nil
}

// Save merges extra into the values and writes the file.
func (s *Store) Save(extra map[string]any) error {
	if s.path == "" {
		return ErrNoPath
	}
	s.mu.Lock()
	for k, v := range extra {
		s.values[k] = v
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	return Save(s.path, snapshot)
}

// Get returns the value for key, nil when absent.
func (s *Store) Get(key string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// Set stores value under key in memory.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Values returns a copy of the mapping.
func (s *Store) Values() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

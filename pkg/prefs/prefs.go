// Package prefs is a small file-backed key-value store for player
// settings. Values live in memory until Save writes them to disk as
// msgpack.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// fileVersion is written into every file so the layout can evolve.
const fileVersion = 1

type payload struct {
	Version int               `msgpack:"v"`
	Strings map[string]string `msgpack:"s,omitempty"`
	Ints    map[string]int64  `msgpack:"i,omitempty"`
}

// Store holds string and int settings.
type Store struct {
	path    string
	strings map[string]string
	ints    map[string]int64
	dirty   bool
}

// NewMemory returns a store that is never written to disk.
func NewMemory() *Store {
	return &Store{strings: make(map[string]string), ints: make(map[string]int64)}
}

// Open loads the store at path. A missing file yields an empty store that
// Save will create.
func Open(path string) (*Store, error) {
	s := NewMemory()
	s.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("prefs: read %s: %w", path, err)
	}

	var p payload
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("prefs: decode %s: %w", path, err)
	}
	if p.Version > fileVersion {
		return nil, fmt.Errorf("prefs: %s has version %d, newest supported is %d", path, p.Version, fileVersion)
	}
	for k, v := range p.Strings {
		s.strings[k] = v
	}
	for k, v := range p.Ints {
		s.ints[k] = v
	}
	return s, nil
}

// Path returns the backing file, or "" for a memory store.
func (s *Store) Path() string { return s.path }

// GetString returns the string stored under key, or def.
func (s *Store) GetString(key, def string) string {
	if v, ok := s.strings[key]; ok {
		return v
	}
	return def
}

// GetInt returns the int stored under key, or def.
func (s *Store) GetInt(key string, def int) int {
	if v, ok := s.ints[key]; ok {
		return int(v)
	}
	return def
}

// SetString stores value under key.
func (s *Store) SetString(key, value string) {
	if old, ok := s.strings[key]; ok && old == value {
		return
	}
	s.strings[key] = value
	s.dirty = true
}

// SetInt stores value under key.
func (s *Store) SetInt(key string, value int) {
	if old, ok := s.ints[key]; ok && old == int64(value) {
		return
	}
	s.ints[key] = int64(value)
	s.dirty = true
}

// HasKey reports whether key holds a string or an int.
func (s *Store) HasKey(key string) bool {
	_, okS := s.strings[key]
	_, okI := s.ints[key]
	return okS || okI
}

// DeleteKey removes key.
func (s *Store) DeleteKey(key string) {
	if !s.HasKey(key) {
		return
	}
	delete(s.strings, key)
	delete(s.ints, key)
	s.dirty = true
}

// DeleteAll removes every key.
func (s *Store) DeleteAll() {
	if len(s.strings) == 0 && len(s.ints) == 0 {
		return
	}
	s.strings = make(map[string]string)
	s.ints = make(map[string]int64)
	s.dirty = true
}

// Keys returns every key in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.strings)+len(s.ints))
	for k := range s.strings {
		keys = append(keys, k)
	}
	for k := range s.ints {
		if _, dup := s.strings[k]; !dup {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Dirty reports whether there are unsaved changes.
func (s *Store) Dirty() bool { return s.dirty }

// Save writes the store to disk if it has changed. The file is replaced
// atomically. Memory stores only clear the dirty flag.
func (s *Store) Save() error {
	if !s.dirty {
		return nil
	}
	if s.path == "" {
		s.dirty = false
		return nil
	}

	data, err := msgpack.Marshal(&payload{Version: fileVersion, Strings: s.strings, Ints: s.ints})
	if err != nil {
		return fmt.Errorf("prefs: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("prefs: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".prefs-*")
	if err != nil {
		return fmt.Errorf("prefs: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("prefs: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("prefs: write: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("prefs: %w", err)
	}
	s.dirty = false
	return nil
}

package template

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
)

// Entry is one raw definition as read from a source file.
type Entry struct {
	Key  string
	Text string
}

// Set is an immutable, validated collection of templates.
type Set struct {
	templates map[string]Template
	keys      []string
}

// NewSet validates entries and builds a Set. Keys colliding after
// normalization are rejected rather than resolved last-wins.
func NewSet(entries []Entry) (*Set, error) {
	set := &Set{templates: make(map[string]Template, len(entries))}
	origin := make(map[string]string, len(entries))

	for _, entry := range entries {
		key := NormalizeKey(entry.Key)
		if key == "" {
			return nil, &ConfigError{Key: entry.Key, Err: errors.New("macro key must not be empty")}
		}
		if prev, exists := origin[key]; exists {
			return nil, &ConfigError{
				Key: entry.Key,
				Err: fmt.Errorf("%w: %q and %q both normalize to %q", ErrDuplicateKey, prev, entry.Key, key),
			}
		}
		if strings.TrimSpace(entry.Text) == "" {
			return nil, &ConfigError{Key: entry.Key, Err: errors.New("template text must not be empty")}
		}

		placeholders, err := ExtractPlaceholders(entry.Text)
		if err != nil {
			return nil, &ConfigError{Key: entry.Key, Err: err}
		}

		origin[key] = entry.Key
		set.templates[key] = Template{Key: key, Text: entry.Text, Placeholders: placeholders}
		set.keys = append(set.keys, key)
	}

	sort.Strings(set.keys)
	return set, nil
}

// Get returns the template registered under the normalized form of key.
func (s *Set) Get(key string) (Template, error) {
	if s == nil {
		return Template{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	tpl, ok := s.templates[NormalizeKey(key)]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return tpl, nil
}

// Keys returns every macro key in sorted order.
func (s *Set) Keys() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.keys...)
}

// Len returns the number of templates.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Store holds the current Set and swaps it atomically on reload.
type Store struct {
	current atomic.Pointer[Set]
	path    atomic.Value
}

// NewStore wraps an already-built Set.
func NewStore(set *Set) *Store {
	s := &Store{}
	if set == nil {
		set = &Set{templates: map[string]Template{}}
	}
	s.current.Store(set)
	s.path.Store("")
	return s
}

// Open loads path and returns a Store bound to it.
func Open(path string) (*Store, error) {
	set, err := Load(path)
	if err != nil {
		return nil, err
	}
	s := NewStore(set)
	s.path.Store(path)
	return s, nil
}

// Get looks up a template in the current Set.
func (s *Store) Get(key string) (Template, error) {
	return s.current.Load().Get(key)
}

// Keys lists macro keys in the current Set.
func (s *Store) Keys() []string {
	return s.current.Load().Keys()
}

// Len returns the number of loaded templates.
func (s *Store) Len() int {
	return s.current.Load().Len()
}

// Path returns the source path of the most recent successful load.
func (s *Store) Path() string {
	path, _ := s.path.Load().(string)
	return path
}

// Reload re-reads path (or the bound path when empty). On any error the
// previous Set stays in place untouched.
func (s *Store) Reload(path string) error {
	if strings.TrimSpace(path) == "" {
		path = s.Path()
	}
	if path == "" {
		return errors.New("no template source configured")
	}

	set, err := Load(path)
	if err != nil {
		return err
	}
	s.current.Store(set)
	s.path.Store(path)
	return nil
}

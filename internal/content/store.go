package content

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/talgya/undercurrent/internal/engine"
)

//go:embed cities/*.yaml
var builtin embed.FS

// ErrUnknownCity is returned for a city id the store has not loaded.
var ErrUnknownCity = errors.New("unknown city")

// Store holds loaded cities by id. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	cities map[string]City
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{cities: make(map[string]City)}
}

// Default returns a store with the built-in cities loaded.
func Default() (*Store, error) {
	s := NewStore()
	sub, err := fs.Sub(builtin, "cities")
	if err != nil {
		return nil, err
	}
	if err := s.Load(sub); err != nil {
		return nil, fmt.Errorf("builtin cities: %w", err)
	}
	return s, nil
}

// Load reads every *.yaml and *.yml file at the root of fsys. A file whose
// city id is already loaded replaces it.
func (s *Store) Load(fsys fs.FS) error {
	var names []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		m, err := fs.Glob(fsys, pattern)
		if err != nil {
			return err
		}
		names = append(names, m...)
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		c, err := Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		s.Add(c)
		slog.Debug("city loaded", "file", name, "city", c.ID,
			"neighborhoods", len(c.Neighborhoods),
			"neighborhood_templates", len(c.NeighborhoodEvents),
			"city_templates", len(c.CityEvents))
	}
	return nil
}

// LoadDir loads every city file in dir.
func (s *Store) LoadDir(dir string) error {
	return s.Load(os.DirFS(dir))
}

// Add registers c, replacing any city with the same id.
func (s *Store) Add(c City) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cities[c.ID] = c
}

// City returns the city with id.
func (s *Store) City(id string) (City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cities[id]
	if !ok {
		return City{}, fmt.Errorf("%w: %s", ErrUnknownCity, id)
	}
	return c, nil
}

// Cities lists loaded cities ordered by id.
func (s *Store) Cities() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, 0, len(s.cities))
	for _, c := range s.cities {
		out = append(out, c.summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TurnContext returns the template pools for city id.
func (s *Store) TurnContext(id string) (engine.TurnContext, error) {
	c, err := s.City(id)
	if err != nil {
		return engine.TurnContext{}, err
	}
	return c.TurnContext(), nil
}

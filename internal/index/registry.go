package index

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

const maxNameLength = 64

var (
	// ErrIndexNotFound is returned when a named index has not been built.
	ErrIndexNotFound = errors.New("index not found")
	// ErrIndexExists is returned when building under a name already in use.
	ErrIndexExists = errors.New("index already exists")
)

// Stats summarizes a registered index.
type Stats struct {
	Name      string `json:"name"`
	Source    string `json:"source"`
	Documents int    `json:"documents"`
	Terms     int    `json:"terms"`
	BuildTime int64  `json:"buildTimeMs"`
}

type entry struct {
	index *InvertedIndex
	stats Stats
}

// Registry holds named indexes built from document sources. An index becomes
// visible only after its build has finished and is never mutated afterwards,
// so lookups and searches may run concurrently.
type Registry struct {
	logger  *slog.Logger
	indexes map[string]entry
	mu      sync.RWMutex
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:  logger,
		indexes: make(map[string]entry),
	}
}

// Build builds a new index from the source at path and registers it under name.
// An unreadable source is not an error: the index is registered empty, as Build does.
func (r *Registry) Build(name, path string) (Stats, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return Stats{}, err
	}

	r.mu.RLock()
	_, exists := r.indexes[name]
	r.mu.RUnlock()
	if exists {
		return Stats{}, fmt.Errorf("%w: %q", ErrIndexExists, name)
	}

	start := time.Now()
	idx := NewInvertedIndex()
	docs := BuildFromFile(path, idx, r.logger.With("index", name))
	stats := Stats{
		Name:      name,
		Source:    path,
		Documents: docs,
		Terms:     idx.TermCount(),
		BuildTime: time.Since(start).Milliseconds(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.indexes[name]; exists {
		return Stats{}, fmt.Errorf("%w: %q", ErrIndexExists, name)
	}
	r.indexes[name] = entry{index: idx, stats: stats}

	r.logger.Info("index built", "index", name, "source", path, "documents", docs, "terms", stats.Terms, "duration_ms", stats.BuildTime)
	return stats, nil
}

// Get returns the index registered under name.
func (r *Registry) Get(name string) (*InvertedIndex, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.indexes[name]
	return e.index, ok
}

// Stats returns the summary of the index registered under name.
func (r *Registry) Stats(name string) (Stats, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.indexes[name]
	return e.stats, ok
}

// List returns the stats of every registered index ordered by name.
func (r *Registry) List() []Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make([]Stats, 0, len(r.indexes))
	for _, e := range r.indexes {
		stats = append(stats, e.stats)
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Name < stats[j].Name
	})
	return stats
}

// Search runs query against the index registered under name.
func (r *Registry) Search(name, query string) (ResultSet, error) {
	idx, ok := r.Get(name)
	if !ok {
		return ResultSet{}, fmt.Errorf("%w: %q", ErrIndexNotFound, name)
	}
	return FindQueryMatches(idx, query), nil
}

func validateName(name string) error {
	if name == "" {
		return errors.New("name is required")
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("name must be <= %d characters", maxNameLength)
	}
	if strings.ContainsAny(name, "/ \t") {
		return fmt.Errorf("name %q must not contain slashes or whitespace", name)
	}
	return nil
}

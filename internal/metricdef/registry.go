package metricdef

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Registry holds the active metric definition set. Definitions are static
// configuration; Reload swaps the whole set atomically after validation.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
	ids  []string
}

// NewRegistry creates a registry from a validated definition set.
func NewRegistry(defs []Definition) (*Registry, error) {
	if err := ValidateSet(defs); err != nil {
		return nil, err
	}
	r := &Registry{}
	r.replace(defs)
	return r, nil
}

func (r *Registry) replace(defs []Definition) {
	m := make(map[string]Definition, len(defs))
	for _, d := range defs {
		m[d.ID] = d
	}
	r.mu.Lock()
	r.defs = m
	r.ids = SortedIDs(defs)
	r.mu.Unlock()
}

// Get returns the definition for a metric id.
func (r *Registry) Get(id string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[id]
	return d, ok
}

// IDs returns all metric ids in lexical order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// All returns the definitions in lexical id order.
func (r *Registry) All() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.defs[id])
	}
	return out
}

// Reload validates and swaps in a new definition set.
func (r *Registry) Reload(defs []Definition) error {
	if err := ValidateSet(defs); err != nil {
		return err
	}
	r.replace(defs)
	return nil
}

// Store persists definition sets as JSON in the data directory.
type Store struct {
	dataDir string
}

// NewStore creates a definition store rooted at dataDir.
func NewStore(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

func (s *Store) path() string {
	return filepath.Join(s.dataDir, "metric_definitions.json")
}

// Load reads the definition set from disk, falling back to the built-in
// defaults when no file exists.
func (s *Store) Load() ([]Definition, error) {
	filePath := s.path()

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return DefaultDefinitions(), nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open definitions file: %w", err)
	}
	defer file.Close()

	var defs []Definition
	if err := json.NewDecoder(file).Decode(&defs); err != nil {
		return nil, fmt.Errorf("failed to decode definitions: %w", err)
	}

	return defs, nil
}

// Save writes the definition set to disk.
func (s *Store) Save(defs []Definition) error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	file, err := os.Create(s.path())
	if err != nil {
		return fmt.Errorf("failed to create definitions file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(defs); err != nil {
		return fmt.Errorf("failed to encode definitions: %w", err)
	}

	return nil
}

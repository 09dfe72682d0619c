package loader

import (
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"github.com/roach88/specrun/internal/engine"
)

// Registry maps names to compiled-in units.
//
// Thread-safety: Registry is safe for concurrent use via internal mutex.
type Registry struct {
	mu    sync.RWMutex
	units map[string]engine.Unit
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{units: make(map[string]engine.Unit)}
}

// Register adds unit under name, replacing any previous unit.
func (r *Registry) Register(name string, unit engine.Unit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units[name] = unit
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.units))
	for name := range r.units {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Load looks path up as given, then by its base name.
func (r *Registry) Load(path string) (engine.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if unit, ok := r.units[path]; ok {
		return unit, nil
	}
	if unit, ok := r.units[filepath.Base(path)]; ok {
		return unit, nil
	}
	return nil, &LoadError{
		Code:    ErrCodeNotFound,
		Path:    path,
		Message: fmt.Sprintf("no unit registered for %q", path),
	}
}

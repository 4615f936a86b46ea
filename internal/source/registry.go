package source

import (
	"fmt"
	"sync"

	"github.com/DonovanMods/twlm/internal/domain"
)

// Registry holds the metadata sources in registration order. Earlier sources
// win when several serve the same game.
type Registry struct {
	mu      sync.RWMutex
	sources []MetadataSource
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a source. A source with the same id is replaced in place,
// keeping its priority.
func (r *Registry) Register(src MetadataSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.sources {
		if s.ID() == src.ID() {
			r.sources[i] = src
			return
		}
	}
	r.sources = append(r.sources, src)
}

// Get retrieves a source by id
func (r *Registry) Get(id string) (MetadataSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sources {
		if s.ID() == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("source %s: %w", id, domain.ErrNotFound)
}

// ForGame returns the first source that serves game
func (r *Registry) ForGame(game *domain.Game) (MetadataSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sources {
		if s.Serves(game) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("no metadata source for %s: %w", game.Key, domain.ErrUnsupported)
}

// List returns the sources in priority order
func (r *Registry) List() []MetadataSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]MetadataSource(nil), r.sources...)
}

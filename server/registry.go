package server

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	cluster "github.com/donleqt/gocluster"
)

// Index is a built cluster index hosted by the server.
type Index struct {
	ID      string
	Source  string
	Created time.Time
	Cluster *cluster.Cluster
}

// Registry keeps the hosted indexes by id.
// Indexes are immutable once built, only the map itself is guarded.
type Registry struct {
	mu      sync.RWMutex
	indexes map[string]*Index
}

func NewRegistry() *Registry {
	return &Registry{indexes: make(map[string]*Index)}
}

// Add stores a built cluster under a new random id.
func (r *Registry) Add(c *cluster.Cluster, source string) *Index {
	index := &Index{
		ID:      uuid.NewString(),
		Source:  source,
		Created: time.Now(),
		Cluster: c,
	}

	r.mu.Lock()
	r.indexes[index.ID] = index
	r.mu.Unlock()
	return index
}

func (r *Registry) Get(id string) (*Index, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	index, ok := r.indexes[id]
	return index, ok
}

// Delete removes an index, it reports whether the index existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.indexes[id]
	delete(r.indexes, id)
	return ok
}

// List returns all indexes, the most recent first.
func (r *Registry) List() []*Index {
	r.mu.RLock()
	indexes := lo.Values(r.indexes)
	r.mu.RUnlock()

	sort.Slice(indexes, func(i, j int) bool {
		if indexes[i].Created.Equal(indexes[j].Created) {
			return indexes[i].ID < indexes[j].ID
		}
		return indexes[i].Created.After(indexes[j].Created)
	})
	return indexes
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.indexes)
}

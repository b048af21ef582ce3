package taxonomy

import (
	"fmt"
	"sort"
	"sync"
)

// Ranges is a concurrent safe collection of ranges keyed by case-folded name.
type Ranges struct {
	mu     sync.RWMutex
	ranges map[string]*Range
}

// NewRanges creates an empty Ranges collection.
func NewRanges() *Ranges {
	return &Ranges{ranges: make(map[string]*Range)}
}

// Get returns a range by name and whether it exists.
func (r *Ranges) Get(name string) (*Range, bool) {
	r.mu.RLock()
	rng, ok := r.ranges[Fold(name)]
	r.mu.RUnlock()
	return rng, ok
}

// Set sets a range (upsert). Returns an error if rng is nil.
func (r *Ranges) Set(rng *Range) error {
	if rng == nil {
		return fmt.Errorf("range cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ranges[Fold(rng.Name)] = rng
	return nil
}

// Add adds a range, returning an error if one with the same folded name
// already exists.
func (r *Ranges) Add(rng *Range) error {
	if rng == nil {
		return fmt.Errorf("range cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := Fold(rng.Name)
	if _, exists := r.ranges[key]; exists {
		return fmt.Errorf("range %q already exists", rng.Name)
	}

	r.ranges[key] = rng
	return nil
}

// Delete removes a range by name. Returns an error if it doesn't exist.
func (r *Ranges) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := Fold(name)
	if _, exists := r.ranges[key]; !exists {
		return fmt.Errorf("range %q not found", name)
	}

	delete(r.ranges, key)
	return nil
}

// Exists checks if a range exists without returning it.
func (r *Ranges) Exists(name string) bool {
	r.mu.RLock()
	_, exists := r.ranges[Fold(name)]
	r.mu.RUnlock()
	return exists
}

// Len returns the number of ranges.
func (r *Ranges) Len() int {
	r.mu.RLock()
	length := len(r.ranges)
	r.mu.RUnlock()
	return length
}

// List returns all ranges sorted by name.
func (r *Ranges) List() []*Range {
	r.mu.RLock()
	ranges := make([]*Range, 0, len(r.ranges))
	for _, rng := range r.ranges {
		ranges = append(ranges, rng)
	}
	r.mu.RUnlock()

	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].Name < ranges[j].Name
	})
	return ranges
}

// Clear removes all ranges.
func (r *Ranges) Clear() {
	r.mu.Lock()
	r.ranges = make(map[string]*Range)
	r.mu.Unlock()
}

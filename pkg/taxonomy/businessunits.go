package taxonomy

import (
	"fmt"
	"sort"
	"sync"
)

// BusinessUnits is a concurrent safe collection of business units keyed by
// case-folded name.
type BusinessUnits struct {
	mu    sync.RWMutex
	units map[string]*BusinessUnit
}

// NewBusinessUnits creates an empty BusinessUnits collection.
func NewBusinessUnits() *BusinessUnits {
	return &BusinessUnits{units: make(map[string]*BusinessUnit)}
}

// Get returns a business unit by name and whether it exists.
func (b *BusinessUnits) Get(name string) (*BusinessUnit, bool) {
	b.mu.RLock()
	unit, ok := b.units[Fold(name)]
	b.mu.RUnlock()
	return unit, ok
}

// Set sets a business unit (upsert). Returns an error if unit is nil.
func (b *BusinessUnits) Set(unit *BusinessUnit) error {
	if unit == nil {
		return fmt.Errorf("business unit cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.units[Fold(unit.Name)] = unit
	return nil
}

// Delete removes a business unit by name. Returns an error if it doesn't
// exist.
func (b *BusinessUnits) Delete(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := Fold(name)
	if _, exists := b.units[key]; !exists {
		return fmt.Errorf("business unit %q not found", name)
	}

	delete(b.units, key)
	return nil
}

// Exists checks if a business unit exists without returning it.
func (b *BusinessUnits) Exists(name string) bool {
	b.mu.RLock()
	_, exists := b.units[Fold(name)]
	b.mu.RUnlock()
	return exists
}

// Len returns the number of business units.
func (b *BusinessUnits) Len() int {
	b.mu.RLock()
	length := len(b.units)
	b.mu.RUnlock()
	return length
}

// List returns all business units sorted by name.
func (b *BusinessUnits) List() []*BusinessUnit {
	b.mu.RLock()
	units := make([]*BusinessUnit, 0, len(b.units))
	for _, unit := range b.units {
		units = append(units, unit)
	}
	b.mu.RUnlock()

	sort.Slice(units, func(i, j int) bool {
		return units[i].Name < units[j].Name
	})
	return units
}

// Clear removes all business units.
func (b *BusinessUnits) Clear() {
	b.mu.Lock()
	b.units = make(map[string]*BusinessUnit)
	b.mu.Unlock()
}

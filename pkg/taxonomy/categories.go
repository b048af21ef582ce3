package taxonomy

import (
	"fmt"
	"sort"
	"sync"
)

// Categories is a concurrent safe collection of categories keyed by
// case-folded name.
type Categories struct {
	mu         sync.RWMutex
	categories map[string]*Category
}

// NewCategories creates an empty Categories collection.
func NewCategories() *Categories {
	return &Categories{categories: make(map[string]*Category)}
}

// Get returns a category by name and whether it exists.
func (c *Categories) Get(name string) (*Category, bool) {
	c.mu.RLock()
	category, ok := c.categories[Fold(name)]
	c.mu.RUnlock()
	return category, ok
}

// Set sets a category (upsert). Returns an error if category is nil.
func (c *Categories) Set(category *Category) error {
	if category == nil {
		return fmt.Errorf("category cannot be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories[Fold(category.Name)] = category
	return nil
}

// Add adds a category, returning an error if one with the same folded name
// already exists.
func (c *Categories) Add(category *Category) error {
	if category == nil {
		return fmt.Errorf("category cannot be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := Fold(category.Name)
	if _, exists := c.categories[key]; exists {
		return fmt.Errorf("category %q already exists", category.Name)
	}

	c.categories[key] = category
	return nil
}

// Delete removes a category by name. Returns an error if it doesn't exist.
func (c *Categories) Delete(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Fold(name)
	if _, exists := c.categories[key]; !exists {
		return fmt.Errorf("category %q not found", name)
	}

	delete(c.categories, key)
	return nil
}

// Exists checks if a category exists without returning it.
func (c *Categories) Exists(name string) bool {
	c.mu.RLock()
	_, exists := c.categories[Fold(name)]
	c.mu.RUnlock()
	return exists
}

// Len returns the number of categories.
func (c *Categories) Len() int {
	c.mu.RLock()
	length := len(c.categories)
	c.mu.RUnlock()
	return length
}

// List returns all categories sorted by name.
func (c *Categories) List() []*Category {
	c.mu.RLock()
	categories := make([]*Category, 0, len(c.categories))
	for _, category := range c.categories {
		categories = append(categories, category)
	}
	c.mu.RUnlock()

	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories
}

// Clear removes all categories.
func (c *Categories) Clear() {
	c.mu.Lock()
	c.categories = make(map[string]*Category)
	c.mu.Unlock()
}

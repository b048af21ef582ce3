package taxonomy

import (
	"fmt"
	"sort"
	"sync"
)

// Campaigns is a concurrent safe collection of campaigns keyed by case-folded
// name.
type Campaigns struct {
	mu        sync.RWMutex
	campaigns map[string]*Campaign
}

// NewCampaigns creates an empty Campaigns collection.
func NewCampaigns() *Campaigns {
	return &Campaigns{campaigns: make(map[string]*Campaign)}
}

// Get returns a campaign by name and whether it exists.
func (c *Campaigns) Get(name string) (*Campaign, bool) {
	c.mu.RLock()
	campaign, ok := c.campaigns[Fold(name)]
	c.mu.RUnlock()
	return campaign, ok
}

// Set sets a campaign (upsert). Returns an error if campaign is nil.
func (c *Campaigns) Set(campaign *Campaign) error {
	if campaign == nil {
		return fmt.Errorf("campaign cannot be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.campaigns[Fold(campaign.Name)] = campaign
	return nil
}

// Add adds a campaign, returning an error if one with the same folded name
// already exists.
func (c *Campaigns) Add(campaign *Campaign) error {
	if campaign == nil {
		return fmt.Errorf("campaign cannot be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := Fold(campaign.Name)
	if _, exists := c.campaigns[key]; exists {
		return fmt.Errorf("campaign %q already exists", campaign.Name)
	}

	c.campaigns[key] = campaign
	return nil
}

// Delete removes a campaign by name. Returns an error if it doesn't exist.
func (c *Campaigns) Delete(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Fold(name)
	if _, exists := c.campaigns[key]; !exists {
		return fmt.Errorf("campaign %q not found", name)
	}

	delete(c.campaigns, key)
	return nil
}

// Exists checks if a campaign exists without returning it.
func (c *Campaigns) Exists(name string) bool {
	c.mu.RLock()
	_, exists := c.campaigns[Fold(name)]
	c.mu.RUnlock()
	return exists
}

// Len returns the number of campaigns.
func (c *Campaigns) Len() int {
	c.mu.RLock()
	length := len(c.campaigns)
	c.mu.RUnlock()
	return length
}

// List returns all campaigns sorted by name.
func (c *Campaigns) List() []*Campaign {
	c.mu.RLock()
	campaigns := make([]*Campaign, 0, len(c.campaigns))
	for _, campaign := range c.campaigns {
		campaigns = append(campaigns, campaign)
	}
	c.mu.RUnlock()

	sort.Slice(campaigns, func(i, j int) bool {
		return campaigns[i].Name < campaigns[j].Name
	})
	return campaigns
}

// Clear removes all campaigns.
func (c *Campaigns) Clear() {
	c.mu.Lock()
	c.campaigns = make(map[string]*Campaign)
	c.mu.Unlock()
}

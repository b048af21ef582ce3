package taxonomy

// BusinessUnit is the top of the taxonomy. Its roster lists the names of the
// categories it owns; every category declares exactly one business unit.
type BusinessUnit struct {
	ID         string   `yaml:"id,omitempty" json:"id,omitempty"`
	Name       string   `yaml:"name" json:"name"`
	Categories []string `yaml:"categories,omitempty" json:"categories,omitempty"`
}

// Category belongs to exactly one business unit and links to zero or more
// ranges. The Ranges list is the forward projection of the symmetric
// category↔range relation; the matching reverse projection lives on each
// Range.
type Category struct {
	ID           string   `yaml:"id,omitempty" json:"id,omitempty"`
	Name         string   `yaml:"name" json:"name"`
	BusinessUnit string   `yaml:"business_unit" json:"businessUnit"`
	Ranges       []string `yaml:"ranges,omitempty" json:"ranges,omitempty"`
}

// Range is a product range. Its name is unique case-insensitively within the
// non-archived population. Categories is the reverse projection of the
// category↔range relation; Campaigns lists the campaigns grouped under it.
type Range struct {
	ID         string      `yaml:"id,omitempty" json:"id,omitempty"`
	Name       string      `yaml:"name" json:"name"`
	Status     Status      `yaml:"status" json:"status"`
	Categories []string    `yaml:"categories,omitempty" json:"categories,omitempty"`
	Campaigns  []string    `yaml:"campaigns,omitempty" json:"campaigns,omitempty"`
	Provenance *Provenance `yaml:"provenance,omitempty" json:"provenance,omitempty"`
}

// Campaign is owned by at most one range. Range is empty while the campaign
// is unresolved.
type Campaign struct {
	ID         string      `yaml:"id,omitempty" json:"id,omitempty"`
	Name       string      `yaml:"name" json:"name"`
	Status     Status      `yaml:"status" json:"status"`
	Range      string      `yaml:"range,omitempty" json:"range,omitempty"`
	Provenance *Provenance `yaml:"provenance,omitempty" json:"provenance,omitempty"`
}

// Archived reports whether the range is archived.
func (r *Range) Archived() bool { return r.Status == StatusArchived }

// Archived reports whether the campaign is archived.
func (c *Campaign) Archived() bool { return c.Status == StatusArchived }

// HasCategory reports whether the range lists the named category in its
// reverse projection, compared case-insensitively.
func (r *Range) HasCategory(category string) bool {
	for _, c := range r.Categories {
		if EqualFold(c, category) {
			return true
		}
	}
	return false
}

// HasRange reports whether the category lists the named range in its forward
// projection, compared case-insensitively.
func (c *Category) HasRange(rangeName string) bool {
	for _, r := range c.Ranges {
		if EqualFold(r, rangeName) {
			return true
		}
	}
	return false
}

// HasCategory reports whether the business unit roster lists the named
// category, compared case-insensitively.
func (b *BusinessUnit) HasCategory(category string) bool {
	for _, c := range b.Categories {
		if EqualFold(c, category) {
			return true
		}
	}
	return false
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// DeepCopyBusinessUnit returns an independent copy of a business unit.
func DeepCopyBusinessUnit(b BusinessUnit) BusinessUnit {
	b.Categories = copyStrings(b.Categories)
	return b
}

// DeepCopyCategory returns an independent copy of a category.
func DeepCopyCategory(c Category) Category {
	c.Ranges = copyStrings(c.Ranges)
	return c
}

// DeepCopyRange returns an independent copy of a range.
func DeepCopyRange(r Range) Range {
	r.Categories = copyStrings(r.Categories)
	r.Campaigns = copyStrings(r.Campaigns)
	if r.Provenance != nil {
		p := *r.Provenance
		r.Provenance = &p
	}
	return r
}

// DeepCopyCampaign returns an independent copy of a campaign.
func DeepCopyCampaign(c Campaign) Campaign {
	if c.Provenance != nil {
		p := *c.Provenance
		c.Provenance = &p
	}
	return c
}

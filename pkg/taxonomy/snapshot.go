package taxonomy

import (
	"sort"
	"time"
)

// Kind identifies a taxonomy entity type.
type Kind string

const (
	// KindBusinessUnit identifies business unit entities.
	KindBusinessUnit Kind = "business_unit"
	// KindCategory identifies category entities.
	KindCategory Kind = "category"
	// KindRange identifies range entities.
	KindRange Kind = "range"
	// KindCampaign identifies campaign entities.
	KindCampaign Kind = "campaign"
)

// Snapshot is one immutable, versioned instance of the master data graph.
// It is the validation context for an import session: validators and the
// consistency checker read it, never mutate it. Mutations happen on a Copy
// which is then committed to the Graph as a new version.
type Snapshot struct {
	version   int64
	createdAt time.Time

	businessUnits *BusinessUnits
	categories    *Categories
	ranges        *Ranges
	campaigns     *Campaigns
}

// NewSnapshot creates an empty snapshot with version 0.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		createdAt:     time.Now().UTC(),
		businessUnits: NewBusinessUnits(),
		categories:    NewCategories(),
		ranges:        NewRanges(),
		campaigns:     NewCampaigns(),
	}
}

// Version returns the snapshot version. Versions are assigned by the Graph
// on commit and increase monotonically.
func (s *Snapshot) Version() int64 { return s.version }

// CreatedAt returns when the snapshot was built.
func (s *Snapshot) CreatedAt() time.Time { return s.createdAt }

// BusinessUnits returns the business unit collection.
func (s *Snapshot) BusinessUnits() *BusinessUnits { return s.businessUnits }

// Categories returns the category collection.
func (s *Snapshot) Categories() *Categories { return s.categories }

// Ranges returns the range collection.
func (s *Snapshot) Ranges() *Ranges { return s.ranges }

// Campaigns returns the campaign collection.
func (s *Snapshot) Campaigns() *Campaigns { return s.campaigns }

// RangesOf returns the ranges linked from a category's forward projection.
// Names that do not resolve in the range collection are skipped; the
// consistency checker reports them separately.
func (s *Snapshot) RangesOf(category string) []*Range {
	cat, ok := s.categories.Get(category)
	if !ok {
		return nil
	}

	ranges := make([]*Range, 0, len(cat.Ranges))
	for _, name := range cat.Ranges {
		if rng, ok := s.ranges.Get(name); ok {
			ranges = append(ranges, rng)
		}
	}
	return ranges
}

// CategoriesOf returns the categories linked from a range's reverse
// projection.
func (s *Snapshot) CategoriesOf(rangeName string) []*Category {
	rng, ok := s.ranges.Get(rangeName)
	if !ok {
		return nil
	}

	categories := make([]*Category, 0, len(rng.Categories))
	for _, name := range rng.Categories {
		if cat, ok := s.categories.Get(name); ok {
			categories = append(categories, cat)
		}
	}
	return categories
}

// CampaignsOf returns the campaigns grouped under a range.
func (s *Snapshot) CampaignsOf(rangeName string) []*Campaign {
	rng, ok := s.ranges.Get(rangeName)
	if !ok {
		return nil
	}

	campaigns := make([]*Campaign, 0, len(rng.Campaigns))
	for _, name := range rng.Campaigns {
		if campaign, ok := s.campaigns.Get(name); ok {
			campaigns = append(campaigns, campaign)
		}
	}
	return campaigns
}

// BusinessUnitOfCategory resolves the business unit a category declares.
func (s *Snapshot) BusinessUnitOfCategory(category string) (string, bool) {
	cat, ok := s.categories.Get(category)
	if !ok || cat.BusinessUnit == "" {
		return "", false
	}
	return cat.BusinessUnit, true
}

// BusinessUnitOfRange resolves a range's business unit through its first
// linked category that declares one. With invariant 3 intact every linked
// category agrees, so "first" is not a policy choice.
func (s *Snapshot) BusinessUnitOfRange(rangeName string) (string, bool) {
	rng, ok := s.ranges.Get(rangeName)
	if !ok {
		return "", false
	}
	for _, category := range rng.Categories {
		if unit, ok := s.BusinessUnitOfCategory(category); ok {
			return unit, true
		}
	}
	return "", false
}

// BusinessUnitOfCampaign resolves a campaign's business unit through its
// owning range.
func (s *Snapshot) BusinessUnitOfCampaign(campaign string) (string, bool) {
	cmp, ok := s.campaigns.Get(campaign)
	if !ok || cmp.Range == "" {
		return "", false
	}
	return s.BusinessUnitOfRange(cmp.Range)
}

// CategoriesFor returns the names of categories declared under the given
// business unit, sorted.
func (s *Snapshot) CategoriesFor(businessUnit string) []string {
	var names []string
	for _, cat := range s.categories.List() {
		if EqualFold(cat.BusinessUnit, businessUnit) {
			names = append(names, cat.Name)
		}
	}
	return names
}

// RangesFor returns the names of non-archived ranges reachable from
// categories of the given business unit, sorted and deduplicated.
func (s *Snapshot) RangesFor(businessUnit string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, cat := range s.categories.List() {
		if !EqualFold(cat.BusinessUnit, businessUnit) {
			continue
		}
		for _, rng := range s.RangesOf(cat.Name) {
			if rng.Archived() || seen[Fold(rng.Name)] {
				continue
			}
			seen[Fold(rng.Name)] = true
			names = append(names, rng.Name)
		}
	}
	sort.Strings(names)
	return names
}

// CampaignsFor returns the names of non-archived campaigns reachable from
// ranges of the given business unit, sorted and deduplicated.
func (s *Snapshot) CampaignsFor(businessUnit string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, rangeName := range s.RangesFor(businessUnit) {
		for _, campaign := range s.CampaignsOf(rangeName) {
			if campaign.Archived() || seen[Fold(campaign.Name)] {
				continue
			}
			seen[Fold(campaign.Name)] = true
			names = append(names, campaign.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Copy returns a deep copy of the snapshot. The copy keeps the source
// version; the Graph assigns the next version on commit.
func (s *Snapshot) Copy() *Snapshot {
	out := NewSnapshot()
	out.version = s.version
	out.createdAt = time.Now().UTC()

	for _, unit := range s.businessUnits.List() {
		unitCopy := DeepCopyBusinessUnit(*unit)
		_ = out.businessUnits.Set(&unitCopy)
	}
	for _, cat := range s.categories.List() {
		catCopy := DeepCopyCategory(*cat)
		_ = out.categories.Set(&catCopy)
	}
	for _, rng := range s.ranges.List() {
		rngCopy := DeepCopyRange(*rng)
		_ = out.ranges.Set(&rngCopy)
	}
	for _, campaign := range s.campaigns.List() {
		campaignCopy := DeepCopyCampaign(*campaign)
		_ = out.campaigns.Set(&campaignCopy)
	}

	return out
}

// LinkCategoryRange records the symmetric category↔range edge in both
// projections. Missing entities are an error for the caller to surface; the
// link itself is recorded only when both sides exist.
func (s *Snapshot) LinkCategoryRange(category, rangeName string) bool {
	cat, okCat := s.categories.Get(category)
	rng, okRng := s.ranges.Get(rangeName)
	if !okCat || !okRng {
		return false
	}

	if !cat.HasRange(rangeName) {
		cat.Ranges = append(cat.Ranges, rng.Name)
	}
	if !rng.HasCategory(category) {
		rng.Categories = append(rng.Categories, cat.Name)
	}
	return true
}

// LinkRangeCampaign records campaign ownership on both the range's campaign
// list and the campaign's owning range.
func (s *Snapshot) LinkRangeCampaign(rangeName, campaign string) bool {
	rng, okRng := s.ranges.Get(rangeName)
	cmp, okCmp := s.campaigns.Get(campaign)
	if !okRng || !okCmp {
		return false
	}

	found := false
	for _, name := range rng.Campaigns {
		if EqualFold(name, campaign) {
			found = true
			break
		}
	}
	if !found {
		rng.Campaigns = append(rng.Campaigns, cmp.Name)
	}
	cmp.Range = rng.Name
	return true
}

// Package consistency audits a master data snapshot for structural
// violations: missing reciprocal edges, orphaned ranges, business unit
// mismatches, and names referenced by the relational projections but absent
// from the entity indexes.
//
// The check is pure and side-effect free. It is the regression gate run
// after any master data edit: Gate() adapts it to taxonomy.Gate so the
// Graph refuses to commit a snapshot with critical violations.
package consistency

import (
	"fmt"
	"strings"
	"time"

	"github.com/navigator1103/MediaIntel-sub006/pkg/taxonomy"
)

// ViolationType classifies a structural violation.
type ViolationType string

const (
	// MappingInconsistency marks a category↔range edge present in only one
	// of the two projections.
	MappingInconsistency ViolationType = "MAPPING_INCONSISTENCY"
	// BusinessUnitMismatch marks a business unit roster listing a category
	// that declares a different business unit.
	BusinessUnitMismatch ViolationType = "BUSINESS_UNIT_MISMATCH"
	// OrphanedRange marks a range that has campaigns but no taxonomy
	// placement.
	OrphanedRange ViolationType = "ORPHANED_RANGE"
	// MissingFromIndex marks a name referenced by a relational projection
	// but absent from the flat entity index.
	MissingFromIndex ViolationType = "MISSING_FROM_ARRAY"
	// MissingProvenance marks a pending_review node without provenance.
	MissingProvenance ViolationType = "MISSING_PROVENANCE"
)

// Severity grades a violation.
type Severity string

const (
	// SeverityCritical violations block snapshot commits.
	SeverityCritical Severity = "critical"
	// SeverityWarning violations are surfaced but do not block.
	SeverityWarning Severity = "warning"
)

// Violation is one structural finding, consumable by operator tooling.
type Violation struct {
	Type     ViolationType `json:"type"`
	Severity Severity      `json:"severity"`
	Message  string        `json:"message"`
	Entity   string        `json:"entity,omitempty"`
}

// Report is the ordered result of one consistency run.
type Report struct {
	Violations []Violation `json:"violations"`
	Version    int64       `json:"version"`
	CheckedAt  time.Time   `json:"checkedAt"`
}

// Criticals returns the critical violations.
func (r *Report) Criticals() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityCritical {
			out = append(out, v)
		}
	}
	return out
}

// HasCritical reports whether the run found any critical violation.
func (r *Report) HasCritical() bool {
	return len(r.Criticals()) > 0
}

// Check audits the snapshot and returns an ordered violation report.
// Archived entities are excluded from validity rules but their edges are
// still index-checked for audit completeness.
//
// Case-insensitive name uniqueness (invariant 4) is enforced structurally:
// the snapshot collections are keyed by folded name, so two non-archived
// nodes can never coexist under the same folded name.
func Check(snapshot *taxonomy.Snapshot) *Report {
	report := &Report{
		Version:   snapshot.Version(),
		CheckedAt: time.Now().UTC(),
	}

	checkCategoryProjections(snapshot, report)
	checkRangeProjections(snapshot, report)
	checkBusinessUnitRosters(snapshot, report)
	checkProvenance(snapshot, report)

	return report
}

// Gate adapts Check to taxonomy.Gate: a snapshot with critical violations is
// rejected with a message listing them.
func Gate() taxonomy.Gate {
	return taxonomy.GateFunc(func(snapshot *taxonomy.Snapshot) error {
		report := Check(snapshot)
		criticals := report.Criticals()
		if len(criticals) == 0 {
			return nil
		}

		messages := make([]string, 0, len(criticals))
		for _, v := range criticals {
			messages = append(messages, v.Message)
		}
		return fmt.Errorf("%d critical consistency violations: %s",
			len(criticals), strings.Join(messages, "; "))
	})
}

// checkCategoryProjections walks the forward (category→ranges) projection:
// every member range must exist and must reciprocally list the category.
func checkCategoryProjections(snapshot *taxonomy.Snapshot, report *Report) {
	for _, category := range snapshot.Categories().List() {
		for _, rangeName := range category.Ranges {
			rng, ok := snapshot.Ranges().Get(rangeName)
			if !ok {
				report.Violations = append(report.Violations, Violation{
					Type:     MissingFromIndex,
					Severity: SeverityWarning,
					Entity:   rangeName,
					Message: fmt.Sprintf("category %q lists range %q which is missing from the range index",
						category.Name, rangeName),
				})
				continue
			}

			if !rng.HasCategory(category.Name) {
				report.Violations = append(report.Violations, Violation{
					Type:     MappingInconsistency,
					Severity: SeverityCritical,
					Entity:   category.Name,
					Message: fmt.Sprintf("mapping inconsistency: category %q lists range %q but range %q does not list category %q",
						category.Name, rng.Name, rng.Name, category.Name),
				})
			}
		}
	}
}

// checkRangeProjections walks the reverse (range→categories) projection and
// the range→campaigns list, and flags orphaned ranges.
func checkRangeProjections(snapshot *taxonomy.Snapshot, report *Report) {
	for _, rng := range snapshot.Ranges().List() {
		for _, categoryName := range rng.Categories {
			category, ok := snapshot.Categories().Get(categoryName)
			if !ok {
				report.Violations = append(report.Violations, Violation{
					Type:     MissingFromIndex,
					Severity: SeverityWarning,
					Entity:   categoryName,
					Message: fmt.Sprintf("range %q lists category %q which is missing from the category index",
						rng.Name, categoryName),
				})
				continue
			}

			if !category.HasRange(rng.Name) {
				report.Violations = append(report.Violations, Violation{
					Type:     MappingInconsistency,
					Severity: SeverityCritical,
					Entity:   rng.Name,
					Message: fmt.Sprintf("mapping inconsistency: range %q lists category %q but category %q does not list range %q",
						rng.Name, category.Name, category.Name, rng.Name),
				})
			}
		}

		for _, campaignName := range rng.Campaigns {
			if !snapshot.Campaigns().Exists(campaignName) {
				report.Violations = append(report.Violations, Violation{
					Type:     MissingFromIndex,
					Severity: SeverityWarning,
					Entity:   campaignName,
					Message: fmt.Sprintf("range %q lists campaign %q which is missing from the campaign index",
						rng.Name, campaignName),
				})
			}
		}

		if !rng.Archived() && len(rng.Campaigns) > 0 && len(rng.Categories) == 0 {
			report.Violations = append(report.Violations, Violation{
				Type:     OrphanedRange,
				Severity: SeverityWarning,
				Entity:   rng.Name,
				Message: fmt.Sprintf("orphaned range: %q has %d campaigns but no category links",
					rng.Name, len(rng.Campaigns)),
			})
		}
	}
}

// checkBusinessUnitRosters verifies that every category on a business unit
// roster resolves to that business unit.
func checkBusinessUnitRosters(snapshot *taxonomy.Snapshot, report *Report) {
	for _, unit := range snapshot.BusinessUnits().List() {
		for _, categoryName := range unit.Categories {
			category, ok := snapshot.Categories().Get(categoryName)
			if !ok {
				report.Violations = append(report.Violations, Violation{
					Type:     MissingFromIndex,
					Severity: SeverityWarning,
					Entity:   categoryName,
					Message: fmt.Sprintf("business unit %q lists category %q which is missing from the category index",
						unit.Name, categoryName),
				})
				continue
			}

			if !taxonomy.EqualFold(category.BusinessUnit, unit.Name) {
				report.Violations = append(report.Violations, Violation{
					Type:     BusinessUnitMismatch,
					Severity: SeverityCritical,
					Entity:   category.Name,
					Message: fmt.Sprintf("business unit mismatch: roster %q contains category %q which is mapped to %q",
						unit.Name, category.Name, category.BusinessUnit),
				})
			}
		}
	}
}

// checkProvenance verifies that auto-created nodes carry provenance.
func checkProvenance(snapshot *taxonomy.Snapshot, report *Report) {
	for _, rng := range snapshot.Ranges().List() {
		if rng.Status == taxonomy.StatusPendingReview && rng.Provenance == nil {
			report.Violations = append(report.Violations, Violation{
				Type:     MissingProvenance,
				Severity: SeverityWarning,
				Entity:   rng.Name,
				Message:  fmt.Sprintf("range %q is pending review but carries no provenance", rng.Name),
			})
		}
	}
	for _, campaign := range snapshot.Campaigns().List() {
		if campaign.Status == taxonomy.StatusPendingReview && campaign.Provenance == nil {
			report.Violations = append(report.Violations, Violation{
				Type:     MissingProvenance,
				Severity: SeverityWarning,
				Entity:   campaign.Name,
				Message:  fmt.Sprintf("campaign %q is pending review but carries no provenance", campaign.Name),
			})
		}
	}
}

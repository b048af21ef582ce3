// Package validate applies the import rule set to spreadsheet records
// against a master data snapshot. Validation is a pure function of
// (record, batch, snapshot, business unit context): no hidden state, so any
// run can be replayed deterministically and every rule unit-tested on its
// own.
//
// Data problems are reported as Issues, never as errors (errors are reserved
// for environment faults, which the validator has none of).
package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/navigator1103/MediaIntel-sub006/pkg/taxonomy"
)

// Record is one input row handed to the engine by the upload adapter:
// a string-keyed map of column name to raw cell value.
type Record map[string]string

// Get returns the trimmed value of a column.
func (r Record) Get(column string) string {
	return strings.TrimSpace(r[column])
}

// Well-known column names of the input record schema.
const (
	ColCategory = "Category"
	ColRange    = "Range"
	ColCompany  = "Company"
	ColCampaign = "Campaign"
)

// Severity grades an issue.
type Severity string

const (
	// SeverityCritical issues block commit until fixed or overridden.
	SeverityCritical Severity = "critical"
	// SeverityWarning issues are surfaced but do not block.
	SeverityWarning Severity = "warning"
	// SeveritySuggestion issues are informational.
	SeveritySuggestion Severity = "suggestion"
)

// RuleType identifies which rule produced an issue.
type RuleType string

const (
	// RuleRequired rejects empty required fields.
	RuleRequired RuleType = "required"
	// RuleFormat flags non-numeric metric values.
	RuleFormat RuleType = "format"
	// RuleRelationship rejects taxonomy names that do not resolve against
	// the snapshot for the session's business unit.
	RuleRelationship RuleType = "relationship"
	// RuleUniqueness rejects key combinations repeated within the batch.
	RuleUniqueness RuleType = "uniqueness"
)

// Issue is one finding against one record. AutoCreatable marks a
// relationship failure that commit resolves by creating the node as pending
// review; callers may exempt such issues from their commit gate.
type Issue struct {
	RowIndex      int      `json:"rowIndex"`
	Column        string   `json:"columnName"`
	Rule          RuleType `json:"rule"`
	Severity      Severity `json:"severity"`
	Message       string   `json:"message"`
	CurrentValue  string   `json:"currentValue"`
	AutoCreatable bool     `json:"autoCreatable,omitempty"`
}

// Relationship binds a record column to the taxonomy entity kind it must
// resolve to. Unresolved names on AutoCreate columns are still critical but
// marked auto-creatable, since commit will create the node as pending
// review.
type Relationship struct {
	Column     string
	Kind       taxonomy.Kind
	AutoCreate bool
}

// Config is the rule set for one import type.
type Config struct {
	// Required columns must be non-empty after trimming.
	Required []string
	// Numeric columns must parse as a number after stripping thousands
	// separators, or be empty or "-".
	Numeric []string
	// Relationships are resolved against the snapshot filtered to the
	// session's declared business unit.
	Relationships []Relationship
	// UniqueKeys are column combinations that must not repeat in a batch.
	UniqueKeys [][]string
}

// CompetitorConfig is the rule set for competitor spend uploads, keyed by
// (Category, Company).
func CompetitorConfig() Config {
	return Config{
		Required: []string{ColCategory, ColCompany},
		Numeric:  []string{"Spend", "Impressions", "Investment", "TRPs"},
		Relationships: []Relationship{
			{Column: ColCategory, Kind: taxonomy.KindCategory},
		},
		UniqueKeys: [][]string{{ColCategory, ColCompany}},
	}
}

// MediaSpendConfig is the rule set for media spend uploads, keyed by
// (Category, Range, Campaign).
func MediaSpendConfig() Config {
	return Config{
		Required: []string{ColCategory, ColRange, ColCampaign},
		Numeric:  []string{"Spend", "Impressions", "Investment", "TRPs"},
		Relationships: []Relationship{
			{Column: ColCategory, Kind: taxonomy.KindCategory},
			{Column: ColRange, Kind: taxonomy.KindRange, AutoCreate: true},
			{Column: ColCampaign, Kind: taxonomy.KindCampaign, AutoCreate: true},
		},
		UniqueKeys: [][]string{{ColCategory, ColRange, ColCampaign}},
	}
}

// Validator applies a Config to records.
type Validator struct {
	config Config
}

// New creates a validator for the given rule set.
func New(config Config) *Validator {
	return &Validator{config: config}
}

// ValidateBatch validates every record of a batch against the snapshot in
// the given business unit context. The duplicate-key index is computed once
// and shared read-only, so the per-record rules are safe to fan out.
func (v *Validator) ValidateBatch(batch []Record, snapshot *taxonomy.Snapshot, businessUnit string) []Issue {
	dupes := v.duplicateIndex(batch)

	var issues []Issue
	for i, record := range batch {
		issues = append(issues, v.validateRecord(record, i, dupes, snapshot, businessUnit)...)
	}
	return issues
}

// ValidateRecord validates a single record. The batch is consulted only by
// the uniqueness rule.
func (v *Validator) ValidateRecord(record Record, index int, batch []Record, snapshot *taxonomy.Snapshot, businessUnit string) []Issue {
	return v.validateRecord(record, index, v.duplicateIndex(batch), snapshot, businessUnit)
}

func (v *Validator) validateRecord(record Record, index int, dupes duplicateIndex, snapshot *taxonomy.Snapshot, businessUnit string) []Issue {
	var issues []Issue

	for _, column := range v.config.Required {
		if record.Get(column) == "" {
			issues = append(issues, Issue{
				RowIndex: index,
				Column:   column,
				Rule:     RuleRequired,
				Severity: SeverityCritical,
				Message:  fmt.Sprintf("%s is required", column),
			})
		}
	}

	for _, column := range v.config.Numeric {
		value := record.Get(column)
		if !NumericOK(value) {
			issues = append(issues, Issue{
				RowIndex:     index,
				Column:       column,
				Rule:         RuleFormat,
				Severity:     SeverityWarning,
				Message:      fmt.Sprintf("%s %q is not a number", column, value),
				CurrentValue: value,
			})
		}
	}

	for _, rel := range v.config.Relationships {
		value := record.Get(rel.Column)
		if value == "" {
			continue // empties are the required rule's business
		}
		if issue, bad := v.checkRelationship(rel, value, index, snapshot, businessUnit); bad {
			issues = append(issues, issue)
		}
	}

	for _, key := range v.config.UniqueKeys {
		value := uniqueKeyValue(record, key)
		if value == "" {
			continue
		}
		others := dupes.others(keyID(key), value, index)
		if len(others) > 0 {
			issues = append(issues, Issue{
				RowIndex:     index,
				Column:       strings.Join(key, "+"),
				Rule:         RuleUniqueness,
				Severity:     SeverityCritical,
				Message: fmt.Sprintf("duplicate %s combination also appears in row(s) %s",
					strings.Join(key, "/"), joinRows(others)),
				CurrentValue: value,
			})
		}
	}

	return issues
}

// checkRelationship resolves a taxonomy name against the snapshot filtered
// to the session's business unit. Unresolved names are critical, with the
// message enumerating the valid set; on auto-create columns the issue is
// additionally marked auto-creatable.
func (v *Validator) checkRelationship(rel Relationship, value string, index int, snapshot *taxonomy.Snapshot, businessUnit string) (Issue, bool) {
	var valid []string
	switch rel.Kind {
	case taxonomy.KindCategory:
		valid = snapshot.CategoriesFor(businessUnit)
	case taxonomy.KindRange:
		valid = snapshot.RangesFor(businessUnit)
	case taxonomy.KindCampaign:
		valid = snapshot.CampaignsFor(businessUnit)
	default:
		return Issue{}, false
	}

	for _, name := range valid {
		if taxonomy.EqualFold(name, value) {
			return Issue{}, false
		}
	}

	message := fmt.Sprintf("%s %q is not valid for business unit %q; valid values: %s",
		rel.Column, value, businessUnit, formatValidSet(valid))
	if rel.AutoCreate {
		message += "; will be created as pending review on commit"
	}
	return Issue{
		RowIndex:      index,
		Column:        rel.Column,
		Rule:          RuleRelationship,
		Severity:      SeverityCritical,
		Message:       message,
		CurrentValue:  value,
		AutoCreatable: rel.AutoCreate,
	}, true
}

// NumericOK reports whether a metric cell is acceptable: empty, a bare "-",
// or a number once thousands separators are stripped.
func NumericOK(value string) bool {
	if value == "" || value == "-" {
		return true
	}
	cleaned := strings.NewReplacer(",", "", " ", "", "'", "").Replace(value)
	_, err := strconv.ParseFloat(cleaned, 64)
	return err == nil
}

func formatValidSet(valid []string) string {
	if len(valid) == 0 {
		return "(none)"
	}
	return strings.Join(valid, ", ")
}

// duplicateIndex maps uniqueness key id → folded key value → row indexes.
type duplicateIndex map[string]map[string][]int

func (d duplicateIndex) others(id, value string, index int) []int {
	var out []int
	for _, row := range d[id][value] {
		if row != index {
			out = append(out, row)
		}
	}
	return out
}

func (v *Validator) duplicateIndex(batch []Record) duplicateIndex {
	index := make(duplicateIndex, len(v.config.UniqueKeys))
	for _, key := range v.config.UniqueKeys {
		id := keyID(key)
		index[id] = make(map[string][]int)
		for i, record := range batch {
			value := uniqueKeyValue(record, key)
			if value == "" {
				continue
			}
			index[id][value] = append(index[id][value], i)
		}
	}
	return index
}

// uniqueKeyValue builds the folded combination value for a uniqueness key.
// Records missing every key column contribute nothing.
func uniqueKeyValue(record Record, key []string) string {
	parts := make([]string, 0, len(key))
	empty := true
	for _, column := range key {
		value := record.Get(column)
		if value != "" {
			empty = false
		}
		parts = append(parts, taxonomy.Fold(value))
	}
	if empty {
		return ""
	}
	return strings.Join(parts, "\x1f")
}

func keyID(key []string) string {
	return strings.Join(key, "+")
}

// joinRows renders 1-based row numbers for humans.
func joinRows(rows []int) string {
	parts := make([]string, len(rows))
	for i, row := range rows {
		parts[i] = strconv.Itoa(row + 1)
	}
	return strings.Join(parts, ", ")
}

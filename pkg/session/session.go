// Package session manages the import lifecycle: a file is uploaded, its
// rows validated against the master snapshot, optionally reviewed, and
// finally committed into the taxonomy and the operational store.
package session

import (
	"time"

	"github.com/navigator1103/MediaIntel-sub006/pkg/validate"
)

// Status is an import session's lifecycle state.
type Status string

const (
	StatusUploaded  Status = "uploaded"
	StatusValidated Status = "validated"
	StatusReviewed  Status = "reviewed"
	StatusCommitted Status = "committed"
	StatusFailed    Status = "failed"
)

// transitions lists every legal state change. Review is optional, so both
// validated and reviewed sessions may commit.
var transitions = map[Status][]Status{
	StatusUploaded:  {StatusValidated, StatusFailed},
	StatusValidated: {StatusValidated, StatusReviewed, StatusCommitted, StatusFailed},
	StatusReviewed:  {StatusCommitted, StatusFailed},
}

// CanTransition reports whether a session may move from one status to
// another. Committed and failed are terminal.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Kind identifies the upload format, which selects the validation rules.
type Kind string

const (
	KindCompetitor Kind = "competitor"
	KindMediaSpend Kind = "media_spend"
)

// Config returns the validation rule set for this upload kind.
func (k Kind) Config() (validate.Config, bool) {
	switch k {
	case KindCompetitor:
		return validate.CompetitorConfig(), true
	case KindMediaSpend:
		return validate.MediaSpendConfig(), true
	}
	return validate.Config{}, false
}

// Progress is a point-in-time view of a running or finished commit.
type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
	Imported  int `json:"imported"`
	Skipped   int `json:"skipped"`
}

// RowError records why one row was skipped during commit.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// CommitReport summarizes a finished commit, including the rows that were
// skipped and why.
type CommitReport struct {
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Total    int        `json:"total"`
	Errors   []RowError `json:"errors,omitempty"`
}

// Session is the full state of one import, persisted as a JSON document so
// a restart can resume where the operator left off.
type Session struct {
	ID           string            `json:"id"`
	FileName     string            `json:"file_name"`
	Kind         Kind              `json:"kind"`
	BusinessUnit string            `json:"business_unit"`
	Status       Status            `json:"status"`
	Records      []validate.Record `json:"records"`
	Issues       []validate.Issue  `json:"issues,omitempty"`
	CanImport    bool              `json:"can_import"`
	Progress     Progress          `json:"progress"`
	Report       *CommitReport     `json:"report,omitempty"`
	Error        string            `json:"error,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// CriticalIssues returns every critical issue, including auto-creatable
// ones that commit resolves itself.
func (s *Session) CriticalIssues() []validate.Issue {
	var criticals []validate.Issue
	for _, issue := range s.Issues {
		if issue.Severity == validate.SeverityCritical {
			criticals = append(criticals, issue)
		}
	}
	return criticals
}

// BlockingIssues returns the critical issues that actually block commit.
// Auto-creatable relationship issues are exempt: the missing node is
// created as pending review during commit.
func (s *Session) BlockingIssues() []validate.Issue {
	var blocking []validate.Issue
	for _, issue := range s.Issues {
		if issue.Severity == validate.SeverityCritical && !issue.AutoCreatable {
			blocking = append(blocking, issue)
		}
	}
	return blocking
}

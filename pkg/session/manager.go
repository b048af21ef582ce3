package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/navigator1103/MediaIntel-sub006/internal/store"
	"github.com/navigator1103/MediaIntel-sub006/pkg/errors"
	"github.com/navigator1103/MediaIntel-sub006/pkg/logging"
	"github.com/navigator1103/MediaIntel-sub006/pkg/reconcile"
	"github.com/navigator1103/MediaIntel-sub006/pkg/taxonomy"
	"github.com/navigator1103/MediaIntel-sub006/pkg/validate"
)

// Store persists session documents across restarts.
type Store interface {
	SaveSession(ctx context.Context, row store.SessionRow) error
	LoadSession(ctx context.Context, id string) (store.SessionRow, error)
	ListSessions(ctx context.Context) ([]store.SessionRow, error)
}

// Operational is the store surface a commit needs: atomic find-or-create
// for auto-created nodes plus the committed row log.
type Operational interface {
	reconcile.Store
	InsertSpendRecord(ctx context.Context, record store.SpendRecord) error
	DeleteSpendRecords(ctx context.Context, sessionID string) error
}

// Manager drives import sessions through their lifecycle. Live sessions are
// cached in memory so progress can be polled while a commit is running; the
// durable copy in Store survives restarts.
type Manager struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	committing map[string]struct{}

	store  Store
	graph  *taxonomy.Graph
	op     Operational
	logger zerolog.Logger
}

// NewManager creates a session manager bound to the master graph and the
// operational store.
func NewManager(st Store, graph *taxonomy.Graph, op Operational, logger zerolog.Logger) *Manager {
	return &Manager{
		sessions:   make(map[string]*Session),
		committing: make(map[string]struct{}),
		store:      st,
		graph:      graph,
		op:         op,
		logger:     logger,
	}
}

// Upload registers a parsed file as a new session in the uploaded state.
func (m *Manager) Upload(ctx context.Context, fileName string, kind Kind, businessUnit string, records []validate.Record) (*Session, error) {
	if _, ok := kind.Config(); !ok {
		return nil, errors.NewValidationError("kind", string(kind), "unknown upload kind")
	}
	if businessUnit == "" {
		return nil, errors.NewValidationError("business_unit", "", "business unit is required")
	}
	if len(records) == 0 {
		return nil, errors.NewValidationError("records", "", "upload contains no rows")
	}

	now := time.Now().UTC()
	s := &Session{
		ID:           uuid.NewString(),
		FileName:     fileName,
		Kind:         kind,
		BusinessUnit: businessUnit,
		Status:       StatusUploaded,
		Records:      records,
		Progress:     Progress{Total: len(records)},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := m.persist(ctx, s); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info().
		Str("session", s.ID).
		Str("file", fileName).
		Str("kind", string(kind)).
		Int("rows", len(records)).
		Msg("session uploaded")
	return s.clone(), nil
}

// Validate runs the kind's rule set over the session's rows against the
// current master snapshot. The session becomes committable when no blocking
// critical issues remain; auto-creatable relationship issues are reported
// but do not block. Re-validation after a master-data fix is allowed.
func (m *Manager) Validate(ctx context.Context, id string) (*Session, error) {
	s, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(s.Status, StatusValidated) {
		return nil, errors.NewStateError(id, string(s.Status), string(StatusValidated), "session cannot be validated")
	}

	config, _ := s.Kind.Config()
	snapshot := m.graph.Snapshot()
	issues := validate.New(config).ValidateBatch(s.Records, snapshot, s.BusinessUnit)

	m.mu.Lock()
	s.Issues = issues
	s.Status = StatusValidated
	s.CanImport = len(s.BlockingIssues()) == 0
	s.UpdatedAt = time.Now().UTC()
	m.mu.Unlock()

	if err := m.persist(ctx, s); err != nil {
		return nil, err
	}
	m.logger.Info().
		Str("session", id).
		Int("issues", len(issues)).
		Bool("can_import", s.CanImport).
		Msg("session validated")
	return s.clone(), nil
}

// MarkReviewed records an operator sign-off. Review is optional and only
// available once validation passed.
func (m *Manager) MarkReviewed(ctx context.Context, id string) (*Session, error) {
	s, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(s.Status, StatusReviewed) {
		return nil, errors.NewStateError(id, string(s.Status), string(StatusReviewed), "session must be validated first")
	}

	m.mu.Lock()
	s.Status = StatusReviewed
	s.UpdatedAt = time.Now().UTC()
	m.mu.Unlock()

	if err := m.persist(ctx, s); err != nil {
		return nil, err
	}
	return s.clone(), nil
}

// Commit imports the session's rows, writing each one to the operational
// store in order. Unknown ranges and campaigns are auto-created as pending
// review, rows that fail individually (auto-create or store write) are
// skipped and reported rather than aborting the whole import, and the
// staged snapshot is swapped in atomically at the end. Terminal states: committed
// on success (even with skipped rows), failed when the snapshot swap is
// rejected or the run is canceled.
func (m *Manager) Commit(ctx context.Context, id, actor string) (*CommitReport, error) {
	s, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.beginCommit(s); err != nil {
		return nil, err
	}
	defer m.endCommit(s.ID)
	if !s.CanImport {
		return nil, fmt.Errorf("session %s has %d blocking issues: %w", id, len(s.BlockingIssues()), errors.ErrCommitBlocked)
	}

	// Auto-create log lines below carry the session id.
	ctx = logging.WithSession(logging.WithLogger(ctx, &m.logger), id)

	staged := m.graph.Stage()
	auto := reconcile.New(m.op)

	report := &CommitReport{Total: len(s.Records)}
	now := time.Now().UTC()

	for i, record := range s.Records {
		if err := ctx.Err(); err != nil {
			m.discardRows(s.ID)
			return nil, m.fail(s, fmt.Errorf("commit canceled at row %d: %w", i+1, errors.ErrCanceled))
		}

		err := m.commitRow(ctx, staged, auto, s, record)
		if err == nil {
			err = m.op.InsertSpendRecord(ctx, store.SpendRecord{
				SessionID: s.ID,
				RowIndex:  i,
				Category:  record.Get(validate.ColCategory),
				Range:     record.Get(validate.ColRange),
				Campaign:  record.Get(validate.ColCampaign),
				Company:   record.Get(validate.ColCompany),
				Amount:    record.Get("Spend"),
				CreatedAt: now,
			})
		}
		if err != nil {
			report.Errors = append(report.Errors, RowError{Row: i + 1, Reason: err.Error()})
			report.Skipped++
		} else {
			report.Imported++
		}

		m.mu.Lock()
		s.Progress = Progress{
			Processed: i + 1,
			Total:     len(s.Records),
			Imported:  report.Imported,
			Skipped:   report.Skipped,
		}
		m.mu.Unlock()
	}

	summary := fmt.Sprintf("import %s: %d rows from %s", s.ID, report.Imported, s.FileName)
	if _, err := m.graph.Commit(staged, actor, summary); err != nil {
		m.discardRows(s.ID)
		return nil, m.fail(s, fmt.Errorf("snapshot rejected: %w", err))
	}

	m.mu.Lock()
	s.Status = StatusCommitted
	s.Report = report
	s.UpdatedAt = time.Now().UTC()
	m.mu.Unlock()

	if err := m.persist(ctx, s); err != nil {
		return nil, err
	}
	m.logger.Info().
		Str("session", id).
		Int("imported", report.Imported).
		Int("skipped", report.Skipped).
		Msg("session committed")
	return report, nil
}

// commitRow ensures the row's range and campaign exist in the staged
// snapshot, auto-creating them when the file introduces new names.
func (m *Manager) commitRow(ctx context.Context, staged *taxonomy.Snapshot, auto *reconcile.AutoCreator, s *Session, record validate.Record) error {
	category := record.Get(validate.ColCategory)
	rangeName := record.Get(validate.ColRange)
	campaign := record.Get(validate.ColCampaign)

	if rangeName != "" {
		if _, _, err := auto.EnsureRange(ctx, staged, rangeName, category, s.ID); err != nil {
			return err
		}
	}
	if campaign != "" {
		if _, _, err := auto.EnsureCampaign(ctx, staged, campaign, rangeName, s.ID); err != nil {
			return err
		}
	}
	return nil
}

// fail moves a session to the failed state and persists it, returning the
// causing error for the caller.
func (m *Manager) fail(s *Session, cause error) error {
	m.mu.Lock()
	s.Status = StatusFailed
	s.Error = cause.Error()
	s.UpdatedAt = time.Now().UTC()
	m.mu.Unlock()

	// Best effort: the failure itself is what the caller needs to see.
	if err := m.persist(context.Background(), s); err != nil {
		m.logger.Err(err).Str("session", s.ID).Msg("persisting failed session")
	}
	m.logger.Err(cause).Str("session", s.ID).Msg("session failed")
	return cause
}

// beginCommit claims the session for one commit run. Concurrent commits of
// the same session are refused rather than interleaved; records are written
// in order by exactly one runner.
func (m *Manager) beginCommit(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.committing[s.ID]; ok {
		return errors.NewStateError(s.ID, string(s.Status), string(StatusCommitted), "commit already in progress")
	}
	if !CanTransition(s.Status, StatusCommitted) {
		return errors.NewStateError(s.ID, string(s.Status), string(StatusCommitted), "session is not ready to commit")
	}
	m.committing[s.ID] = struct{}{}
	return nil
}

func (m *Manager) endCommit(id string) {
	m.mu.Lock()
	delete(m.committing, id)
	m.mu.Unlock()
}

// discardRows backs out the rows a failed commit run already wrote.
func (m *Manager) discardRows(id string) {
	if err := m.op.DeleteSpendRecords(context.Background(), id); err != nil {
		m.logger.Err(err).Str("session", id).Msg("removing rows from failed commit")
	}
}

// Progress returns the current commit progress. Live sessions answer from
// memory so a running commit can be polled.
func (m *Manager) Progress(ctx context.Context, id string) (Progress, error) {
	m.mu.RLock()
	if s, ok := m.sessions[id]; ok {
		p := s.Progress
		m.mu.RUnlock()
		return p, nil
	}
	m.mu.RUnlock()

	s, err := m.load(ctx, id)
	if err != nil {
		return Progress{}, err
	}
	return s.Progress, nil
}

// Get returns a copy of the session.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	s, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return s.clone(), nil
}

// List returns all persisted sessions, newest first.
func (m *Manager) List(ctx context.Context) ([]*Session, error) {
	rows, err := m.store.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	sessions := make([]*Session, 0, len(rows))
	for _, row := range rows {
		var s Session
		if err := json.Unmarshal(row.Document, &s); err != nil {
			return nil, errors.WrapParse("json", "session "+row.ID, err)
		}
		sessions = append(sessions, &s)
	}
	return sessions, nil
}

// load returns the live session if cached, otherwise restores it from the
// store and caches it.
func (m *Manager) load(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	if s, ok := m.sessions[id]; ok {
		m.mu.RUnlock()
		return s, nil
	}
	m.mu.RUnlock()

	row, err := m.store.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(row.Document, &s); err != nil {
		return nil, errors.WrapParse("json", "session "+id, err)
	}

	m.mu.Lock()
	m.sessions[id] = &s
	m.mu.Unlock()
	return &s, nil
}

// persist writes the session document to the durable store.
func (m *Manager) persist(ctx context.Context, s *Session) error {
	m.mu.RLock()
	document, err := json.Marshal(s)
	row := store.SessionRow{
		ID:        s.ID,
		Status:    string(s.Status),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Document:  document,
	}
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", s.ID, err)
	}
	return m.store.SaveSession(ctx, row)
}

// clone returns a shallow copy safe to hand to callers; Records and Issues
// are treated as immutable after upload and validation.
func (s *Session) clone() *Session {
	copied := *s
	return &copied
}

// Package leadstore persists captured leads in SQLite with fail-safe
// semantics: corruption triggers a backup-and-recover pipeline, and when
// the durable file cannot be used at all the store degrades to an
// in-memory buffer that is replayed once the disk store is healthy again.
package leadstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"realty_agent_backend/internal/events"
	"realty_agent_backend/platform/apperr"
	"realty_agent_backend/platform/config"
	"realty_agent_backend/platform/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS leads (
	session_id        TEXT PRIMARY KEY,
	name              TEXT,
	phone             TEXT,
	email             TEXT,
	location          TEXT,
	property_category TEXT,
	property_type     TEXT,
	bedroom           TEXT,
	project_status    TEXT,
	possession        TEXT,
	budget            TEXT,
	properties_found  INTEGER NOT NULL DEFAULT 0,
	search_url        TEXT NOT NULL DEFAULT '',
	consent           INTEGER NOT NULL DEFAULT 0,
	qualified         INTEGER NOT NULL DEFAULT 0,
	created_at        INTEGER NOT NULL,
	updated_at        INTEGER NOT NULL,
	checksum          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leads_qualified ON leads(qualified);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
`

const leadColumns = `session_id, name, phone, email, location, property_category,
	property_type, bedroom, project_status, possession, budget,
	properties_found, search_url, consent, qualified, created_at, updated_at, checksum`

// Stats summarizes the stored lead population.
type Stats struct {
	Total     int `json:"total"`
	Qualified int `json:"qualified"`
	Consented int `json:"consented"`
}

// Store is the SQLite-backed lead repository. All writes and the recovery
// pipeline are serialized behind a single mutex so a recovery never races
// an in-flight upsert.
type Store struct {
	mu        sync.Mutex
	db        *sql.DB
	path      string
	backupDir string
	degraded  bool
	buffer    []Lead
	log       *logger.Logger
	bus       events.Bus
	now       func() time.Time
}

// Open opens the durable lead store, verifying integrity on startup.
// A corrupt file is backed up and recovered; an unusable medium drops the
// store into degraded in-memory mode instead of failing the process.
func Open(cfg config.StoreConfig, log *logger.Logger, bus events.Bus) (*Store, error) {
	path := filepath.Clean(cfg.GetLeadDBPath())
	s := &Store{
		path:      path,
		backupDir: filepath.Clean(cfg.GetBackupDir()),
		log:       log,
		bus:       bus,
		now:       time.Now,
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.degrade(fmt.Errorf("create data dir: %w", err))
		return s, nil
	}
	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		s.degrade(fmt.Errorf("create backup dir: %w", err))
		return s, nil
	}

	db, err := openDurable(path)
	if err != nil {
		s.degrade(fmt.Errorf("open lead db: %w", err))
		return s, nil
	}
	s.db = db
	if err := verifyIntegrity(context.Background(), db); err != nil {
		s.log.StoreError("startup_integrity_check", err)
		if rerr := s.recoverLocked(err); rerr != nil {
			s.degrade(fmt.Errorf("recovery failed: %w", rerr))
		}
	}
	return s, nil
}

func openDurable(path string) (*sql.DB, error) {
	dsn := path + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return db, nil
}

func openMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory db: %w", err)
	}
	// The in-memory fallback lives on a single connection; a second
	// connection would see an empty database.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init in-memory schema: %w", err)
	}
	return db, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Ping reports store health. A degraded store is unhealthy even though
// writes still succeed against the in-memory buffer.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.degraded {
		return apperr.Unavailable("lead store is running in-memory")
	}
	if s.db == nil {
		return apperr.Internal("lead store is closed")
	}
	return s.db.PingContext(ctx)
}

// Degraded reports whether the store is currently buffering in memory.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Save upserts a lead keyed by session id. The integrity check runs
// before every write; corruption found anywhere in the file triggers
// the recovery pipeline before this row lands. Repeated saves for the
// same session merge field-by-field, so persisting at every terminal
// turn is idempotent. Save never returns an error for medium failures:
// the write is buffered and the store degrades instead.
func (s *Store) Save(ctx context.Context, lead Lead) error {
	if lead.SessionID == "" {
		return apperr.Validation("lead session id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now

	if !s.degraded {
		if err := verifyIntegrity(ctx, s.db); err != nil {
			s.log.StoreError("pre_write_integrity_check", err)
			if rerr := s.recoverLocked(err); rerr != nil {
				s.degrade(fmt.Errorf("recovery failed: %w", rerr))
			}
		}
	}

	if s.degraded {
		s.bufferLocked(lead)
		s.publish(ctx, events.LeadPersisted{
			BaseEvent: events.NewBaseEvent(), SessionID: lead.SessionID,
			Qualified: lead.Qualified, ConsentGranted: lead.Consent, Degraded: true,
		})
		return nil
	}

	err := upsert(ctx, s.db, lead)
	if err != nil {
		s.log.StoreError("save_lead", err)
		// A failed write is the first symptom of both corruption and a
		// bad medium; try a full recovery, then retry the write once.
		if rerr := s.recoverLocked(err); rerr == nil {
			err = upsert(ctx, s.db, lead)
		}
	}
	if err != nil {
		s.degrade(fmt.Errorf("save lead %s: %w", lead.SessionID, err))
		s.bufferLocked(lead)
	}
	s.publish(ctx, events.LeadPersisted{
		BaseEvent: events.NewBaseEvent(), SessionID: lead.SessionID,
		Qualified: lead.Qualified, ConsentGranted: lead.Consent, Degraded: s.degraded,
	})
	return nil
}

func upsert(ctx context.Context, db *sql.DB, lead Lead) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := getTx(ctx, tx, lead.SessionID)
	switch {
	case err == nil:
		lead = merge(existing, lead)
	case apperr.Is(err, apperr.KindNotFound):
		// first write for this session
	default:
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO leads (`+leadColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.SessionID, lead.Name, lead.Phone, lead.Email, lead.Location,
		lead.PropertyCategory, lead.PropertyType, lead.Bedroom,
		lead.ProjectStatus, lead.Possession, lead.Budget,
		lead.PropertiesFound, lead.SearchURL,
		boolInt(lead.Consent), boolInt(lead.Qualified),
		lead.CreatedAt.UTC().Unix(), lead.UpdatedAt.UTC().Unix(),
		lead.checksum(),
	); err != nil {
		return fmt.Errorf("write lead row: %w", err)
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (Lead, error) {
	var (
		l                  Lead
		consent, qualified int
		created, updated   int64
		storedChecksum     string
	)
	err := row.Scan(
		&l.SessionID, &l.Name, &l.Phone, &l.Email, &l.Location,
		&l.PropertyCategory, &l.PropertyType, &l.Bedroom,
		&l.ProjectStatus, &l.Possession, &l.Budget,
		&l.PropertiesFound, &l.SearchURL, &consent, &qualified,
		&created, &updated, &storedChecksum,
	)
	if err != nil {
		return Lead{}, err
	}
	l.Consent = consent != 0
	l.Qualified = qualified != 0
	l.CreatedAt = time.Unix(created, 0).UTC()
	l.UpdatedAt = time.Unix(updated, 0).UTC()
	if storedChecksum != l.checksum() {
		return Lead{}, fmt.Errorf("lead %s: checksum mismatch", l.SessionID)
	}
	return l, nil
}

func getTx(ctx context.Context, tx *sql.Tx, sessionID string) (Lead, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE session_id = ?`, sessionID)
	lead, err := scanLead(row)
	if err == sql.ErrNoRows {
		return Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return Lead{}, fmt.Errorf("read lead: %w", err)
	}
	return lead, nil
}

// Get returns the lead for a session id.
func (s *Store) Get(ctx context.Context, sessionID string) (Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return Lead{}, apperr.Unavailable("lead store is unavailable")
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE session_id = ?`, sessionID)
	lead, err := scanLead(row)
	if err == sql.ErrNoRows {
		return Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return Lead{}, apperr.Wrap(apperr.KindInternal, "failed to read lead", err)
	}
	return lead, nil
}

// List returns leads newest-first. qualified filters on the verdict when
// non-nil.
func (s *Store) List(ctx context.Context, qualified *bool, limit, offset int) ([]Lead, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + leadColumns + ` FROM leads`
	args := []any{}
	if qualified != nil {
		query += ` WHERE qualified = ?`
		args = append(args, boolInt(*qualified))
	}
	query += ` ORDER BY created_at DESC, session_id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, apperr.Unavailable("lead store is unavailable")
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list leads", err)
	}
	defer rows.Close()

	leads := []Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to scan lead", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to iterate leads", err)
	}
	return leads, nil
}

// Stats returns aggregate counts over the stored leads.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return Stats{}, apperr.Unavailable("lead store is unavailable")
	}
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(qualified), 0),
		       COALESCE(SUM(consent), 0)
		FROM leads`).Scan(&st.Total, &st.Qualified, &st.Consented)
	if err != nil {
		return Stats{}, apperr.Wrap(apperr.KindInternal, "failed to compute lead stats", err)
	}
	return st, nil
}

// Buffered returns how many writes are waiting for redelivery.
func (s *Store) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buffer)
}

// Redeliver attempts to leave degraded mode: it reopens the durable file,
// replays the buffered writes, and restores normal operation. A no-op
// when the store is healthy.
func (s *Store) Redeliver(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.degraded {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, err := openDurable(s.path)
	if err != nil {
		return err
	}
	if err := verifyIntegrity(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("durable store still unhealthy: %w", err)
	}
	for _, lead := range s.buffer {
		if err := upsert(ctx, db, lead); err != nil {
			_ = db.Close()
			return fmt.Errorf("replay lead %s: %w", lead.SessionID, err)
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	replayed := len(s.buffer)
	s.db = db
	s.buffer = nil
	s.degraded = false
	s.log.Info("lead store restored", "rows_replayed", replayed)
	s.publish(ctx, events.StoreRestored{BaseEvent: events.NewBaseEvent(), RowsReplayed: replayed})
	return nil
}

// bufferLocked records a write for later redelivery and mirrors it into
// the in-memory database so reads stay coherent while degraded.
func (s *Store) bufferLocked(lead Lead) {
	for i := range s.buffer {
		if s.buffer[i].SessionID == lead.SessionID {
			s.buffer[i] = merge(s.buffer[i], lead)
			lead = s.buffer[i]
			s.mirrorLocked(lead)
			return
		}
	}
	s.buffer = append(s.buffer, lead)
	s.mirrorLocked(lead)
}

func (s *Store) mirrorLocked(lead Lead) {
	if s.db == nil {
		return
	}
	if err := upsert(context.Background(), s.db, lead); err != nil {
		s.log.StoreError("mirror_degraded_lead", err)
	}
}

// degrade switches the store to in-memory mode. Callers must hold mu or
// be inside Open before the store escapes to other goroutines.
func (s *Store) degrade(reason error) {
	if s.degraded {
		return
	}
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
	mem, err := openMemory()
	if err != nil {
		s.log.StoreError("open_memory_fallback", err)
	} else {
		s.db = mem
	}
	s.degraded = true
	s.log.StoreDegraded(reason)
	s.publish(context.Background(), events.StoreDegraded{BaseEvent: events.NewBaseEvent(), Reason: reason.Error()})
}

func (s *Store) publish(ctx context.Context, e events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, e)
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package leadstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"realty_agent_backend/internal/events"
	"realty_agent_backend/platform/apperr"
	"realty_agent_backend/platform/logger"
)

type testConfig struct {
	dbPath    string
	backupDir string
}

func (c testConfig) GetLeadDBPath() string { return c.dbPath }
func (c testConfig) GetBackupDir() string  { return c.backupDir }

type recordingBus struct {
	mu    sync.Mutex
	names []string
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.names = append(b.names, e.EventName())
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) has(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range b.names {
		if n == name {
			return true
		}
	}
	return false
}

func newTestStore(t *testing.T) (*Store, testConfig) {
	t.Helper()
	dir := t.TempDir()
	cfg := testConfig{dbPath: filepath.Join(dir, "leads.db"), backupDir: dir}
	s, err := Open(cfg, logger.New("development"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, cfg
}

func strPtr(v string) *string { return &v }

func sampleLead(sessionID string) Lead {
	return Lead{
		SessionID:        sessionID,
		Name:             strPtr("Rahul"),
		Phone:            strPtr("9876543210"),
		Location:         strPtr("Noida"),
		PropertyCategory: strPtr("Residential"),
		Bedroom:          strPtr("3 BHK"),
		PropertiesFound:  12,
		SearchURL:        "https://www.realtyassistant.in/properties?city=10",
		Consent:          true,
		Qualified:        true,
	}
}

func TestSave_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, sampleLead("sess-1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name == nil || *got.Name != "Rahul" {
		t.Fatalf("expected name Rahul, got %v", got.Name)
	}
	if got.Phone == nil || *got.Phone != "9876543210" {
		t.Fatalf("expected phone 9876543210, got %v", got.Phone)
	}
	if got.PropertiesFound != 12 {
		t.Fatalf("expected 12 properties, got %d", got.PropertiesFound)
	}
	if !got.Qualified || !got.Consent {
		t.Fatalf("expected qualified consenting lead, got qualified=%v consent=%v", got.Qualified, got.Consent)
	}
	if got.Email != nil {
		t.Fatalf("expected nil email, got %v", *got.Email)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}
}

func TestSave_IdempotentUpsertMergesFields(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first := Lead{SessionID: "sess-1", Location: strPtr("Pune"), Consent: false}
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("first save: %v", err)
	}
	created, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get after first save: %v", err)
	}

	second := Lead{
		SessionID: "sess-1",
		Name:      strPtr("Priya"),
		Phone:     strPtr("9123456780"),
		Consent:   true,
		Qualified: true,
	}
	for i := 0; i < 3; i++ {
		if err := s.Save(ctx, second); err != nil {
			t.Fatalf("repeat save %d: %v", i, err)
		}
	}

	got, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Location == nil || *got.Location != "Pune" {
		t.Fatalf("expected earlier location to survive, got %v", got.Location)
	}
	if got.Name == nil || *got.Name != "Priya" {
		t.Fatalf("expected merged name Priya, got %v", got.Name)
	}
	if !got.Consent || !got.Qualified {
		t.Fatalf("expected latest flags, got consent=%v qualified=%v", got.Consent, got.Qualified)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("expected created_at preserved, got %v want %v", got.CreatedAt, created.CreatedAt)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 1 {
		t.Fatalf("expected single row after repeated saves, got %d", stats.Total)
	}
}

func TestOpen_RecoversAroundTamperedRow(t *testing.T) {
	s, cfg := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		lead := sampleLead(fmt.Sprintf("sess-%d", i))
		if err := s.Save(ctx, lead); err != nil {
			t.Fatalf("save sess-%d: %v", i, err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Flip a column without touching the checksum.
	raw, err := sql.Open("sqlite", cfg.dbPath)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := raw.Exec(`UPDATE leads SET phone = '0000000000' WHERE session_id = 'sess-2'`); err != nil {
		t.Fatalf("tamper row: %v", err)
	}
	if err := raw.Close(); err != nil {
		t.Fatalf("close raw db: %v", err)
	}

	bus := &recordingBus{}
	reopened, err := Open(cfg, logger.New("development"), bus)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	if reopened.Degraded() {
		t.Fatalf("expected healthy store after recovery")
	}
	if !bus.has("leadstore.corruption.recovered") {
		t.Fatalf("expected corruption recovery event, got %v", bus.names)
	}

	stats, err := reopened.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 4 {
		t.Fatalf("expected 4 surviving leads, got %d", stats.Total)
	}
	if _, err := reopened.Get(ctx, "sess-2"); err == nil {
		t.Fatalf("expected tampered lead to be dropped")
	}
	if _, err := reopened.Get(ctx, "sess-0"); err != nil {
		t.Fatalf("expected intact lead to survive: %v", err)
	}

	backups, err := filepath.Glob(filepath.Join(cfg.backupDir, "leads_backup_*.db*"))
	if err != nil {
		t.Fatalf("glob backups: %v", err)
	}
	if len(backups) != 1 {
		t.Fatalf("expected exactly one backup, got %v", backups)
	}
}

func TestSave_DegradedBufferingAndRedelivery(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "data")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	cfg := testConfig{dbPath: filepath.Join(blocker, "leads.db"), backupDir: dir}

	bus := &recordingBus{}
	s, err := Open(cfg, logger.New("development"), bus)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	if !s.Degraded() {
		t.Fatalf("expected degraded store when data dir is unusable")
	}
	if !bus.has("leadstore.degraded") {
		t.Fatalf("expected degraded event, got %v", bus.names)
	}

	ctx := context.Background()
	if err := s.Save(ctx, sampleLead("sess-1")); err != nil {
		t.Fatalf("degraded save: %v", err)
	}
	if err := s.Save(ctx, Lead{SessionID: "sess-1", Email: strPtr("rahul@example.com"), Consent: true, Qualified: true}); err != nil {
		t.Fatalf("degraded merge save: %v", err)
	}
	if s.Buffered() != 1 {
		t.Fatalf("expected merged buffer of 1, got %d", s.Buffered())
	}

	// Reads stay coherent while degraded.
	got, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("degraded get: %v", err)
	}
	if got.Email == nil || *got.Email != "rahul@example.com" {
		t.Fatalf("expected merged email in degraded read, got %v", got.Email)
	}
	if err := s.Ping(ctx); err == nil {
		t.Fatalf("expected unhealthy ping while degraded")
	}

	// Clear the blocker and redeliver.
	if err := os.Remove(blocker); err != nil {
		t.Fatalf("remove blocker: %v", err)
	}
	if err := s.Redeliver(ctx); err != nil {
		t.Fatalf("redeliver: %v", err)
	}
	if s.Degraded() {
		t.Fatalf("expected healthy store after redelivery")
	}
	if s.Buffered() != 0 {
		t.Fatalf("expected empty buffer after redelivery, got %d", s.Buffered())
	}
	if !bus.has("leadstore.restored") {
		t.Fatalf("expected restored event, got %v", bus.names)
	}

	durable, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get after redelivery: %v", err)
	}
	if durable.Name == nil || *durable.Name != "Rahul" {
		t.Fatalf("expected replayed lead, got %+v", durable)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("expected healthy ping after redelivery: %v", err)
	}
}

func TestList_QualifiedFilterAndOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	qualified := sampleLead("sess-q")
	if err := s.Save(ctx, qualified); err != nil {
		t.Fatalf("save qualified: %v", err)
	}
	declined := Lead{SessionID: "sess-d", Location: strPtr("Pune"), Consent: false, Qualified: false}
	if err := s.Save(ctx, declined); err != nil {
		t.Fatalf("save declined: %v", err)
	}

	all, err := s.List(ctx, nil, 50, 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(all))
	}

	want := true
	onlyQualified, err := s.List(ctx, &want, 50, 0)
	if err != nil {
		t.Fatalf("list qualified: %v", err)
	}
	if len(onlyQualified) != 1 || onlyQualified[0].SessionID != "sess-q" {
		t.Fatalf("expected only sess-q, got %+v", onlyQualified)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 || stats.Qualified != 1 || stats.Consented != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestSave_IntegrityCheckedBeforeEachWrite(t *testing.T) {
	s, cfg := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, sampleLead("sess-a")); err != nil {
		t.Fatalf("save sess-a: %v", err)
	}
	if err := s.Save(ctx, sampleLead("sess-b")); err != nil {
		t.Fatalf("save sess-b: %v", err)
	}

	// Flip a column on the other row without touching its checksum.
	raw, err := sql.Open("sqlite", cfg.dbPath)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := raw.Exec(`UPDATE leads SET phone = '0000000000' WHERE session_id = 'sess-b'`); err != nil {
		t.Fatalf("tamper row: %v", err)
	}
	if err := raw.Close(); err != nil {
		t.Fatalf("close raw db: %v", err)
	}

	update := sampleLead("sess-a")
	update.Budget = strPtr("90 Lakhs")
	if err := s.Save(ctx, update); err != nil {
		t.Fatalf("save after tamper: %v", err)
	}

	if s.Degraded() {
		t.Fatalf("expected healthy store after recovery")
	}
	backups, err := filepath.Glob(filepath.Join(cfg.backupDir, "leads_backup_*.db*"))
	if err != nil {
		t.Fatalf("glob backups: %v", err)
	}
	if len(backups) != 1 {
		t.Fatalf("expected a backup taken before the write, got %v", backups)
	}
	if _, err := s.Get(ctx, "sess-b"); err == nil {
		t.Fatalf("expected tampered lead to be dropped by recovery")
	}
	got, err := s.Get(ctx, "sess-a")
	if err != nil {
		t.Fatalf("get sess-a: %v", err)
	}
	if got.Budget == nil || *got.Budget != "90 Lakhs" {
		t.Fatalf("expected the write to land after recovery, got %+v", got.Budget)
	}
}

func TestReads_UnavailableAfterClose(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := s.Get(ctx, "sess-1"); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("Get on closed store = %v, want unavailable", err)
	}
	if _, err := s.List(ctx, nil, 50, 0); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("List on closed store = %v, want unavailable", err)
	}
	if _, err := s.Stats(ctx); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("Stats on closed store = %v, want unavailable", err)
	}
}

package leadstore

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"realty_agent_backend/internal/events"
	"realty_agent_backend/platform/logger"
)

// verifyIntegrity runs the SQLite self-check and then validates every row
// checksum. Any failure means the file needs the recovery pipeline.
func verifyIntegrity(ctx context.Context, db *sql.DB) error {
	var result string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check`).Scan(&result); err != nil {
		return fmt.Errorf("quick_check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("quick_check: %s", result)
	}
	rows, err := db.QueryContext(ctx, `SELECT `+leadColumns+` FROM leads`)
	if err != nil {
		return fmt.Errorf("scan leads: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		if _, err := scanLead(rows); err != nil {
			return fmt.Errorf("row integrity: %w", err)
		}
	}
	return rows.Err()
}

// recoverLocked runs the corruption recovery pipeline with s.mu held:
// back up the corrupt file under a fresh name, pull out every row that
// still validates, rebuild the database, and reinsert the survivors.
// The original file is never lost; the backup is never overwritten.
func (s *Store) recoverLocked(cause error) error {
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}

	backupPath, err := s.backupCorruptFile()
	if err != nil {
		return fmt.Errorf("backup corrupt db: %w", err)
	}

	recovered, lost := extractRows(backupPath, s.log)

	if err := removeDatabaseFiles(s.path); err != nil {
		return fmt.Errorf("remove corrupt db: %w", err)
	}
	db, err := openDurable(s.path)
	if err != nil {
		return fmt.Errorf("reinit db: %w", err)
	}
	ctx := context.Background()
	for _, lead := range recovered {
		if err := upsert(ctx, db, lead); err != nil {
			_ = db.Close()
			return fmt.Errorf("reinsert lead %s: %w", lead.SessionID, err)
		}
	}
	s.db = db
	s.log.StoreRecovered(backupPath, len(recovered), lost)
	s.publish(ctx, events.StoreCorruptionRecovered{
		BaseEvent: events.NewBaseEvent(), BackupPath: backupPath,
		RowsRecovered: len(recovered), RowsLost: lost,
	})
	return nil
}

// backupCorruptFile copies the database file aside before anything
// touches it. A timestamped name keeps successive recoveries from
// clobbering each other.
func (s *Store) backupCorruptFile() (string, error) {
	stamp := s.now().UTC().Format("20060102T150405")
	base := filepath.Join(s.backupDir, fmt.Sprintf("leads_backup_%s.db", stamp))
	backupPath := base
	for i := 1; ; i++ {
		if _, err := os.Stat(backupPath); os.IsNotExist(err) {
			break
		}
		backupPath = fmt.Sprintf("%s.%d", base, i)
	}
	if err := copyFile(s.path, backupPath); err != nil {
		return "", err
	}
	return backupPath, nil
}

// extractRows reads the backup best-effort: rows that scan and pass the
// checksum survive, everything else is counted as lost. A file too far
// gone to query at all recovers zero rows.
func extractRows(backupPath string, log *logger.Logger) (recovered []Lead, lost int) {
	db, err := sql.Open("sqlite", backupPath+"?mode=ro")
	if err != nil {
		log.StoreError("open_backup_for_extraction", err)
		return nil, 0
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	rows, err := db.QueryContext(ctx, `SELECT `+leadColumns+` FROM leads`)
	if err != nil {
		log.StoreError("extract_backup_rows", err)
		return nil, 0
	}
	defer rows.Close()
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			lost++
			log.StoreError("skip_corrupt_row", err)
			continue
		}
		recovered = append(recovered, lead)
	}
	if err := rows.Err(); err != nil {
		log.StoreError("iterate_backup_rows", err)
	}
	return recovered, lost
}

// removeDatabaseFiles drops the main file plus the WAL sidecars so the
// reinitialized database starts clean.
func removeDatabaseFiles(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

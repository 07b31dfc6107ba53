// Package transcript persists conversation turns as append-only JSONL
// files, one file per session. Transcript writes are best-effort: a
// failure is logged but never interrupts the conversation.
package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"realty_agent_backend/internal/conversation/domain"
	"realty_agent_backend/platform/apperr"
	"realty_agent_backend/platform/config"
	"realty_agent_backend/platform/logger"
)

// Writer appends turns to per-session transcript files.
type Writer struct {
	mu  sync.Mutex
	dir string
	log *logger.Logger
}

func NewWriter(cfg config.ConversationConfig, log *logger.Logger) *Writer {
	return &Writer{dir: filepath.Clean(cfg.GetTranscriptDir()), log: log}
}

// Append writes one turn to the session transcript.
func (w *Writer) Append(sessionID string, turn domain.Turn) error {
	path, err := w.sessionPath(sessionID)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create transcript dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()
	line, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("encode turn: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// Read returns every recorded turn for a session in order.
func (w *Writer) Read(sessionID string) ([]domain.Turn, error) {
	path, err := w.sessionPath(sessionID)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFound("transcript not found")
		}
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	turns := []domain.Turn{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var turn domain.Turn
		if err := json.Unmarshal([]byte(line), &turn); err != nil {
			w.log.Warn("skipping malformed transcript line", "session_id", sessionID, "error", err)
			continue
		}
		turns = append(turns, turn)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return turns, nil
}

// sessionPath rejects ids that could escape the transcript directory.
func (w *Writer) sessionPath(sessionID string) (string, error) {
	if sessionID == "" || strings.ContainsAny(sessionID, `/\`) || strings.Contains(sessionID, "..") {
		return "", apperr.Validation("invalid session id")
	}
	return filepath.Join(w.dir, sessionID+".jsonl"), nil
}

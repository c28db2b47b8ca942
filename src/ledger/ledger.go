package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	logger "github.com/sirupsen/logrus"

	"riskwatch/src/model"
)

type Config struct {
	LedgerPath    string `envconfig:"LEDGER_PATH" default:"alert_ledger.jsonl"`
	HeartbeatPath string `envconfig:"HEARTBEAT_PATH" default:"monitor_heartbeat.txt"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

// Writer appends cycle summaries as newline-delimited JSON and stamps a
// heartbeat file after every cycle. External watchers poll the heartbeat
// mtime to tell a live monitor from a dead one.
type Writer struct {
	cfg Config
	mu  sync.Mutex
}

func NewWriter(cfg Config) *Writer {
	return &Writer{cfg: cfg}
}

// Append writes one entry to the JSONL ledger.
func (w *Writer) Append(entry model.LedgerEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.cfg.LedgerPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open ledger %s: %w", w.cfg.LedgerPath, err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(entry); err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// Heartbeat rewrites the heartbeat file with the given instant.
func (w *Writer) Heartbeat(at time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.WriteFile(w.cfg.HeartbeatPath, []byte(at.UTC().Format(time.RFC3339)+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write heartbeat %s: %w", w.cfg.HeartbeatPath, err)
	}
	return nil
}

// Tail returns the newest entries from the JSONL file, newest first. A
// missing file means no cycles have run yet, not an error.
func (w *Writer) Tail(limit int) ([]model.LedgerEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.Open(w.cfg.LedgerPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open ledger %s: %w", w.cfg.LedgerPath, err)
	}
	defer f.Close()

	var entries []model.LedgerEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry model.LedgerEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			logger.WithError(err).Warn("Skipping malformed ledger line")
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan ledger: %w", err)
	}

	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

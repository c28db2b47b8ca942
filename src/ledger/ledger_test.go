package ledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"riskwatch/src/model"
)

func tempWriter(t *testing.T) *Writer {
	t.Helper()
	dir := t.TempDir()
	return NewWriter(Config{
		LedgerPath:    filepath.Join(dir, "ledger.jsonl"),
		HeartbeatPath: filepath.Join(dir, "heartbeat.txt"),
	})
}

func entry(cycleID string, evaluated int) model.LedgerEntry {
	return model.LedgerEntry{
		CycleID:         cycleID,
		Timestamp:       time.Now().UTC(),
		AlertsEvaluated: evaluated,
	}
}

func TestAppendAndTail(t *testing.T) {
	w := tempWriter(t)

	require.NoError(t, w.Append(entry("c1", 1)))
	require.NoError(t, w.Append(entry("c2", 2)))
	require.NoError(t, w.Append(entry("c3", 3)))

	tail, err := w.Tail(2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	require.Equal(t, "c3", tail[0].CycleID, "newest first")
	require.Equal(t, "c2", tail[1].CycleID)
}

func TestTailMissingFile(t *testing.T) {
	w := tempWriter(t)

	tail, err := w.Tail(10)
	require.NoError(t, err)
	require.Empty(t, tail)
}

func TestTailSkipsMalformedLines(t *testing.T) {
	w := tempWriter(t)
	require.NoError(t, w.Append(entry("c1", 1)))
	f, err := os.OpenFile(w.cfg.LedgerPath, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, w.Append(entry("c2", 2)))

	tail, err := w.Tail(10)
	require.NoError(t, err)
	require.Len(t, tail, 2)
}

func TestHeartbeat(t *testing.T) {
	w := tempWriter(t)
	at := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)

	require.NoError(t, w.Heartbeat(at))
	raw, err := os.ReadFile(w.cfg.HeartbeatPath)
	require.NoError(t, err)
	require.Equal(t, "2026-09-01T10:30:00Z\n", string(raw))

	// A later heartbeat replaces, never appends.
	require.NoError(t, w.Heartbeat(at.Add(time.Minute)))
	raw, err = os.ReadFile(w.cfg.HeartbeatPath)
	require.NoError(t, err)
	require.Equal(t, "2026-09-01T10:31:00Z\n", string(raw))
}

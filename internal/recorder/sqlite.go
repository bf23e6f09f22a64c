package recorder

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists cycle history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create db dir")
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	// WAL so dashboards can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	log.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signal_snapshots (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			symbol          TEXT,
			close           REAL,
			ofi             REAL,
			ofi_available   INTEGER,
			signal          TEXT,
			confidence      TEXT,
			entry           REAL,
			stop_loss       REAL,
			take_profit     REAL,
			mean_level      REAL,
			stop_distance   REAL,
			safe_stop       REAL,
			actionable      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_ts ON signal_snapshots(timestamp)`,

		`CREATE TABLE IF NOT EXISTS alert_history (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			signal      TEXT,
			confidence  TEXT,
			outcome     TEXT,
			status_code INTEGER,
			diagnostic  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alert_ts ON alert_history(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return errors.Wrapf(err, "exec %q", s[:40])
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSignal(snap *SignalSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := snap.Plan
	_, err := r.db.Exec(`INSERT INTO signal_snapshots
		(timestamp, symbol, close, ofi, ofi_available, signal, confidence,
		 entry, stop_loss, take_profit, mean_level, stop_distance, safe_stop, actionable)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		unixOrNow(snap.Time), snap.Symbol, snap.Close, snap.OFI.Value, boolInt(snap.OFI.Available),
		p.Signal, p.Confidence, p.Entry, p.StopLoss, p.TakeProfit,
		p.Stop.MeanReversionLevel, p.Stop.StopDistance, p.SafeStop, boolInt(p.Actionable),
	)
	return err
}

func (r *SQLiteRecorder) RecordAlert(evt *AlertEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO alert_history
		(timestamp, signal, confidence, outcome, status_code, diagnostic)
		VALUES (?,?,?,?,?,?)`,
		unixOrNow(evt.Time), evt.Signal, evt.Confidence, evt.Outcome, evt.StatusCode, evt.Diagnostic,
	)
	return err
}

// CountAlerts returns how many alert attempts with the given outcome are stored.
func (r *SQLiteRecorder) CountAlerts(outcome string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM alert_history WHERE outcome = ?`, outcome).Scan(&n)
	return n, err
}

// LatestSignal returns the most recently recorded signal label and confidence.
func (r *SQLiteRecorder) LatestSignal() (signal, confidence string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.db.QueryRow(`SELECT signal, confidence FROM signal_snapshots ORDER BY id DESC LIMIT 1`).
		Scan(&signal, &confidence)
	return signal, confidence, err
}

func (r *SQLiteRecorder) Close() error {
	log.Info("closing sqlite recorder")
	return r.db.Close()
}

func unixOrNow(t time.Time) int64 {
	if t.IsZero() {
		return time.Now().Unix()
	}
	return t.Unix()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package recorder

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"ScalpSentinel/internal/model"
)

const journalTimeLayout = "2006-01-02 15:04:05"

// JournalHeader is the header row of the trade CSV.
var JournalHeader = []string{"Time", "Signal", "Entry", "SL", "TP", "OFI", "Risk%", "Risk($)", "PositionSize"}

// Journal appends manually logged trades to a text log and a CSV file.
type Journal struct {
	TextPath string
	CSVPath  string

	mu sync.Mutex
}

// NewJournal creates a journal writing to the two given paths.
func NewJournal(textPath, csvPath string) *Journal {
	return &Journal{TextPath: textPath, CSVPath: csvPath}
}

// Append writes the entry to both files. The CSV header is written when the
// CSV file does not exist yet.
func (j *Journal) Append(entry model.TradeLogEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.appendText(entry); err != nil {
		return err
	}
	return j.appendCSV(entry)
}

// FormatTextLine renders the human-readable log line for an entry. Entry is
// the unrounded last close, as in the CSV.
func FormatTextLine(entry model.TradeLogEntry) string {
	p := entry.Plan
	return fmt.Sprintf("%s | %s | Entry: %s | SL: %s | TP: %s | OFI: %s\n",
		entry.Time.Format(journalTimeLayout), p.Signal,
		ftoa(p.LastClose), ftoa(p.StopLoss), ftoa(p.TakeProfit), ftoa(p.OFI))
}

func (j *Journal) appendText(entry model.TradeLogEntry) error {
	f, err := openAppend(j.TextPath)
	if err != nil {
		return errors.Wrap(err, "open trade log")
	}
	defer f.Close()

	if _, err := f.WriteString(FormatTextLine(entry)); err != nil {
		return errors.Wrap(err, "write trade log")
	}
	return nil
}

func (j *Journal) appendCSV(entry model.TradeLogEntry) error {
	_, statErr := os.Stat(j.CSVPath)
	needHeader := os.IsNotExist(statErr)

	f, err := openAppend(j.CSVPath)
	if err != nil {
		return errors.Wrap(err, "open trade csv")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(JournalHeader); err != nil {
			return errors.Wrap(err, "write csv header")
		}
	}

	p, r := entry.Plan, entry.Risk
	row := []string{
		entry.Time.Format(journalTimeLayout),
		p.Signal,
		ftoa(p.LastClose),
		ftoa(p.StopLoss),
		ftoa(p.TakeProfit),
		ftoa(p.OFI),
		ftoa(r.RiskPct),
		strconv.FormatFloat(r.RiskAmount, 'f', 2, 64),
		ftoa(r.PositionSize),
	}
	if err := w.Write(row); err != nil {
		return errors.Wrap(err, "write csv row")
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flush csv")
}

func openAppend(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

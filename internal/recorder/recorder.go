package recorder

import (
	"time"

	"ScalpSentinel/internal/model"
)

// SignalSnapshot holds the outcome of one refresh cycle.
type SignalSnapshot struct {
	Time   time.Time
	Symbol string
	Close  float64
	OFI    model.OFIReading
	Plan   model.TradePlan
}

// AlertEvent records one non-skipped notification attempt.
type AlertEvent struct {
	Time       time.Time
	Signal     string
	Confidence string
	Outcome    string // "sent" or "failed"
	StatusCode int
	Diagnostic string
}

// Recorder persists cycle history for later analysis. It is never read back
// to restore notifier state.
type Recorder interface {
	RecordSignal(snap *SignalSnapshot) error
	RecordAlert(evt *AlertEvent) error
	Close() error
}

package collector

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"ScalpSentinel/internal/model"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrNoRows        = errors.New("no data rows")
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// CSVFetcher reads the signal and OFI feeds from CSV files written by the
// upstream indicator pipeline.
type CSVFetcher struct {
	SignalPath string
	OFIPath    string
}

// NewCSVFetcher creates a fetcher over the two CSV outputs.
func NewCSVFetcher(signalPath, ofiPath string) *CSVFetcher {
	return &CSVFetcher{SignalPath: signalPath, OFIPath: ofiPath}
}

func (f *CSVFetcher) Name() string { return "csv" }

// FetchBars parses every row of the signal CSV. Columns are matched by header name.
func (f *CSVFetcher) FetchBars(_ context.Context, _ string) ([]model.Bar, error) {
	file, err := os.Open(f.SignalPath)
	if err != nil {
		return nil, errors.Wrap(err, "open signal csv")
	}
	defer file.Close()
	return ParseBars(file)
}

// FetchOFI returns the last `ofi` value of the OFI CSV. A missing file is
// reported as an unavailable reading.
func (f *CSVFetcher) FetchOFI(_ context.Context, _ string) (model.OFIReading, error) {
	if f.OFIPath == "" {
		return model.OFIReading{}, nil
	}
	file, err := os.Open(f.OFIPath)
	if err != nil {
		if os.IsNotExist(err) {
			return model.OFIReading{}, nil
		}
		return model.OFIReading{}, errors.Wrap(err, "open ofi csv")
	}
	defer file.Close()
	return ParseLatestOFI(file)
}

// ParseBars decodes the signal feed: timestamp, open, high, low, close and
// the optional bb_upper, bb_lower, vwap, signal columns.
func ParseBars(r io.Reader) ([]model.Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, ErrNoRows
		}
		return nil, errors.Wrap(err, "read header")
	}
	cols := indexColumns(header)
	for _, name := range []string{"timestamp", "open", "high", "low", "close"} {
		if _, ok := cols[name]; !ok {
			return nil, errors.Wrapf(ErrMissingColumn, "signal csv: %s", name)
		}
	}

	var bars []model.Bar
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrapf(err, "read line %d", line)
		}

		bar, err := decodeBar(rec, cols)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, ErrNoRows
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// ParseLatestOFI returns the `ofi` value of the last data row.
func ParseLatestOFI(r io.Reader) (model.OFIReading, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return model.OFIReading{}, nil
		}
		return model.OFIReading{}, errors.Wrap(err, "read header")
	}
	idx, ok := indexColumns(header)["ofi"]
	if !ok {
		return model.OFIReading{}, errors.Wrap(ErrMissingColumn, "ofi csv: ofi")
	}

	var last []string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.OFIReading{}, errors.Wrap(err, "read ofi csv")
		}
		last = rec
	}
	if last == nil || idx >= len(last) {
		return model.OFIReading{}, nil
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(last[idx]), 64)
	if err != nil {
		return model.OFIReading{}, errors.Wrap(err, "parse ofi")
	}
	return model.OFIReading{Value: v, Available: true}, nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return cols
}

func decodeBar(rec []string, cols map[string]int) (model.Bar, error) {
	var bar model.Bar
	field := func(name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return "", false
		}
		return strings.TrimSpace(rec[i]), true
	}
	number := func(name string, required bool) (float64, error) {
		s, ok := field(name)
		if !ok || s == "" {
			if required {
				return 0, errors.Wrap(ErrMissingColumn, name)
			}
			return 0, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "parse %s", name)
		}
		return v, nil
	}

	ts, _ := field("timestamp")
	t, err := parseTime(ts)
	if err != nil {
		return bar, err
	}
	bar.Time = t

	if bar.Open, err = number("open", true); err != nil {
		return bar, err
	}
	if bar.High, err = number("high", true); err != nil {
		return bar, err
	}
	if bar.Low, err = number("low", true); err != nil {
		return bar, err
	}
	if bar.Close, err = number("close", true); err != nil {
		return bar, err
	}
	if bar.BBUpper, err = number("bb_upper", false); err != nil {
		return bar, err
	}
	if bar.BBLower, err = number("bb_lower", false); err != nil {
		return bar, err
	}
	if bar.VWAP, err = number("vwap", false); err != nil {
		return bar, err
	}
	bar.Signal, _ = field("signal")
	return bar, nil
}

// parseTime accepts the layouts pandas writes, or unix seconds / milliseconds.
func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n), nil
		}
		return time.Unix(n, 0), nil
	}
	return time.Time{}, errors.Errorf("invalid timestamp %q", s)
}

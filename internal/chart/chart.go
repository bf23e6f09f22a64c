// Package chart renders the PNG snapshot attached to webhook alerts.
package chart

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"ScalpSentinel/internal/model"
)

const (
	width  = 1000
	height = 500
)

var ErrNotEnoughBars = errors.New("at least two bars are required to draw a chart")

var (
	colorOrange = drawing.Color{R: 255, G: 165, B: 0, A: 255}
	colorPurple = drawing.Color{R: 128, G: 0, B: 128, A: 255}
)

// Build assembles the chart: close price, Bollinger bands, VWAP, and the
// plan's stop-loss and take-profit as flat lines.
func Build(snap *model.MarketSnapshot, plan model.TradePlan) (*chart.Chart, error) {
	if len(snap.Bars) < 2 {
		return nil, ErrNotEnoughBars
	}

	n := len(snap.Bars)
	xs := make([]time.Time, n)
	closes := make([]float64, n)
	upper := make([]float64, n)
	lower := make([]float64, n)
	vwap := make([]float64, n)
	var hasBands, hasVWAP bool
	for i, b := range snap.Bars {
		xs[i] = b.Time
		closes[i] = b.Close
		upper[i] = b.BBUpper
		lower[i] = b.BBLower
		vwap[i] = b.VWAP
		hasBands = hasBands || b.BBUpper != 0 || b.BBLower != 0
		hasVWAP = hasVWAP || b.VWAP != 0
	}

	series := []chart.Series{
		chart.TimeSeries{Name: "Close", XValues: xs, YValues: closes,
			Style: chart.Style{StrokeColor: drawing.ColorBlack, StrokeWidth: 1.5}},
	}
	if hasBands {
		series = append(series,
			chart.TimeSeries{Name: "Upper Band", XValues: xs, YValues: upper,
				Style: chart.Style{StrokeColor: drawing.ColorRed}},
			chart.TimeSeries{Name: "Lower Band", XValues: xs, YValues: lower,
				Style: chart.Style{StrokeColor: drawing.ColorGreen}},
		)
	}
	if hasVWAP {
		series = append(series, chart.TimeSeries{Name: "VWAP", XValues: xs, YValues: vwap,
			Style: chart.Style{StrokeColor: drawing.ColorBlue}})
	}
	series = append(series,
		chart.TimeSeries{Name: "Stop Loss", XValues: xs, YValues: flat(n, plan.StopLoss),
			Style: chart.Style{StrokeColor: colorOrange, StrokeDashArray: []float64{4, 4}}},
		chart.TimeSeries{Name: "Take Profit", XValues: xs, YValues: flat(n, plan.TakeProfit),
			Style: chart.Style{StrokeColor: colorPurple, StrokeDashArray: []float64{4, 4}}},
	)

	graph := &chart.Chart{
		Title:  snap.Symbol + " " + plan.Signal,
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeMinuteValueFormatter,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(graph)}
	return graph, nil
}

// Render writes the chart PNG to w.
func Render(w io.Writer, snap *model.MarketSnapshot, plan model.TradePlan) error {
	graph, err := Build(snap, plan)
	if err != nil {
		return err
	}
	return errors.Wrap(graph.Render(chart.PNG, w), "render png")
}

// RenderFile writes the chart PNG to path. The file is written to a temporary
// name first so a concurrent reader never sees a partial image.
func RenderFile(path string, snap *model.MarketSnapshot, plan model.TradePlan) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create chart dir")
	}
	tmp, err := os.CreateTemp(dir, ".chart-*.png")
	if err != nil {
		return errors.Wrap(err, "create chart file")
	}
	defer os.Remove(tmp.Name())

	if err := Render(tmp, snap, plan); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close chart file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "move chart file")
}

func flat(n int, v float64) []float64 {
	ys := make([]float64, n)
	for i := range ys {
		ys[i] = v
	}
	return ys
}

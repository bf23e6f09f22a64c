package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"ScalpSentinel/internal/calculator"
	"ScalpSentinel/internal/chart"
	"ScalpSentinel/internal/collector"
	"ScalpSentinel/internal/fund"
	"ScalpSentinel/internal/metrics"
	"ScalpSentinel/internal/model"
	"ScalpSentinel/internal/notifier"
	"ScalpSentinel/internal/recorder"
	"ScalpSentinel/internal/strategy"
)

// AlertNotifier delivers signal alerts.
type AlertNotifier interface {
	Notify(ctx context.Context, evt model.SignalEvent) notifier.Result
}

// Options tune what a refresh cycle produces besides the plan.
type Options struct {
	ChartPath    string // empty disables the chart snapshot
	DashboardURL string
}

// CycleResult is the outcome of one refresh cycle. Alert is nil when the
// plan was not actionable.
type CycleResult struct {
	Snapshot *model.MarketSnapshot
	Plan     model.TradePlan
	Alert    *notifier.Result
}

// Scheduler drives the refresh cycle on a cron schedule.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Fund      *fund.Manager
	Notifier  AlertNotifier
	Recorder  recorder.Recorder
	Journal   *recorder.Journal
	Options   Options
	Ctx       context.Context

	mu sync.Mutex
}

// NewScheduler creates a new Scheduler. Overlapping cron ticks are skipped.
func NewScheduler(ctx context.Context, col *collector.Collector, fm *fund.Manager, n AlertNotifier,
	rec recorder.Recorder, journal *recorder.Journal, opts Options) *Scheduler {
	logger := cron.PrintfLogger(log.StandardLogger())
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(logger))),
		Collector: col,
		Fund:      fm,
		Notifier:  n,
		Recorder:  rec,
		Journal:   journal,
		Options:   opts,
		Ctx:       ctx,
	}
}

// Register adds the refresh task under the given cron spec (with seconds).
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return errors.Wrap(err, "register refresh task")
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info("scheduler stopped")
}

func (s *Scheduler) refreshTask() {
	if _, err := s.RunOnce(s.Ctx); err != nil {
		log.Errorf("refresh cycle: %v", err)
	}
}

// RunOnce runs one refresh cycle: collect, estimate, plan, chart, notify, record.
func (s *Scheduler) RunOnce(ctx context.Context) (*CycleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.cycle(ctx)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.RefreshTotal.WithLabelValues("ok").Inc()
	return res, nil
}

func (s *Scheduler) cycle(ctx context.Context) (*CycleResult, error) {
	snap, err := s.Collector.Collect(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "collect")
	}

	est, err := calculator.EstimateStop(snap.Closes())
	if err != nil {
		return nil, errors.Wrap(err, "estimate stop")
	}
	plan := strategy.Evaluate(snap, est)
	metrics.LastOFI.Set(plan.OFI)
	metrics.StopDistance.Set(est.StopDistance)

	log.Infof("signal %q confidence %q entry %v SL %v TP %v OFI %v",
		plan.Signal, plan.Confidence, plan.Entry, plan.StopLoss, plan.TakeProfit, plan.OFI)

	res := &CycleResult{Snapshot: snap, Plan: plan}

	if plan.Actionable {
		chartPath := s.renderChart(snap, plan)
		evt := model.NewSignalEvent(plan, chartPath, s.Options.DashboardURL)
		alert := s.Notifier.Notify(ctx, evt)
		metrics.AlertsTotal.WithLabelValues(string(alert.Outcome)).Inc()
		res.Alert = &alert
		s.recordAlert(plan, alert)
	}

	if err := s.Recorder.RecordSignal(&recorder.SignalSnapshot{
		Time:   snap.FetchedAt,
		Symbol: snap.Symbol,
		Close:  snap.Last().Close,
		OFI:    snap.OFI,
		Plan:   plan,
	}); err != nil {
		log.Errorf("record signal: %v", err)
	}

	return res, nil
}

// LogTrade runs a cycle and appends the resulting plan and position size to the journal.
func (s *Scheduler) LogTrade(ctx context.Context) (model.TradeLogEntry, error) {
	res, err := s.RunOnce(ctx)
	if err != nil {
		return model.TradeLogEntry{}, err
	}

	entry := model.TradeLogEntry{
		Time: time.Now(),
		Plan: res.Plan,
		Risk: s.Fund.Size(res.Plan),
	}
	if err := s.Journal.Append(entry); err != nil {
		return entry, errors.Wrap(err, "append journal")
	}
	log.Infof("trade saved to %s and %s", s.Journal.CSVPath, s.Journal.TextPath)
	return entry, nil
}

// renderChart returns the chart path, or "" when charts are disabled or rendering failed.
func (s *Scheduler) renderChart(snap *model.MarketSnapshot, plan model.TradePlan) string {
	if s.Options.ChartPath == "" {
		return ""
	}
	if err := chart.RenderFile(s.Options.ChartPath, snap, plan); err != nil {
		log.Warnf("chart image not saved: %v", err)
		return ""
	}
	return s.Options.ChartPath
}

func (s *Scheduler) recordAlert(plan model.TradePlan, alert notifier.Result) {
	if alert.Outcome == notifier.OutcomeSkipped {
		return
	}
	if err := s.Recorder.RecordAlert(&recorder.AlertEvent{
		Time:       time.Now(),
		Signal:     plan.Signal,
		Confidence: plan.Confidence,
		Outcome:    string(alert.Outcome),
		StatusCode: alert.StatusCode,
		Diagnostic: alert.Diagnostic,
	}); err != nil {
		log.Errorf("record alert: %v", err)
	}
}

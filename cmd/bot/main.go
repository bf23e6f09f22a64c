package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ScalpSentinel/internal/collector"
	"ScalpSentinel/internal/config"
	"ScalpSentinel/internal/fund"
	"ScalpSentinel/internal/metrics"
	"ScalpSentinel/internal/model"
	"ScalpSentinel/internal/notifier"
	"ScalpSentinel/internal/recorder"
	"ScalpSentinel/internal/scheduler"
	"ScalpSentinel/internal/util"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

var rootCmd = &cobra.Command{
	Use:          "scalpsentinel",
	Short:        "Scalping signal monitor with webhook alerts",
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the refresh cycle on the configured schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.close()

		if addr := app.cfg.Metrics.Addr; addr != "" {
			srv := metrics.Serve(addr)
			log.Infof("metrics listening on %s", addr)
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(ctx)
			}()
		}

		if err := app.sched.Register(app.cfg.Schedule.RefreshCron); err != nil {
			return err
		}
		app.sched.Start()
		defer app.sched.Stop()

		if os.Getenv("RUN_ON_START") == "true" {
			log.Info("RUN_ON_START enabled, executing refresh now")
			go func() {
				if _, err := app.sched.RunOnce(ctx); err != nil {
					log.Errorf("refresh cycle: %v", err)
				}
			}()
		}

		log.Infof("ScalpSentinel is running (%s). Press Ctrl+C to stop.", app.cfg.Schedule.RefreshCron)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info("shutdown signal received, stopping...")
		cancel()
		return nil
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single refresh cycle and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.close()

		res, err := app.sched.RunOnce(ctx)
		if err != nil {
			return err
		}
		if res.Alert != nil {
			log.Infof("alert outcome: %s", res.Alert.Outcome)
		}
		return nil
	},
}

var logTradeCmd = &cobra.Command{
	Use:   "log-trade",
	Short: "Run a refresh cycle and append the plan to the trade journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.close()

		entry, err := app.sched.LogTrade(ctx)
		if err != nil {
			return err
		}
		log.Info(recorder.FormatTextLine(entry))
		return nil
	},
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show or change the balance and risk percent used for position sizing",
	RunE: func(cmd *cobra.Command, args []string) error {
		fm, _, err := newFundManager()
		if err != nil {
			return err
		}
		printAccount(fm.GetState())
		return nil
	},
}

var (
	setBalance float64
	setRiskPct float64
)

var accountSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Persist a new balance and/or risk percent",
	RunE: func(cmd *cobra.Command, args []string) error {
		if setBalance == 0 && setRiskPct == 0 {
			return errors.New("nothing to set: pass --balance and/or --risk")
		}
		fm, cfg, err := newFundManager()
		if err != nil {
			return err
		}
		if err := fm.Apply(setBalance, setRiskPct); err != nil {
			return errors.Wrap(err, "update account")
		}
		if b, r := cfg.ExplicitAccount(); b != 0 || r != 0 {
			log.Warnf("account values in config or env (balance %v, risk %v) are re-applied on every start", b, r)
		}
		printAccount(fm.GetState())
		return nil
	},
}

func printAccount(state model.AccountState) {
	log.Infof("balance: %.2f, risk: %v%%, updated: %s", state.Balance, state.RiskPct, state.UpdatedAt.Format(time.RFC3339))
}

func init() {
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultPath, "config file path")
	accountSetCmd.Flags().Float64Var(&setBalance, "balance", 0, "account balance")
	accountSetCmd.Flags().Float64Var(&setRiskPct, "risk", 0, "risk percent per trade")
	accountCmd.AddCommand(accountSetCmd)
	rootCmd.AddCommand(runCmd, onceCmd, logTradeCmd, accountCmd)
}

type app struct {
	cfg   *config.Config
	sched *scheduler.Scheduler
	rec   recorder.Recorder
}

// newFundManager loads the stored account settings and applies balance and
// risk values set explicitly in config or env.
func newFundManager() (*fund.Manager, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load config")
	}
	util.SetupLogger(cfg.Log.Level)

	fm, err := fund.NewManager(cfg.Account.StateFile, cfg.Account.Balance, cfg.Account.RiskPct)
	if err != nil {
		return nil, nil, errors.Wrap(err, "init fund manager")
	}
	if err := fm.Apply(cfg.ExplicitAccount()); err != nil {
		return nil, nil, errors.Wrap(err, "apply configured account")
	}
	return fm, cfg, nil
}

func newApp(ctx context.Context) (*app, error) {
	fm, cfg, err := newFundManager()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation")
	}
	log.Info("ScalpSentinel starting...")

	var fetcher collector.Fetcher
	if cfg.DataSource.BaseURL != "" {
		fetcher = collector.NewHTTPFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	} else {
		fetcher = collector.NewCSVFetcher(cfg.DataSource.SignalCSV, cfg.DataSource.OFICSV)
	}
	log.Infof("data source: %s", fetcher.Name())
	col := collector.NewCollector(fetcher, cfg.Symbol)

	state := fm.GetState()
	log.Infof("account: balance %.2f, risk %v%%", state.Balance, state.RiskPct)

	wn := notifier.NewWebhookNotifier(notifier.WebhookConfig{
		URL:      cfg.Webhook.URL,
		Username: cfg.Webhook.Username,
		Color:    cfg.Webhook.Color,
		Timeout:  cfg.Webhook.Timeout,
	}, cfg.Proxy)

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warnf("init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	journal := recorder.NewJournal(cfg.Journal.TextPath, cfg.Journal.CSVPath)

	opts := scheduler.Options{DashboardURL: cfg.Webhook.DashboardURL}
	if cfg.Chart.Enabled {
		opts.ChartPath = cfg.Chart.Path
	}

	return &app{
		cfg:   cfg,
		sched: scheduler.NewScheduler(ctx, col, fm, wn, rec, journal, opts),
		rec:   rec,
	}, nil
}

func (a *app) close() {
	if err := a.rec.Close(); err != nil {
		log.Errorf("close recorder: %v", err)
	}
	log.Info("ScalpSentinel stopped")
}

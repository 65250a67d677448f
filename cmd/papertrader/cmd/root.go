package cmd

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/logging"
	"github.com/rustyeddy/papertrader/metrics"
	"github.com/rustyeddy/papertrader/runner"
)

var rootCmd = &cobra.Command{
	Use:   "papertrader",
	Short: "A leveraged paper trading simulator driven by indicator votes",
	Long: `Papertrader simulates a leveraged trading account against live or
recorded market data.

Each cycle it:
  - fetches recent candles and computes SMA, RSI, MACD, Bollinger and trend
  - enforces liquidation and stop-loss exits
  - lets the indicators vote on BUY, SELL or HOLD
  - sizes new positions from risk tolerance, confidence and leverage
  - persists the account and journals closed trades

Configuration is read from a YAML or JSON file (see "papertrader config init").`,
	SilenceUsage: true,
}

var (
	configPath string
	envFile    string

	overrideSymbol   string
	overrideLeverage int
	overrideBalance  float64
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (YAML or JSON); defaults when empty")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with secrets")
	rootCmd.PersistentFlags().StringVarP(&overrideSymbol, "symbol", "s", "", "override the configured symbol")
	rootCmd.PersistentFlags().IntVarP(&overrideLeverage, "leverage", "l", 0, "override the configured leverage (1-100)")
	rootCmd.PersistentFlags().Float64Var(&overrideBalance, "balance", 0, "override the configured initial balance")
}

// loadConfig reads the config file (or defaults), applies the environment
// and flag overrides and validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(configPath); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("symbol") {
		cfg.Symbol = overrideSymbol
	}
	if flags.Changed("leverage") {
		cfg.Leverage = overrideLeverage
	}
	if flags.Changed("balance") {
		cfg.InitialBalance = overrideBalance
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app is a configured runner plus everything that must be closed with it.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	runner  *runner.Runner
	res     runner.Resources
	metrics *http.Server
}

func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)

	r, res, err := runner.Build(cfg, runner.WithLogger(log), runner.WithMetrics(rec))
	if err != nil {
		return nil, fmt.Errorf("build runner: %w", err)
	}

	a := &app{cfg: cfg, log: log, runner: r, res: res}
	if cfg.Metrics.Addr != "" {
		a.metrics = metrics.Serve(cfg.Metrics.Addr, reg)
		log.Info("metrics listening", zap.String("addr", cfg.Metrics.Addr))
	}
	return a, nil
}

func (a *app) Close() error {
	err := a.res.Close()
	if a.metrics != nil {
		err = multierr.Append(err, a.metrics.Close())
	}
	// stderr cannot always be synced
	_ = a.log.Sync()
	return err
}

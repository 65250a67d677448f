package runner

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/indicators"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/oanda"
	"github.com/rustyeddy/papertrader/sim"
	"github.com/rustyeddy/papertrader/store"
	"github.com/rustyeddy/papertrader/strategy"
)

var ErrNoToken = errors.New("oanda source needs a token")

// OptionsFrom maps the effective configuration onto runner options.
func OptionsFrom(cfg *config.Config) Options {
	eff := cfg.Effective()
	return Options{
		Symbol:         eff.Symbol,
		InitialBalance: decimal.NewFromFloat(eff.InitialBalance),
		Leverage:       eff.Leverage,
		Count:          eff.Data.Count,
		Strategy: strategy.Config{
			RiskTolerance: eff.RiskTolerance,
			MinConfidence: eff.MinConfidence,
			Cooldown:      eff.Cooldown.Std(),
			AllowShort:    eff.AllowShort,
		},
		VolatilityThreshold: eff.Risk.VolatilityThreshold,
		Indicators:          indicators.Options{FibLookback: eff.Indicators.FibLookback},
		Params: sim.Params{
			CommissionRate:      decimal.NewFromFloat(eff.CommissionRate),
			MaintenanceFraction: decimal.NewFromFloat(eff.Risk.MaintenanceFraction),
			StopLossPct:         decimal.NewFromFloat(eff.Risk.StopLossPct),
			TakeProfitPct:       decimal.NewFromFloat(eff.Risk.TakeProfitPct),
			AllowShort:          eff.AllowShort,
		},
	}
}

// NewProvider builds the configured market data source.
func NewProvider(cfg config.DataConfig) (market.Provider, error) {
	switch cfg.Source {
	case "csv":
		return market.NewCSVProvider(cfg.CSVPath), nil
	case "oanda":
		if cfg.OandaToken == "" {
			return nil, ErrNoToken
		}
		g := oanda.Granularity(cfg.Granularity)
		if g == "" {
			g = oanda.H1
		}
		return oanda.NewFeed(oanda.NewClient(cfg.OandaToken, cfg.OandaPractice), g), nil
	}
	return nil, fmt.Errorf("unknown data source %q", cfg.Source)
}

// NewJournal opens the configured journal; "none" gives journal.Nop.
func NewJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "", "none":
		return journal.Nop{}, nil
	case "csv":
		j, err := journal.NewCSV(cfg.TradesFile, cfg.EquityFile)
		if err != nil {
			return nil, err
		}
		return j, nil
	case "sqlite":
		j, err := journal.NewSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return j, nil
	}
	return nil, fmt.Errorf("unknown journal type %q", cfg.Type)
}

// Resources are the closers behind a configured runner.
type Resources struct {
	Store   store.Store
	Journal journal.Journal
}

func (r Resources) Close() error {
	var err error
	if r.Journal != nil {
		err = multierr.Append(err, r.Journal.Close())
	}
	if r.Store != nil {
		err = multierr.Append(err, r.Store.Close())
	}
	return err
}

// Build wires provider, store and journal from cfg. The caller closes the
// returned Resources.
func Build(cfg *config.Config, options ...Option) (*Runner, Resources, error) {
	var res Resources

	p, err := NewProvider(cfg.Data)
	if err != nil {
		return nil, res, err
	}
	if res.Store, err = store.Open(cfg.Store.Type, cfg.Store.Path); err != nil {
		return nil, res, err
	}
	if res.Journal, err = NewJournal(cfg.Journal); err != nil {
		return nil, res, multierr.Append(err, res.Close())
	}

	options = append([]Option{WithJournal(res.Journal)}, options...)
	return New(OptionsFrom(cfg), p, res.Store, options...), res, nil
}

// Package metrics exposes cycle, decision and account gauges for
// Prometheus. A nil *Recorder records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "papertrader"

type Recorder struct {
	cycles        *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec
	decisions     *prometheus.CounterVec
	confidence    *prometheus.GaugeVec
	trades        *prometheus.CounterVec
	commissions   *prometheus.CounterVec
	cash          *prometheus.GaugeVec
	equity        *prometheus.GaugeVec
	positionOpen  *prometheus.GaugeVec
}

// NewRecorder registers the collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "cycles_total", Help: "Decision cycles by result."},
			[]string{"symbol", "result"},
		),
		cycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Namespace: namespace, Name: "cycle_duration_seconds", Help: "Wall time of one cycle.", Buckets: prometheus.DefBuckets},
			[]string{"symbol"},
		),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "decisions_total", Help: "Decisions by action."},
			[]string{"symbol", "action"},
		),
		confidence: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "decision_confidence", Help: "Confidence of the latest decision."},
			[]string{"symbol"},
		),
		trades: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "trades_closed_total", Help: "Closed trades by close reason."},
			[]string{"symbol", "reason"},
		),
		commissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "commissions_paid_total", Help: "Commissions paid on closed trades."},
			[]string{"symbol"},
		),
		cash: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "cash", Help: "Uncommitted cash balance."},
			[]string{"symbol"},
		),
		equity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "equity", Help: "Cash plus margin plus unrealized P&L."},
			[]string{"symbol"},
		),
		positionOpen: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "position_open", Help: "1 while a position is open."},
			[]string{"symbol"},
		),
	}
	reg.MustRegister(r.cycles, r.cycleDuration, r.decisions, r.confidence, r.trades,
		r.commissions, r.cash, r.equity, r.positionOpen)
	return r
}

// Cycle results.
const (
	ResultOK      = "ok"
	ResultSkipped = "skipped"
	ResultError   = "error"
)

func (r *Recorder) Cycle(symbol, result string, took time.Duration) {
	if r == nil {
		return
	}
	r.cycles.WithLabelValues(symbol, result).Inc()
	r.cycleDuration.WithLabelValues(symbol).Observe(took.Seconds())
}

func (r *Recorder) Decision(symbol, action string, confidence int) {
	if r == nil {
		return
	}
	r.decisions.WithLabelValues(symbol, action).Inc()
	r.confidence.WithLabelValues(symbol).Set(float64(confidence))
}

func (r *Recorder) TradeClosed(symbol, reason string, commission float64) {
	if r == nil {
		return
	}
	r.trades.WithLabelValues(symbol, reason).Inc()
	r.commissions.WithLabelValues(symbol).Add(commission)
}

func (r *Recorder) Account(symbol string, cash, equity float64, open bool) {
	if r == nil {
		return
	}
	r.cash.WithLabelValues(symbol).Set(cash)
	r.equity.WithLabelValues(symbol).Set(equity)
	v := 0.0
	if open {
		v = 1
	}
	r.positionOpen.WithLabelValues(symbol).Set(v)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve starts a /metrics endpoint in the background.
func Serve(addr string, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

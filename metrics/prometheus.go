// Package metrics Prometheus 指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 回测指标
	backtestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockmesh_backtest_total",
			Help: "Total number of backtests executed",
		},
		[]string{"symbol"},
	)

	backtestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockmesh_backtest_duration_seconds",
			Help:    "Backtest pipeline duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
		[]string{"symbol"},
	)

	// 交易指标
	tradeCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockmesh_trade_count_total",
			Help: "Total number of simulated round trips",
		},
		[]string{"symbol"},
	)

	// 绩效指标
	winRate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockmesh_win_rate",
			Help: "Win rate of the latest backtest in percent",
		},
		[]string{"symbol"},
	)

	pnlTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockmesh_pnl_total",
			Help: "Realized profit and loss of the latest backtest",
		},
		[]string{"symbol"},
	)

	totalReturn = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockmesh_total_return_pct",
			Help: "Total return of the latest backtest in percent",
		},
		[]string{"symbol"},
	)
)

// RecordBacktest 记录一次回测的结果指标
func RecordBacktest(symbol string, trades int, winRatePct, pnl, returnPct float64, duration time.Duration) {
	backtestTotal.WithLabelValues(symbol).Inc()
	backtestDuration.WithLabelValues(symbol).Observe(duration.Seconds())
	tradeCount.WithLabelValues(symbol).Add(float64(trades))
	winRate.WithLabelValues(symbol).Set(winRatePct)
	pnlTotal.WithLabelValues(symbol).Set(pnl)
	totalReturn.WithLabelValues(symbol).Set(returnPct)
}

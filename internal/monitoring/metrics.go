package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	signalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradeguard_signals_total",
			Help: "Signals processed by disposition",
		},
		[]string{"disposition"},
	)

	ordersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradeguard_orders_total",
			Help: "Order lifecycle transitions by resulting status",
		},
		[]string{"status"},
	)

	openPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tradeguard_open_positions",
			Help: "Currently live positions",
		},
	)

	dailyPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tradeguard_daily_realized_pnl",
			Help: "Daily realized profit and loss reported by the terminal",
		},
	)

	cycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tradeguard_cycle_duration_seconds",
			Help:    "Duration of trading cycles",
			Buckets: prometheus.DefBuckets,
		},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradeguard_errors_total",
			Help: "Errors by type",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(signalsTotal)
	prometheus.MustRegister(ordersTotal)
	prometheus.MustRegister(openPositions)
	prometheus.MustRegister(dailyPnL)
	prometheus.MustRegister(cycleDuration)
	prometheus.MustRegister(errorsTotal)
}

// Handler returns the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordSignal counts one processed signal by disposition.
func RecordSignal(disposition string) {
	signalsTotal.WithLabelValues(disposition).Inc()
}

// RecordOrder counts one order lifecycle transition.
func RecordOrder(status string) {
	ordersTotal.WithLabelValues(status).Inc()
}

// SetOpenPositions updates the live position gauge.
func SetOpenPositions(n int) {
	openPositions.Set(float64(n))
}

// SetDailyPnL updates the daily realized PnL gauge.
func SetDailyPnL(v float64) {
	dailyPnL.Set(v)
}

// ObserveCycleDuration records how long a cycle took.
func ObserveCycleDuration(d time.Duration) {
	cycleDuration.Observe(d.Seconds())
}

// RecordError counts an error by type.
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}

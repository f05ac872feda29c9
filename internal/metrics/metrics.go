package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Checkouts   *prometheus.CounterVec
	Settlements *prometheus.CounterVec
	LatencyMS   *prometheus.HistogramVec
}

func New(service string) *Metrics {
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookmarket",
		Subsystem: service,
		Name:      "checkouts_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"result"})
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookmarket",
		Subsystem: service,
		Name:      "settlements_total",
		Help:      "Webhook settlements by outcome.",
	}, []string{"result"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bookmarket",
		Subsystem: service,
		Name:      "request_duration_ms",
		Help:      "Handler latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})

	prometheus.MustRegister(checkouts, settlements, latency)
	return &Metrics{Checkouts: checkouts, Settlements: settlements, LatencyMS: latency}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

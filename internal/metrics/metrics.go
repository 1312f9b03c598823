// Package metrics holds the Prometheus collectors for the monitor.
//
// Counters are diagnostics only: malformed frames and unknown packets are
// routine on a noisy serial link and never interrupt the pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FramesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tsip_frames_total",
		Help: "Total number of complete TSIP frames recovered from the serial stream",
	})
	FramesDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tsip_frames_dropped_total",
		Help: "Frames discarded during reassembly (empty payloads, buffer overruns)",
	})
	DecodeErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tsip_decode_errors_total",
		Help: "Frames whose payload was shorter than the identified packet layout",
	})
	UnrecognizedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tsip_unrecognized_total",
		Help: "Decoded packets of types not used for status monitoring",
	})
	ReportsAppliedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tsip_reports_applied_total",
		Help: "Decoded reports applied to the device status",
	})

	Connected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "thunderbolt_connected",
		Help: "1 while valid messages have arrived within the staleness threshold",
	})
	Disciplined = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "thunderbolt_disciplined",
		Help: "1 while the oscillator disciplining mode is Normal",
	})

	registerOnce sync.Once
)

// Register installs all collectors on the default registry. Safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			FramesTotal,
			FramesDroppedTotal,
			DecodeErrorsTotal,
			UnrecognizedTotal,
			ReportsAppliedTotal,
			Connected,
			Disciplined,
		)
	})
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	Register()
	return promhttp.Handler()
}

func boolGauge(g prometheus.Gauge, v bool) {
	if v {
		g.Set(1)
	} else {
		g.Set(0)
	}
}

// SetConnected mirrors the liveness state into the connected gauge.
func SetConnected(v bool) {
	Register()
	boolGauge(Connected, v)
}

// SetDisciplined mirrors the disciplined predicate into its gauge.
func SetDisciplined(v bool) {
	Register()
	boolGauge(Disciplined, v)
}

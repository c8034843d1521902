package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pass summarises one rewrite pass for metrics.
type Pass struct {
	Duration   time.Duration
	Normalized int
	Cloned     int
	Spliced    int
	Template   bool
	// ErrorCode is empty for a successful pass.
	ErrorCode string
}

type Metrics struct {
	passesTotal     *prometheus.CounterVec
	failuresTotal   *prometheus.CounterVec
	rulesTotal      *prometheus.CounterVec
	splicesTotal    prometheus.Counter
	passDuration    prometheus.Histogram
	templateRouting prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		passesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "sfcroute_passes_total", Help: "Total rewrite passes"},
			[]string{"result"},
		),
		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "sfcroute_failures_total", Help: "Total failed rewrite passes by error code"},
			[]string{"code"},
		),
		rulesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "sfcroute_rules_total", Help: "Rules processed by kind"},
			[]string{"kind"},
		),
		splicesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "sfcroute_style_post_splices_total", Help: "Style post steps inserted after CSS steps"},
		),
		passDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sfcroute_pass_duration_seconds",
				Help:    "Rewrite pass duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		templateRouting: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "sfcroute_template_routing", Help: "1 when the last pass routed compiled templates"},
		),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.passesTotal,
		m.failuresTotal,
		m.rulesTotal,
		m.splicesTotal,
		m.passDuration,
		m.templateRouting,
	)

	return m
}

// WriteTextfile dumps every metric in g to path in the text exposition
// format, for node exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}

func (m *Metrics) Observe(p Pass) {
	if m == nil {
		return
	}

	m.passDuration.Observe(p.Duration.Seconds())
	if p.ErrorCode != "" {
		m.passesTotal.WithLabelValues("error").Inc()
		m.failuresTotal.WithLabelValues(p.ErrorCode).Inc()
		return
	}

	m.passesTotal.WithLabelValues("ok").Inc()
	m.rulesTotal.WithLabelValues("normalized").Add(float64(p.Normalized))
	m.rulesTotal.WithLabelValues("cloned").Add(float64(p.Cloned))
	m.splicesTotal.Add(float64(p.Spliced))
	if p.Template {
		m.templateRouting.Set(1)
	} else {
		m.templateRouting.Set(0)
	}
}

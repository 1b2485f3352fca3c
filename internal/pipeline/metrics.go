package pipeline

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters of one run in a private registry, so a run can
// dump them as a node-exporter textfile without a server.
type Metrics struct {
	Registry *prometheus.Registry

	recordsRead    prometheus.Counter
	recordsEmitted prometheus.Counter
	recordsDropped prometheus.Counter
	recordsByKind  *prometheus.CounterVec
	hookDuration   prometheus.Histogram
	runDuration    prometheus.Gauge
}

// NewMetrics registers the run metrics, labelled with the command name.
func NewMetrics(command string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	labels := prometheus.Labels{"command": command}

	return &Metrics{
		Registry: reg,
		recordsRead: factory.NewCounter(prometheus.CounterOpts{
			Name:        "imgstats_records_read_total",
			Help:        "Total number of records read from the input stream",
			ConstLabels: labels,
		}),
		recordsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name:        "imgstats_records_emitted_total",
			Help:        "Total number of records passed on by a filter",
			ConstLabels: labels,
		}),
		recordsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name:        "imgstats_records_dropped_total",
			Help:        "Total number of records a filter dropped",
			ConstLabels: labels,
		}),
		recordsByKind: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "imgstats_records_by_kind_total",
			Help:        "Records read, by annotation kind",
			ConstLabels: labels,
		}, []string{"kind"}),
		hookDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:        "imgstats_record_duration_seconds",
			Help:        "Time spent in the writer or filter per record",
			Buckets:     []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			ConstLabels: labels,
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "imgstats_run_duration_seconds",
			Help:        "Wall time of the whole run",
			ConstLabels: labels,
		}),
	}
}

// All methods are no-ops on a nil receiver.

func (m *Metrics) read(kind string) {
	if m == nil {
		return
	}
	m.recordsRead.Inc()
	m.recordsByKind.WithLabelValues(kind).Inc()
}

func (m *Metrics) observe(d time.Duration) {
	if m == nil {
		return
	}
	m.hookDuration.Observe(d.Seconds())
}

func (m *Metrics) filtered(emitted int) {
	if m == nil {
		return
	}
	if emitted == 0 {
		m.recordsDropped.Inc()
		return
	}
	m.recordsEmitted.Add(float64(emitted))
}

func (m *Metrics) finished(d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Set(d.Seconds())
}

// WriteTextfile writes the registry in the text exposition format to path.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

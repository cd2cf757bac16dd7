package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "splitbuf"
	subsystem = "buffer"
)

// Metrics exposes the relay statistics as Prometheus collectors.
type Metrics struct {
	committed      prometheus.Counter
	committedBytes prometheus.Counter
	consumed       prometheus.Counter
	consumedBytes  prometheus.Counter
	stalls         prometheus.Counter
	matched        prometheus.Counter

	buffered    prometheus.Gauge
	utilization prometheus.Gauge
	wrapped     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}

	m := &Metrics{
		committed:      counter("committed_records_total", "Total number of records committed by the producer"),
		committedBytes: counter("committed_bytes_total", "Total number of framed bytes committed by the producer"),
		consumed:       counter("consumed_records_total", "Total number of records consumed"),
		consumedBytes:  counter("consumed_bytes_total", "Total number of framed bytes consumed"),
		stalls:         counter("producer_stalls_total", "Total number of sends that waited for free space"),
		matched:        counter("matched_records_total", "Total number of records that passed the filters"),
		buffered:       gauge("buffered_bytes", "Framed bytes committed but not yet consumed"),
		utilization:    gauge("utilization", "Buffered bytes as a fraction of capacity (0.0 to 1.0)"),
		wrapped:        gauge("wrapped", "1 while a pre-wrap remainder is pending"),
	}

	for _, c := range []prometheus.Collector{
		m.committed, m.committedBytes, m.consumed, m.consumedBytes,
		m.stalls, m.matched, m.buffered, m.utilization, m.wrapped,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Counters for enqueue and drops
	enqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cargobuild",
			Subsystem: "forward",
			Name:      "enqueued_total",
			Help:      "Total number of instruction lines enqueued to forwarder buffers.",
		},
		[]string{"forwarder"},
	)
	droppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cargobuild",
			Subsystem: "forward",
			Name:      "dropped_total",
			Help:      "Total number of instruction lines dropped before enqueue (filtered or buffer_full).",
		},
		[]string{"forwarder", "reason"},
	)
	flushTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cargobuild",
			Subsystem: "forward",
			Name:      "flush_total",
			Help:      "Total number of flush attempts with at least one line.",
		},
		[]string{"forwarder"},
	)
	flushFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cargobuild",
			Subsystem: "forward",
			Name:      "flush_failures_total",
			Help:      "Total number of flushes that failed after retries.",
		},
		[]string{"forwarder"},
	)
	batchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cargobuild",
			Subsystem: "forward",
			Name:      "flush_batch_size",
			Help:      "Number of lines per flush.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200, 500},
		},
		[]string{"forwarder"},
	)
	flushDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cargobuild",
			Subsystem: "forward",
			Name:      "flush_duration_seconds",
			Help:      "Duration of forwarder flush operations in seconds, retries included.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"forwarder"},
	)
)

// Register registers forwarder metrics to the provided Prometheus registerer.
// Safe to call multiple times; AlreadyRegistered is ignored.
func Register(r prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		enqueuedTotal, droppedTotal, flushTotal, flushFailuresTotal, batchSize, flushDuration,
	}
	for _, c := range collectors {
		if err := r.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

// ForwardEnqueued increments the enqueued counter for a forwarder.
func ForwardEnqueued(fwd string) {
	enqueuedTotal.WithLabelValues(orUnknown(fwd)).Inc()
}

// ForwardDropped increments the dropped counter for a forwarder with a reason.
func ForwardDropped(fwd, reason string) {
	droppedTotal.WithLabelValues(orUnknown(fwd), orUnknown(reason)).Inc()
}

// ForwardFlushObserve records a flush: batch size, duration, and success/failure counts.
func ForwardFlushObserve(fwd string, size int, dur time.Duration, success bool) {
	fwd = orUnknown(fwd)
	if size > 0 {
		batchSize.WithLabelValues(fwd).Observe(float64(size))
		flushTotal.WithLabelValues(fwd).Inc()
	}
	flushDuration.WithLabelValues(fwd).Observe(dur.Seconds())
	if !success {
		flushFailuresTotal.WithLabelValues(fwd).Inc()
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

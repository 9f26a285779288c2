package metrics

import (
	"errors"

	"github.com/loykin/cargobuild/pkg/instruction"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	instructionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cargobuild",
		Name:      "instructions_total",
		Help:      "Total number of instruction lines written to the build output.",
	}, []string{"kind"})
	bytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cargobuild",
		Name:      "bytes_total",
		Help:      "Total number of bytes written to the build output, newlines included.",
	})
	rejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cargobuild",
		Name:      "rejected_total",
		Help:      "Total number of instructions rejected before writing (e.g. embedded newline).",
	}, []string{"kind"})
	writeFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cargobuild",
		Name:      "write_failures_total",
		Help:      "Total number of instruction groups the build output refused.",
	}, []string{"kind"})
)

// Register registers all instruction metrics to the provided Prometheus registerer.
// It is safe to call multiple times; AlreadyRegisteredError will be ignored.
func Register(r prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		instructionsTotal, bytesTotal, rejectedTotal, writeFailuresTotal,
	}
	for _, c := range collectors {
		if err := r.Register(c); err != nil {
			var alreadyRegisteredError prometheus.AlreadyRegisteredError
			if errors.As(err, &alreadyRegisteredError) {
				continue
			}
			return err
		}
	}
	return nil
}

// Observer feeds emitter notifications into the instruction metrics.
// The zero value is ready to use.
type Observer struct{}

// Emitted counts lines and bytes written for kind.
func (Observer) Emitted(kind instruction.Kind, lines, bytes int) {
	if lines > 0 {
		instructionsTotal.WithLabelValues(label(kind)).Add(float64(lines))
	}
	if bytes > 0 {
		bytesTotal.Add(float64(bytes))
	}
}

// Rejected counts an instruction refused by validation.
func (Observer) Rejected(kind instruction.Kind) { rejectedTotal.WithLabelValues(label(kind)).Inc() }

// WriteFailed counts a failed write.
func (Observer) WriteFailed(kind instruction.Kind) {
	writeFailuresTotal.WithLabelValues(label(kind)).Inc()
}

func label(kind instruction.Kind) string {
	if kind == "" {
		return "unknown"
	}
	return string(kind)
}

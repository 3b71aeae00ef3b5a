// Package metrics counts what each import run did and can write the result
// for the node_exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeRead       = "read"
	OutcomeEmitted    = "emitted"
	OutcomeSkipped    = "skipped"
	OutcomeUnresolved = "unresolved"
)

// Recorder holds the counters for one process. Each run gets its own
// registry so textfile output contains only this run.
type Recorder struct {
	Registry *prometheus.Registry

	rows        *prometheus.CounterVec
	duration    *prometheus.GaugeVec
	lastSuccess *prometheus.GaugeVec
}

func New() *Recorder {
	r := &Recorder{
		Registry: prometheus.NewRegistry(),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "refdata_rows_total",
			Help: "Rows processed by dataset and outcome.",
		}, []string{"dataset", "outcome"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "refdata_import_duration_seconds",
			Help: "Wall time of the last import of each dataset.",
		}, []string{"dataset"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "refdata_last_success_timestamp_seconds",
			Help: "Unix time the dataset was last imported without error.",
		}, []string{"dataset"}),
	}
	r.Registry.MustRegister(r.rows, r.duration, r.lastSuccess)
	return r
}

func (r *Recorder) AddRows(dataset, outcome string, n int) {
	if n <= 0 {
		return
	}
	r.rows.WithLabelValues(dataset, outcome).Add(float64(n))
}

func (r *Recorder) ObserveRun(dataset string, d time.Duration, ok bool) {
	r.duration.WithLabelValues(dataset).Set(d.Seconds())
	if ok {
		r.lastSuccess.WithLabelValues(dataset).SetToCurrentTime()
	}
}

// WriteTextfile writes the registry atomically to path.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.Registry)
}

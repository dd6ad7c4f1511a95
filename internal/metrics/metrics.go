// Package metrics records pipeline activity as Prometheus metrics.
//
// A nil *Recorder is valid and records nothing, so components take one
// unconditionally and the application decides whether metrics are enabled.
package metrics

import (
	"net/http"
	"time"

	"github.com/dshills/quill/internal/filestate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the pipeline metrics.
type Recorder struct {
	processes *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	prompts   *prometheus.CounterVec
	results   *prometheus.CounterVec
}

// New creates a recorder registered with reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		processes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_process_total",
				Help: "Total number of pipelines retired, by outcome",
			},
			[]string{"process", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quill_process_duration_seconds",
				Help:    "Time from start to retirement of a pipeline, including time suspended",
				Buckets: []float64{.001, .01, .1, .5, 1, 5, 30, 120, 600},
			},
			[]string{"process"},
		),
		prompts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_prompts_total",
				Help: "Total number of times a pipeline suspended for a user decision",
			},
			[]string{"process", "kind"},
		),
		results: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_transaction_results_total",
				Help: "Outcomes of load and save attempts, by result code",
			},
			[]string{"op", "code"},
		),
	}
}

// ProcessFinished records a retired pipeline.
func (r *Recorder) ProcessFinished(process string, ok bool, elapsed time.Duration) {
	if r == nil {
		return
	}
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	r.processes.With(prometheus.Labels{"process": process, "outcome": outcome}).Inc()
	r.duration.With(prometheus.Labels{"process": process}).Observe(elapsed.Seconds())
}

// Prompted records a suspension for a decision of the given kind.
func (r *Recorder) Prompted(process, kind string) {
	if r == nil {
		return
	}
	r.prompts.With(prometheus.Labels{"process": process, "kind": kind}).Inc()
}

// Result records the outcome of a load or save attempt.
func (r *Recorder) Result(op string, code filestate.Code) {
	if r == nil {
		return
	}
	r.results.With(prometheus.Labels{"op": op, "code": code.String()}).Inc()
}

// Handler serves the metrics gathered from g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

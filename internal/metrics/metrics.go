// Package metrics holds the domain counters exported on /metrics.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultOK    = "ok"
	ResultError = "error"

	// ResultIndexDeferred is an upload that was stored and charged but not
	// yet indexed.
	ResultIndexDeferred = "index_deferred"
)

type Metrics struct {
	uploads     *prometheus.CounterVec
	uploadedKB  prometheus.Counter
	prompts     *prometheus.CounterVec
	remoteCalls *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragsearch_uploads_total",
				Help: "Uploads by outcome.",
			},
			[]string{"result"},
		),
		uploadedKB: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ragsearch_uploaded_kb_total",
			Help: "Kilobytes of uploads that were recorded and charged.",
		}),
		prompts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragsearch_prompts_total",
				Help: "Prompts by outcome.",
			},
			[]string{"result"},
		),
		remoteCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragsearch_remote_calls_total",
				Help: "Calls to the remote index by operation and outcome.",
			},
			[]string{"op", "result"},
		),
	}
	for _, c := range []prometheus.Collector{m.uploads, m.uploadedKB, m.prompts, m.remoteCalls} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Upload records one upload attempt; kb is only counted on success.
func (m *Metrics) Upload(result string, kb float64) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(result).Inc()
	if (result == ResultOK || result == ResultIndexDeferred) && kb > 0 {
		m.uploadedKB.Add(kb)
	}
}

func (m *Metrics) Prompt(result string) {
	if m == nil {
		return
	}
	m.prompts.WithLabelValues(result).Inc()
}

// RemoteCall records a call to the remote index.
func (m *Metrics) RemoteCall(op string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.remoteCalls.WithLabelValues(op, result).Inc()
}

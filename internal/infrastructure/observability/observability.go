// Package observability binds the logger, tracer and Prometheus instruments
// the service runs with into one observability.Observability value.
package observability

import (
	"sync"

	"github.com/escabi/escabiapi/internal/observability"
)

// Instruments are the registered metrics, keyed the way use cases ask for them.
type Instruments struct {
	Counters   map[observability.MetricKey]observability.Counter
	Histograms map[observability.MetricKey]observability.Histogram
}

type provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics *instrumentSet
}

// instrumentSet hands out registered instruments and a no-op for anything
// else. An unregistered key is logged once so a missing registration shows up.
type instrumentSet struct {
	inst   Instruments
	log    observability.Logger
	warned sync.Map
}

func (s *instrumentSet) Counter(key observability.MetricKey) observability.Counter {
	if c := s.inst.Counters[key]; c != nil {
		return c
	}
	s.unknown(key)
	return observability.NopCounter()
}

func (s *instrumentSet) Histogram(key observability.MetricKey) observability.Histogram {
	if h := s.inst.Histograms[key]; h != nil {
		return h
	}
	s.unknown(key)
	return observability.NopHistogram()
}

func (s *instrumentSet) unknown(key observability.MetricKey) {
	if _, seen := s.warned.LoadOrStore(key, struct{}{}); !seen {
		s.log.Warn("metric_not_registered", observability.F("metric", string(key)))
	}
}

func New(tracer observability.Tracer, logger observability.Logger, inst Instruments) observability.Observability {
	if tracer == nil {
		tracer = observability.NopTracer()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &provider{
		tracer:  tracer,
		logger:  logger,
		metrics: &instrumentSet{inst: inst, log: logger.With(observability.F("component", "metrics"))},
	}
}

func (p *provider) Tracer() observability.Tracer   { return p.tracer }
func (p *provider) Logger() observability.Logger   { return p.logger }
func (p *provider) Metrics() observability.Metrics { return p.metrics }

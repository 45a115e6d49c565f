package observability_test

import (
	"testing"

	infraobs "github.com/escabi/escabiapi/internal/infrastructure/observability"
	"github.com/escabi/escabiapi/internal/infrastructure/observability/prometrics"
	"github.com/escabi/escabiapi/internal/infrastructure/observability/zaplogger"
	"github.com/escabi/escabiapi/internal/observability"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRegisteredAndUnknownInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	counters, histograms := prometrics.Instruments(prometrics.New("", "", reg))
	core, logs := observer.New(zapcore.DebugLevel)

	tel := infraobs.New(nil, zaplogger.Wrap(zap.New(core)), infraobs.Instruments{Counters: counters, Histograms: histograms})

	tel.Metrics().Counter(observability.MUsecaseRequests).Add(1,
		observability.L("use_case", "order.create"),
		observability.L("outcome", observability.OutcomeSuccess),
	)
	n, err := testutil.GatherAndCount(reg, string(observability.MUsecaseRequests))
	assert.NoError(t, err)
	assert.Equal(t, 1, n)

	unknown := observability.MetricKey("not_registered_total")
	tel.Metrics().Counter(unknown).Add(1)
	tel.Metrics().Histogram(unknown).Observe(1)
	assert.Equal(t, 1, logs.FilterMessage("metric_not_registered").Len())

	assert.NotNil(t, tel.Tracer())
}

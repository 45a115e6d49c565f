package prometrics

import (
	"testing"

	"github.com/escabi/escabiapi/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	counters, histograms := Instruments(New("", "", reg))

	c := counters[observability.MUsecaseRequests]
	require.NotNil(t, c)
	c.Add(1, observability.L("use_case", "order.create"), observability.L("outcome", "success"))
	c.Bind(observability.L("use_case", "order.create"), observability.L("outcome", "success")).Add(2)

	histograms[observability.MUsecaseDuration].Observe(0.2, observability.L("use_case", "order.create"))

	n, err := testutil.GatherAndCount(reg, "usecase_requests_total", "usecase_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cv := c.(*counter).v
	assert.Equal(t, 3.0, testutil.ToFloat64(cv.WithLabelValues("order.create", "success")))
}

func TestCounterRegisteredOnce(t *testing.T) {
	r := New("", "", prometheus.NewRegistry())
	a := r.Counter("x_total", "x", "k")
	b := r.Counter("x_total", "x", "k")
	assert.Same(t, a.(*counter).v, b.(*counter).v)
}

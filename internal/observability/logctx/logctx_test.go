package logctx_test

import (
	"context"
	"testing"

	"github.com/escabi/escabiapi/internal/observability"
	"github.com/escabi/escabiapi/internal/observability/logctx"
	"github.com/stretchr/testify/assert"
)

type recordingLogger struct {
	fields []observability.Field
}

func (r *recordingLogger) With(fields ...observability.Field) observability.Logger {
	return &recordingLogger{fields: append(append([]observability.Field(nil), r.fields...), fields...)}
}
func (r *recordingLogger) Debug(string, ...observability.Field) {}
func (r *recordingLogger) Info(string, ...observability.Field)  {}
func (r *recordingLogger) Warn(string, ...observability.Field)  {}
func (r *recordingLogger) Error(string, ...observability.Field) {}

func TestFromOrFallsBack(t *testing.T) {
	fallback := &recordingLogger{}
	assert.Same(t, fallback, logctx.FromOr(context.Background(), fallback))
	assert.NotNil(t, logctx.FromOr(context.Background(), nil))
}

func TestEnrichBindsFields(t *testing.T) {
	ctx := logctx.With(context.Background(), &recordingLogger{})
	ctx = logctx.Enrich(ctx, observability.F("user_id", "u1"))

	got, ok := logctx.From(ctx).(*recordingLogger)
	assert.True(t, ok)
	assert.Equal(t, []observability.Field{observability.F("user_id", "u1")}, got.fields)
}

func TestEnrichWithoutLoggerIsNoop(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, logctx.Enrich(ctx, observability.F("k", "v")))
}

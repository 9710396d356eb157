package instrumentation

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := New(provider.Meter("gophauth-test"))
	require.NoError(t, err)
	return m, reader
}

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Sum[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok, "metric %s is not an int64 sum", name)
				return sum
			}
		}
	}
	t.Fatalf("metric %s not collected", name)
	return metricdata.Sum[int64]{}
}

func TestRecordAuthEvent(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordAuthEvent(ctx, "login", nil)
	m.RecordAuthEvent(ctx, "login", nil)
	m.RecordAuthEvent(ctx, "login", common.ErrInvalidCredentials)

	sum := collectSum(t, reader, "gophauth.auth.events")
	got := map[string]int64{}
	for _, dp := range sum.DataPoints {
		outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
		got[outcome.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{OutcomeSuccess: 2, OutcomeUnauthenticated: 1}, got)
}

func TestRecordSwept(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordSwept(context.Background(), 3)
	m.RecordSwept(context.Background(), 0)
	m.RecordSwept(context.Background(), 2)

	sum := collectSum(t, reader, "gophauth.refresh_tokens.swept")
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(5), sum.DataPoints[0].Value)
}

func TestRecordRateLimited(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordRateLimited(context.Background(), "ip")

	sum := collectSum(t, reader, "gophauth.ratelimit.rejected")
	require.Len(t, sum.DataPoints, 1)
	scope, ok := sum.DataPoints[0].Attributes.Value(attribute.Key("scope"))
	require.True(t, ok)
	assert.Equal(t, "ip", scope.AsString())
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomeSuccess},
		{common.ErrInvalidInput, OutcomeInvalid},
		{common.ErrRefreshTokenExpired, OutcomeUnauthenticated},
		{common.ErrDuplicateEmail, OutcomeConflict},
		{common.NewKindError(common.ErrRateLimited, "slow down"), OutcomeRateLimited},
		{errors.New("db down"), OutcomeError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Outcome(tt.err))
	}
}

package observability

import (
	"context"
	"math/big"
	"testing"
	"time"

	"raffle/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := make(map[string]metricdata.Aggregation)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			found[m.Name] = m.Data
		}
	}
	return found
}

func TestMetricsProvider_Records(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := NewMetricsProvider(config.NewTestConfig())
	require.NoError(t, mp.InitializeWithReader(reader))

	oneEther := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	mp.RecordEntry(oneEther)
	mp.RecordEntry(oneEther)
	mp.RecordDraw(new(big.Int).Mul(oneEther, big.NewInt(2)))
	mp.RecordRejection(OperationPickWinner, "unauthorized")
	mp.RecordEventPublished("winner_picked")
	mp.RecordOperation(OperationEnter, OutcomeSuccess, 5*time.Millisecond)

	found := collect(t, reader)

	entries, ok := found[EntriesTotal].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, entries.DataPoints, 1)
	assert.Equal(t, int64(2), entries.DataPoints[0].Value)

	payout, ok := found[PayoutVolumeEther].(metricdata.Sum[float64])
	require.True(t, ok)
	assert.InDelta(t, 2.0, payout.DataPoints[0].Value, 1e-9)

	rejections, ok := found[RejectionsTotal].(metricdata.Sum[int64])
	require.True(t, ok)
	errorType, _ := rejections.DataPoints[0].Attributes.Value(LabelErrorType)
	assert.Equal(t, "unauthorized", errorType.AsString())

	assert.Contains(t, found, EventsPublishedTotal)
	assert.Contains(t, found, OperationDuration)
}

func TestMetricsProvider_DisabledIsNoop(t *testing.T) {
	t.Parallel()

	mp := NewMetricsProvider(config.NewTestConfig())
	require.NoError(t, mp.Initialize(context.Background()))

	assert.NotPanics(t, func() {
		mp.RecordEntry(big.NewInt(1))
		mp.RecordDraw(big.NewInt(1))
		mp.RecordRejection(OperationEnter, "insufficient_stake")
		mp.RecordOperation(OperationEnter, OutcomeRejected, time.Millisecond)
	})

	var nilProvider *MetricsProvider
	assert.NotPanics(t, func() {
		nilProvider.RecordEventPublished("player_entered")
	})
}

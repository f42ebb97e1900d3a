package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// lazyPool builds a pool that never dials; MinConns is 0.
func lazyPool(t *testing.T, id sourceID, maxConns int32) *poolMetrics {
	t.Helper()
	cfg, err := pgxpool.ParseConfig("host=127.0.0.1 port=1 dbname=catalog user=app")
	require.NoError(t, err)
	cfg.MaxConns = maxConns
	pm, err := configurePoolMetrics(id, cfg)
	require.NoError(t, err)
	pool, err := pgxpool.NewWithConfig(t.Context(), cfg)
	require.NoError(t, err)
	pm.attach(pool)
	t.Cleanup(func() {
		pm.unregister()
		pool.Close()
	})
	return pm
}

func TestPoolMetrics(t *testing.T) {
	t.Run("Should report same-named pools of different managers separately", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		otel.SetMeterProvider(provider)
		t.Cleanup(func() { _ = provider.Shutdown(t.Context()) })

		first := NewManager()
		second := NewManager()
		a := lazyPool(t, sourceID{Manager: first.InstanceID(), Name: "postgres-session-pool-0", Tier: TierSession}, 2)
		b := lazyPool(t, sourceID{Manager: second.InstanceID(), Name: "postgres-session-pool-0", Tier: TierSession}, 7)
		require.False(t, a.attrSet.Equals(&b.attrSet))

		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(t.Context(), &rm))
		byManager := map[string]int64{}
		for _, scope := range rm.ScopeMetrics {
			for _, m := range scope.Metrics {
				if m.Name != metricName("max_open_connections") {
					continue
				}
				gauge, ok := m.Data.(metricdata.Gauge[int64])
				require.True(t, ok)
				for _, dp := range gauge.DataPoints {
					v, _ := dp.Attributes.Value(attribute.Key("manager"))
					byManager[v.AsString()] = dp.Value
				}
			}
		}
		assert.Equal(t, int64(2), byManager[first.InstanceID()])
		assert.Equal(t, int64(7), byManager[second.InstanceID()])
	})
}

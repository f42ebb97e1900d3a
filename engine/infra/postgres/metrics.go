package postgres

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	postgresMeterName            = "catalog.postgres"
	maxWaitSamplesPerObservation = 128
)

var (
	postgresMetricsOnce            sync.Once
	postgresMetricsErr             error
	postgresConnectionsOpen        metric.Int64ObservableGauge
	postgresConnectionsInUse       metric.Int64ObservableGauge
	postgresConnectionsIdle        metric.Int64ObservableGauge
	postgresMaxConfiguredConns     metric.Int64ObservableGauge
	postgresConnectionWaitDuration metric.Float64Histogram
	postgresPools                  sync.Map
)

func metricName(name string) string {
	return "catalog_postgres_" + name
}

// poolMetrics observes one pool. Pool names repeat across managers, so the
// manager id is part of the attribute set.
type poolMetrics struct {
	attrSet               attribute.Set
	attrs                 metric.MeasurementOption
	pool                  atomic.Pointer[pgxpool.Pool]
	mu                    sync.Mutex
	lastEmptyAcquireCount int64
	lastEmptyAcquireWait  time.Duration
}

// configurePoolMetrics hooks wait-time recording into the pool config.
func configurePoolMetrics(id sourceID, poolCfg *pgxpool.Config) (*poolMetrics, error) {
	if err := ensurePostgresMetrics(); err != nil {
		return nil, fmt.Errorf("postgres: init metrics: %w", err)
	}
	set := attribute.NewSet(
		attribute.String("manager", id.Manager),
		attribute.String("pool", id.Name),
		attribute.String("tier", id.Tier.String()),
	)
	m := &poolMetrics{attrSet: set, attrs: metric.WithAttributeSet(set)}
	prevPrepare := poolCfg.PrepareConn
	poolCfg.PrepareConn = func(ctx context.Context, conn *pgx.Conn) (bool, error) {
		if prevPrepare != nil {
			ok, err := prevPrepare(ctx, conn)
			if !ok || err != nil {
				return ok, err
			}
		}
		m.recordWait(ctx)
		return true, nil
	}
	return m, nil
}

func ensurePostgresMetrics() error {
	postgresMetricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter(postgresMeterName)
		if err := initPostgresInstruments(meter); err != nil {
			postgresMetricsErr = err
			return
		}
		postgresMetricsErr = registerPostgresCallback(meter)
	})
	return postgresMetricsErr
}

func initPostgresInstruments(meter metric.Meter) error {
	var err error
	if postgresConnectionsOpen, err = meter.Int64ObservableGauge(
		metricName("connections_open"),
		metric.WithDescription("Number of open Postgres connections"),
	); err != nil {
		return err
	}
	if postgresConnectionsInUse, err = meter.Int64ObservableGauge(
		metricName("connections_in_use"),
		metric.WithDescription("Number of Postgres connections currently in use"),
	); err != nil {
		return err
	}
	if postgresConnectionsIdle, err = meter.Int64ObservableGauge(
		metricName("connections_idle"),
		metric.WithDescription("Number of idle Postgres connections"),
	); err != nil {
		return err
	}
	if postgresMaxConfiguredConns, err = meter.Int64ObservableGauge(
		metricName("max_open_connections"),
		metric.WithDescription("Configured Postgres connection pool size"),
	); err != nil {
		return err
	}
	postgresConnectionWaitDuration, err = meter.Float64Histogram(
		metricName("connection_wait_duration_seconds"),
		metric.WithDescription("Time spent waiting for a connection from the pool"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2),
	)
	return err
}

func registerPostgresCallback(meter metric.Meter) error {
	_, err := meter.RegisterCallback(
		func(_ context.Context, observer metric.Observer) error {
			postgresPools.Range(func(key, _ any) bool {
				pm, ok := key.(*poolMetrics)
				if !ok {
					return true
				}
				pool := pm.pool.Load()
				if pool == nil {
					return true
				}
				stats := pool.Stat()
				observer.ObserveInt64(postgresConnectionsOpen, int64(stats.TotalConns()), pm.attrs)
				observer.ObserveInt64(postgresConnectionsInUse, int64(stats.AcquiredConns()), pm.attrs)
				observer.ObserveInt64(postgresConnectionsIdle, int64(stats.IdleConns()), pm.attrs)
				observer.ObserveInt64(postgresMaxConfiguredConns, int64(stats.MaxConns()), pm.attrs)
				return true
			})
			return nil
		},
		postgresConnectionsOpen,
		postgresConnectionsInUse,
		postgresConnectionsIdle,
		postgresMaxConfiguredConns,
	)
	return err
}

func (p *poolMetrics) attach(pool *pgxpool.Pool) {
	if p == nil || pool == nil {
		return
	}
	p.pool.Store(pool)
	stats := pool.Stat()
	p.mu.Lock()
	p.lastEmptyAcquireCount = stats.EmptyAcquireCount()
	p.lastEmptyAcquireWait = stats.EmptyAcquireWaitTime()
	p.mu.Unlock()
	postgresPools.Store(p, struct{}{})
}

func (p *poolMetrics) unregister() {
	if p == nil {
		return
	}
	postgresPools.Delete(p)
	p.pool.Store(nil)
}

func (p *poolMetrics) recordWait(ctx context.Context) {
	if p == nil || postgresConnectionWaitDuration == nil {
		return
	}
	pool := p.pool.Load()
	if pool == nil {
		return
	}
	stats := pool.Stat()
	p.mu.Lock()
	defer p.mu.Unlock()
	deltaCount := stats.EmptyAcquireCount() - p.lastEmptyAcquireCount
	deltaWait := stats.EmptyAcquireWaitTime() - p.lastEmptyAcquireWait
	p.lastEmptyAcquireCount = stats.EmptyAcquireCount()
	p.lastEmptyAcquireWait = stats.EmptyAcquireWaitTime()
	if deltaCount <= 0 || deltaWait <= 0 {
		return
	}
	avg := deltaWait.Seconds() / float64(deltaCount)
	samples := min(deltaCount, maxWaitSamplesPerObservation)
	for range samples {
		postgresConnectionWaitDuration.Record(ctx, avg, p.attrs)
	}
}

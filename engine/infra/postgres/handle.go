package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/intrence/catalog/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultHealthCheckPeriod = 30 * time.Second
	defaultConnectTimeout    = 5 * time.Second
	defaultPingTimeout       = 3 * time.Second
	applicationName          = "catalog"
)

// DB is the statement surface shared by pooled connections, admin
// connections and transactions.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Handle is the source a tier hands out. Acquire blocks until a connection is
// available or ctx is done; the returned release func must be called once.
type Handle interface {
	Name() string
	Tier() Tier
	Acquire(ctx context.Context) (DB, func(), error)
	Close(ctx context.Context) error
}

// sourceID names one source. Name is unique within its manager; Manager is
// unique within the process.
type sourceID struct {
	Manager string
	Name    string
	Tier    Tier
}

// connector opens the underlying sources. Tests swap it for a fake.
type connector interface {
	OpenPool(ctx context.Context, id sourceID, cfg *pgxpool.Config) (Handle, error)
	OpenAdmin(ctx context.Context, id sourceID, cfg *pgx.ConnConfig) (Handle, error)
}

type pooledHandle struct {
	name      string
	tier      Tier
	pool      *pgxpool.Pool
	metrics   *poolMetrics
	closeOnce sync.Once
}

func (h *pooledHandle) Name() string { return h.name }
func (h *pooledHandle) Tier() Tier   { return h.tier }

func (h *pooledHandle) Acquire(ctx context.Context) (DB, func(), error) {
	conn, err := h.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	return conn, conn.Release, nil
}

// Ping verifies a pooled connection is alive.
func (h *pooledHandle) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}

// Stat exposes pool counters.
func (h *pooledHandle) Stat() *pgxpool.Stat {
	return h.pool.Stat()
}

func (h *pooledHandle) Close(ctx context.Context) error {
	h.closeOnce.Do(func() {
		h.metrics.unregister()
		h.pool.Close()
		logger.FromContext(ctx).Info("Postgres pool closed", "pool", h.name, "tier", h.tier)
	})
	return nil
}

// adminHandle opens a fresh connection per Acquire and closes it on release.
type adminHandle struct {
	name string
	cfg  *pgx.ConnConfig
}

func (h *adminHandle) Name() string { return h.name }
func (h *adminHandle) Tier() Tier   { return TierAdmin }

func (h *adminHandle) Acquire(ctx context.Context) (DB, func(), error) {
	conn, err := pgx.ConnectConfig(ctx, h.cfg.Copy())
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultPingTimeout)
		defer cancel()
		if err := conn.Close(closeCtx); err != nil {
			logger.FromContext(ctx).Warn("Failed to close admin connection", "source", h.name, "error", err)
		}
	}
	return conn, release, nil
}

func (h *adminHandle) Close(context.Context) error { return nil }

type pgxConnector struct {
	pingTimeout time.Duration
}

func (c pgxConnector) OpenPool(ctx context.Context, id sourceID, cfg *pgxpool.Config) (Handle, error) {
	metricsTracker, mErr := configurePoolMetrics(id, cfg)
	if mErr != nil {
		logger.FromContext(ctx).With("err", mErr).Warn("Postgres metrics not initialized; continuing without metrics")
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}
	if err := verifyPoolConnection(ctx, pool, metricsTracker, c.pingTimeout); err != nil {
		return nil, err
	}
	metricsTracker.attach(pool)
	logPoolInitialization(ctx, id, cfg)
	return &pooledHandle{name: id.Name, tier: id.Tier, pool: pool, metrics: metricsTracker}, nil
}

// OpenAdmin proves the admin login works once, then hands out per-use
// connections.
func (c pgxConnector) OpenAdmin(ctx context.Context, id sourceID, cfg *pgx.ConnConfig) (Handle, error) {
	pingCtx, cancel := context.WithTimeout(ctx, orDefaultDuration(c.pingTimeout, defaultPingTimeout))
	defer cancel()
	conn, err := pgx.ConnectConfig(pingCtx, cfg.Copy())
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := conn.Close(pingCtx); err != nil {
		logger.FromContext(ctx).Warn("Failed to close admin check connection", "source", id.Name, "error", err)
	}
	logger.FromContext(ctx).With(
		"manager", id.Manager,
		"source", id.Name,
		"tier", TierAdmin,
		"host", cfg.Host,
		"port", cfg.Port,
		"db_name", cfg.Database,
	).Info("Admin source initialized")
	return &adminHandle{name: id.Name, cfg: cfg}, nil
}

// verifyPoolConnection pings the pool and cleans up on failure.
func verifyPoolConnection(
	ctx context.Context,
	pool *pgxpool.Pool,
	metricsTracker *poolMetrics,
	pingTimeout time.Duration,
) error {
	pingCtx, cancel := context.WithTimeout(ctx, orDefaultDuration(pingTimeout, defaultPingTimeout))
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		metricsTracker.unregister()
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func logPoolInitialization(ctx context.Context, id sourceID, cfg *pgxpool.Config) {
	logger.FromContext(ctx).With(
		"manager", id.Manager,
		"pool", id.Name,
		"tier", id.Tier,
		"host", cfg.ConnConfig.Host,
		"port", cfg.ConnConfig.Port,
		"db_name", cfg.ConnConfig.Database,
		"max_conns", cfg.MaxConns,
	).Info("Postgres pool initialized")
}

func orDefaultDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

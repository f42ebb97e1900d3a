package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/intrence/catalog/engine/infra/lifecycle"
	"github.com/intrence/catalog/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type slotKey struct {
	d    *Descriptor
	tier Tier
}

type slotValue struct{ h Handle }

// slot memoizes one (descriptor, tier) source. Its mutex only serializes
// construction of that one source.
type slot struct {
	mu    sync.Mutex
	value atomic.Pointer[slotValue]
}

// managerSeq numbers managers process-wide so sources of different managers
// never share a metric identity.
var managerSeq atomic.Uint64

// Manager lazily builds and caches connection sources per descriptor
// instance and tier.
type Manager struct {
	mu       sync.Mutex
	slots    map[slotKey]*slot
	order    []Handle
	closed   bool
	counters [tierCount]atomic.Uint64
	instance string

	connector      connector
	apply          propertyApplier
	connectTimeout time.Duration
}

type Option func(*Manager)

// WithPingTimeout bounds the first-connect verification of a new source.
func WithPingTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.connector = pgxConnector{pingTimeout: d}
	}
}

// WithInstanceID overrides the generated manager id reported on every
// source the manager builds.
func WithInstanceID(id string) Option {
	return func(m *Manager) {
		if id != "" {
			m.instance = id
		}
	}
}

// WithConnectTimeout bounds each dial to the proxy.
func WithConnectTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.connectTimeout = d
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		slots:          make(map[slotKey]*slot),
		connector:      pgxConnector{pingTimeout: defaultPingTimeout},
		apply:          applyConnectionProperties,
		connectTimeout: defaultConnectTimeout,
		instance:       "manager-" + strconv.FormatUint(managerSeq.Add(1), 10),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Pool returns the source for tier on d, building it on first use. Repeated
// calls with the same descriptor pointer return the same Handle. A failed
// build is not cached.
func (m *Manager) Pool(ctx context.Context, d *Descriptor, tier Tier) (Handle, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: descriptor is nil", ErrInvalidDescriptor)
	}
	if !tier.valid() {
		return nil, fmt.Errorf("postgres: unknown tier %d", int(tier))
	}
	cred, ok := d.Credential(tier.Role())
	if !ok {
		return nil, &MissingCredentialError{Tier: tier, Role: tier.Role()}
	}
	s, err := m.slotFor(d, tier)
	if err != nil {
		return nil, err
	}
	if v := s.value.Load(); v != nil {
		return v.h, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v := s.value.Load(); v != nil {
		return v.h, nil
	}
	h, err := m.build(ctx, d, tier, cred)
	if err != nil {
		return nil, err
	}
	if err := m.track(h); err != nil {
		if cerr := h.Close(ctx); cerr != nil {
			logger.FromContext(ctx).Error("Failed to close source built during shutdown", "pool", h.Name(), "error", cerr)
		}
		return nil, err
	}
	s.value.Store(&slotValue{h: h})
	return h, nil
}

func (m *Manager) slotFor(d *Descriptor, tier Tier) (*slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrManagerClosed
	}
	key := slotKey{d: d, tier: tier}
	s, ok := m.slots[key]
	if !ok {
		s = &slot{}
		m.slots[key] = s
	}
	return s, nil
}

func (m *Manager) track(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrManagerClosed
	}
	m.order = append(m.order, h)
	return nil
}

// InstanceID identifies the manager in logs and metrics.
func (m *Manager) InstanceID() string { return m.instance }

func (m *Manager) nextName(tier Tier) string {
	n := m.counters[tier].Add(1) - 1
	return tier.poolPrefix() + strconv.FormatUint(n, 10)
}

func (m *Manager) sourceID(tier Tier) sourceID {
	return sourceID{Manager: m.instance, Name: m.nextName(tier), Tier: tier}
}

func (m *Manager) build(ctx context.Context, d *Descriptor, tier Tier, cred Credential) (Handle, error) {
	id := m.sourceID(tier)
	dsn := baseDSN(d, tier, cred)
	if d.hasConnectionOptions() {
		var err error
		if dsn, err = m.apply(dsn, d.sslMode, d.properties); err != nil {
			return nil, err
		}
	}
	var (
		h   Handle
		err error
	)
	if tier.Pooled() {
		h, err = m.openPool(ctx, id, d, dsn)
	} else {
		h, err = m.openAdmin(ctx, id, dsn)
	}
	if err != nil {
		var propErr *InvalidConnectionPropertyError
		if errors.As(err, &propErr) {
			return nil, err
		}
		return nil, &PoolConstructionError{Pool: id.Name, Err: err}
	}
	return h, nil
}

func (m *Manager) openPool(ctx context.Context, id sourceID, d *Descriptor, dsn string) (Handle, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	configureConn(poolCfg.ConnConfig, m.connectTimeout)
	poolCfg.MaxConns = int32(min(d.PoolSize(id.Tier), 1<<31-1))
	poolCfg.MinConns = 0
	poolCfg.HealthCheckPeriod = defaultHealthCheckPeriod
	return m.connector.OpenPool(ctx, id, poolCfg)
}

func (m *Manager) openAdmin(ctx context.Context, id sourceID, dsn string) (Handle, error) {
	connCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	configureConn(connCfg, m.connectTimeout)
	return m.connector.OpenAdmin(ctx, id, connCfg)
}

// configureConn turns off server-side prepared statements; a
// transaction-mode proxy cannot route them.
func configureConn(cfg *pgx.ConnConfig, connectTimeout time.Duration) {
	cfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	cfg.StatementCacheCapacity = 0
	cfg.DescriptionCacheCapacity = 0
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = orDefaultDuration(connectTimeout, defaultConnectTimeout)
	}
	if _, ok := cfg.RuntimeParams["application_name"]; !ok {
		cfg.RuntimeParams["application_name"] = applicationName
	}
}

// Close shuts every constructed source once, in construction order. Close
// errors are logged and dropped.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	handles := m.order
	m.order = nil
	m.slots = make(map[slotKey]*slot)
	m.mu.Unlock()
	log := logger.FromContext(ctx)
	for _, h := range handles {
		if err := h.Close(ctx); err != nil {
			log.Error("Failed to close postgres source", "pool", h.Name(), "tier", h.Tier(), "error", err)
		}
	}
	return nil
}

// RegisterShutdown adds Close to hooks. It reports false when hooks already
// ran.
func (m *Manager) RegisterShutdown(hooks *lifecycle.Hooks) bool {
	return hooks.Register("postgres-pools", m.Close)
}
